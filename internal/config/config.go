// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package config loads and validates the generator configuration.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, a config file (TOML or YAML),
// and built-in defaults. The loaded Config is immutable at run time and
// threaded through constructors; there are no process-wide singletons.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Generation modes.
const (
	ModeBatch     = "batch"
	ModeStreaming = "streaming"
)

// Sink types.
const (
	SinkFile    = "file"
	SinkS3      = "s3"
	SinkKinesis = "kinesis"
	SinkNATS    = "nats"
)

// Error is a fatal configuration error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Config is the root configuration record.
type Config struct {
	Global      GlobalConfig      `koanf:"global"`
	Generator   GeneratorConfig   `koanf:"generator"`
	Activity    ActivityConfig    `koanf:"user_activity"`
	WatchTime   WatchTimeConfig   `koanf:"watch_time"`
	Contents    ContentsConfig    `koanf:"contents"`
	Transitions TransitionsConfig `koanf:"user_event_transitions"`
	Database    DatabaseConfig    `koanf:"database"`
	Sink        SinkConfig        `koanf:"sink"`
	NATS        NATSConfig        `koanf:"nats"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// GlobalConfig holds run-wide options.
type GlobalConfig struct {
	// TargetMonths lists "YYYY-MM" months to generate in batch mode.
	TargetMonths []string `koanf:"target_months"`
	// GenerationMode is batch or streaming.
	GenerationMode string `koanf:"generation_mode" validate:"oneof=batch streaming"`
	// TargetMPS rate-limits emission; 0 means unthrottled.
	TargetMPS float64 `koanf:"target_mps" validate:"gte=0"`
	// Timezone for bucketing and timestamps, e.g. "Asia/Seoul".
	Timezone string `koanf:"timezone" validate:"required"`
}

// GeneratorConfig controls the temporal sampler and user pool.
type GeneratorConfig struct {
	DAU               int     `koanf:"dau" validate:"gt=0"`
	LogsPerUserPerDay int     `koanf:"logs_per_user_per_day" validate:"gt=0"`
	NewUserRatio      float64 `koanf:"new_user_ratio" validate:"gte=0,lte=1"`

	// DayOfWeekRatio weights Monday through Sunday.
	DayOfWeekRatio DayOfWeekRatio `koanf:"day_of_week_ratio"`

	// HourDistribution maps half-open "start-end" hour ranges to weights.
	// Each range's weight is split evenly across its hours.
	HourDistribution map[string]float64 `koanf:"hour_distribution"`
}

// DayOfWeekRatio holds the seven weekday weights.
type DayOfWeekRatio struct {
	Monday    float64 `koanf:"monday"`
	Tuesday   float64 `koanf:"tuesday"`
	Wednesday float64 `koanf:"wednesday"`
	Thursday  float64 `koanf:"thursday"`
	Friday    float64 `koanf:"friday"`
	Saturday  float64 `koanf:"saturday"`
	Sunday    float64 `koanf:"sunday"`
}

// Weights returns the weights ordered Monday..Sunday.
func (d DayOfWeekRatio) Weights() [7]float64 {
	return [7]float64{
		d.Monday, d.Tuesday, d.Wednesday, d.Thursday,
		d.Friday, d.Saturday, d.Sunday,
	}
}

// ActivityConfig assigns activity levels at daily pool reload.
type ActivityConfig struct {
	HighRatio   float64 `koanf:"high_ratio" validate:"gte=0"`
	MediumRatio float64 `koanf:"medium_ratio" validate:"gte=0"`
	LowRatio    float64 `koanf:"low_ratio" validate:"gte=0"`
}

// WatchTimeConfig controls playback durations per activity level.
// Noise is a uniform integer jitter applied as ±noise minutes.
type WatchTimeConfig struct {
	HighAvgMinutes   int `koanf:"high_avg_minutes" validate:"gt=0"`
	HighNoise        int `koanf:"high_noise" validate:"gte=0"`
	MediumAvgMinutes int `koanf:"medium_avg_minutes" validate:"gt=0"`
	MediumNoise      int `koanf:"medium_noise" validate:"gte=0"`
	LowAvgMinutes    int `koanf:"low_avg_minutes" validate:"gt=0"`
	LowNoise         int `koanf:"low_noise" validate:"gte=0"`
}

// ContentsConfig controls detail payload generation.
type ContentsConfig struct {
	PlatformRatio           PlatformRatio    `koanf:"platform_ratio"`
	WatchPatternProbability WatchPatternProb `koanf:"watch_pattern_probability"`

	ReviewDetailRatio      float64 `koanf:"review_detail_ratio" validate:"gte=0,lte=1"`
	RegisterOutDetailRatio float64 `koanf:"register_out_detail_ratio" validate:"gte=0,lte=1"`

	SubscriptionTypeRatio SubscriptionTypeRatio `koanf:"subscription_type_ratio"`

	SearchTerms        []string `koanf:"search_terms"`
	ReviewSamples      []string `koanf:"review_samples"`
	RegisterOutReasons []string `koanf:"register_out_reasons"`
	InquirySamples     []string `koanf:"inquiry_samples"`
}

// PlatformRatio weights the client platforms.
type PlatformRatio struct {
	Android float64 `koanf:"android"`
	IOS     float64 `koanf:"ios"`
	PC      float64 `koanf:"pc"`
	TV      float64 `koanf:"tv"`
}

// Weights returns the weights in platform code order (android, ios, pc, tv).
func (p PlatformRatio) Weights() [4]float64 {
	return [4]float64{p.Android, p.IOS, p.PC, p.TV}
}

// WatchPatternProb weights the four playback patterns.
type WatchPatternProb struct {
	PlayStop                 float64 `koanf:"play_stop"`
	PlayPauseStop            float64 `koanf:"play_pause_stop"`
	PlayPauseResumeStop      float64 `koanf:"play_pause_resume_stop"`
	PlayPauseResumePauseStop float64 `koanf:"play_pause_resume_pause_stop"`
}

// Weights returns the pattern weights in canonical P1..P4 order.
func (w WatchPatternProb) Weights() [4]float64 {
	return [4]float64{
		w.PlayStop, w.PlayPauseStop,
		w.PlayPauseResumeStop, w.PlayPauseResumePauseStop,
	}
}

// SubscriptionTypeRatio weights the plan families.
type SubscriptionTypeRatio struct {
	Standard   float64 `koanf:"standard"`
	Premium    float64 `koanf:"premium"`
	Family     float64 `koanf:"family"`
	MobileOnly float64 `koanf:"mobile_only"`
}

// Weights returns the weights in plan family order.
func (s SubscriptionTypeRatio) Weights() [4]float64 {
	return [4]float64{s.Standard, s.Premium, s.Family, s.MobileOnly}
}

// TransitionsConfig is the state-conditional event distribution,
// keyed by state and subscription flag.
type TransitionsConfig struct {
	MainPage    TransitionTable `koanf:"main_page"`
	ContentPage TransitionTable `koanf:"content_page"`
}

// TransitionTable maps event-kind names (e.g. "contents-click") to weights
// for subscribed and not-subscribed users. Weights need not sum to 1.
type TransitionTable struct {
	Subscribed    map[string]float64 `koanf:"subscribed"`
	NotSubscribed map[string]float64 `koanf:"not_subscribed"`
}

// For returns the distribution for the given subscription flag.
func (t TransitionTable) For(subscribed bool) map[string]float64 {
	if subscribed {
		return t.Subscribed
	}
	return t.NotSubscribed
}

// DatabaseConfig wires the DuckDB-backed catalog store.
type DatabaseConfig struct {
	// Path of the DuckDB database file; empty means in-memory.
	Path string `koanf:"path"`
	// SeedMockData populates an empty catalog with mock rows at startup.
	SeedMockData bool `koanf:"seed_mock_data"`
	SeedUsers    int  `koanf:"seed_users"`
	SeedContents int  `koanf:"seed_contents"`
}

// SinkConfig selects and wires the output back-end.
type SinkConfig struct {
	Type      string `koanf:"sink_type" validate:"oneof=file s3 kinesis nats"`
	OutputDir string `koanf:"output_dir"`
	Topic     string `koanf:"topic"`
	Partition int    `koanf:"partition" validate:"gte=0"`

	// OffsetStorePath enables the Badger-backed offset checkpoint store
	// for the file and s3 back-ends. Empty disables persistence and
	// per-hour offsets start at 0 each run.
	OffsetStorePath string `koanf:"offset_store_path"`

	S3Bucket string `koanf:"s3_bucket"`
	S3Prefix string `koanf:"s3_prefix"`
	S3Region string `koanf:"s3_region"`

	KinesisStream string `koanf:"kinesis_stream"`
	KinesisRegion string `koanf:"kinesis_region"`

	AWSProfile string `koanf:"aws_profile"`
}

// NATSConfig wires the NATS JetStream streaming back-end.
type NATSConfig struct {
	URL            string        `koanf:"url"`
	Subject        string        `koanf:"subject"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

// MetricsConfig wires the ops HTTP listener.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LoggingConfig mirrors logging.Config for file/env loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
var hourRangePattern = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})$`)

// Validate performs cross-field checks beyond struct tags. It returns a
// *Error describing the first violation found.
func (c *Config) Validate() error {
	if c.Global.GenerationMode != ModeBatch && c.Global.GenerationMode != ModeStreaming {
		return &Error{"global.generation_mode", "must be batch or streaming"}
	}
	if c.Global.GenerationMode == ModeBatch && len(c.Global.TargetMonths) == 0 {
		return &Error{"global.target_months", "at least one YYYY-MM month required in batch mode"}
	}
	for _, m := range c.Global.TargetMonths {
		if !monthPattern.MatchString(m) {
			return &Error{"global.target_months", fmt.Sprintf("invalid month %q, want YYYY-MM", m)}
		}
	}
	if _, err := time.LoadLocation(c.Global.Timezone); err != nil {
		return &Error{"global.timezone", fmt.Sprintf("unknown timezone %q", c.Global.Timezone)}
	}
	if c.Generator.DAU <= 0 {
		return &Error{"generator.dau", "must be positive"}
	}
	if c.Generator.LogsPerUserPerDay <= 0 {
		return &Error{"generator.logs_per_user_per_day", "must be positive"}
	}
	if c.Generator.NewUserRatio < 0 || c.Generator.NewUserRatio > 1 {
		return &Error{"generator.new_user_ratio", "must be in [0,1]"}
	}
	var covered [24]bool
	for r, w := range c.Generator.HourDistribution {
		m := hourRangePattern.FindStringSubmatch(r)
		if m == nil {
			return &Error{"generator.hour_distribution", fmt.Sprintf("invalid range %q, want \"start-end\"", r)}
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start >= end || end > 24 {
			return &Error{"generator.hour_distribution", fmt.Sprintf("invalid range %q: start must be < end <= 24", r)}
		}
		if w < 0 {
			return &Error{"generator.hour_distribution", fmt.Sprintf("negative weight for range %q", r)}
		}
		for h := start; h < end; h++ {
			if covered[h] {
				return &Error{"generator.hour_distribution", fmt.Sprintf("range %q overlaps hour %d", r, h)}
			}
			covered[h] = true
		}
	}
	if total := c.Activity.HighRatio + c.Activity.MediumRatio + c.Activity.LowRatio; total <= 0 {
		return &Error{"user_activity", "activity ratios must sum to > 0"}
	}
	if err := validateTable("user_event_transitions.main_page", c.Transitions.MainPage); err != nil {
		return err
	}
	if err := validateTable("user_event_transitions.content_page", c.Transitions.ContentPage); err != nil {
		return err
	}
	switch c.Sink.Type {
	case SinkFile:
		if c.Sink.OutputDir == "" {
			return &Error{"sink.output_dir", "required for file sink"}
		}
	case SinkS3:
		if c.Sink.S3Bucket == "" {
			return &Error{"sink.s3_bucket", "required for s3 sink"}
		}
	case SinkKinesis:
		if c.Sink.KinesisStream == "" {
			return &Error{"sink.kinesis_stream", "required for kinesis sink"}
		}
	case SinkNATS:
		if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
			return &Error{"nats.url", "required for nats sink without embedded server"}
		}
	default:
		return &Error{"sink.sink_type", fmt.Sprintf("unknown sink type %q", c.Sink.Type)}
	}
	if c.Sink.Topic == "" {
		return &Error{"sink.topic", "required"}
	}
	return nil
}

func validateTable(field string, table TransitionTable) error {
	for _, dist := range []map[string]float64{table.Subscribed, table.NotSubscribed} {
		total := 0.0
		for kind, w := range dist {
			if w < 0 {
				return &Error{field, fmt.Sprintf("negative weight for %q", kind)}
			}
			total += w
		}
		if total <= 0 {
			return &Error{field, "weights must sum to > 0"}
		}
	}
	return nil
}

// Location returns the configured timezone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Global.Timezone)
	if err != nil {
		// Validate rejects unknown zones before this is reachable.
		panic(err)
	}
	return loc
}

// HourWeights expands the hour distribution into a 24-element weight
// array, splitting each range's weight evenly across its hours. An empty
// distribution yields a uniform spread.
func (c *GeneratorConfig) HourWeights() [24]float64 {
	var weights [24]float64
	if len(c.HourDistribution) == 0 {
		for h := range weights {
			weights[h] = 1.0 / 24
		}
		return weights
	}
	for r, w := range c.HourDistribution {
		parts := strings.SplitN(r, "-", 2)
		start, _ := strconv.Atoi(parts[0])
		end, _ := strconv.Atoi(parts[1])
		perHour := w / float64(end-start)
		for h := start; h < end && h < 24; h++ {
			weights[h] += perHour
		}
	}
	return weights
}
