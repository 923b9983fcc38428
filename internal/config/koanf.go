// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.toml",
	"config.yaml",
	"config.yml",
	"/etc/loggen/config.toml",
	"/etc/loggen/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			TargetMonths:   nil,
			GenerationMode: ModeBatch,
			TargetMPS:      0,
			Timezone:       "Asia/Seoul",
		},
		Generator: GeneratorConfig{
			DAU:               1000,
			LogsPerUserPerDay: 10,
			NewUserRatio:      0.05,
			DayOfWeekRatio: DayOfWeekRatio{
				Monday: 0.12, Tuesday: 0.12, Wednesday: 0.13, Thursday: 0.12,
				Friday: 0.16, Saturday: 0.18, Sunday: 0.17,
			},
			HourDistribution: map[string]float64{
				"0-6":   0.05,
				"6-9":   0.10,
				"9-12":  0.15,
				"12-14": 0.10,
				"14-18": 0.10,
				"18-22": 0.35,
				"22-24": 0.15,
			},
		},
		Activity: ActivityConfig{
			HighRatio:   0.2,
			MediumRatio: 0.5,
			LowRatio:    0.3,
		},
		WatchTime: WatchTimeConfig{
			HighAvgMinutes:   45,
			HighNoise:        10,
			MediumAvgMinutes: 25,
			MediumNoise:      8,
			LowAvgMinutes:    10,
			LowNoise:         5,
		},
		Contents: ContentsConfig{
			PlatformRatio: PlatformRatio{
				Android: 0.35, IOS: 0.30, PC: 0.25, TV: 0.10,
			},
			WatchPatternProbability: WatchPatternProb{
				PlayStop:                 0.40,
				PlayPauseStop:            0.25,
				PlayPauseResumeStop:      0.25,
				PlayPauseResumePauseStop: 0.10,
			},
			ReviewDetailRatio:      0.70,
			RegisterOutDetailRatio: 0.50,
			SubscriptionTypeRatio: SubscriptionTypeRatio{
				Standard: 0.40, Premium: 0.30, Family: 0.20, MobileOnly: 0.10,
			},
			SearchTerms: []string{
				"dark harbor", "the last signal", "spring waltz",
				"night shift", "paper crown",
			},
			ReviewSamples: []string{
				"Loved it, watched it twice.",
				"Decent but the pacing drags in the middle.",
				"Not my thing.",
			},
			RegisterOutReasons: []string{
				"Not enough content I want to watch.",
				"Too expensive for what it offers.",
			},
			InquirySamples: []string{
				"Playback keeps buffering on my TV.",
				"I was charged twice this month.",
				"How do I change my plan?",
			},
		},
		Transitions: TransitionsConfig{
			MainPage: TransitionTable{
				Subscribed: map[string]float64{
					"access-out":        0.15,
					"contents-click":    0.45,
					"subscription-stop": 0.02,
					"register-out":      0.01,
					"search-search":     0.27,
					"support-inquiry":   0.10,
				},
				NotSubscribed: map[string]float64{
					"access-out":         0.25,
					"contents-click":     0.25,
					"subscription-start": 0.10,
					"register-out":       0.02,
					"search-search":      0.28,
					"support-inquiry":    0.10,
				},
			},
			ContentPage: TransitionTable{
				Subscribed: map[string]float64{
					"contents-start":    0.60,
					"contents-like_on":  0.15,
					"contents-like_off": 0.05,
					"review-review":     0.20,
				},
				NotSubscribed: map[string]float64{
					"contents-start":    0.20,
					"contents-like_on":  0.30,
					"contents-like_off": 0.10,
					"review-review":     0.40,
				},
			},
		},
		Database: DatabaseConfig{
			Path:         "/data/loggen.duckdb",
			SeedMockData: false,
			SeedUsers:    2000,
			SeedContents: 300,
		},
		Sink: SinkConfig{
			Type:      SinkFile,
			OutputDir: "./output",
			Topic:     "user-logs",
			Partition: 0,
			S3Prefix:  "raw-userlog",
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			Subject:        "userlog.events",
			EmbeddedServer: false,
			StoreDir:       "/data/nats/jetstream",
			MaxReconnects:  10,
			ReconnectWait:  2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9190",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional config file (TOML or YAML, by extension)
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parserFor picks a koanf parser from the file extension.
func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Parser()
	}
	return yaml.Parser()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as strings from environment variables.
var sliceConfigPaths = []string{
	"global.target_months",
	"contents.search_terms",
	"contents.review_samples",
	"contents.register_out_reasons",
	"contents.inquiry_samples",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so stray environment does not pollute
// the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"generation_mode": "global.generation_mode",
		"target_months":   "global.target_months",
		"target_mps":      "global.target_mps",
		"timezone":        "global.timezone",

		"dau":                   "generator.dau",
		"logs_per_user_per_day": "generator.logs_per_user_per_day",
		"new_user_ratio":        "generator.new_user_ratio",

		"duckdb_path":    "database.path",
		"seed_mock_data": "database.seed_mock_data",
		"seed_users":     "database.seed_users",
		"seed_contents":  "database.seed_contents",

		"sink_type":         "sink.sink_type",
		"output_dir":        "sink.output_dir",
		"topic":             "sink.topic",
		"partition":         "sink.partition",
		"offset_store_path": "sink.offset_store_path",
		"s3_bucket":         "sink.s3_bucket",
		"s3_prefix":         "sink.s3_prefix",
		"s3_region":         "sink.s3_region",
		"kinesis_stream":    "sink.kinesis_stream",
		"kinesis_region":    "sink.kinesis_region",
		"aws_profile":       "sink.aws_profile",

		"nats_url":            "nats.url",
		"nats_subject":        "nats.subject",
		"nats_embedded":       "nats.embedded_server",
		"nats_store_dir":      "nats.store_dir",
		"nats_max_reconnects": "nats.max_reconnects",
		"nats_reconnect_wait": "nats.reconnect_wait",

		"metrics_enabled": "metrics.enabled",
		"metrics_addr":    "metrics.addr",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
