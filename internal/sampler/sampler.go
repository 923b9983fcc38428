// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package sampler produces the weighted timestamp stream driving batch
// generation, and the wall-clock source for streaming mode.
package sampler

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/sample"
)

// Sampler draws month timestamps weighted by weekday and hour-of-day.
type Sampler struct {
	loc         *time.Location
	dayWeights  [7]float64
	hourWeights [24]float64
	rng         *rand.Rand
}

// New builds a sampler from the generator configuration.
func New(cfg *config.Config, rng *rand.Rand) *Sampler {
	return &Sampler{
		loc:         cfg.Location(),
		dayWeights:  cfg.Generator.DayOfWeekRatio.Weights(),
		hourWeights: cfg.Generator.HourWeights(),
		rng:         rng,
	}
}

// Now returns the current instant in the configured timezone.
func (s *Sampler) Now() time.Time {
	return time.Now().In(s.loc)
}

// ParseMonth parses a "YYYY-MM" month string.
func ParseMonth(month string) (year int, mon time.Month, err error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0, 0, &config.Error{
			Field:   "global.target_months",
			Message: fmt.Sprintf("invalid month %q: want YYYY-MM", month),
		}
	}
	return t.Year(), t.Month(), nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, mon time.Month) int {
	return time.Date(year, mon+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// TotalLogs computes the monthly log count: dau × perUserPerDay × days.
func TotalLogs(month string, dau, perUserPerDay int) (int, error) {
	year, mon, err := ParseMonth(month)
	if err != nil {
		return 0, err
	}
	return dau * perUserPerDay * DaysInMonth(year, mon), nil
}

// Sequence is a finite, sorted timestamp stream with a known length.
type Sequence struct {
	timestamps []time.Time
	next       int
}

// Len returns the total number of timestamps in the sequence.
func (q *Sequence) Len() int { return len(q.timestamps) }

// Remaining returns how many timestamps have not been consumed yet.
func (q *Sequence) Remaining() int { return len(q.timestamps) - q.next }

// Next returns the next timestamp in ascending order, or ok=false when
// the sequence is exhausted.
func (q *Sequence) Next() (time.Time, bool) {
	if q.next >= len(q.timestamps) {
		return time.Time{}, false
	}
	ts := q.timestamps[q.next]
	q.next++
	return ts, true
}

// MonthTimestamps draws total timestamps within the given month,
// distributed over (day, hour) cells proportionally to
// day_of_week_ratio[weekday] × hour weight, with uniform minutes and
// seconds, sorted ascending.
//
// A zero combined weight across all cells is a configuration error.
func (s *Sampler) MonthTimestamps(month string, total int) (*Sequence, error) {
	year, mon, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}
	days := DaysInMonth(year, mon)

	type cell struct {
		day  int
		hour int
	}
	cells := make([]cell, 0, days*24)
	weights := make([]float64, 0, days*24)

	for day := 1; day <= days; day++ {
		date := time.Date(year, mon, day, 0, 0, 0, 0, s.loc)
		// time.Weekday is Sunday-based; config order is Monday..Sunday.
		dayWeight := s.dayWeights[(int(date.Weekday())+6)%7]
		for hour := 0; hour < 24; hour++ {
			combined := dayWeight * s.hourWeights[hour]
			if combined > 0 {
				cells = append(cells, cell{day: day, hour: hour})
				weights = append(weights, combined)
			}
		}
	}

	chooser, err := sample.NewChooser(weights)
	if err != nil {
		return nil, &config.Error{
			Field:   "generator",
			Message: fmt.Sprintf("no reachable (day, hour) cell in %s: total weight is zero", month),
		}
	}

	timestamps := make([]time.Time, total)
	for i := 0; i < total; i++ {
		c := cells[chooser.Pick(s.rng)]
		timestamps[i] = time.Date(
			year, mon, c.day, c.hour,
			s.rng.Intn(60), s.rng.Intn(60), 0, s.loc,
		)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	return &Sequence{timestamps: timestamps}, nil
}
