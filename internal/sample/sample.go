// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package sample provides weighted random selection shared by the
// temporal sampler, the user pool, and the behavior engine.
package sample

import (
	"errors"
	"math/rand"
)

// ErrNoWeight is returned when all candidate weights are zero or the
// candidate set is empty.
var ErrNoWeight = errors.New("total weight must be positive")

// Chooser selects indexes proportionally to a fixed weight slice using
// cumulative-weight selection in declared order. It is not safe for
// concurrent use.
type Chooser struct {
	cumulative []float64
	total      float64
}

// NewChooser builds a chooser over the given weights. Negative weights are
// treated as zero. Returns ErrNoWeight when the total weight is zero.
func NewChooser(weights []float64) (*Chooser, error) {
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w > 0 {
			total += w
		}
		cumulative[i] = total
	}
	if total <= 0 {
		return nil, ErrNoWeight
	}
	return &Chooser{cumulative: cumulative, total: total}, nil
}

// Pick returns an index drawn proportionally to the weights.
func (c *Chooser) Pick(rng *rand.Rand) int {
	target := rng.Float64() * c.total
	// Binary search over the cumulative weights.
	lo, hi := 0, len(c.cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if c.cumulative[mid] <= target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// WeightedIndex draws a single index from weights without building a
// reusable chooser. Returns ErrNoWeight when the total weight is zero.
func WeightedIndex(rng *rand.Rand, weights []float64) (int, error) {
	c, err := NewChooser(weights)
	if err != nil {
		return 0, err
	}
	return c.Pick(rng), nil
}
