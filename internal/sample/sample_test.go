// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package sample

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewChooser(t *testing.T) {
	t.Run("rejects empty weights", func(t *testing.T) {
		if _, err := NewChooser(nil); !errors.Is(err, ErrNoWeight) {
			t.Fatalf("expected ErrNoWeight, got %v", err)
		}
	})

	t.Run("rejects all-zero weights", func(t *testing.T) {
		if _, err := NewChooser([]float64{0, 0, 0}); !errors.Is(err, ErrNoWeight) {
			t.Fatalf("expected ErrNoWeight, got %v", err)
		}
	})

	t.Run("treats negative weights as zero", func(t *testing.T) {
		c, err := NewChooser([]float64{-1, 0, 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			if got := c.Pick(rng); got != 2 {
				t.Fatalf("picked index %d with zero weight", got)
			}
		}
	})
}

func TestChooserDistribution(t *testing.T) {
	c, err := NewChooser([]float64{1, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	counts := [2]int{}
	const draws = 100000
	for i := 0; i < draws; i++ {
		counts[c.Pick(rng)]++
	}

	got := float64(counts[1]) / draws
	if got < 0.73 || got > 0.77 {
		t.Fatalf("index 1 frequency %.4f, want ~0.75", got)
	}
}

func TestWeightedIndex(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	idx, err := WeightedIndex(rng, []float64{0, 5, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 {
		t.Fatalf("got index %d, want 1", idx)
	}

	if _, err := WeightedIndex(rng, []float64{}); !errors.Is(err, ErrNoWeight) {
		t.Fatalf("expected ErrNoWeight, got %v", err)
	}
}
