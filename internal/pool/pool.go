// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package pool maintains the daily-active user population. It owns all
// runtime user state; the pipeline borrows one user per iteration.
package pool

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/ottlab/loggen/internal/catalog"
	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/metrics"
	"github.com/ottlab/loggen/internal/models"
	"github.com/ottlab/loggen/internal/sample"
)

// Store is the catalog surface the pool depends on.
type Store interface {
	GetRandomUsers(ctx context.Context, limit int) ([]catalog.UserRow, error)
	CreateNewUser(ctx context.Context, signupDate time.Time) (int64, error)
}

// Pool is the per-day user population, capped at DAU returning users
// plus any injected new users. Not safe for concurrent use.
type Pool struct {
	store  Store
	rng    *rand.Rand
	logger zerolog.Logger

	dau          int
	newUserRatio float64
	activity     *sample.Chooser

	users map[int64]*models.User
	// date of the last reload, truncated to day in the generator tz.
	date     time.Time
	injected int
}

// activityLevels is the chooser's index order, matching the
// high/medium/low ratio order from configuration.
var activityLevels = []models.ActivityLevel{
	models.ActivityHigh, models.ActivityMedium, models.ActivityLow,
}

// New builds a pool from the generator and activity configuration.
func New(store Store, cfg *config.Config, rng *rand.Rand, logger zerolog.Logger) (*Pool, error) {
	activity, err := sample.NewChooser([]float64{
		cfg.Activity.HighRatio,
		cfg.Activity.MediumRatio,
		cfg.Activity.LowRatio,
	})
	if err != nil {
		return nil, &config.Error{
			Field:   "user_activity",
			Message: "activity ratios must have positive total weight",
		}
	}
	return &Pool{
		store:        store,
		rng:          rng,
		logger:       logger.With().Str("component", "pool").Logger(),
		dau:          cfg.Generator.DAU,
		newUserRatio: cfg.Generator.NewUserRatio,
		activity:     activity,
		users:        make(map[int64]*models.User),
	}, nil
}

// Size returns the current pool population.
func (p *Pool) Size() int { return len(p.users) }

// Select returns a user available at ts, reloading the pool when ts
// crosses into a new day. With probability new_user_ratio, or when no
// pooled user is available, a brand-new user is created instead.
func (p *Pool) Select(ctx context.Context, ts time.Time) (*models.User, error) {
	day := truncateDay(ts)
	if !day.Equal(p.date) {
		if err := p.reload(ctx, day); err != nil {
			return nil, err
		}
	}

	if p.rng.Float64() < p.newUserRatio {
		return p.inject(ctx, ts)
	}

	if u := p.pickAvailable(ts); u != nil {
		return u, nil
	}
	// Everyone is mid-playback or the pool is empty; fall back to a
	// fresh user so the timestamp is not wasted.
	return p.inject(ctx, ts)
}

// Update writes the user's next state back, evicting on USER_OUT.
func (p *Pool) Update(u *models.User, next models.UserState) {
	if next == models.StateUserOut {
		delete(p.users, u.ID)
		metrics.PoolActiveUsers.Set(float64(len(p.users)))
		return
	}
	u.State = next
}

// reload replaces the population with up to DAU active users for day.
func (p *Pool) reload(ctx context.Context, day time.Time) error {
	rows, err := p.store.GetRandomUsers(ctx, p.dau)
	if err != nil {
		return err
	}

	p.users = make(map[int64]*models.User, len(rows))
	for _, row := range rows {
		p.users[row.ID] = &models.User{
			ID:            row.ID,
			IsSubscribed:  row.IsSubscribed,
			ActivityLevel: activityLevels[p.activity.Pick(p.rng)],
			State:         models.StateNotLoggedIn,
		}
	}
	p.date = day
	p.injected = 0
	metrics.PoolActiveUsers.Set(float64(len(p.users)))

	p.logger.Info().
		Time("date", day).
		Int("users", len(p.users)).
		Msg("daily user pool reloaded")
	return nil
}

// inject creates a brand-new unsubscribed user signed up on ts's date.
func (p *Pool) inject(ctx context.Context, ts time.Time) (*models.User, error) {
	id, err := p.store.CreateNewUser(ctx, truncateDay(ts))
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:            id,
		ActivityLevel: activityLevels[p.activity.Pick(p.rng)],
		State:         models.StateNotLoggedIn,
	}
	p.users[id] = u
	p.injected++
	metrics.UsersCreated.Inc()
	metrics.PoolActiveUsers.Set(float64(len(p.users)))
	return u, nil
}

// pickAvailable returns a uniformly random user whose blocked-until
// window has passed, or nil when none is available.
func (p *Pool) pickAvailable(ts time.Time) *models.User {
	available := make([]*models.User, 0, len(p.users))
	for _, u := range p.users {
		if u.Available(ts) {
			available = append(available, u)
		}
	}
	if len(available) == 0 {
		return nil
	}
	return available[p.rng.Intn(len(available))]
}

func truncateDay(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}
