// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package pool

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/ottlab/loggen/internal/catalog"
	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/logging"
	"github.com/ottlab/loggen/internal/models"
)

// fakeStore serves a fixed user set and counts catalog calls.
type fakeStore struct {
	rows    []catalog.UserRow
	reloads int

	nextID      int64
	created     []time.Time
	failCreate  bool
	failReloads bool
}

func (f *fakeStore) GetRandomUsers(_ context.Context, limit int) ([]catalog.UserRow, error) {
	f.reloads++
	if f.failReloads {
		return nil, errors.New("catalog down")
	}
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeStore) CreateNewUser(_ context.Context, signupDate time.Time) (int64, error) {
	if f.failCreate {
		return 0, errors.New("catalog down")
	}
	f.nextID++
	f.created = append(f.created, signupDate)
	return 1000 + f.nextID, nil
}

func poolConfig(dau int, newUserRatio float64) *config.Config {
	return &config.Config{
		Generator: config.GeneratorConfig{DAU: dau, NewUserRatio: newUserRatio},
		Activity:  config.ActivityConfig{HighRatio: 0.2, MediumRatio: 0.5, LowRatio: 0.3},
	}
}

func newTestPool(t *testing.T, store Store, cfg *config.Config) *Pool {
	t.Helper()
	p, err := New(store, cfg, rand.New(rand.NewSource(1)), logging.Logger())
	if err != nil {
		t.Fatalf("pool setup: %v", err)
	}
	return p
}

func day(d int, hour int) time.Time {
	return time.Date(2025, 6, d, hour, 0, 0, 0, time.UTC)
}

func TestPoolReload(t *testing.T) {
	store := &fakeStore{rows: []catalog.UserRow{
		{ID: 1, IsSubscribed: true}, {ID: 2}, {ID: 3},
	}}
	p := newTestPool(t, store, poolConfig(2, 0))

	if _, err := p.Select(context.Background(), day(15, 9)); err != nil {
		t.Fatalf("select: %v", err)
	}
	if p.Size() != 2 {
		t.Fatalf("pool size %d, want DAU cap 2", p.Size())
	}
	if store.reloads != 1 {
		t.Fatalf("reloads %d, want 1", store.reloads)
	}

	// Same day: no reload.
	for i := 0; i < 10; i++ {
		if _, err := p.Select(context.Background(), day(15, 10+i%12)); err != nil {
			t.Fatalf("select: %v", err)
		}
	}
	if store.reloads != 1 {
		t.Fatalf("reloads %d after same-day selects, want 1", store.reloads)
	}

	// Date change: reload.
	if _, err := p.Select(context.Background(), day(16, 0)); err != nil {
		t.Fatalf("select: %v", err)
	}
	if store.reloads != 2 {
		t.Fatalf("reloads %d after date change, want 2", store.reloads)
	}
}

func TestPoolReloadResetsState(t *testing.T) {
	store := &fakeStore{rows: []catalog.UserRow{{ID: 1, IsSubscribed: true}}}
	p := newTestPool(t, store, poolConfig(5, 0))

	u, err := p.Select(context.Background(), day(15, 9))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if u.State != models.StateNotLoggedIn || u.HasLoggedInToday {
		t.Fatalf("fresh user not in login-pending state: %+v", u)
	}
	if !u.IsSubscribed {
		t.Fatal("subscription flag not carried from catalog row")
	}

	u.HasLoggedInToday = true
	p.Update(u, models.StateMainPage)

	// Next day the same user comes back reset.
	u2, err := p.Select(context.Background(), day(16, 9))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if u2.ID != 1 || u2.HasLoggedInToday || u2.State != models.StateNotLoggedIn {
		t.Fatalf("daily rollover did not reset user: %+v", u2)
	}
}

func TestPoolNewUserInjection(t *testing.T) {
	store := &fakeStore{}
	p := newTestPool(t, store, poolConfig(10, 1.0))

	ts := day(15, 9)
	u, err := p.Select(context.Background(), ts)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if u.ID != 1001 {
		t.Fatalf("got id %d, want created id 1001", u.ID)
	}
	if u.State != models.StateNotLoggedIn || u.HasLoggedInToday {
		t.Fatalf("injected user not login-pending: %+v", u)
	}
	if u.IsSubscribed {
		t.Fatal("injected user starts subscribed")
	}

	if len(store.created) != 1 {
		t.Fatalf("created %d users, want 1", len(store.created))
	}
	if want := day(15, 0); !store.created[0].Equal(want) {
		t.Fatalf("signup date %v, want %v", store.created[0], want)
	}
	if p.Size() != 1 {
		t.Fatalf("pool size %d, want injected user retained", p.Size())
	}
}

func TestPoolBlockedUntilFallback(t *testing.T) {
	store := &fakeStore{rows: []catalog.UserRow{{ID: 1}}}
	p := newTestPool(t, store, poolConfig(5, 0))

	ts := day(15, 9)
	u, err := p.Select(context.Background(), ts)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	u.BlockedUntil = ts.Add(30 * time.Minute)
	p.Update(u, models.StateMainPage)

	// The only pooled user is blocked: selection falls back to a new user.
	u2, err := p.Select(context.Background(), ts.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if u2.ID == u.ID {
		t.Fatal("blocked user was selected")
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d users, want fallback injection", len(store.created))
	}

	// After the window passes, the original user is selectable again.
	found := false
	for i := 0; i < 100 && !found; i++ {
		u3, err := p.Select(context.Background(), ts.Add(time.Hour))
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		found = u3.ID == u.ID
	}
	if !found {
		t.Fatal("unblocked user never selected")
	}
}

func TestPoolEviction(t *testing.T) {
	store := &fakeStore{rows: []catalog.UserRow{{ID: 1}, {ID: 2}}}
	p := newTestPool(t, store, poolConfig(5, 0))

	ts := day(15, 9)
	u, err := p.Select(context.Background(), ts)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	evicted := u.ID
	p.Update(u, models.StateUserOut)
	if p.Size() != 1 {
		t.Fatalf("pool size %d after eviction, want 1", p.Size())
	}

	for i := 0; i < 100; i++ {
		u2, err := p.Select(context.Background(), ts)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if u2.ID == evicted {
			t.Fatal("evicted user re-selected the same day")
		}
	}
}

func TestPoolCatalogFailures(t *testing.T) {
	t.Run("reload failure surfaces", func(t *testing.T) {
		store := &fakeStore{failReloads: true}
		p := newTestPool(t, store, poolConfig(5, 0))
		if _, err := p.Select(context.Background(), day(15, 9)); err == nil {
			t.Fatal("expected error from failed reload")
		}
	})

	t.Run("injection failure surfaces", func(t *testing.T) {
		store := &fakeStore{rows: []catalog.UserRow{}, failCreate: true}
		p := newTestPool(t, store, poolConfig(5, 0))
		if _, err := p.Select(context.Background(), day(15, 9)); err == nil {
			t.Fatal("expected error from failed injection")
		}
	})
}
