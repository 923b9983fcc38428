// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package catalog

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/ottlab/loggen/internal/logging"
	"github.com/ottlab/loggen/internal/models"
)

// openSeeded opens an in-memory catalog with a small seeded data set.
func openSeeded(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, "", logging.Logger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rng := rand.New(rand.NewSource(1))
	if err := db.SeedMockData(ctx, 50, 60, rng); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.LoadCaches(ctx); err != nil {
		t.Fatalf("load caches: %v", err)
	}
	return db
}

func TestCatalogSeedAndCaches(t *testing.T) {
	db := openSeeded(t)

	if len(db.contents) == 0 || len(db.contents) > topContentsLimit {
		t.Fatalf("content cache size %d", len(db.contents))
	}
	// Cache is ordered by popularity descending.
	for i := 1; i < len(db.contents); i++ {
		if db.contents[i].Popularity > db.contents[i-1].Popularity {
			t.Fatal("content cache not ordered by popularity")
		}
	}

	plans := db.Plans()
	if len(plans) != len(models.PlanFamilies)*models.PlansPerFamily {
		t.Fatalf("%d plans, want %d", len(plans), len(models.PlanFamilies)*models.PlansPerFamily)
	}

	t.Run("seeding twice is a no-op", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		if err := db.SeedMockData(context.Background(), 500, 500, rng); err != nil {
			t.Fatalf("reseed: %v", err)
		}
		var users int
		if err := db.conn.QueryRow(`SELECT count(*) FROM users`).Scan(&users); err != nil {
			t.Fatalf("count: %v", err)
		}
		if users != 50 {
			t.Fatalf("user count %d after reseed, want 50", users)
		}
	})
}

func TestCatalogRandomUsers(t *testing.T) {
	db := openSeeded(t)
	ctx := context.Background()

	rows, err := db.GetRandomUsers(ctx, 10)
	if err != nil {
		t.Fatalf("get random users: %v", err)
	}
	if len(rows) == 0 || len(rows) > 10 {
		t.Fatalf("got %d rows", len(rows))
	}
	seen := map[int64]bool{}
	for _, row := range rows {
		if row.ID <= 0 {
			t.Fatalf("non-positive user id %d", row.ID)
		}
		if seen[row.ID] {
			t.Fatalf("duplicate user id %d", row.ID)
		}
		seen[row.ID] = true
	}
}

func TestCatalogUserLifecycle(t *testing.T) {
	db := openSeeded(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	id, err := db.CreateNewUser(ctx, ts)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id <= 0 {
		t.Fatalf("created id %d", id)
	}

	if err := db.MarkSubscription(ctx, id, true, 5, ts); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	var subscribed bool
	if err := db.conn.QueryRow(`SELECT is_subscribed FROM users WHERE user_id = ?`, id).Scan(&subscribed); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !subscribed {
		t.Fatal("subscription start not persisted")
	}

	if err := db.MarkSubscription(ctx, id, false, 0, ts.Add(time.Hour)); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	var active int
	if err := db.conn.QueryRow(
		`SELECT count(*) FROM user_subscriptions WHERE user_id = ? AND status = 'active'`, id,
	).Scan(&active); err != nil {
		t.Fatalf("query: %v", err)
	}
	if active != 0 {
		t.Fatalf("%d active subscription rows after stop", active)
	}

	if err := db.SoftDeleteUser(ctx, id, ts.Add(2*time.Hour)); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	rows, err := db.GetRandomUsers(ctx, 1000)
	if err != nil {
		t.Fatalf("get random users: %v", err)
	}
	for _, row := range rows {
		if row.ID == id {
			t.Fatal("soft-deleted user still selectable")
		}
	}
}

func TestCatalogContentLookups(t *testing.T) {
	db := openSeeded(t)
	rng := rand.New(rand.NewSource(3))

	c, err := db.GetRandomContent(rng)
	if err != nil {
		t.Fatalf("random content: %v", err)
	}
	if c.Type == models.ContentsSeries && c.Episodes < 1 {
		t.Fatalf("series %s with %d episodes", c.ID, c.Episodes)
	}
	if c.Type == models.ContentsSingle && c.Episodes != 0 {
		t.Fatalf("single %s with episode count %d", c.ID, c.Episodes)
	}

	back, err := db.GetContentByID(c.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if back.ID != c.ID || back.Type != c.Type {
		t.Fatalf("lookup mismatch: %+v vs %+v", back, c)
	}

	if _, err := db.GetContentByID("missing"); err == nil {
		t.Fatal("missing content resolved")
	}
}
