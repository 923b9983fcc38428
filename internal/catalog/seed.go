// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ottlab/loggen/internal/models"
)

// Static seed material. Titles repeat with an index suffix when the
// requested content count exceeds the lists.
var (
	seedMovieTitles = []string{
		"Paper Crown", "The Last Signal", "Dark Harbor", "Night Shift",
		"Glass River", "Winter Arcade", "The Quiet Floor", "Second Orbit",
		"Salt and Ash", "Hollow Summit", "The Long Ferry", "Red Meridian",
	}
	seedSeriesTitles = []string{
		"Spring Waltz", "Downtown Kitchen", "The Archive", "Harbor Lights",
		"Midnight Dispatch", "The Understudy", "Station Nine", "Cold Open",
		"The Inheritance Game", "Low Tide",
	}
	seedSurnames = []string{
		"Kim", "Lee", "Park", "Choi", "Jung", "Kang", "Cho", "Yoon", "Jang", "Lim",
	}
	seedGivenNames = []string{
		"Minjun", "Seojun", "Doyun", "Yejun", "Siwoo", "Jiho", "Junseo",
		"Woojin", "Suhyun", "Jimin", "Seoyeon", "Minseo", "Jiwoo", "Chaewon",
	}
)

// seedPlanPrices lists monthly prices per plan family, in plan-id order
// within the family (1, 3, 6 and 12 month terms).
var seedPlanPrices = map[string][4]int{
	models.PlanFamilyStandard:   {9900, 26900, 49900, 89900},
	models.PlanFamilyPremium:    {14900, 39900, 74900, 134900},
	models.PlanFamilyFamily:     {19900, 54900, 99900, 179900},
	models.PlanFamilyMobileOnly: {5900, 15900, 29900, 53900},
}

// SeedMockData populates an empty catalog with plans, users and contents
// for local runs. Roughly 60% of contents are single titles and 90% of
// active users start subscribed. Seeding an already-populated catalog is
// a no-op.
func (db *DB) SeedMockData(ctx context.Context, users, contents int, rng *rand.Rand) error {
	var existing int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&existing); err != nil {
		return &Error{Op: "seed", Err: err}
	}
	if existing > 0 {
		db.logger.Info().Int("users", existing).Msg("catalog already seeded, skipping")
		return nil
	}

	if err := db.seedPlans(ctx); err != nil {
		return err
	}
	if err := db.seedContents(ctx, contents, rng); err != nil {
		return err
	}
	if err := db.seedUsers(ctx, users, rng); err != nil {
		return err
	}

	db.logger.Info().
		Int("users", users).
		Int("contents", contents).
		Msg("catalog seeded with mock data")
	return nil
}

func (db *DB) seedPlans(ctx context.Context) error {
	stmt, err := db.prepare(ctx, `
		INSERT INTO subscription_plans (subscription_id, plan_family, monthly_price)
		VALUES (?, ?, ?)`)
	if err != nil {
		return &Error{Op: "seed_plans", Err: err}
	}
	for _, family := range models.PlanFamilies {
		lo, _, _ := models.PlanIDRange(family)
		prices := seedPlanPrices[family]
		for i := 0; i < models.PlansPerFamily; i++ {
			if _, err := stmt.ExecContext(ctx, lo+i, family, prices[i]); err != nil {
				return &Error{Op: "seed_plans", Err: err}
			}
		}
	}
	return nil
}

func (db *DB) seedContents(ctx context.Context, count int, rng *rand.Rand) error {
	stmt, err := db.prepare(ctx, `
		INSERT INTO contents (contents_id, contents_type, title, popularity, number_of_episodes)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return &Error{Op: "seed_contents", Err: err}
	}

	for i := 1; i <= count; i++ {
		var (
			typ      models.ContentsType
			title    string
			episodes any
		)
		if rng.Float64() < 0.6 {
			typ = models.ContentsSingle
			title = fmt.Sprintf("%s (%d)", seedMovieTitles[rng.Intn(len(seedMovieTitles))], i)
		} else {
			typ = models.ContentsSeries
			title = fmt.Sprintf("%s (%d)", seedSeriesTitles[rng.Intn(len(seedSeriesTitles))], i)
			episodes = 1 + rng.Intn(16)
		}

		id := fmt.Sprintf("%s_%d", typ, 100000+i)
		popularity := 0.5 + rng.Float64()*99.5

		if _, err := stmt.ExecContext(ctx, id, typ.String(), title, popularity, episodes); err != nil {
			return &Error{Op: "seed_contents", Err: err}
		}
	}
	return nil
}

func (db *DB) seedUsers(ctx context.Context, count int, rng *rand.Rand) error {
	stmt, err := db.prepare(ctx, `
		INSERT INTO users (email, name, signup_date, account_status, is_subscribed)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return &Error{Op: "seed_users", Err: err}
	}
	subStmt, err := db.prepare(ctx, `
		INSERT INTO user_subscriptions (user_id, subscription_id, status, start_date)
		VALUES (?, ?, 'active', ?)`)
	if err != nil {
		return &Error{Op: "seed_users", Err: err}
	}

	for i := 1; i <= count; i++ {
		email := fmt.Sprintf("user%d_%04d@ottservice.com", i, rng.Intn(9000)+1000)
		name := seedSurnames[rng.Intn(len(seedSurnames))] + " " + seedGivenNames[rng.Intn(len(seedGivenNames))]

		signup := time.Date(
			2020+rng.Intn(5), time.Month(1+rng.Intn(12)), 1+rng.Intn(28),
			0, 0, 0, 0, time.UTC,
		)

		status := "active"
		switch r := rng.Float64(); {
		case r < 0.05:
			status = "suspended"
		case r < 0.15:
			status = "deleted"
		}

		subscribed := status == "active" && rng.Float64() < 0.9

		if _, err := stmt.ExecContext(ctx, email, name, signup, status, subscribed); err != nil {
			return &Error{Op: "seed_users", Err: err}
		}
		if subscribed {
			planID := 1 + rng.Intn(len(models.PlanFamilies)*models.PlansPerFamily)
			if _, err := subStmt.ExecContext(ctx, int64(i), planID, signup); err != nil {
				return &Error{Op: "seed_users", Err: err}
			}
		}
	}
	return nil
}
