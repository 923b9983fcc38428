// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package models

import "time"

// User is the mutable runtime entity tracked by the user pool.
//
// Users are exclusively owned by the pool; the pipeline borrows one for
// the duration of a single iteration. Activity level is fixed at creation.
type User struct {
	ID            int64
	IsSubscribed  bool
	ActivityLevel ActivityLevel
	State         UserState

	// Current content context, set when the user enters a content page.
	// EpisodeID is populated only for series contents.
	ContentID string
	EpisodeID string

	// PlanID is the user's current subscription plan, tracked so that
	// subscription-stop can report the plan actually held.
	PlanID int

	// HasLoggedInToday forces access-in as the first event of the day.
	HasLoggedInToday bool

	// BlockedUntil marks the user unavailable for selection while a
	// playback pattern occupies their simulated wall-clock window.
	BlockedUntil time.Time
}

// Available reports whether the user may be selected at ts.
func (u *User) Available(ts time.Time) bool {
	return u.BlockedUntil.IsZero() || !u.BlockedUntil.After(ts)
}

// ClearContent drops the current content context.
func (u *User) ClearContent() {
	u.ContentID = ""
	u.EpisodeID = ""
}

// Content is a read-only catalog record.
type Content struct {
	ID         string
	Type       ContentsType
	Popularity float64
	// Episodes is the episode count; set only for series contents.
	Episodes int
}

// SubscriptionPlan is a catalog subscription plan row.
type SubscriptionPlan struct {
	ID     int
	Family string
}

// Plan family names and their plan-id ranges. Plan ids are assigned in
// blocks of four per family: standard 1-4, premium 5-8, family 9-12,
// mobile_only 13-16.
const (
	PlanFamilyStandard   = "standard"
	PlanFamilyPremium    = "premium"
	PlanFamilyFamily     = "family"
	PlanFamilyMobileOnly = "mobile_only"

	PlansPerFamily = 4
)

// PlanFamilies lists the plan families in plan-id order.
var PlanFamilies = []string{
	PlanFamilyStandard,
	PlanFamilyPremium,
	PlanFamilyFamily,
	PlanFamilyMobileOnly,
}

// PlanIDRange returns the inclusive plan-id range for a family, or ok=false
// for an unknown family name.
func PlanIDRange(family string) (lo, hi int, ok bool) {
	for i, f := range PlanFamilies {
		if f == family {
			lo = i*PlansPerFamily + 1
			return lo, lo + PlansPerFamily - 1, true
		}
	}
	return 0, 0, false
}
