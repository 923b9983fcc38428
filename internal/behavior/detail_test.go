// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package behavior

import (
	"errors"
	"testing"
	"time"

	"github.com/ottlab/loggen/internal/models"
)

var detailTestTime = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func TestGenerateClickSetsContent(t *testing.T) {
	contents := &fakeContents{content: models.Content{
		ID: "series_100010", Type: models.ContentsSeries, Episodes: 6,
	}}
	g := newTestGenerator(t, contents)
	u := &models.User{ID: 3, HasLoggedInToday: true}

	events, err := g.Generate(u, models.KindContentsClick, detailTestTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Detail.ContentsID != contents.content.ID || e.Detail.ContentsType != models.ContentsSeries {
		t.Fatalf("detail mismatch: %+v", e.Detail)
	}
	if e.Detail.Platform == 0 {
		t.Fatal("click carries no platform")
	}
	if u.ContentID != contents.content.ID || u.EpisodeID == "" {
		t.Fatalf("user content context not set: %q %q", u.ContentID, u.EpisodeID)
	}
}

func TestGenerateReview(t *testing.T) {
	contents := &fakeContents{content: models.Content{ID: "single_100011", Type: models.ContentsSingle}}
	g := newTestGenerator(t, contents)

	t.Run("without current content", func(t *testing.T) {
		u := &models.User{ID: 3, HasLoggedInToday: true}
		if _, err := g.Generate(u, models.KindReviewReview, detailTestTime); !errors.Is(err, ErrDetailUnavailable) {
			t.Fatalf("expected ErrDetailUnavailable, got %v", err)
		}
	})

	t.Run("with current content", func(t *testing.T) {
		u := &models.User{ID: 3, HasLoggedInToday: true, ContentID: contents.content.ID}
		events, err := g.Generate(u, models.KindReviewReview, detailTestTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		d := events[0].Detail
		if d.ContentsID != contents.content.ID {
			t.Fatalf("contents_id %q", d.ContentsID)
		}
		valid := false
		for _, step := range models.RatingSteps {
			if d.Rating == step {
				valid = true
			}
		}
		if !valid {
			t.Fatalf("rating %v not a half-star step", d.Rating)
		}
		// review_detail_ratio is 1 in the test config.
		if d.ReviewDetail == "" {
			t.Fatal("review detail missing despite ratio 1")
		}
	})
}

func TestGenerateLikeRequiresContent(t *testing.T) {
	contents := &fakeContents{content: models.Content{ID: "single_100012", Type: models.ContentsSingle}}
	g := newTestGenerator(t, contents)

	u := &models.User{ID: 4, HasLoggedInToday: true}
	if _, err := g.Generate(u, models.KindContentsLikeOn, detailTestTime); !errors.Is(err, ErrDetailUnavailable) {
		t.Fatalf("expected ErrDetailUnavailable, got %v", err)
	}

	u.ContentID = contents.content.ID
	events, err := g.Generate(u, models.KindContentsLikeOff, detailTestTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := events[0].Detail
	if d.Platform != 0 {
		t.Fatal("like events must not carry a platform")
	}
	if d.ContentsID != contents.content.ID || d.ContentsType != models.ContentsSingle {
		t.Fatalf("detail mismatch: %+v", d)
	}
}

func TestGenerateSubscription(t *testing.T) {
	contents := &fakeContents{
		content: models.Content{ID: "x", Type: models.ContentsSingle},
		plans:   []models.SubscriptionPlan{{ID: 11, Family: models.PlanFamilyFamily}},
	}
	g := newTestGenerator(t, contents)

	t.Run("start draws from configured family", func(t *testing.T) {
		u := &models.User{ID: 5, HasLoggedInToday: true}
		events, err := g.Generate(u, models.KindSubscriptionStart, detailTestTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// subscription_type_ratio in the test config is all premium.
		id := events[0].Detail.SubscriptionID
		if id < 5 || id > 8 {
			t.Fatalf("subscription_id %d outside premium range 5..8", id)
		}
		if u.PlanID != id {
			t.Fatalf("plan not tracked on user: %d vs %d", u.PlanID, id)
		}
	})

	t.Run("stop reports tracked plan", func(t *testing.T) {
		u := &models.User{ID: 5, HasLoggedInToday: true, PlanID: 7}
		events, err := g.Generate(u, models.KindSubscriptionStop, detailTestTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if events[0].Detail.SubscriptionID != 7 {
			t.Fatalf("subscription_id %d, want tracked 7", events[0].Detail.SubscriptionID)
		}
		if u.PlanID != 0 {
			t.Fatal("plan not cleared after stop")
		}
	})

	t.Run("stop without tracked plan falls back to plan list", func(t *testing.T) {
		u := &models.User{ID: 5, HasLoggedInToday: true}
		events, err := g.Generate(u, models.KindSubscriptionStop, detailTestTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if events[0].Detail.SubscriptionID != 11 {
			t.Fatalf("subscription_id %d, want 11 from plan list", events[0].Detail.SubscriptionID)
		}
	})
}

func TestGenerateCodedPayloads(t *testing.T) {
	g := newTestGenerator(t, &fakeContents{content: models.Content{ID: "x", Type: models.ContentsSingle}})
	u := &models.User{ID: 6, HasLoggedInToday: true}

	t.Run("register-in traffic source", func(t *testing.T) {
		events, err := g.Generate(u, models.KindRegisterIn, detailTestTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		src := events[0].Detail.TrafficSource
		if src < 1 || src > 6 {
			t.Fatalf("traffic_source %d out of range", src)
		}
	})

	t.Run("register-out reason", func(t *testing.T) {
		events, err := g.Generate(u, models.KindRegisterOut, detailTestTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		d := events[0].Detail
		if d.ReasonType < 1 || d.ReasonType > 3 {
			t.Fatalf("reason_type %d out of range", d.ReasonType)
		}
		if d.ReasonDetail == "" {
			t.Fatal("reason detail missing despite ratio 1")
		}
	})

	t.Run("search term from list", func(t *testing.T) {
		events, err := g.Generate(u, models.KindSearchSearch, detailTestTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if events[0].Detail.Term != "dark harbor" {
			t.Fatalf("term %q not from configured list", events[0].Detail.Term)
		}
	})

	t.Run("support inquiry", func(t *testing.T) {
		events, err := g.Generate(u, models.KindSupportInquiry, detailTestTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		d := events[0].Detail
		if d.InquiryType < 1 || d.InquiryType > 4 {
			t.Fatalf("inquiry_type %d out of range", d.InquiryType)
		}
		if d.InquiryDetail == "" {
			t.Fatal("inquiry detail missing")
		}
	})

	t.Run("pause is not standalone", func(t *testing.T) {
		if _, err := g.Generate(u, models.KindContentsPause, detailTestTime); !errors.Is(err, ErrDetailUnavailable) {
			t.Fatalf("expected ErrDetailUnavailable, got %v", err)
		}
	})
}
