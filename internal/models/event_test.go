// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestEventMarshal(t *testing.T) {
	ts := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	t.Run("timestamp wire format", func(t *testing.T) {
		e := NewEvent(ts, 42, KindAccessIn, Detail{Platform: PlatformAndroid})
		data, err := e.Marshal()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !strings.Contains(string(data), `"timestamp":"2025-06-15 09:00:00"`) {
			t.Fatalf("timestamp not in wire format: %s", data)
		}
	})

	t.Run("empty detail fields omitted", func(t *testing.T) {
		e := NewEvent(ts, 42, KindSearchSearch, Detail{Term: "dark harbor"})
		data, err := e.Marshal()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		var detail map[string]json.RawMessage
		if err := json.Unmarshal(raw["detail"], &detail); err != nil {
			t.Fatalf("unmarshal detail: %v", err)
		}
		if len(detail) != 1 {
			t.Fatalf("detail has %d keys, want only term: %s", len(detail), raw["detail"])
		}
		for _, v := range detail {
			if string(v) == "null" {
				t.Fatal("detail contains a null value")
			}
		}
	})

	t.Run("round trip", func(t *testing.T) {
		e := NewEvent(ts, 7, KindReviewReview, Detail{
			ContentsID:   "single_100007",
			Rating:       4.5,
			ReviewDetail: "Loved it.",
		})
		data, err := e.Marshal()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		back, err := UnmarshalEvent(data)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if back.UserID != 7 || back.EventCategory != CategoryReview || back.EventType != TypeReview {
			t.Fatalf("envelope mismatch: %+v", back)
		}
		if back.Detail.Rating != 4.5 || back.Detail.ContentsID != "single_100007" {
			t.Fatalf("detail mismatch: %+v", back.Detail)
		}
		if got := back.Timestamp.Time().Format(TimestampLayout); got != "2025-06-15 09:00:00" {
			t.Fatalf("timestamp mismatch: %s", got)
		}
	})
}

func TestEventValidate(t *testing.T) {
	ts := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		event *Event
		field string
	}{
		{"zero timestamp", &Event{UserID: 1, EventCategory: 1, EventType: 1}, "timestamp"},
		{"non-positive user", NewEvent(ts, 0, KindAccessIn, Detail{}), "user_id"},
		{"category out of range", &Event{Timestamp: Timestamp(ts), UserID: 1, EventCategory: 8, EventType: 1}, "event_category"},
		{"type out of range", &Event{Timestamp: Timestamp(ts), UserID: 1, EventCategory: 1, EventType: 13}, "event_type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("got field %q, want %q", verr.Field, tc.field)
			}
		})
	}

	t.Run("valid event passes", func(t *testing.T) {
		e := NewEvent(ts, 1, KindSupportInquiry, Detail{InquiryType: InquiryRefund})
		if err := e.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestKindLookups(t *testing.T) {
	t.Run("by name", func(t *testing.T) {
		k, ok := KindByName("contents-like_on")
		if !ok || k != KindContentsLikeOn {
			t.Fatalf("lookup failed: %v %v", k, ok)
		}
		if _, ok := KindByName("contents-rewind"); ok {
			t.Fatal("unknown name resolved")
		}
	})

	t.Run("by codes", func(t *testing.T) {
		k, ok := KindOf(CategorySubscription, TypeStop)
		if !ok || k != KindSubscriptionStop {
			t.Fatalf("lookup failed: %v %v", k, ok)
		}
	})
}

func TestPlanIDRange(t *testing.T) {
	cases := []struct {
		family string
		lo, hi int
	}{
		{PlanFamilyStandard, 1, 4},
		{PlanFamilyPremium, 5, 8},
		{PlanFamilyFamily, 9, 12},
		{PlanFamilyMobileOnly, 13, 16},
	}
	for _, tc := range cases {
		lo, hi, ok := PlanIDRange(tc.family)
		if !ok || lo != tc.lo || hi != tc.hi {
			t.Fatalf("%s: got (%d,%d,%v), want (%d,%d,true)", tc.family, lo, hi, ok, tc.lo, tc.hi)
		}
	}
	if _, _, ok := PlanIDRange("platinum"); ok {
		t.Fatal("unknown family resolved")
	}
}
