// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// TimestampLayout is the wire format for event timestamps.
// Events are serialized in the configured timezone without an offset suffix.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp wraps time.Time so events serialize as "YYYY-MM-DD HH:MM:SS".
type Timestamp time.Time

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(TimestampLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. The parsed time carries no
// zone information; callers that need the configured zone must attach it.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*t = Timestamp(parsed)
	return nil
}

// Detail is the event-specific payload. Only the fields relevant to the
// event's category/type pair are populated; all other fields are omitted
// from the serialized form, never emitted as null.
type Detail struct {
	Platform       Platform      `json:"platform,omitempty"`
	ContentsID     string        `json:"contents_id,omitempty"`
	ContentsType   ContentsType  `json:"contents_type,omitempty"`
	EpisodeID      string        `json:"episode_id,omitempty"`
	Rating         float64       `json:"rating,omitempty"`
	ReviewDetail   string        `json:"review_detail,omitempty"`
	SubscriptionID int           `json:"subscription_id,omitempty"`
	TrafficSource  TrafficSource `json:"traffic_source,omitempty"`
	ReasonType     ReasonType    `json:"reason_type,omitempty"`
	ReasonDetail   string        `json:"reason_detail,omitempty"`
	Term           string        `json:"term,omitempty"`
	InquiryType    InquiryType   `json:"inquiry_type,omitempty"`
	InquiryDetail  string        `json:"inquiry_detail,omitempty"`
}

// Event is the unit of generator output.
type Event struct {
	Timestamp     Timestamp     `json:"timestamp"`
	UserID        int64         `json:"user_id"`
	EventCategory EventCategory `json:"event_category"`
	EventType     EventType     `json:"event_type"`
	Detail        Detail        `json:"detail"`
}

// NewEvent creates an event for the given kind.
func NewEvent(ts time.Time, userID int64, kind EventKind, detail Detail) *Event {
	return &Event{
		Timestamp:     Timestamp(ts),
		UserID:        userID,
		EventCategory: kind.Category,
		EventType:     kind.Type,
		Detail:        detail,
	}
}

// ValidationError reports a field that failed event validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("event validation failed: %s: %s", e.Field, e.Message)
}

// Validate checks required fields and code ranges.
func (e *Event) Validate() error {
	if e.Timestamp.Time().IsZero() {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}
	if e.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "must be positive"}
	}
	if e.EventCategory < CategoryAccess || e.EventCategory > CategorySupport {
		return &ValidationError{Field: "event_category", Message: "out of range"}
	}
	if e.EventType < TypeIn || e.EventType > TypeInquiry {
		return &ValidationError{Field: "event_type", Message: "out of range"}
	}
	return nil
}

// Marshal serializes the event to a single JSON document (one NDJSON line
// without the trailing newline).
func (e *Event) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalEvent parses a single NDJSON line back into an Event.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &e, nil
}

// RatingSteps lists the valid review ratings (half-star steps).
var RatingSteps = []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0}
