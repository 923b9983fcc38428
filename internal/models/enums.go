// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package models

// EventCategory is the top-level event classification (wire code 1..7).
type EventCategory int

const (
	CategoryAccess       EventCategory = 1
	CategoryContents     EventCategory = 2
	CategoryReview       EventCategory = 3
	CategorySubscription EventCategory = 4
	CategoryRegister     EventCategory = 5
	CategorySearch       EventCategory = 6
	CategorySupport      EventCategory = 7
)

// EventType is the event action within a category (wire code 1..12).
type EventType int

const (
	TypeIn      EventType = 1
	TypeOut     EventType = 2
	TypeClick   EventType = 3
	TypeStart   EventType = 4
	TypeStop    EventType = 5
	TypePause   EventType = 6
	TypeResume  EventType = 7
	TypeLikeOn  EventType = 8
	TypeLikeOff EventType = 9
	TypeReview  EventType = 10
	TypeSearch  EventType = 11
	TypeInquiry EventType = 12
)

// Platform is the client platform (wire code 1..4).
type Platform int

const (
	PlatformAndroid Platform = 1
	PlatformIOS     Platform = 2
	PlatformPC      Platform = 3
	PlatformTV      Platform = 4
)

// ContentsType distinguishes series from single-title contents (wire code 1..2).
type ContentsType int

const (
	ContentsSeries ContentsType = 1
	ContentsSingle ContentsType = 2
)

// TrafficSource is the signup referral channel (wire code 1..6).
type TrafficSource int

const (
	TrafficSearch   TrafficSource = 1
	TrafficSocial   TrafficSource = 2
	TrafficAdSearch TrafficSource = 3
	TrafficAdSocial TrafficSource = 4
	TrafficReferral TrafficSource = 5
	TrafficMisc     TrafficSource = 6
)

// ReasonType is the account deletion reason (wire code 1..3).
type ReasonType int

const (
	ReasonContents ReasonType = 1
	ReasonCharge   ReasonType = 2
	ReasonMisc     ReasonType = 3
)

// InquiryType is the support inquiry classification (wire code 1..4).
type InquiryType int

const (
	InquiryContents     InquiryType = 1
	InquiryRefund       InquiryType = 2
	InquirySubscription InquiryType = 3
	InquiryInformation  InquiryType = 4
)

// UserState is the position of a user in the per-day behavior state machine.
//
// Playback patterns are expanded atomically from a single contents-start
// decision, so there are no intermediate playing/paused states.
type UserState int

const (
	StateNotLoggedIn UserState = iota
	StateMainPage
	StateContentPage
	StateUserOut
)

// String returns the state name used in config keys and logs.
func (s UserState) String() string {
	switch s {
	case StateNotLoggedIn:
		return "NOT_LOGGED_IN"
	case StateMainPage:
		return "MAIN_PAGE"
	case StateContentPage:
		return "CONTENT_PAGE"
	case StateUserOut:
		return "USER_OUT"
	default:
		return "UNKNOWN"
	}
}

// ActivityLevel controls a user's expected watch duration.
type ActivityLevel int

const (
	ActivityHigh ActivityLevel = iota
	ActivityMedium
	ActivityLow
)

// String returns the level name used in config keys.
func (a ActivityLevel) String() string {
	switch a {
	case ActivityHigh:
		return "high"
	case ActivityMedium:
		return "medium"
	case ActivityLow:
		return "low"
	default:
		return "unknown"
	}
}

// EventKind identifies one of the canonical category/type pairs the
// generator can emit.
type EventKind struct {
	Category EventCategory
	Type     EventType
	name     string
}

// Canonical event kinds. Pause/resume/stop are never decision outcomes;
// they appear only inside playback pattern expansions.
var (
	KindAccessIn          = EventKind{CategoryAccess, TypeIn, "access-in"}
	KindAccessOut         = EventKind{CategoryAccess, TypeOut, "access-out"}
	KindContentsClick     = EventKind{CategoryContents, TypeClick, "contents-click"}
	KindContentsStart     = EventKind{CategoryContents, TypeStart, "contents-start"}
	KindContentsStop      = EventKind{CategoryContents, TypeStop, "contents-stop"}
	KindContentsPause     = EventKind{CategoryContents, TypePause, "contents-pause"}
	KindContentsResume    = EventKind{CategoryContents, TypeResume, "contents-resume"}
	KindContentsLikeOn    = EventKind{CategoryContents, TypeLikeOn, "contents-like_on"}
	KindContentsLikeOff   = EventKind{CategoryContents, TypeLikeOff, "contents-like_off"}
	KindReviewReview      = EventKind{CategoryReview, TypeReview, "review-review"}
	KindSubscriptionStart = EventKind{CategorySubscription, TypeStart, "subscription-start"}
	KindSubscriptionStop  = EventKind{CategorySubscription, TypeStop, "subscription-stop"}
	KindRegisterIn        = EventKind{CategoryRegister, TypeIn, "register-in"}
	KindRegisterOut       = EventKind{CategoryRegister, TypeOut, "register-out"}
	KindSearchSearch      = EventKind{CategorySearch, TypeSearch, "search-search"}
	KindSupportInquiry    = EventKind{CategorySupport, TypeInquiry, "support-inquiry"}
)

// String returns the canonical "category-type" name, e.g. "contents-click".
func (k EventKind) String() string { return k.name }

// kindsByName indexes the canonical kinds for transition-table lookup.
var kindsByName = func() map[string]EventKind {
	kinds := []EventKind{
		KindAccessIn, KindAccessOut,
		KindContentsClick, KindContentsStart, KindContentsStop,
		KindContentsPause, KindContentsResume,
		KindContentsLikeOn, KindContentsLikeOff,
		KindReviewReview,
		KindSubscriptionStart, KindSubscriptionStop,
		KindRegisterIn, KindRegisterOut,
		KindSearchSearch, KindSupportInquiry,
	}
	m := make(map[string]EventKind, len(kinds))
	for _, k := range kinds {
		m[k.name] = k
	}
	return m
}()

// KindByName resolves a canonical "category-type" name, as used in
// transition-table config keys, to its EventKind.
func KindByName(name string) (EventKind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// KindOf resolves a (category, type) pair back to its canonical kind.
func KindOf(c EventCategory, t EventType) (EventKind, bool) {
	for _, k := range kindsByName {
		if k.Category == c && k.Type == t {
			return k, true
		}
	}
	return EventKind{}, false
}

// ContentsTypeFromName maps a stored contents_type name to its wire code.
// Unknown names default to single.
func ContentsTypeFromName(name string) ContentsType {
	if name == "series" {
		return ContentsSeries
	}
	return ContentsSingle
}

// String returns the stored name of the contents type.
func (c ContentsType) String() string {
	if c == ContentsSeries {
		return "series"
	}
	return "single"
}
