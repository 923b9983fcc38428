// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package behavior

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/models"
	"github.com/ottlab/loggen/internal/sample"
)

// ContentSource is the catalog surface the generator depends on.
type ContentSource interface {
	GetRandomContent(rng *rand.Rand) (models.Content, error)
	GetContentByID(id string) (models.Content, error)
	Plans() []models.SubscriptionPlan
}

// platforms is the chooser index order, matching platform_ratio.
var platforms = []models.Platform{
	models.PlatformAndroid, models.PlatformIOS, models.PlatformPC, models.PlatformTV,
}

// Generator fills in event detail payloads. A contents-start decision
// expands into a full playback pattern; everything else yields one event.
type Generator struct {
	rng      *rand.Rand
	contents ContentSource

	platform   *sample.Chooser
	planFamily *sample.Chooser
	pattern    *sample.Chooser

	watch config.WatchTimeConfig

	reviewDetailRatio      float64
	registerOutDetailRatio float64

	searchTerms        []string
	reviewSamples      []string
	registerOutReasons []string
	inquirySamples     []string
}

// NewGenerator builds a detail generator from the contents configuration.
func NewGenerator(cfg *config.Config, contents ContentSource, rng *rand.Rand) (*Generator, error) {
	platform, err := chooserFor("contents.platform_ratio", cfg.Contents.PlatformRatio.Weights())
	if err != nil {
		return nil, err
	}
	planFamily, err := chooserFor("contents.subscription_type_ratio", cfg.Contents.SubscriptionTypeRatio.Weights())
	if err != nil {
		return nil, err
	}
	pattern, err := chooserFor("contents.watch_pattern_probability", cfg.Contents.WatchPatternProbability.Weights())
	if err != nil {
		return nil, err
	}

	return &Generator{
		rng:                    rng,
		contents:               contents,
		platform:               platform,
		planFamily:             planFamily,
		pattern:                pattern,
		watch:                  cfg.WatchTime,
		reviewDetailRatio:      cfg.Contents.ReviewDetailRatio,
		registerOutDetailRatio: cfg.Contents.RegisterOutDetailRatio,
		searchTerms:            cfg.Contents.SearchTerms,
		reviewSamples:          cfg.Contents.ReviewSamples,
		registerOutReasons:     cfg.Contents.RegisterOutReasons,
		inquirySamples:         cfg.Contents.InquirySamples,
	}, nil
}

func chooserFor(field string, weights [4]float64) (*sample.Chooser, error) {
	c, err := sample.NewChooser(weights[:])
	if err != nil {
		return nil, &config.Error{Field: field, Message: "weights must sum to > 0"}
	}
	return c, nil
}

// Generate produces the log(s) for a decided event kind at ts, applying
// content side-effects to the user. Most kinds yield exactly one event;
// contents-start expands into a playback pattern.
func (g *Generator) Generate(u *models.User, kind models.EventKind, ts time.Time) ([]*models.Event, error) {
	switch kind {
	case models.KindAccessIn, models.KindAccessOut:
		return g.single(u, kind, ts, models.Detail{Platform: g.pickPlatform()})

	case models.KindContentsClick:
		content, err := g.contents.GetRandomContent(g.rng)
		if err != nil {
			return nil, err
		}
		u.ContentID = content.ID
		u.EpisodeID = ""
		if content.Type == models.ContentsSeries {
			u.EpisodeID = g.pickEpisode(content)
		}
		return g.single(u, kind, ts, models.Detail{
			Platform:     g.pickPlatform(),
			ContentsID:   content.ID,
			ContentsType: content.Type,
		})

	case models.KindContentsStart:
		return g.playback(u, ts)

	case models.KindContentsLikeOn, models.KindContentsLikeOff:
		content, err := g.currentContent(u)
		if err != nil {
			return nil, err
		}
		return g.single(u, kind, ts, models.Detail{
			ContentsID:   content.ID,
			ContentsType: content.Type,
		})

	case models.KindReviewReview:
		content, err := g.currentContent(u)
		if err != nil {
			return nil, err
		}
		detail := models.Detail{
			ContentsID: content.ID,
			Rating:     models.RatingSteps[g.rng.Intn(len(models.RatingSteps))],
		}
		if len(g.reviewSamples) > 0 && g.rng.Float64() < g.reviewDetailRatio {
			detail.ReviewDetail = g.reviewSamples[g.rng.Intn(len(g.reviewSamples))]
		}
		return g.single(u, kind, ts, detail)

	case models.KindSubscriptionStart:
		planID := g.pickPlanID()
		u.PlanID = planID
		return g.single(u, kind, ts, models.Detail{SubscriptionID: planID})

	case models.KindSubscriptionStop:
		planID := u.PlanID
		if planID == 0 {
			planID = g.fallbackPlanID()
		}
		u.PlanID = 0
		return g.single(u, kind, ts, models.Detail{SubscriptionID: planID})

	case models.KindRegisterIn:
		return g.single(u, kind, ts, models.Detail{
			TrafficSource: models.TrafficSource(1 + g.rng.Intn(6)),
		})

	case models.KindRegisterOut:
		detail := models.Detail{
			ReasonType: models.ReasonType(1 + g.rng.Intn(3)),
		}
		if len(g.registerOutReasons) > 0 && g.rng.Float64() < g.registerOutDetailRatio {
			detail.ReasonDetail = g.registerOutReasons[g.rng.Intn(len(g.registerOutReasons))]
		}
		return g.single(u, kind, ts, detail)

	case models.KindSearchSearch:
		if len(g.searchTerms) == 0 {
			return nil, ErrDetailUnavailable
		}
		return g.single(u, kind, ts, models.Detail{
			Term: g.searchTerms[g.rng.Intn(len(g.searchTerms))],
		})

	case models.KindSupportInquiry:
		detail := models.Detail{
			InquiryType: models.InquiryType(1 + g.rng.Intn(4)),
		}
		if len(g.inquirySamples) > 0 {
			detail.InquiryDetail = g.inquirySamples[g.rng.Intn(len(g.inquirySamples))]
		}
		return g.single(u, kind, ts, detail)

	default:
		// Pause/resume/stop exist only inside playback expansions.
		return nil, fmt.Errorf("%w: %s is not a standalone event", ErrDetailUnavailable, kind)
	}
}

func (g *Generator) single(u *models.User, kind models.EventKind, ts time.Time, detail models.Detail) ([]*models.Event, error) {
	return []*models.Event{models.NewEvent(ts, u.ID, kind, detail)}, nil
}

func (g *Generator) pickPlatform() models.Platform {
	return platforms[g.platform.Pick(g.rng)]
}

func (g *Generator) pickEpisode(content models.Content) string {
	if content.Episodes <= 0 {
		return ""
	}
	return fmt.Sprintf("ep_%02d", 1+g.rng.Intn(content.Episodes))
}

// currentContent resolves the user's current content, failing with
// ErrDetailUnavailable when none is set.
func (g *Generator) currentContent(u *models.User) (models.Content, error) {
	if u.ContentID == "" {
		return models.Content{}, ErrDetailUnavailable
	}
	content, err := g.contents.GetContentByID(u.ContentID)
	if err != nil {
		return models.Content{}, ErrDetailUnavailable
	}
	return content, nil
}

// pickPlanID draws a plan family by subscription_type_ratio, then a
// uniform plan id within the family's range.
func (g *Generator) pickPlanID() int {
	family := models.PlanFamilies[g.planFamily.Pick(g.rng)]
	lo, hi, _ := models.PlanIDRange(family)
	return lo + g.rng.Intn(hi-lo+1)
}

// fallbackPlanID draws a random plan from the catalog plan list, or a
// random id across all families when the list is empty.
func (g *Generator) fallbackPlanID() int {
	if plans := g.contents.Plans(); len(plans) > 0 {
		return plans[g.rng.Intn(len(plans))].ID
	}
	return 1 + g.rng.Intn(len(models.PlanFamilies)*models.PlansPerFamily)
}
