// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package behavior holds the per-user state machine and the detail
// payload generation, including playback pattern expansion.
package behavior

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/models"
	"github.com/ottlab/loggen/internal/sample"
)

// Decision is the outcome of one state-machine step.
type Decision struct {
	Kind      models.EventKind
	NextState models.UserState
}

// distribution is a prebuilt weighted selection over event kinds, with
// kind names sorted so the cumulative order is stable across runs.
type distribution struct {
	kinds   []models.EventKind
	chooser *sample.Chooser
}

func (d *distribution) pick(rng *rand.Rand) models.EventKind {
	return d.kinds[d.chooser.Pick(rng)]
}

// Decider samples the next event kind from the state-conditional
// transition tables.
type Decider struct {
	rng *rand.Rand

	// Indexed by [state][subscribed]: state is main or content page,
	// subscribed is 0=false 1=true.
	mainPage    [2]*distribution
	contentPage [2]*distribution
}

// NewDecider prebuilds the four transition distributions. Unknown event
// kind names in the tables are configuration errors.
func NewDecider(cfg *config.Config, rng *rand.Rand) (*Decider, error) {
	d := &Decider{rng: rng}
	for i, subscribed := range []bool{false, true} {
		var err error
		if d.mainPage[i], err = buildDistribution("main_page", cfg.Transitions.MainPage.For(subscribed)); err != nil {
			return nil, err
		}
		if d.contentPage[i], err = buildDistribution("content_page", cfg.Transitions.ContentPage.For(subscribed)); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func buildDistribution(table string, dist map[string]float64) (*distribution, error) {
	names := make([]string, 0, len(dist))
	for name := range dist {
		names = append(names, name)
	}
	sort.Strings(names)

	kinds := make([]models.EventKind, 0, len(names))
	weights := make([]float64, 0, len(names))
	for _, name := range names {
		kind, ok := models.KindByName(name)
		if !ok {
			return nil, &config.Error{
				Field:   "user_event_transitions." + table,
				Message: fmt.Sprintf("unknown event kind %q", name),
			}
		}
		kinds = append(kinds, kind)
		weights = append(weights, dist[name])
	}

	chooser, err := sample.NewChooser(weights)
	if err != nil {
		return nil, &config.Error{
			Field:   "user_event_transitions." + table,
			Message: "weights must sum to > 0",
		}
	}
	return &distribution{kinds: kinds, chooser: chooser}, nil
}

// Decide runs one step of the state machine for the user. A user who has
// not logged in today is forced onto access-in regardless of state; the
// flag is set here so the forcing happens at most once per day.
func (d *Decider) Decide(u *models.User) Decision {
	if !u.HasLoggedInToday {
		u.HasLoggedInToday = true
		return Decision{Kind: models.KindAccessIn, NextState: models.StateMainPage}
	}

	sub := 0
	if u.IsSubscribed {
		sub = 1
	}

	switch u.State {
	case models.StateMainPage:
		kind := d.mainPage[sub].pick(d.rng)
		return Decision{Kind: kind, NextState: mainPageNext(kind)}
	case models.StateContentPage:
		// All content-page outcomes return to the main page; playback
		// expansion happens downstream of the decision.
		return Decision{Kind: d.contentPage[sub].pick(d.rng), NextState: models.StateMainPage}
	default:
		// NOT_LOGGED_IN with the flag already set cannot normally occur;
		// treat it as a fresh login.
		return Decision{Kind: models.KindAccessIn, NextState: models.StateMainPage}
	}
}

func mainPageNext(kind models.EventKind) models.UserState {
	switch kind {
	case models.KindAccessOut, models.KindRegisterOut:
		return models.StateUserOut
	case models.KindContentsClick:
		return models.StateContentPage
	default:
		return models.StateMainPage
	}
}
