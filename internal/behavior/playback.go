// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package behavior

import (
	"time"

	"github.com/ottlab/loggen/internal/models"
)

// Pattern identifies one of the four canonical playback sequences.
type Pattern int

const (
	PatternPlayStop Pattern = iota
	PatternPlayPauseStop
	PatternPlayPauseResumeStop
	PatternPlayPauseResumePauseStop
)

// patternParams fixes every random draw of a playback expansion so the
// expansion itself is deterministic and testable.
type patternParams struct {
	pattern  Pattern
	duration time.Duration

	// Pause fractions of the total duration and resume waits. frac2 and
	// wait2 are used only by the play-pause-resume-pause-stop pattern.
	frac1 float64
	frac2 float64
	wait1 time.Duration
}

// playback expands a contents-start decision into a full pattern and
// blocks the user until the final stop timestamp.
func (g *Generator) playback(u *models.User, t0 time.Time) ([]*models.Event, error) {
	content, err := g.resolvePlaybackContent(u)
	if err != nil {
		return nil, err
	}

	params := patternParams{
		pattern:  Pattern(g.pattern.Pick(g.rng)),
		duration: g.watchDuration(u.ActivityLevel),
	}
	switch params.pattern {
	case PatternPlayPauseStop:
		params.frac1 = uniform(g.rng.Float64(), 0.3, 0.7)
	case PatternPlayPauseResumeStop:
		params.frac1 = uniform(g.rng.Float64(), 0.2, 0.4)
		params.wait1 = uniformMinutes(g.rng.Float64(), 1, 5)
	case PatternPlayPauseResumePauseStop:
		params.frac1 = uniform(g.rng.Float64(), 0.15, 0.25)
		params.wait1 = uniformMinutes(g.rng.Float64(), 1, 3)
		params.frac2 = uniform(g.rng.Float64(), 0.2, 0.35)
	}

	events := expandPattern(u.ID, content, u.EpisodeID, g.pickPlatform(), t0, params)
	u.BlockedUntil = events[len(events)-1].Timestamp.Time()
	return events, nil
}

// resolvePlaybackContent uses the user's current content if set, else
// samples one and records it on the user.
func (g *Generator) resolvePlaybackContent(u *models.User) (models.Content, error) {
	if u.ContentID != "" {
		if content, err := g.contents.GetContentByID(u.ContentID); err == nil {
			return content, nil
		}
	}
	content, err := g.contents.GetRandomContent(g.rng)
	if err != nil {
		return models.Content{}, err
	}
	u.ContentID = content.ID
	u.EpisodeID = ""
	if content.Type == models.ContentsSeries {
		u.EpisodeID = g.pickEpisode(content)
	}
	return content, nil
}

// watchDuration computes the total watch time for the activity level:
// configured average with uniform integer jitter of ±noise minutes,
// floored at one minute.
func (g *Generator) watchDuration(level models.ActivityLevel) time.Duration {
	var avg, noise int
	switch level {
	case models.ActivityHigh:
		avg, noise = g.watch.HighAvgMinutes, g.watch.HighNoise
	case models.ActivityMedium:
		avg, noise = g.watch.MediumAvgMinutes, g.watch.MediumNoise
	default:
		avg, noise = g.watch.LowAvgMinutes, g.watch.LowNoise
	}
	minutes := avg
	if noise > 0 {
		minutes += g.rng.Intn(2*noise+1) - noise
	}
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

// expandPattern emits the pattern's events with strictly increasing
// timestamps. All logs carry the same platform, content and episode.
func expandPattern(userID int64, content models.Content, episodeID string, platform models.Platform, t0 time.Time, p patternParams) []*models.Event {
	detail := models.Detail{
		Platform:     platform,
		ContentsID:   content.ID,
		ContentsType: content.Type,
		EpisodeID:    episodeID,
	}
	at := func(kind models.EventKind, ts time.Time) *models.Event {
		return models.NewEvent(ts, userID, kind, detail)
	}
	frac := func(f float64) time.Duration {
		return time.Duration(f * float64(p.duration))
	}

	switch p.pattern {
	case PatternPlayPauseStop:
		pause := t0.Add(frac(p.frac1))
		return []*models.Event{
			at(models.KindContentsStart, t0),
			at(models.KindContentsPause, pause),
			at(models.KindContentsStop, t0.Add(p.duration)),
		}

	case PatternPlayPauseResumeStop:
		pause := t0.Add(frac(p.frac1))
		resume := pause.Add(p.wait1)
		stop := resume.Add(p.duration - frac(p.frac1))
		return []*models.Event{
			at(models.KindContentsStart, t0),
			at(models.KindContentsPause, pause),
			at(models.KindContentsResume, resume),
			at(models.KindContentsStop, stop),
		}

	case PatternPlayPauseResumePauseStop:
		pause1 := t0.Add(frac(p.frac1))
		resume := pause1.Add(p.wait1)
		pause2 := resume.Add(frac(p.frac2))
		stop := pause2.Add(p.duration - frac(p.frac1) - frac(p.frac2))
		return []*models.Event{
			at(models.KindContentsStart, t0),
			at(models.KindContentsPause, pause1),
			at(models.KindContentsResume, resume),
			at(models.KindContentsPause, pause2),
			at(models.KindContentsStop, stop),
		}

	default: // play-stop
		return []*models.Event{
			at(models.KindContentsStart, t0),
			at(models.KindContentsStop, t0.Add(p.duration)),
		}
	}
}

// uniform maps a [0,1) draw onto [lo, hi).
func uniform(draw, lo, hi float64) float64 {
	return lo + draw*(hi-lo)
}

// uniformMinutes maps a [0,1) draw onto [lo, hi) minutes.
func uniformMinutes(draw float64, lo, hi float64) time.Duration {
	return time.Duration(uniform(draw, lo, hi) * float64(time.Minute))
}
