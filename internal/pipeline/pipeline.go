// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package pipeline orchestrates the per-timestamp generation flow:
// sample timestamp, select user, decide, generate detail, apply
// side-effects, update state, emit to the sink.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ottlab/loggen/internal/behavior"
	"github.com/ottlab/loggen/internal/catalog"
	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/metrics"
	"github.com/ottlab/loggen/internal/models"
	"github.com/ottlab/loggen/internal/pool"
	"github.com/ottlab/loggen/internal/sampler"
	"github.com/ottlab/loggen/internal/sink"
)

// Skip reasons for iterations that produced no events.
const (
	SkipNoUser            = "no_user"
	SkipDetailUnavailable = "detail_unavailable"
	SkipGenerationError   = "generation_error"
	SkipSinkError         = "sink_error"
)

// progressEvery is the iteration interval between batch progress logs.
const progressEvery = 10000

// Result summarizes one pipeline iteration.
type Result struct {
	Emitted int
	// Skipped carries the skip reason when Emitted is 0 and the
	// iteration was dropped rather than failed.
	Skipped string
}

// SideEffects is the catalog write surface the pipeline needs.
type SideEffects interface {
	SoftDeleteUser(ctx context.Context, userID int64, ts time.Time) error
	MarkSubscription(ctx context.Context, userID int64, active bool, planID int, ts time.Time) error
}

// Pipeline drives generation for one run. Single-threaded; one event
// decision per iteration.
type Pipeline struct {
	cfg     *config.Config
	sampler *sampler.Sampler
	pool    *pool.Pool
	decider *behavior.Decider
	gen     *behavior.Generator
	effects SideEffects
	out     sink.Sink
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New wires a pipeline. A zero target_mps disables throttling.
func New(
	cfg *config.Config,
	smp *sampler.Sampler,
	p *pool.Pool,
	decider *behavior.Decider,
	gen *behavior.Generator,
	effects SideEffects,
	out sink.Sink,
	logger zerolog.Logger,
) *Pipeline {
	var limiter *rate.Limiter
	if cfg.Global.TargetMPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Global.TargetMPS), 1)
	}
	return &Pipeline{
		cfg:     cfg,
		sampler: smp,
		pool:    p,
		decider: decider,
		gen:     gen,
		effects: effects,
		out:     out,
		limiter: limiter,
		logger:  logger.With().Str("component", "pipeline").Logger(),
	}
}

// RunBatch replays every configured target month through the sink. The
// sink is closed on every exit path, including interrupt, so the open
// hour buckets always flush.
func (p *Pipeline) RunBatch(ctx context.Context) (err error) {
	defer func() {
		if cerr := p.out.Close(); cerr != nil {
			if err == nil {
				err = cerr
			} else {
				p.logger.Error().Err(cerr).Msg("sink close failed")
			}
		}
	}()

	for _, month := range p.cfg.Global.TargetMonths {
		if err := p.runMonth(ctx, month); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runMonth(ctx context.Context, month string) error {
	total, err := sampler.TotalLogs(month, p.cfg.Generator.DAU, p.cfg.Generator.LogsPerUserPerDay)
	if err != nil {
		return err
	}
	seq, err := p.sampler.MonthTimestamps(month, total)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("month", month).
		Int("timestamps", seq.Len()).
		Msg("month replay started")

	emitted, iterations := 0, 0
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ts, ok := seq.Next()
		if !ok {
			break
		}

		res, err := p.Step(ctx, ts)
		if err != nil {
			return err
		}
		emitted += res.Emitted
		iterations++

		if iterations%progressEvery == 0 {
			p.logger.Info().
				Str("month", month).
				Int("iterations", iterations).
				Int("remaining", seq.Remaining()).
				Int("emitted", emitted).
				Msg("batch progress")
		}
	}

	p.logger.Info().
		Str("month", month).
		Int("iterations", iterations).
		Int("emitted", emitted).
		Dur("elapsed", time.Since(start)).
		Msg("month replay finished")
	return nil
}

// RunStreaming emits events at the current wall clock until the context
// is cancelled, then unwinds through the sink's close path.
func (p *Pipeline) RunStreaming(ctx context.Context) error {
	p.logger.Info().Float64("target_mps", p.cfg.Global.TargetMPS).Msg("streaming started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("streaming interrupted, closing sink")
			if err := p.out.Close(); err != nil {
				p.logger.Error().Err(err).Msg("sink close failed")
			}
			return ctx.Err()
		default:
		}

		if _, err := p.Step(ctx, p.sampler.Now()); err != nil {
			p.out.Close()
			return err
		}
	}
}

// Serve implements suture.Service for supervised streaming runs.
func (p *Pipeline) Serve(ctx context.Context) error {
	return p.RunStreaming(ctx)
}

// Step runs one iteration at ts. Catalog failures during selection and
// unavailable details skip the timestamp; sink write failures are logged
// and counted, never fatal.
func (p *Pipeline) Step(ctx context.Context, ts time.Time) (Result, error) {
	u, err := p.pool.Select(ctx, ts)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		p.logger.Warn().Err(err).Time("ts", ts).Msg("user selection failed, skipping timestamp")
		metrics.IterationsSkipped.WithLabelValues(SkipNoUser).Inc()
		return Result{Skipped: SkipNoUser}, nil
	}

	decision := p.decider.Decide(u)

	events, err := p.gen.Generate(u, decision.Kind, ts)
	if err != nil {
		if errors.Is(err, behavior.ErrDetailUnavailable) {
			metrics.IterationsSkipped.WithLabelValues(SkipDetailUnavailable).Inc()
			return Result{Skipped: SkipDetailUnavailable}, nil
		}
		p.logger.Warn().Err(err).Time("ts", ts).Msg("detail generation failed, skipping timestamp")
		metrics.IterationsSkipped.WithLabelValues(SkipGenerationError).Inc()
		return Result{Skipped: SkipGenerationError}, nil
	}

	p.applySideEffects(ctx, u, decision.Kind, ts)
	p.pool.Update(u, decision.NextState)

	emitted := 0
	for _, e := range events {
		if err := p.out.Write(ctx, e); err != nil {
			if errors.Is(err, sink.ErrLateEvent) {
				continue
			}
			p.logger.Error().Err(err).Msg("sink write failed")
			metrics.IterationsSkipped.WithLabelValues(SkipSinkError).Inc()
			continue
		}
		emitted++
		if kind, ok := models.KindOf(e.EventCategory, e.EventType); ok {
			metrics.EventsEmitted.WithLabelValues(kind.String()).Inc()
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return Result{Emitted: emitted}, err
			}
		}
	}
	return Result{Emitted: emitted}, nil
}

// applySideEffects performs the catalog and pool mutations implied by
// the decided kind. Catalog write failures are logged and tolerated so
// a flaky store does not halt generation.
func (p *Pipeline) applySideEffects(ctx context.Context, u *models.User, kind models.EventKind, ts time.Time) {
	switch kind {
	case models.KindAccessOut:
		u.HasLoggedInToday = false

	case models.KindSubscriptionStart:
		u.IsSubscribed = true
		if err := p.effects.MarkSubscription(ctx, u.ID, true, u.PlanID, ts); err != nil {
			p.logCatalogErr(err, u.ID, "subscription start not persisted")
		}

	case models.KindSubscriptionStop:
		u.IsSubscribed = false
		if err := p.effects.MarkSubscription(ctx, u.ID, false, 0, ts); err != nil {
			p.logCatalogErr(err, u.ID, "subscription stop not persisted")
		}

	case models.KindRegisterOut:
		if err := p.effects.SoftDeleteUser(ctx, u.ID, ts); err != nil {
			p.logCatalogErr(err, u.ID, "soft delete not persisted")
		} else {
			metrics.UsersDeleted.Inc()
		}
	}
}

func (p *Pipeline) logCatalogErr(err error, userID int64, msg string) {
	var catErr *catalog.Error
	evt := p.logger.Warn().Err(err).Int64("user_id", userID)
	if errors.As(err, &catErr) {
		evt = evt.Str("op", catErr.Op)
	}
	evt.Msg(msg)
}
