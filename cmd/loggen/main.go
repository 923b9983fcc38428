// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Loggen generates synthetic OTT user-behavior logs.
//
// In batch mode it replays each configured target month as a sorted,
// weighted timestamp stream; in streaming mode it emits at the current
// wall clock until interrupted. Events flow through a per-user state
// machine into one of four sinks (file, s3, kinesis, nats).
package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/ottlab/loggen/internal/behavior"
	"github.com/ottlab/loggen/internal/catalog"
	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/logging"
	"github.com/ottlab/loggen/internal/metrics"
	"github.com/ottlab/loggen/internal/pipeline"
	"github.com/ottlab/loggen/internal/pool"
	"github.com/ottlab/loggen/internal/sampler"
	"github.com/ottlab/loggen/internal/sink"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("configuration load failed")
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logger.Info().
		Str("mode", cfg.Global.GenerationMode).
		Str("sink", cfg.Sink.Type).
		Str("timezone", cfg.Global.Timezone).
		Msg("loggen starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	db, err := catalog.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("catalog open failed")
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("catalog close failed")
		}
	}()

	if cfg.Database.SeedMockData {
		if err := db.SeedMockData(ctx, cfg.Database.SeedUsers, cfg.Database.SeedContents, rng); err != nil {
			logger.Error().Err(err).Msg("mock data seeding failed")
			return 1
		}
	}
	if err := db.LoadCaches(ctx); err != nil {
		logger.Error().Err(err).Msg("catalog cache load failed")
		return 1
	}

	userPool, err := pool.New(db, cfg, rng, logger)
	if err != nil {
		logger.Error().Err(err).Msg("user pool setup failed")
		return 1
	}
	decider, err := behavior.NewDecider(cfg, rng)
	if err != nil {
		logger.Error().Err(err).Msg("transition table setup failed")
		return 1
	}
	gen, err := behavior.NewGenerator(cfg, db, rng)
	if err != nil {
		logger.Error().Err(err).Msg("detail generator setup failed")
		return 1
	}

	out, err := sink.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("sink setup failed")
		return 1
	}

	if cfg.Metrics.Enabled {
		ops := metrics.NewServer(cfg.Metrics.Addr, db, logger)
		ops.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ops.Shutdown(shutdownCtx)
		}()
	}

	pipe := pipeline.New(cfg, sampler.New(cfg, rng), userPool, decider, gen, db, out, logger)

	switch cfg.Global.GenerationMode {
	case config.ModeStreaming:
		return runStreaming(ctx, pipe, logger)
	default:
		if err := pipe.RunBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("batch run failed")
			return 1
		}
		logger.Info().Msg("batch run complete")
		return 0
	}
}

// runStreaming supervises the pipeline so transient sink failures
// restart it instead of killing the process.
func runStreaming(ctx context.Context, pipe *pipeline.Pipeline, logger zerolog.Logger) int {
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	supervisor := suture.New("loggen", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	supervisor.Add(pipe)

	err := supervisor.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("streaming run failed")
		return 1
	}
	logger.Info().Msg("streaming run stopped")
	return 0
}
