// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package sink persists generated events. File-like back-ends buffer
// per hour bucket and flush sorted NDJSON objects under a Hive-style
// partition path; streaming back-ends publish one record per event.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/models"
)

// Sink is the output back-end for generated events.
type Sink interface {
	// Write accepts one event. File-like back-ends may buffer; errors
	// are logged and counted by the pipeline, never fatal mid-run.
	Write(ctx context.Context, e *models.Event) error
	// Close flushes any buffered buckets and releases resources.
	Close() error
}

// ErrLateEvent marks an event older than the open bucket window. Late
// events are dropped; a flushed hour is never re-opened.
var ErrLateEvent = errors.New("event belongs to an already-flushed hour")

// New builds the configured sink.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Sink, error) {
	scope := objectPrefix(cfg.Sink.Topic, cfg.Sink.Partition)
	offsets, err := newOffsetSource(cfg.Sink.OffsetStorePath, scope, logger)
	if err != nil {
		return nil, err
	}

	switch cfg.Sink.Type {
	case config.SinkFile:
		return newFileSink(cfg, offsets, logger), nil
	case config.SinkS3:
		return newS3Sink(ctx, cfg, offsets, logger)
	case config.SinkKinesis:
		return newKinesisSink(ctx, cfg, logger)
	case config.SinkNATS:
		return newNATSSink(cfg, logger)
	default:
		return nil, &config.Error{
			Field:   "sink.sink_type",
			Message: fmt.Sprintf("unknown sink type %q", cfg.Sink.Type),
		}
	}
}
