// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package sink

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/models"
)

// fileSink writes flushed hour buckets as NDJSON files under
// {output_dir}/{topic}/year=YYYY/month=MM/day=DD/hour=HH/.
type fileSink struct {
	buf     *buffer
	offsets offsetSource
	logger  zerolog.Logger

	outputDir    string
	topic        string
	objectPrefix string
}

func newFileSink(cfg *config.Config, offsets offsetSource, logger zerolog.Logger) *fileSink {
	s := &fileSink{
		offsets:      offsets,
		logger:       logger.With().Str("component", "sink").Str("sink", "file").Logger(),
		outputDir:    cfg.Sink.OutputDir,
		topic:        cfg.Sink.Topic,
		objectPrefix: objectPrefix(cfg.Sink.Topic, cfg.Sink.Partition),
	}
	s.buf = newBuffer("file", offsets, s.flushFile)
	return s
}

func (s *fileSink) Write(_ context.Context, e *models.Event) error {
	return s.buf.add(e)
}

func (s *fileSink) Close() error {
	err := s.buf.close()
	if cerr := s.offsets.close(); err == nil {
		err = cerr
	}
	return err
}

// flushFile writes one bucket body. The file handle lives only for the
// duration of the flush.
func (s *fileSink) flushFile(key HourKey, offset int, body []byte, count int) error {
	dir := filepath.Join(s.outputDir, s.topic, filepath.FromSlash(key.Path()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, Filename(s.objectPrefix, offset))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return err
	}

	s.logger.Debug().
		Str("path", path).
		Int("events", count).
		Int("offset", offset).
		Msg("hour bucket flushed")
	return nil
}
