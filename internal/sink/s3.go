// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/models"
)

// s3API is the slice of the S3 client the sink uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3FlushTimeout bounds a single bucket upload.
const s3FlushTimeout = 30 * time.Second

// s3Sink uploads flushed hour buckets as single objects with the same
// key layout as the file sink, under the configured prefix.
type s3Sink struct {
	client  s3API
	buf     *buffer
	offsets offsetSource
	logger  zerolog.Logger

	bucket       string
	prefix       string
	topic        string
	objectPrefix string
}

func newS3Sink(ctx context.Context, cfg *config.Config, offsets offsetSource, logger zerolog.Logger) (*s3Sink, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Sink.S3Region),
	}
	if cfg.Sink.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Sink.AWSProfile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s := &s3Sink{
		client:       s3.NewFromConfig(awsCfg),
		offsets:      offsets,
		logger:       logger.With().Str("component", "sink").Str("sink", "s3").Logger(),
		bucket:       cfg.Sink.S3Bucket,
		prefix:       cfg.Sink.S3Prefix,
		topic:        cfg.Sink.Topic,
		objectPrefix: objectPrefix(cfg.Sink.Topic, cfg.Sink.Partition),
	}
	s.buf = newBuffer("s3", offsets, s.flushObject)
	return s, nil
}

func (s *s3Sink) Write(_ context.Context, e *models.Event) error {
	return s.buf.add(e)
}

func (s *s3Sink) Close() error {
	err := s.buf.close()
	if cerr := s.offsets.close(); err == nil {
		err = cerr
	}
	return err
}

// flushObject uploads one bucket. Flushes run on their own deadline
// rather than the pipeline context: the close-path flush happens after
// that context is already cancelled.
func (s *s3Sink) flushObject(key HourKey, offset int, body []byte, count int) error {
	objectKey := path.Join(s.prefix, s.topic, key.Path(), Filename(s.objectPrefix, offset))

	ctx, cancel := context.WithTimeout(context.Background(), s3FlushTimeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectKey, err)
	}

	s.logger.Debug().
		Str("key", objectKey).
		Int("events", count).
		Int("offset", offset).
		Msg("hour bucket uploaded")
	return nil
}
