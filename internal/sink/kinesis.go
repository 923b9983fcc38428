// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/rs/zerolog"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/metrics"
	"github.com/ottlab/loggen/internal/models"
)

// kinesisSink publishes each event as one record, partitioned by the
// decimal user id so a user's events land on one shard in order.
type kinesisSink struct {
	client *kinesis.Client
	logger zerolog.Logger
	stream string
}

func newKinesisSink(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*kinesisSink, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Sink.KinesisRegion),
	}
	if cfg.Sink.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Sink.AWSProfile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &kinesisSink{
		client: kinesis.NewFromConfig(awsCfg),
		logger: logger.With().Str("component", "sink").Str("sink", "kinesis").Logger(),
		stream: cfg.Sink.KinesisStream,
	}, nil
}

func (s *kinesisSink) Write(ctx context.Context, e *models.Event) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = s.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(s.stream),
		Data:         data,
		PartitionKey: aws.String(strconv.FormatInt(e.UserID, 10)),
	})
	metrics.ObservePublish("kinesis", start)
	if err != nil {
		metrics.SinkFlushes.WithLabelValues("kinesis", "error").Inc()
		return fmt.Errorf("put record to %s: %w", s.stream, err)
	}
	metrics.SinkFlushes.WithLabelValues("kinesis", "ok").Inc()
	metrics.SinkBytesWritten.WithLabelValues("kinesis").Add(float64(len(data)))
	return nil
}

func (s *kinesisSink) Close() error { return nil }
