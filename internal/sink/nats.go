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

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/metrics"
	"github.com/ottlab/loggen/internal/models"
)

// natsSink publishes one JetStream message per event through Watermill,
// guarded by a circuit breaker so a broker outage trips fast instead of
// stalling the pipeline on every event.
type natsSink struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	embedded  *EmbeddedServer
	logger    zerolog.Logger
	subject   string
}

func newNATSSink(cfg *config.Config, logger zerolog.Logger) (*natsSink, error) {
	slog := logger.With().Str("component", "sink").Str("sink", "nats").Logger()

	url := cfg.NATS.URL
	var embedded *EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		var err error
		embedded, err = NewEmbeddedServer(cfg.NATS, slog)
		if err != nil {
			return nil, err
		}
		url = embedded.ClientURL()
	}

	wmLogger := watermill.NewStdLogger(false, false)
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.NATS.MaxReconnects),
		natsgo.ReconnectWait(cfg.NATS.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				slog.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			slog.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, wmLogger)
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "nats-publish",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			slog.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("publisher circuit breaker state changed")
			metrics.CircuitBreakerState.Set(float64(to))
		},
	})

	return &natsSink{
		publisher: pub,
		breaker:   breaker,
		embedded:  embedded,
		logger:    slog,
		subject:   cfg.NATS.Subject,
	}, nil
}

func (s *natsSink) Write(_ context.Context, e *models.Event) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	msg.Metadata.Set("user_id", strconv.FormatInt(e.UserID, 10))

	start := time.Now()
	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.publisher.Publish(s.subject, msg)
	})
	metrics.ObservePublish("nats", start)
	if err != nil {
		metrics.SinkFlushes.WithLabelValues("nats", "error").Inc()
		return fmt.Errorf("publish to %s: %w", s.subject, err)
	}
	metrics.SinkFlushes.WithLabelValues("nats", "ok").Inc()
	metrics.SinkBytesWritten.WithLabelValues("nats").Add(float64(len(data)))
	return nil
}

func (s *natsSink) Close() error {
	err := s.publisher.Close()
	if s.embedded != nil {
		s.embedded.Shutdown()
	}
	return err
}
