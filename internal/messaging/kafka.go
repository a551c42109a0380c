package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/dealsense/salesapi/internal/config"
	"github.com/dealsense/salesapi/pkg/models"
)

// UsageEvent is the analytics record published after a billable call is
// recorded. The ledger in PostgreSQL stays authoritative; this stream is
// observational only.
type UsageEvent struct {
	UserID      uuid.UUID      `json:"user_id"`
	Feature     models.Feature `json:"feature"`
	MonthBucket string         `json:"month_bucket"`
	Timestamp   time.Time      `json:"timestamp"`
}

type EventBus struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

// NewEventBus returns nil when Kafka is disabled in config; callers treat a
// nil bus as a no-op sink.
func NewEventBus(cfg *config.Config, logger *logrus.Logger) *EventBus {
	if !cfg.Kafka.Enabled {
		return nil
	}

	return &EventBus{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topics.UsageEvents,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		logger: logger,
	}
}

// PublishUsage sends one usage event. Failures are returned for logging but
// must never overturn the request that produced the usage.
func (b *EventBus) PublishUsage(ctx context.Context, event UsageEvent) error {
	if b == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal usage event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: payload,
		Time:  event.Timestamp,
	}

	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish usage event: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"user_id": event.UserID,
		"feature": event.Feature,
	}).Debug("Usage event published")

	return nil
}

func (b *EventBus) Close() error {
	if b == nil {
		return nil
	}
	return b.writer.Close()
}
