package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/config"
	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces every snapshot to a Kafka topic, keyed by snapshot
// name so compacted topics keep only the latest document per name.
// It implements pipeline.SnapshotWriter.
type Publisher struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
// clock stamps the published_at header.
func NewPublisher(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, clock: clock, logger: logger}
}

// WriteSnapshot serializes and publishes one snapshot document.
func (p *Publisher) WriteSnapshot(ctx context.Context, name string, document any) error {
	msg, err := serializeToMessage(name, document, p.clock.Now().UTC())
	if err != nil {
		return &domain.WriteError{Name: name, Err: err}
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return &domain.WriteError{Name: name, Err: fmt.Errorf("publish to %s: %w", p.writer.Topic, err)}
	}
	p.logger.Debug("snapshot published", "snapshot", name, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a snapshot document into a Kafka message.
func serializeToMessage(name string, document any, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot", Value: []byte(name)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
