package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cowbridge/contexts/booking-bridge/booking-service/ports"

	"github.com/segmentio/kafka-go"
)

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes booking lifecycle events to an external broker.
type Kafka struct {
	writer kafkaMessageWriter
	logger *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Kafka{writer: writer, logger: logger}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event envelope: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.EventID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	k.logger.Info("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
