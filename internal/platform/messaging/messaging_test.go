package messaging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"cowbridge/contexts/booking-bridge/booking-service/ports"
)

type fakeWriter struct {
	messages []kafka.Message
	writeErr error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublishWritesKeyedMessage(t *testing.T) {
	writer := &fakeWriter{}
	publisher := &Kafka{writer: writer, logger: slog.Default()}

	event := ports.Envelope{
		EventID:    "evt-1",
		EventType:  "booking.synced",
		OccurredAt: time.Now().UTC(),
		Payload:    []byte(`{"order_id":"1001"}`),
	}
	if err := publisher.Publish(context.Background(), "booking.synced", event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if msg.Topic != "booking.synced" || string(msg.Key) != "evt-1" {
		t.Fatalf("unexpected message %+v", msg)
	}

	if err := publisher.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !writer.closed {
		t.Fatalf("expected underlying writer closed")
	}
}

func TestKafkaPublishPropagatesWriteErrors(t *testing.T) {
	writer := &fakeWriter{writeErr: errors.New("broker down")}
	publisher := &Kafka{writer: writer, logger: slog.Default()}

	err := publisher.Publish(context.Background(), "booking.synced", ports.Envelope{EventID: "evt-2"})
	if err == nil {
		t.Fatalf("expected write error to propagate")
	}
}

func TestNewKafkaRequiresBrokers(t *testing.T) {
	if _, err := NewKafka(nil, nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ports.Envelope, 1)
	bus.Subscribe(ctx, "booking.synced", func(_ context.Context, event ports.Envelope) error {
		received <- event
		return nil
	})

	event := ports.Envelope{EventID: "evt-3", EventType: "booking.synced"}
	if err := bus.Publish(ctx, "booking.synced", event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got.EventID != "evt-3" {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscriber never received the event")
	}
}

func TestBusIgnoresTopicsWithoutSubscribers(t *testing.T) {
	bus := NewBus(nil)
	if err := bus.Publish(context.Background(), "nobody.listens", ports.Envelope{EventID: "evt-4"}); err != nil {
		t.Fatalf("publish to empty topic must succeed: %v", err)
	}
}
