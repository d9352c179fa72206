package messaging

import (
	"context"
	"log/slog"
	"sync"

	"cowbridge/contexts/booking-bridge/booking-service/ports"
)

// Bus is the in-process publisher used when no broker is configured. It
// keeps the worker runnable in dev and in tests without Kafka.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan ports.Envelope
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]chan ports.Envelope),
		logger:      logger,
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, event ports.Envelope) error {
	b.mu.RLock()
	subs := append([]chan ports.Envelope(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"event", "bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
			)
		}
	}
	return nil
}

// Subscribe delivers published events on the topic to the handler until the
// context ends.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler func(context.Context, ports.Envelope) error) {
	ch := make(chan ports.Envelope, 128)

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("subscriber handler failed",
						"event", "bus_handler_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"event_id", event.EventID,
						"error", err.Error(),
					)
				}
			}
		}
	}()
}

func (b *Bus) removeSubscriber(topic string, target chan ports.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[topic]
	for idx, sub := range subs {
		if sub == target {
			b.subscribers[topic] = append(subs[:idx], subs[idx+1:]...)
			return
		}
	}
}
