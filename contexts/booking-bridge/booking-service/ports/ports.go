package ports

import (
	"context"
	"time"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
)

// MaxFetchLimit is the absolute cap on orders fetched per request. Store
// adapters enforce it regardless of the caller-requested value.
const MaxFetchLimit = 250

type OrderFilter struct {
	Email    string
	Statuses []string
	Limit    int
}

// OrderStore is the upstream commerce system. FetchOrderByID fails with the
// domain not-found error when the order is absent.
type OrderStore interface {
	FetchOrders(ctx context.Context, filter OrderFilter) ([]entities.RawOrder, error)
	FetchOrderByID(ctx context.Context, orderID string) (entities.RawOrder, error)
}

// ProductMetadataStore looks up per-product host metadata. Lookups are
// best-effort from the pipeline's point of view: any failure is swallowed
// into "host unresolved" by the caller.
type ProductMetadataStore interface {
	FetchCustomMetadata(ctx context.Context, productID string) (map[string]string, error)
	FetchTags(ctx context.Context, productID string) ([]string, error)
}

// OrderMirror receives commerce webhook payloads to keep a local copy of the
// order set. The mirror is an alternative OrderStore backend, not a cache the
// pipeline consults implicitly.
type OrderMirror interface {
	UpsertOrder(ctx context.Context, order entities.RawOrder) error
}

type Clock interface {
	Now() time.Time
}

// Envelope is the booking lifecycle event shape published to the bus.
type Envelope struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    []byte    `json:"payload"`
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event Envelope) error
}
