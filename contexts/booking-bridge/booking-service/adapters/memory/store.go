package memory

import (
	"context"
	"sync"
	"time"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
	domainerrors "cowbridge/contexts/booking-bridge/booking-service/domain/errors"
	"cowbridge/contexts/booking-bridge/booking-service/ports"
)

// Store is an in-memory order/product source. It backs tests and the
// no-upstream dev mode, and doubles as the webhook-fed mirror.
type Store struct {
	mu sync.RWMutex

	orders      map[string]entities.RawOrder
	orderIDs    []string
	productMeta map[string]map[string]string
	productTags map[string][]string

	metadataErr map[string]error
	tagsErr     map[string]error
}

func NewStore() *Store {
	return &Store{
		orders:      map[string]entities.RawOrder{},
		productMeta: map[string]map[string]string{},
		productTags: map[string][]string{},
		metadataErr: map[string]error{},
		tagsErr:     map[string]error{},
	}
}

func (s *Store) AddOrder(order entities.RawOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; !exists {
		s.orderIDs = append(s.orderIDs, order.ID)
	}
	s.orders[order.ID] = order
}

func (s *Store) SetProductMetadata(productID string, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productMeta[productID] = metadata
}

func (s *Store) SetProductTags(productID string, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productTags[productID] = tags
}

// FailMetadataLookup makes subsequent metadata lookups for the product return
// the given error, for exercising the best-effort resolution path.
func (s *Store) FailMetadataLookup(productID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadataErr[productID] = err
}

func (s *Store) FailTagLookup(productID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagsErr[productID] = err
}

func (s *Store) FetchOrders(_ context.Context, filter ports.OrderFilter) ([]entities.RawOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 || limit > ports.MaxFetchLimit {
		limit = ports.MaxFetchLimit
	}

	out := make([]entities.RawOrder, 0, limit)
	for _, id := range s.orderIDs {
		order := s.orders[id]
		if filter.Email != "" {
			if order.Customer == nil || order.Customer.Email != filter.Email {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, order.FinancialStatus) {
			continue
		}
		out = append(out, order)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) FetchOrderByID(_ context.Context, orderID string) (entities.RawOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return entities.RawOrder{}, domainerrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *Store) FetchCustomMetadata(_ context.Context, productID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.metadataErr[productID]; err != nil {
		return nil, err
	}
	metadata, ok := s.productMeta[productID]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(metadata))
	for key, value := range metadata {
		out[key] = value
	}
	return out, nil
}

func (s *Store) FetchTags(_ context.Context, productID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.tagsErr[productID]; err != nil {
		return nil, err
	}
	return append([]string(nil), s.productTags[productID]...), nil
}

func (s *Store) UpsertOrder(_ context.Context, order entities.RawOrder) error {
	s.AddOrder(order)
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func containsStatus(statuses []string, status string) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
