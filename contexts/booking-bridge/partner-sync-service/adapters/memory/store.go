package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainerrors "cowbridge/contexts/booking-bridge/partner-sync-service/domain/errors"
	"cowbridge/contexts/booking-bridge/partner-sync-service/ports"
)

// Store is an in-process partner double plus sync ledger for tests and the
// no-partner dev mode.
type Store struct {
	mu sync.Mutex

	TokenTTL time.Duration

	exchanges  int
	refreshes  int
	bookings   []ports.BookingPayload
	synced     map[string]string
	nextID     int
	createErr  error
	refreshErr error
}

func NewStore() *Store {
	return &Store{
		TokenTTL: time.Hour,
		synced:   map[string]string{},
	}
}

// FailCreate makes subsequent CreateBooking calls return the given error.
func (s *Store) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

func (s *Store) FailRefresh(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshErr = err
}

func (s *Store) Exchanges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchanges
}

func (s *Store) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func (s *Store) CreatedBookings() []ports.BookingPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.BookingPayload(nil), s.bookings...)
}

func (s *Store) ExchangeAuthCode(_ context.Context, code, _ string) (ports.TokenBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == "" {
		return ports.TokenBundle{}, domainerrors.ErrNotAuthorized
	}
	s.exchanges++
	return s.bundleLocked("access-exchange"), nil
}

func (s *Store) RefreshToken(_ context.Context, refreshToken string) (ports.TokenBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshErr != nil {
		return ports.TokenBundle{}, s.refreshErr
	}
	if refreshToken == "" {
		return ports.TokenBundle{}, domainerrors.ErrNotAuthorized
	}
	s.refreshes++
	return s.bundleLocked(fmt.Sprintf("access-refresh-%d", s.refreshes)), nil
}

func (s *Store) CreateBooking(_ context.Context, accessToken string, payload ports.BookingPayload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	if accessToken == "" {
		return "", domainerrors.ErrNotAuthorized
	}
	s.nextID++
	s.bookings = append(s.bookings, payload)
	return fmt.Sprintf("cow-%d", s.nextID), nil
}

func (s *Store) ListBookings(_ context.Context, accessToken string, filter ports.BookingListFilter) ([]ports.RemoteBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accessToken == "" {
		return nil, domainerrors.ErrNotAuthorized
	}
	out := make([]ports.RemoteBooking, 0, len(s.bookings))
	for idx, payload := range s.bookings {
		if filter.Provider != "" && payload.Provider != filter.Provider {
			continue
		}
		out = append(out, ports.RemoteBooking{
			ID:         fmt.Sprintf("cow-%d", idx+1),
			ExternalID: payload.ExternalID,
			EventName:  payload.EventName,
			Provider:   payload.Provider,
			Date:       payload.Date,
			Status:     payload.Status,
		})
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) AlreadySynced(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.synced[orderID]
	return ok, nil
}

func (s *Store) MarkSynced(_ context.Context, orderID, partnerBookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced[orderID] = partnerBookingID
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) bundleLocked(accessToken string) ports.TokenBundle {
	return ports.TokenBundle{
		AccessToken:  accessToken,
		RefreshToken: "refresh-" + accessToken,
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().UTC().Add(s.TokenTTL),
	}
}
