package ports

import (
	"context"
	"time"
)

// TokenBundle is the partner OAuth state. It is the only mutable
// process-wide state in the system and is never persisted.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

type BookingPayload struct {
	ExternalID   string `json:"external_id"`
	EventName    string `json:"event_name"`
	Provider     string `json:"provider,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Date         string `json:"date,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Timezone     string `json:"timezone"`
	Status       string `json:"status"`
}

type BookingListFilter struct {
	Provider string
	DateFrom string
	DateTo   string
	Limit    int
}

type RemoteBooking struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	EventName  string `json:"event_name"`
	Provider   string `json:"provider"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}

// PartnerClient is the downstream booking-management system.
type PartnerClient interface {
	ExchangeAuthCode(ctx context.Context, code, redirectURI string) (TokenBundle, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenBundle, error)
	CreateBooking(ctx context.Context, accessToken string, payload BookingPayload) (string, error)
	ListBookings(ctx context.Context, accessToken string, filter BookingListFilter) ([]RemoteBooking, error)
}

// SyncLedger records which orders have already been pushed downstream.
// MarkSynced after a successful push; a failed push leaves the order
// unmarked so a later run retries it.
type SyncLedger interface {
	AlreadySynced(ctx context.Context, orderID string) (bool, error)
	MarkSynced(ctx context.Context, orderID, partnerBookingID string) error
}

type Clock interface {
	Now() time.Time
}
