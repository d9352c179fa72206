package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainerrors "cowbridge/contexts/booking-bridge/partner-sync-service/domain/errors"
	"cowbridge/contexts/booking-bridge/partner-sync-service/ports"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshMargin is how long before expiry a token is treated as stale.
const DefaultRefreshMargin = 60 * time.Second

// TokenManager caches the partner OAuth bundle per client id and refreshes
// it lazily. Refreshes are single-flight: concurrent callers share one
// in-flight refresh and observe the same resulting bundle.
type TokenManager struct {
	client        ports.PartnerClient
	clientID      string
	clock         ports.Clock
	refreshMargin time.Duration
	logger        *slog.Logger

	mu     sync.RWMutex
	tokens map[string]ports.TokenBundle
	group  singleflight.Group
}

func NewTokenManager(client ports.PartnerClient, clientID string, clock ports.Clock, logger *slog.Logger) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		client:        client,
		clientID:      clientID,
		clock:         clock,
		refreshMargin: DefaultRefreshMargin,
		logger:        logger,
		tokens:        map[string]ports.TokenBundle{},
	}
}

// Exchange trades an authorization code for the initial bundle and seeds the
// cache.
func (m *TokenManager) Exchange(ctx context.Context, code, redirectURI string) (ports.TokenBundle, error) {
	bundle, err := m.client.ExchangeAuthCode(ctx, code, redirectURI)
	if err != nil {
		return ports.TokenBundle{}, err
	}
	m.mu.Lock()
	m.tokens[m.clientID] = bundle
	m.mu.Unlock()

	m.logger.Info("partner token exchanged",
		"event", "partner_token_exchanged",
		"module", "booking-bridge/partner-sync-service",
		"layer", "application",
		"client_id", m.clientID,
		"expires_at", bundle.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return bundle, nil
}

// Token returns a bundle valid for at least the refresh margin, refreshing
// through the partner when the cached one is stale.
func (m *TokenManager) Token(ctx context.Context) (ports.TokenBundle, error) {
	m.mu.RLock()
	bundle, ok := m.tokens[m.clientID]
	m.mu.RUnlock()
	if !ok {
		return ports.TokenBundle{}, domainerrors.ErrNotAuthorized
	}
	if m.now().Before(bundle.ExpiresAt.Add(-m.margin())) {
		return bundle, nil
	}

	result, err, _ := m.group.Do(m.clientID, func() (any, error) {
		// Re-check under the flight: another caller may have refreshed
		// while this one waited.
		m.mu.RLock()
		current, ok := m.tokens[m.clientID]
		m.mu.RUnlock()
		if !ok {
			return ports.TokenBundle{}, domainerrors.ErrNotAuthorized
		}
		if m.now().Before(current.ExpiresAt.Add(-m.margin())) {
			return current, nil
		}

		refreshed, err := m.client.RefreshToken(ctx, current.RefreshToken)
		if err != nil {
			return ports.TokenBundle{}, err
		}
		m.mu.Lock()
		m.tokens[m.clientID] = refreshed
		m.mu.Unlock()

		m.logger.Info("partner token refreshed",
			"event", "partner_token_refreshed",
			"module", "booking-bridge/partner-sync-service",
			"layer", "application",
			"client_id", m.clientID,
			"expires_at", refreshed.ExpiresAt.UTC().Format(time.RFC3339),
		)
		return refreshed, nil
	})
	if err != nil {
		return ports.TokenBundle{}, err
	}
	return result.(ports.TokenBundle), nil
}

func (m *TokenManager) now() time.Time {
	if m.clock != nil {
		return m.clock.Now()
	}
	return time.Now()
}

func (m *TokenManager) margin() time.Duration {
	if m.refreshMargin > 0 {
		return m.refreshMargin
	}
	return DefaultRefreshMargin
}
