package cowlendarapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domainerrors "cowbridge/contexts/booking-bridge/partner-sync-service/domain/errors"
	"cowbridge/contexts/booking-bridge/partner-sync-service/ports"
)

const defaultTimeout = 10 * time.Second

// Client talks to the Cowlendar partner API: OAuth token endpoints plus the
// booking resource.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

func NewClient(baseURL, clientID, clientSecret string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient:   &http.Client{Timeout: defaultTimeout},
		Logger:       logger,
	}
}

type tokenWire struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (c *Client) ExchangeAuthCode(ctx context.Context, code, redirectURI string) (ports.TokenBundle, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	return c.tokenRequest(ctx, form)
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (ports.TokenBundle, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (ports.TokenBundle, error) {
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return ports.TokenBundle{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ports.TokenBundle{}, domainerrors.ErrPartnerUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return ports.TokenBundle{}, domainerrors.ErrNotAuthorized
	}
	if resp.StatusCode != http.StatusOK {
		return ports.TokenBundle{}, domainerrors.ErrPartnerUnavailable
	}

	var wire tokenWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return ports.TokenBundle{}, fmt.Errorf("decode token response: %w", err)
	}
	return ports.TokenBundle{
		AccessToken:  wire.AccessToken,
		RefreshToken: wire.RefreshToken,
		TokenType:    wire.TokenType,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(wire.ExpiresIn) * time.Second),
	}, nil
}

func (c *Client) CreateBooking(ctx context.Context, accessToken string, payload ports.BookingPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode booking payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/bookings", strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("build booking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", domainerrors.ErrPartnerUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", domainerrors.ErrNotAuthorized
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", domainerrors.ErrPartnerUnavailable
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode booking response: %w", err)
	}
	return created.ID, nil
}

func (c *Client) ListBookings(ctx context.Context, accessToken string, filter ports.BookingListFilter) ([]ports.RemoteBooking, error) {
	params := url.Values{}
	if filter.Provider != "" {
		params.Set("provider", filter.Provider)
	}
	if filter.DateFrom != "" {
		params.Set("date_from", filter.DateFrom)
	}
	if filter.DateTo != "" {
		params.Set("date_to", filter.DateTo)
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/bookings?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build booking list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, domainerrors.ErrPartnerUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domainerrors.ErrNotAuthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.ErrPartnerUnavailable
	}

	var body struct {
		Bookings []ports.RemoteBooking `json:"bookings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode booking list response: %w", err)
	}
	return body.Bookings, nil
}
