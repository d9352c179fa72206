package cowlendarapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainerrors "cowbridge/contexts/booking-bridge/partner-sync-service/domain/errors"
	"cowbridge/contexts/booking-bridge/partner-sync-service/ports"
)

func TestExchangeAuthCodeSendsFormAndMapsBundle(t *testing.T) {
	var gotForm map[string]string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"code":          r.PostForm.Get("code"),
			"client_id":     r.PostForm.Get("client_id"),
			"client_secret": r.PostForm.Get("client_secret"),
		}
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "client-1", "secret-1", nil)
	bundle, err := client.ExchangeAuthCode(context.Background(), "auth-code", "https://example.com/cb")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	if gotForm["grant_type"] != "authorization_code" || gotForm["code"] != "auth-code" {
		t.Fatalf("unexpected form %v", gotForm)
	}
	if gotForm["client_id"] != "client-1" || gotForm["client_secret"] != "secret-1" {
		t.Fatalf("credentials missing from form %v", gotForm)
	}
	if bundle.AccessToken != "at-1" || bundle.RefreshToken != "rt-1" || bundle.TokenType != "Bearer" {
		t.Fatalf("unexpected bundle %+v", bundle)
	}
	if until := time.Until(bundle.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
		t.Fatalf("expected expiry about an hour out, got %v", until)
	}
}

func TestTokenRequestStatusMapping(t *testing.T) {
	status := http.StatusUnauthorized
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "client-1", "secret-1", nil)
	ctx := context.Background()

	if _, err := client.RefreshToken(ctx, "rt-1"); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized for 401, got %v", err)
	}
	status = http.StatusServiceUnavailable
	if _, err := client.RefreshToken(ctx, "rt-1"); !errors.Is(err, domainerrors.ErrPartnerUnavailable) {
		t.Fatalf("expected unavailable for 5xx, got %v", err)
	}
}

func TestCreateBookingSendsBearerAndReadsID(t *testing.T) {
	var gotAuth string
	var gotPayload ports.BookingPayload
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"cow-99"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "client-1", "secret-1", nil)
	id, err := client.CreateBooking(context.Background(), "at-1", ports.BookingPayload{
		ExternalID: "1001",
		EventName:  "Alpaca walk",
		Timezone:   "Europe/Rome",
		Status:     "confirmed",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id != "cow-99" {
		t.Fatalf("unexpected id %q", id)
	}
	if gotAuth != "Bearer at-1" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPayload.ExternalID != "1001" || gotPayload.Timezone != "Europe/Rome" {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
}

func TestListBookingsPassesFilter(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("provider") != "Llamas" || query.Get("limit") != "10" {
			t.Errorf("unexpected query %v", query)
		}
		_, _ = w.Write([]byte(`{"bookings":[{"id":"cow-1","external_id":"1001","provider":"Llamas"}]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "client-1", "secret-1", nil)
	bookings, err := client.ListBookings(context.Background(), "at-1", ports.BookingListFilter{Provider: "Llamas", Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bookings) != 1 || bookings[0].ID != "cow-1" {
		t.Fatalf("unexpected bookings %+v", bookings)
	}
}

func TestUnreachablePartnerMapsToUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "client-1", "secret-1", nil)
	if _, err := client.CreateBooking(context.Background(), "at-1", ports.BookingPayload{}); !errors.Is(err, domainerrors.ErrPartnerUnavailable) {
		t.Fatalf("expected partner unavailable, got %v", err)
	}
}
