package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	bookingservice "cowbridge/contexts/booking-bridge/booking-service"
	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
	httptransport "cowbridge/contexts/booking-bridge/booking-service/transport/http"
	partnersyncservice "cowbridge/contexts/booking-bridge/partner-sync-service"
	"cowbridge/internal/shared/ratelimit"
)

const (
	testGlobalKey = "global-key"
	testScopedKey = "llamas-key"
	testShopKey   = "shop-secret"
)

func serverFixture(t *testing.T) (*Server, bookingservice.Module) {
	t.Helper()

	bookings := bookingservice.NewInMemoryModule(nil)
	bookings.Store.SetProductMetadata("prod-llamas", map[string]string{"host": "Llamas"})
	bookings.Store.SetProductMetadata("prod-marta", map[string]string{"host": "Studio Marta"})

	partner := partnersyncservice.NewInMemoryModule("client-1", "partner-secret", nil)

	server := New(Options{
		Bookings:   bookings,
		Partner:    partner,
		Mirror:     bookings.Store,
		Auth:       NewAPIKeyAuth([]string{testGlobalKey}, map[string]string{testScopedKey: "Llamas"}),
		ShopSecret: testShopKey,
	})
	return server, bookings
}

func serverOrder(id, productID string) entities.RawOrder {
	return entities.RawOrder{
		ID:   id,
		Name: "#" + id,
		LineItems: []entities.LineItem{
			{
				Name:      "Alpaca walk",
				Quantity:  1,
				Price:     decimal.NewFromInt(40),
				ProductID: productID,
				Properties: []entities.Property{
					{Name: "__cow_internal_id", Value: "cow-" + id},
					{Name: "Date", Value: "30 nov 2025, 17:00 - 18:30 (Europe/Rome)"},
				},
			},
		},
		CreatedAt:       time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC),
		FinancialStatus: "paid",
	}
}

func doRequest(server *Server, method, target, apiKey string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, nil)
	if apiKey != "" {
		request.Header.Set(apiKeyHeader, apiKey)
	}
	recorder := httptest.NewRecorder()
	server.mux.ServeHTTP(recorder, request)
	return recorder
}

func TestProtectedRoutesRequireAPIKey(t *testing.T) {
	server, _ := serverFixture(t)

	if status := doRequest(server, "GET", "/v1/bookings", "").Code; status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", status)
	}
	if status := doRequest(server, "GET", "/v1/bookings", "bogus").Code; status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown key, got %d", status)
	}
	if status := doRequest(server, "GET", "/healthz", "").Code; status != http.StatusOK {
		t.Fatalf("health probe must stay open, got %d", status)
	}
}

func TestListBookingsGlobalKeySeesEverything(t *testing.T) {
	server, bookings := serverFixture(t)
	bookings.Store.AddOrder(serverOrder("1001", "prod-llamas"))
	bookings.Store.AddOrder(serverOrder("1002", "prod-marta"))

	recorder := doRequest(server, "GET", "/v1/bookings", testGlobalKey)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp httptransport.ListBookingsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Count != 2 {
		t.Fatalf("expected both bookings for global key, got %d", resp.Data.Count)
	}
}

func TestListBookingsScopedKeyIsRestrictedToItsHost(t *testing.T) {
	server, bookings := serverFixture(t)
	bookings.Store.AddOrder(serverOrder("2001", "prod-llamas"))
	bookings.Store.AddOrder(serverOrder("2002", "prod-marta"))

	recorder := doRequest(server, "GET", "/v1/bookings", testScopedKey)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp httptransport.ListBookingsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Count != 1 || resp.Data.Bookings[0].Provider != "Llamas" {
		t.Fatalf("expected only the scoped host's bookings, got %+v", resp.Data)
	}
}

func TestHostBookingsMismatchIsForbidden(t *testing.T) {
	server, bookings := serverFixture(t)
	bookings.Store.AddOrder(serverOrder("3001", "prod-marta"))

	recorder := doRequest(server, "GET", "/v1/hosts/Studio%20Marta/bookings", testScopedKey)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for host mismatch, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(server, "GET", "/v1/hosts/Studio%20Marta/bookings", testGlobalKey)
	if recorder.Code != http.StatusOK {
		t.Fatalf("global key must reach any host, got %d", recorder.Code)
	}
}

func TestGetBookingScopedKeyCannotConfirmOtherHostsBookings(t *testing.T) {
	server, bookings := serverFixture(t)
	bookings.Store.AddOrder(serverOrder("4001", "prod-marta"))

	recorder := doRequest(server, "GET", "/v1/bookings/4001", testScopedKey)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 hiding the other host's booking, got %d", recorder.Code)
	}

	recorder = doRequest(server, "GET", "/v1/bookings/4001", testGlobalKey)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for global key, got %d", recorder.Code)
	}
}

func TestRateLimiterRejectsOverLimitRequests(t *testing.T) {
	server, _ := serverFixture(t)
	server.limiter = ratelimit.New(2, time.Minute)

	for i := 0; i < 2; i++ {
		if status := doRequest(server, "GET", "/v1/bookings", testGlobalKey).Code; status != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i+1, status)
		}
	}
	if status := doRequest(server, "GET", "/v1/bookings", testGlobalKey).Code; status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", status)
	}
}

func TestOrderWebhookVerifiesSignatureBeforeMirroring(t *testing.T) {
	server, _ := serverFixture(t)
	body := `{"id":5001,"name":"#5001","financial_status":"paid",` +
		`"line_items":[{"name":"Alpaca walk","quantity":1,"price":"40.00","product_id":77,` +
		`"properties":[{"name":"__cow_internal_id","value":"cow-5001"}]}]}`

	request := httptest.NewRequest("POST", "/webhooks/orders", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	server.mux.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned webhook must be rejected, got %d", recorder.Code)
	}

	mac := hmac.New(sha256.New, []byte(testShopKey))
	mac.Write([]byte(body))
	request = httptest.NewRequest("POST", "/webhooks/orders", strings.NewReader(body))
	request.Header.Set(shopSignatureHeader, base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	recorder = httptest.NewRecorder()
	server.mux.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("signed webhook rejected: %d %s", recorder.Code, recorder.Body.String())
	}

	if status := doRequest(server, "GET", "/v1/bookings/5001", testGlobalKey).Code; status != http.StatusOK {
		t.Fatalf("mirrored order should be queryable, got %d", status)
	}
}

func TestOAuthCallbackRequiresCode(t *testing.T) {
	server, _ := serverFixture(t)

	if status := doRequest(server, "GET", "/v1/partner/oauth/callback", "").Code; status != http.StatusBadRequest {
		t.Fatalf("expected 400 without code, got %d", status)
	}
	recorder := doRequest(server, "GET", "/v1/partner/oauth/callback?code=auth-code", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid code, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "connected") {
		t.Fatalf("expected connected status, got %s", recorder.Body.String())
	}
}

func TestCalendarFeedContentType(t *testing.T) {
	server, bookings := serverFixture(t)
	bookings.Store.AddOrder(serverOrder("6001", "prod-llamas"))

	recorder := doRequest(server, "GET", "/v1/bookings/calendar.ics", testGlobalKey)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/calendar") {
		t.Fatalf("expected calendar content type, got %q", got)
	}
	if !strings.Contains(recorder.Body.String(), "BEGIN:VEVENT") {
		t.Fatalf("expected an event in the feed:\n%s", recorder.Body.String())
	}
}
