package httpserver

import (
	"net/http/httptest"
	"testing"
)

func TestAuthenticateGlobalAndScopedKeys(t *testing.T) {
	auth := NewAPIKeyAuth(
		[]string{"global-1", " global-2 "},
		map[string]string{"scoped-1": "Llamas"},
	)

	request := httptest.NewRequest("GET", "/v1/bookings", nil)
	request.Header.Set(apiKeyHeader, "global-2")
	identity, ok := auth.Authenticate(request)
	if !ok {
		t.Fatalf("expected trimmed global key to authenticate")
	}
	if !identity.Global() {
		t.Fatalf("expected global identity, got %+v", identity)
	}

	request = httptest.NewRequest("GET", "/v1/bookings", nil)
	request.Header.Set(apiKeyHeader, "scoped-1")
	identity, ok = auth.Authenticate(request)
	if !ok || identity.Host != "Llamas" {
		t.Fatalf("expected scoped identity with host, got %+v ok=%v", identity, ok)
	}
	if identity.Global() {
		t.Fatalf("scoped identity must not be global")
	}
}

func TestAuthenticateRejectsMissingAndUnknownKeys(t *testing.T) {
	auth := NewAPIKeyAuth([]string{"global-1"}, nil)

	request := httptest.NewRequest("GET", "/v1/bookings", nil)
	if _, ok := auth.Authenticate(request); ok {
		t.Fatalf("missing key must not authenticate")
	}

	request.Header.Set(apiKeyHeader, "unknown")
	if _, ok := auth.Authenticate(request); ok {
		t.Fatalf("unknown key must not authenticate")
	}
}
