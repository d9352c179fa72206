package shopapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "cowbridge/contexts/booking-bridge/booking-service/domain/errors"
	"cowbridge/contexts/booking-bridge/booking-service/ports"
)

func TestFetchOrdersMapsWirePayload(t *testing.T) {
	var gotPath, gotToken, gotLimit string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Shop-Access-Token")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orders":[{
			"id": 1001,
			"name": "#1001",
			"created_at": "2025-11-01T09:00:00Z",
			"financial_status": "paid",
			"customer": {"first_name": "Marta", "email": "marta@example.com"},
			"note_attributes": [{"name": "__cow_integrity", "value": "tok-1"}],
			"line_items": [{
				"name": "Alpaca walk",
				"quantity": 2,
				"price": "45.50",
				"vendor": "Studio Marta",
				"product_id": 77,
				"properties": [{"name": "Date", "value": "30 nov 2025, 17:00 - 18:30 (Europe/Rome)"}]
			}]
		}]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "secret-token", nil)
	orders, err := client.FetchOrders(context.Background(), ports.OrderFilter{Limit: 10})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if gotPath != "/orders.json" || gotToken != "secret-token" || gotLimit != "10" {
		t.Fatalf("unexpected request path=%q token=%q limit=%q", gotPath, gotToken, gotLimit)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %d", len(orders))
	}
	order := orders[0]
	if order.ID != "1001" || order.FinancialStatus != "paid" {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.Customer == nil || order.Customer.Email != "marta@example.com" {
		t.Fatalf("unexpected customer %+v", order.Customer)
	}
	if len(order.LineItems) != 1 {
		t.Fatalf("expected one line item, got %+v", order.LineItems)
	}
	item := order.LineItems[0]
	if item.ProductID != "77" || item.Price.StringFixed(2) != "45.50" {
		t.Fatalf("unexpected line item %+v", item)
	}
	if len(item.Properties) != 1 || item.Properties[0].Name != "Date" {
		t.Fatalf("unexpected properties %+v", item.Properties)
	}
}

func TestFetchOrdersClampsLimit(t *testing.T) {
	var gotLimit string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"orders":[]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "", nil)
	if _, err := client.FetchOrders(context.Background(), ports.OrderFilter{Limit: 1000}); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if gotLimit != "250" {
		t.Fatalf("expected limit clamped to 250, got %q", gotLimit)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/missing.json":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "", nil)
	ctx := context.Background()

	if _, err := client.FetchOrderByID(ctx, "missing"); !errors.Is(err, domainerrors.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := client.FetchOrders(ctx, ports.OrderFilter{}); !errors.Is(err, domainerrors.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable for 5xx, got %v", err)
	}
}

func TestUnreachableUpstreamMapsToUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", nil)
	if _, err := client.FetchOrders(context.Background(), ports.OrderFilter{}); !errors.Is(err, domainerrors.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}

func TestFetchCustomMetadataNamespacesKeys(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"metafields":[
			{"namespace": "custom", "key": "host", "value": "Llamas"},
			{"namespace": "", "key": "color", "value": "brown"}
		]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "", nil)
	metadata, err := client.FetchCustomMetadata(context.Background(), "77")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if metadata["custom/host"] != "Llamas" || metadata["color"] != "brown" {
		t.Fatalf("unexpected metadata %v", metadata)
	}
}

func TestFetchTagsSplitsAndTrims(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"product":{"tags":"featured, host:Llamas , "}}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "", nil)
	tags, err := client.FetchTags(context.Background(), "77")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(tags) != 2 || tags[1] != "host:Llamas" {
		t.Fatalf("unexpected tags %v", tags)
	}
}

func TestDecodeOrderWebhook(t *testing.T) {
	order, err := DecodeOrderWebhook([]byte(`{"id":1001,"name":"#1001"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if order.ID != "1001" || order.Name != "#1001" {
		t.Fatalf("unexpected order %+v", order)
	}

	if _, err := DecodeOrderWebhook([]byte(`{"name":"no id"}`)); err == nil {
		t.Fatalf("expected error for payload without id")
	}
	if _, err := DecodeOrderWebhook([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
