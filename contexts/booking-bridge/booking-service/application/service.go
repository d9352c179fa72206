package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
	domainerrors "cowbridge/contexts/booking-bridge/booking-service/domain/errors"
	"cowbridge/contexts/booking-bridge/booking-service/domain/services"
	"cowbridge/contexts/booking-bridge/booking-service/ports"
	"cowbridge/internal/platform/metrics"
)

const (
	// UnknownEventName is the placeholder for orders without line items.
	UnknownEventName = "Unknown Event"

	financialStatusPaid = "paid"

	defaultHostLookupConcurrency = 8
)

type Service struct {
	Orders                ports.OrderStore
	Products              ports.ProductMetadataStore
	KeyPrefix             string
	HostLookupConcurrency int
	Logger                *slog.Logger
}

// ListQuery is the caller-facing booking query. Email goes to the upstream
// fetch; the rest feeds the local filter engine.
type ListQuery struct {
	Provider    string
	Email       string
	EventDate   string
	DateFrom    string
	DateTo      string
	CowlendarID string
	Limit       int
}

// ListBookings fetches orders upstream, keeps the qualifying ones, normalizes
// them concurrently, and applies the filter. Output order follows upstream
// fetch order.
func (s Service) ListBookings(ctx context.Context, query ListQuery) ([]entities.CanonicalBooking, error) {
	orders, err := s.Orders.FetchOrders(ctx, ports.OrderFilter{
		Email: strings.TrimSpace(query.Email),
		Limit: clampFetchLimit(query.Limit),
	})
	if err != nil {
		return nil, err
	}

	qualifying := orders[:0:0]
	for _, order := range orders {
		if services.Qualifies(order, s.KeyPrefix) {
			qualifying = append(qualifying, order)
		}
	}

	bookings := s.normalizeAll(ctx, qualifying)
	return services.ApplyFilter(bookings, services.FilterSpec{
		Provider:    strings.TrimSpace(query.Provider),
		EventDate:   strings.TrimSpace(query.EventDate),
		DateFrom:    strings.TrimSpace(query.DateFrom),
		DateTo:      strings.TrimSpace(query.DateTo),
		CowlendarID: strings.TrimSpace(query.CowlendarID),
		Limit:       query.Limit,
	}), nil
}

// ListHostBookings is the identity-scoped listing. A scoped caller whose
// authorized host differs from the requested one gets an authorization error,
// never an empty result set that would hide whether data exists.
func (s Service) ListHostBookings(ctx context.Context, authorizedHost, requestedHost string, query ListQuery) ([]entities.CanonicalBooking, error) {
	requestedHost = strings.TrimSpace(requestedHost)
	if requestedHost == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	if authorizedHost != "" && !strings.EqualFold(authorizedHost, requestedHost) {
		return nil, domainerrors.ErrProviderForbidden
	}
	query.Provider = requestedHost
	return s.ListBookings(ctx, query)
}

// GetBooking normalizes a single order. Only a missing order (or an
// unreachable store) propagates; malformed metadata never does.
func (s Service) GetBooking(ctx context.Context, orderID string) (entities.CanonicalBooking, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return entities.CanonicalBooking{}, domainerrors.ErrInvalidRequest
	}
	order, err := s.Orders.FetchOrderByID(ctx, orderID)
	if err != nil {
		return entities.CanonicalBooking{}, err
	}
	if !services.Qualifies(order, s.KeyPrefix) {
		return entities.CanonicalBooking{}, domainerrors.ErrNotBookable
	}
	return s.Normalize(ctx, order), nil
}

// Qualifies exposes the booking-detection predicate.
func (s Service) Qualifies(order entities.RawOrder) bool {
	return services.Qualifies(order, s.KeyPrefix)
}

// Normalize transforms one raw order into the canonical booking. Metadata
// extraction and provider resolution have no data dependency on each other;
// the schedule parser consumes the extractor's output. Pure function of the
// order plus the product metadata visible at call time.
func (s Service) Normalize(ctx context.Context, order entities.RawOrder) entities.CanonicalBooking {
	meta := services.ExtractMetadata(order)
	host := s.resolveHost(ctx, order)
	vendor := services.VendorOf(order)

	eventName := UnknownEventName
	if len(order.LineItems) > 0 && strings.TrimSpace(order.LineItems[0].Name) != "" {
		eventName = order.LineItems[0].Name
	}

	status := entities.BookingStatusPending
	if order.FinancialStatus == financialStatusPaid {
		status = entities.BookingStatusConfirmed
	}

	items := make([]entities.LineItemSummary, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, entities.LineItemSummary{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Vendor:   item.Vendor,
		})
	}

	metrics.BookingsNormalizedTotal.Inc()
	return entities.CanonicalBooking{
		OrderID:           order.ID,
		OrderNumber:       order.Name,
		Customer:          order.Customer,
		EventName:         eventName,
		Host:              host,
		Vendor:            vendor,
		Provider:          services.ResolveProvider(host, vendor),
		Schedule:          services.ParseSchedule(meta.ScheduleText),
		CowlendarID:       meta.InternalID,
		IntegrityToken:    meta.IntegrityToken,
		Status:            status,
		FinancialStatus:   order.FinancialStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		CreatedAt:         order.CreatedAt,
		LineItems:         items,
	}
}

// normalizeAll runs the per-order pipeline with a bounded fan-out for the
// host lookups. Each order writes to its own slot, so output order is input
// order and no locking is needed.
func (s Service) normalizeAll(ctx context.Context, orders []entities.RawOrder) []entities.CanonicalBooking {
	out := make([]entities.CanonicalBooking, len(orders))
	concurrency := s.HostLookupConcurrency
	if concurrency <= 0 {
		concurrency = defaultHostLookupConcurrency
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for idx := range orders {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[idx] = s.Normalize(ctx, orders[idx])
		}(idx)
	}
	wg.Wait()
	return out
}

// resolveHost queries product metadata for the first line item, falling back
// to the tag list. Every failure is swallowed into "host unresolved" so one
// failing lookup never aborts a batch.
func (s Service) resolveHost(ctx context.Context, order entities.RawOrder) string {
	if s.Products == nil || len(order.LineItems) == 0 {
		return ""
	}
	productID := strings.TrimSpace(order.LineItems[0].ProductID)
	if productID == "" {
		return ""
	}

	metadata, err := s.Products.FetchCustomMetadata(ctx, productID)
	if err != nil {
		metrics.HostResolutionFailuresTotal.Inc()
		resolveLogger(s.Logger).Debug("product metadata lookup failed, trying tags",
			"event", "booking_host_metadata_lookup_failed",
			"module", "booking-bridge/booking-service",
			"layer", "application",
			"order_id", order.ID,
			"product_id", productID,
			"error", err.Error(),
		)
	} else if host := services.HostFromMetadata(metadata); host != "" {
		return host
	}

	tags, err := s.Products.FetchTags(ctx, productID)
	if err != nil {
		metrics.HostResolutionFailuresTotal.Inc()
		resolveLogger(s.Logger).Debug("product tag lookup failed, host unresolved",
			"event", "booking_host_tag_lookup_failed",
			"module", "booking-bridge/booking-service",
			"layer", "application",
			"order_id", order.ID,
			"product_id", productID,
			"error", err.Error(),
		)
		return ""
	}
	return services.HostFromTags(tags)
}

func clampFetchLimit(limit int) int {
	if limit <= 0 || limit > ports.MaxFetchLimit {
		return ports.MaxFetchLimit
	}
	return limit
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
