package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	bookingservice "cowbridge/contexts/booking-bridge/booking-service"
	icalfeed "cowbridge/contexts/booking-bridge/booking-service/adapters/ical"
	"cowbridge/contexts/booking-bridge/booking-service/adapters/shopapi"
	bookingerrors "cowbridge/contexts/booking-bridge/booking-service/domain/errors"
	bookingports "cowbridge/contexts/booking-bridge/booking-service/ports"
	httptransport "cowbridge/contexts/booking-bridge/booking-service/transport/http"
	partnersyncservice "cowbridge/contexts/booking-bridge/partner-sync-service"
	partnerapp "cowbridge/contexts/booking-bridge/partner-sync-service/application"
	partnererrors "cowbridge/contexts/booking-bridge/partner-sync-service/domain/errors"
	"cowbridge/internal/platform/metrics"
	"cowbridge/internal/shared/ratelimit"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	shopSignatureHeader    = "X-Shop-Hmac-Sha256"
	partnerSignatureHeader = "X-Cowlendar-Signature"

	maxWebhookBody = 1 << 20
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string

	bookings bookingservice.Module
	partner  partnersyncservice.Module
	mirror   bookingports.OrderMirror

	auth        *APIKeyAuth
	limiter     *ratelimit.SlidingWindow
	shopSecret  []byte
	redirectURI string
}

type Options struct {
	Bookings    bookingservice.Module
	Partner     partnersyncservice.Module
	Mirror      bookingports.OrderMirror
	Auth        *APIKeyAuth
	Limiter     *ratelimit.SlidingWindow
	ShopSecret  string
	RedirectURI string
	Logger      *slog.Logger
	Addr        string
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		bookings:    opts.Bookings,
		partner:     opts.Partner,
		mirror:      opts.Mirror,
		auth:        opts.Auth,
		limiter:     opts.Limiter,
		shopSecret:  []byte(opts.ShopSecret),
		redirectURI: opts.RedirectURI,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("GET /v1/bookings", s.protected("bookings_list", s.handleListBookings))
	s.mux.HandleFunc("GET /v1/bookings/calendar.ics", s.protected("bookings_calendar", s.handleCalendarFeed))
	s.mux.HandleFunc("GET /v1/bookings/{order_id}", s.protected("bookings_get", s.handleGetBooking))
	s.mux.HandleFunc("GET /v1/hosts/{host}/bookings", s.protected("host_bookings_list", s.handleListHostBookings))

	s.mux.HandleFunc("POST /webhooks/orders", s.handleOrderWebhook)
	s.mux.HandleFunc("POST /webhooks/cowlendar", s.handleCowlendarWebhook)
	s.mux.HandleFunc("GET /v1/partner/oauth/callback", s.handleOAuthCallback)
}

// protected wraps a handler with authentication, rate limiting, and request
// metrics. The identity lands in the request handler via closure argument.
func (s *Server) protected(route string, handler func(http.ResponseWriter, *http.Request, Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		identity, ok := s.auth.Authenticate(r)
		if !ok {
			metrics.RequestsTotal.WithLabelValues(route, "401").Inc()
			writeError(recorder, http.StatusUnauthorized, "unauthorized", "missing or unknown api key")
			return
		}
		if s.limiter != nil && !s.limiter.Allow(identity.Key, time.Now()) {
			metrics.RateLimitedTotal.Inc()
			metrics.RequestsTotal.WithLabelValues(route, "429").Inc()
			writeError(recorder, http.StatusTooManyRequests, "rate_limited", "request rate exceeded")
			return
		}

		handler(recorder, r, identity)
		metrics.RequestsTotal.WithLabelValues(route, recorder.StatusText()).Inc()
		metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request, identity Identity) {
	resp, err := s.bookings.Handler.ListBookingsHandler(r.Context(), identity.Host, listRequestFromQuery(r))
	if err != nil {
		s.writeBookingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request, identity Identity) {
	resp, err := s.bookings.Handler.GetBookingHandler(r.Context(), r.PathValue("order_id"))
	if err != nil {
		s.writeBookingDomainError(w, err)
		return
	}
	// A scoped key must not see another host's booking; report not-found
	// rather than confirming the booking exists.
	if !identity.Global() {
		if !bookingBelongsTo(resp.Data.Booking, identity.Host) {
			writeError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListHostBookings(w http.ResponseWriter, r *http.Request, identity Identity) {
	resp, err := s.bookings.Handler.ListHostBookingsHandler(
		r.Context(),
		identity.Host,
		r.PathValue("host"),
		listRequestFromQuery(r),
	)
	if err != nil {
		s.writeBookingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCalendarFeed(w http.ResponseWriter, r *http.Request, identity Identity) {
	bookings, err := s.bookings.Handler.CalendarBookingsHandler(r.Context(), identity.Host, listRequestFromQuery(r))
	if err != nil {
		s.writeBookingDomainError(w, err)
		return
	}
	feed, err := icalfeed.Encode(bookings, time.Now())
	if err != nil {
		s.logger.Error("calendar feed encoding failed",
			"event", "calendar_feed_encode_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal", "calendar feed unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(feed)
}

// handleOrderWebhook receives commerce order webhooks. The signature is
// verified over the raw body before any parsing happens.
func (s *Server) handleOrderWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhooksTotal.WithLabelValues("shop", "read_failed").Inc()
		writeError(w, http.StatusBadRequest, "invalid_payload", "unreadable payload")
		return
	}

	verifier := partnerapp.WebhookVerifier{Secret: s.shopSecret}
	if err := verifier.Verify(body, r.Header.Get(shopSignatureHeader)); err != nil {
		metrics.WebhooksTotal.WithLabelValues("shop", "signature_invalid").Inc()
		writeError(w, http.StatusUnauthorized, "signature_invalid", "webhook signature mismatch")
		return
	}

	order, err := shopapi.DecodeOrderWebhook(body)
	if err != nil {
		metrics.WebhooksTotal.WithLabelValues("shop", "decode_failed").Inc()
		writeError(w, http.StatusBadRequest, "invalid_payload", "undecodable order payload")
		return
	}

	if s.mirror != nil {
		if err := s.mirror.UpsertOrder(r.Context(), order); err != nil {
			metrics.WebhooksTotal.WithLabelValues("shop", "mirror_failed").Inc()
			s.logger.Error("order mirror upsert failed",
				"event", "order_webhook_mirror_failed",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"order_id", order.ID,
				"error", err.Error(),
			)
			writeError(w, http.StatusInternalServerError, "internal", "order not recorded")
			return
		}
	}

	metrics.WebhooksTotal.WithLabelValues("shop", "accepted").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// handleCowlendarWebhook acknowledges partner booking events after the
// signature checks out. The payload is not acted on yet; deliveries exist so
// the partner can confirm sync results.
func (s *Server) handleCowlendarWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhooksTotal.WithLabelValues("cowlendar", "read_failed").Inc()
		writeError(w, http.StatusBadRequest, "invalid_payload", "unreadable payload")
		return
	}
	if err := s.partner.Verifier.Verify(body, r.Header.Get(partnerSignatureHeader)); err != nil {
		metrics.WebhooksTotal.WithLabelValues("cowlendar", "signature_invalid").Inc()
		writeError(w, http.StatusUnauthorized, "signature_invalid", "webhook signature mismatch")
		return
	}
	metrics.WebhooksTotal.WithLabelValues("cowlendar", "accepted").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}
	bundle, err := s.partner.Tokens.Exchange(r.Context(), code, s.redirectURI)
	if err != nil {
		s.writePartnerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "connected",
		"token_type": bundle.TokenType,
		"expires_at": bundle.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeBookingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bookingerrors.ErrOrderNotFound), errors.Is(err, bookingerrors.ErrNotBookable):
		writeError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, bookingerrors.ErrProviderForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "not authorized for the requested provider")
	case errors.Is(err, bookingerrors.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	case errors.Is(err, bookingerrors.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, "upstream_unavailable", "order store unavailable")
	default:
		s.logger.Error("unhandled booking error",
			"event", "http_unhandled_booking_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (s *Server) writePartnerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, partnererrors.ErrNotAuthorized):
		writeError(w, http.StatusUnauthorized, "not_authorized", "partner authorization failed")
	case errors.Is(err, partnererrors.ErrPartnerUnavailable):
		writeError(w, http.StatusBadGateway, "partner_unavailable", "partner system unavailable")
	case errors.Is(err, partnererrors.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	default:
		s.logger.Error("unhandled partner error",
			"event", "http_unhandled_partner_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func listRequestFromQuery(r *http.Request) httptransport.ListBookingsRequest {
	query := r.URL.Query()
	return httptransport.ListBookingsRequest{
		Provider:    query.Get("provider"),
		Email:       query.Get("email"),
		EventDate:   query.Get("date"),
		DateFrom:    query.Get("date_from"),
		DateTo:      query.Get("date_to"),
		CowlendarID: query.Get("cowlendar_id"),
		Limit:       query.Get("limit"),
	}
}

func bookingBelongsTo(booking httptransport.BookingDTO, host string) bool {
	if strings.EqualFold(booking.Provider, host) {
		return true
	}
	for _, item := range booking.LineItems {
		if item.Vendor != "" && strings.EqualFold(item.Vendor, host) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) StatusText() string {
	return strconv.Itoa(r.status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}
