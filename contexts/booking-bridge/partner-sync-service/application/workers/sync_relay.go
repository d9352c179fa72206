package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	bookingapp "cowbridge/contexts/booking-bridge/booking-service/application"
	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
	bookingports "cowbridge/contexts/booking-bridge/booking-service/ports"
	"cowbridge/contexts/booking-bridge/partner-sync-service/application"
	"cowbridge/contexts/booking-bridge/partner-sync-service/ports"
	"cowbridge/internal/platform/metrics"

	"github.com/google/uuid"
)

const TopicBookingSynced = "booking.synced"

// SyncRelay pushes newly seen bookings to the partner system. One failing
// booking never aborts the batch; it is logged and retried on a later run
// because the ledger reservation is only taken after a successful push.
type SyncRelay struct {
	Bookings  bookingapp.Service
	Tokens    *application.TokenManager
	Client    ports.PartnerClient
	Ledger    ports.SyncLedger
	Publisher bookingports.EventPublisher
	BatchSize int
	Logger    *slog.Logger
}

func (r SyncRelay) RunOnce(ctx context.Context) error {
	logger := r.logger()
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	bookings, err := r.Bookings.ListBookings(ctx, bookingapp.ListQuery{Limit: limit})
	if err != nil {
		logger.Error("booking listing failed",
			"event", "partner_sync_list_failed",
			"module", "booking-bridge/partner-sync-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	bundle, err := r.Tokens.Token(ctx)
	if err != nil {
		logger.Warn("partner token unavailable, skipping sync run",
			"event", "partner_sync_token_unavailable",
			"module", "booking-bridge/partner-sync-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, booking := range bookings {
		if err := r.syncOne(ctx, bundle.AccessToken, booking); err != nil {
			logger.Error("booking push failed",
				"event", "partner_sync_push_failed",
				"module", "booking-bridge/partner-sync-service",
				"layer", "worker",
				"order_id", booking.OrderID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (r SyncRelay) syncOne(ctx context.Context, accessToken string, booking entities.CanonicalBooking) error {
	synced, err := r.Ledger.AlreadySynced(ctx, booking.OrderID)
	if err != nil {
		return err
	}
	if synced {
		return nil
	}

	remoteID, err := r.Client.CreateBooking(ctx, accessToken, payloadFromBooking(booking))
	if err != nil {
		return err
	}

	// Marked only after the push succeeded so failures stay retryable.
	if err := r.Ledger.MarkSynced(ctx, booking.OrderID, remoteID); err != nil {
		return err
	}

	if r.Publisher != nil {
		payload, err := json.Marshal(map[string]string{
			"order_id":           booking.OrderID,
			"partner_booking_id": remoteID,
			"provider":           booking.Provider,
			"event_date":         booking.Schedule.Date,
		})
		if err != nil {
			return err
		}
		event := bookingports.Envelope{
			EventID:    uuid.NewString(),
			EventType:  TopicBookingSynced,
			OccurredAt: time.Now().UTC(),
			Payload:    payload,
		}
		if err := r.Publisher.Publish(ctx, TopicBookingSynced, event); err != nil {
			return err
		}
	}

	metrics.BookingsSyncedTotal.Inc()
	r.logger().Info("booking pushed to partner",
		"event", "partner_sync_pushed",
		"module", "booking-bridge/partner-sync-service",
		"layer", "worker",
		"order_id", booking.OrderID,
		"partner_booking_id", remoteID,
	)
	return nil
}

func payloadFromBooking(booking entities.CanonicalBooking) ports.BookingPayload {
	payload := ports.BookingPayload{
		ExternalID: booking.OrderID,
		EventName:  booking.EventName,
		Provider:   booking.Provider,
		Date:       booking.Schedule.Date,
		StartTime:  booking.Schedule.StartTime,
		EndTime:    booking.Schedule.EndTime,
		Timezone:   booking.Schedule.Timezone,
		Status:     string(booking.Status),
	}
	if booking.Customer != nil {
		payload.Email = booking.Customer.Email
		payload.CustomerName = strings.TrimSpace(booking.Customer.FirstName + " " + booking.Customer.LastName)
	}
	return payload
}

func (r SyncRelay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
