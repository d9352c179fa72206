package httpadapter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cowbridge/contexts/booking-bridge/booking-service/application"
	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
	httptransport "cowbridge/contexts/booking-bridge/booking-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) ListBookingsHandler(
	ctx context.Context,
	authorizedHost string,
	req httptransport.ListBookingsRequest,
) (httptransport.ListBookingsResponse, error) {
	query := queryFromRequest(req)

	var (
		bookings []entities.CanonicalBooking
		err      error
	)
	if authorizedHost != "" {
		// Scoped keys are implicitly restricted to their own host.
		bookings, err = h.Service.ListHostBookings(ctx, authorizedHost, authorizedHost, query)
	} else {
		bookings, err = h.Service.ListBookings(ctx, query)
	}
	if err != nil {
		return httptransport.ListBookingsResponse{}, err
	}
	return listResponse(bookings), nil
}

func (h Handler) ListHostBookingsHandler(
	ctx context.Context,
	authorizedHost string,
	requestedHost string,
	req httptransport.ListBookingsRequest,
) (httptransport.ListBookingsResponse, error) {
	bookings, err := h.Service.ListHostBookings(ctx, authorizedHost, requestedHost, queryFromRequest(req))
	if err != nil {
		return httptransport.ListBookingsResponse{}, err
	}
	return listResponse(bookings), nil
}

func (h Handler) GetBookingHandler(ctx context.Context, orderID string) (httptransport.GetBookingResponse, error) {
	booking, err := h.Service.GetBooking(ctx, orderID)
	if err != nil {
		return httptransport.GetBookingResponse{}, err
	}
	resp := httptransport.GetBookingResponse{
		Status:    "success",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	resp.Data.Booking = mapBookingDTO(booking)
	return resp, nil
}

// CalendarBookingsHandler returns the raw bookings for the iCalendar feed;
// the platform layer owns the encoding.
func (h Handler) CalendarBookingsHandler(
	ctx context.Context,
	authorizedHost string,
	req httptransport.ListBookingsRequest,
) ([]entities.CanonicalBooking, error) {
	query := queryFromRequest(req)
	if authorizedHost != "" {
		return h.Service.ListHostBookings(ctx, authorizedHost, authorizedHost, query)
	}
	return h.Service.ListBookings(ctx, query)
}

func queryFromRequest(req httptransport.ListBookingsRequest) application.ListQuery {
	query := application.ListQuery{
		Provider:    strings.TrimSpace(req.Provider),
		Email:       strings.TrimSpace(req.Email),
		EventDate:   strings.TrimSpace(req.EventDate),
		DateFrom:    strings.TrimSpace(req.DateFrom),
		DateTo:      strings.TrimSpace(req.DateTo),
		CowlendarID: strings.TrimSpace(req.CowlendarID),
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(req.Limit)); err == nil {
		query.Limit = parsed
	}
	return query
}

func listResponse(bookings []entities.CanonicalBooking) httptransport.ListBookingsResponse {
	resp := httptransport.ListBookingsResponse{
		Status:    "success",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	resp.Data.Bookings = make([]httptransport.BookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		resp.Data.Bookings = append(resp.Data.Bookings, mapBookingDTO(booking))
	}
	resp.Data.Count = len(resp.Data.Bookings)
	return resp
}

func mapBookingDTO(booking entities.CanonicalBooking) httptransport.BookingDTO {
	dto := httptransport.BookingDTO{
		OrderID:           booking.OrderID,
		OrderNumber:       booking.OrderNumber,
		EventName:         booking.EventName,
		Provider:          booking.Provider,
		Host:              booking.Host,
		Vendor:            booking.Vendor,
		CowlendarID:       booking.CowlendarID,
		IntegrityToken:    booking.IntegrityToken,
		Status:            string(booking.Status),
		FinancialStatus:   booking.FinancialStatus,
		FulfillmentStatus: booking.FulfillmentStatus,
		CreatedAt:         booking.CreatedAt.UTC().Format(time.RFC3339),
		Schedule: httptransport.ScheduleDTO{
			Date:      booking.Schedule.Date,
			StartTime: booking.Schedule.StartTime,
			EndTime:   booking.Schedule.EndTime,
			Timezone:  booking.Schedule.Timezone,
		},
	}
	if booking.Schedule.StartsAt != nil {
		dto.Schedule.StartsAt = booking.Schedule.StartsAt.Format(time.RFC3339)
	}
	if booking.Schedule.EndsAt != nil {
		dto.Schedule.EndsAt = booking.Schedule.EndsAt.Format(time.RFC3339)
	}
	if booking.Customer != nil {
		dto.Customer = &httptransport.CustomerDTO{
			FirstName: booking.Customer.FirstName,
			LastName:  booking.Customer.LastName,
			Email:     booking.Customer.Email,
			Phone:     booking.Customer.Phone,
		}
	}
	dto.LineItems = make([]httptransport.LineItemDTO, 0, len(booking.LineItems))
	for _, item := range booking.LineItems {
		dto.LineItems = append(dto.LineItems, httptransport.LineItemDTO{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Vendor:   item.Vendor,
		})
	}
	return dto
}
