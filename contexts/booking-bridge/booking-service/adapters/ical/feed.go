package icalfeed

import (
	"bytes"
	"fmt"
	"time"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//cowbridge//booking feed//EN"

// Encode renders canonical bookings as an iCalendar feed. Bookings whose
// schedule never parsed have no instants and are skipped; the feed only
// carries events that can be placed on a calendar.
func Encode(bookings []entities.CanonicalBooking, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	for _, booking := range bookings {
		if booking.Schedule.StartsAt == nil || booking.Schedule.EndsAt == nil {
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, eventUID(booking))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, *booking.Schedule.StartsAt)
		event.Props.SetDateTime(ical.PropDateTimeEnd, *booking.Schedule.EndsAt)
		event.Props.SetText(ical.PropSummary, booking.EventName)
		if booking.Provider != "" {
			event.Props.SetText(ical.PropDescription, fmt.Sprintf("Provider: %s / Order %s", booking.Provider, booking.OrderNumber))
		} else {
			event.Props.SetText(ical.PropDescription, "Order "+booking.OrderNumber)
		}
		status := ical.EventTentative
		if booking.Status == entities.BookingStatusConfirmed {
			status = ical.EventConfirmed
		}
		event.Props.SetText(ical.PropStatus, string(status))
		cal.Children = append(cal.Children, event.Component)
	}

	// The encoder refuses a VCALENDAR without components, but a feed with no
	// schedulable bookings is a normal outcome and must stay a valid calendar.
	if len(cal.Children) == 0 {
		return []byte(emptyFeed), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar feed: %w", err)
	}
	return buf.Bytes(), nil
}

const emptyFeed = "BEGIN:VCALENDAR\r\n" +
	"PRODID:" + productID + "\r\n" +
	"VERSION:2.0\r\n" +
	"END:VCALENDAR\r\n"

func eventUID(booking entities.CanonicalBooking) string {
	if booking.CowlendarID != "" {
		return booking.CowlendarID + "@cowbridge"
	}
	if booking.OrderID != "" {
		return booking.OrderID + "@cowbridge"
	}
	return uuid.NewString() + "@cowbridge"
}
