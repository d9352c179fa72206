package services

import "cowbridge/contexts/booking-bridge/booking-service/domain/entities"

// FilterSpec is the booking query filter. All fields are optional and
// compose with AND semantics. Email is absent on purpose: email filtering is
// delegated to the order-store fetch and never re-applied locally.
type FilterSpec struct {
	Provider    string
	EventDate   string
	DateFrom    string
	DateTo      string
	CowlendarID string
	Limit       int
}

// ApplyFilter returns the matching subset, preserving input order. Date range
// bounds compare ISO calendar dates lexicographically, which is equivalent to
// chronological order for that format; both bounds are inclusive.
func ApplyFilter(bookings []entities.CanonicalBooking, filter FilterSpec) []entities.CanonicalBooking {
	out := make([]entities.CanonicalBooking, 0, len(bookings))
	for _, booking := range bookings {
		if !matches(booking, filter) {
			continue
		}
		out = append(out, booking)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

func matches(booking entities.CanonicalBooking, filter FilterSpec) bool {
	if !MatchesProviderFilter(booking, filter.Provider) {
		return false
	}
	if filter.EventDate != "" && booking.Schedule.Date != filter.EventDate {
		return false
	}
	if filter.DateFrom != "" && (booking.Schedule.Date == "" || booking.Schedule.Date < filter.DateFrom) {
		return false
	}
	if filter.DateTo != "" && (booking.Schedule.Date == "" || booking.Schedule.Date > filter.DateTo) {
		return false
	}
	if filter.CowlendarID != "" && booking.CowlendarID != filter.CowlendarID {
		return false
	}
	return true
}
