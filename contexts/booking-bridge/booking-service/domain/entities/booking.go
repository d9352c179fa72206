package entities

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
)

// EventMetadata is the scheduling triple the booking widget embeds in order
// attributes. Absent fields stay empty; extraction never fails.
type EventMetadata struct {
	ScheduleText   string
	InternalID     string
	IntegrityToken string
}

// ParsedSchedule is the structured form of the free-text schedule string.
// When Date is empty every other field except Timezone is empty too.
type ParsedSchedule struct {
	Date      string
	StartTime string
	EndTime   string
	Timezone  string
	StartsAt  *time.Time
	EndsAt    *time.Time
}

type LineItemSummary struct {
	Name     string
	Quantity int
	Price    string
	Vendor   string
}

// CanonicalBooking is the normalized booking entity. It is created once per
// qualifying order, immutable after creation, and never persisted; every
// query re-derives it from the order source.
type CanonicalBooking struct {
	OrderID           string
	OrderNumber       string
	Customer          *Customer
	EventName         string
	Host              string
	Vendor            string
	Provider          string
	Schedule          ParsedSchedule
	CowlendarID       string
	IntegrityToken    string
	Status            BookingStatus
	FinancialStatus   string
	FulfillmentStatus string
	CreatedAt         time.Time
	LineItems         []LineItemSummary
}
