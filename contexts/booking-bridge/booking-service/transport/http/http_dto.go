package httptransport

// ListBookingsRequest carries the raw query-string values; the handler parses
// and the application layer validates.
type ListBookingsRequest struct {
	Provider    string
	Email       string
	EventDate   string
	DateFrom    string
	DateTo      string
	CowlendarID string
	Limit       string
}

type CustomerDTO struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type ScheduleDTO struct {
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Timezone  string `json:"timezone"`
	StartsAt  string `json:"starts_at,omitempty"`
	EndsAt    string `json:"ends_at,omitempty"`
}

type LineItemDTO struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Vendor   string `json:"vendor,omitempty"`
}

type BookingDTO struct {
	OrderID           string        `json:"order_id"`
	OrderNumber       string        `json:"order_number"`
	Customer          *CustomerDTO  `json:"customer,omitempty"`
	EventName         string        `json:"event_name"`
	Provider          string        `json:"provider,omitempty"`
	Host              string        `json:"host,omitempty"`
	Vendor            string        `json:"vendor,omitempty"`
	Schedule          ScheduleDTO   `json:"schedule"`
	CowlendarID       string        `json:"cowlendar_id,omitempty"`
	IntegrityToken    string        `json:"integrity_token,omitempty"`
	Status            string        `json:"status"`
	FinancialStatus   string        `json:"financial_status"`
	FulfillmentStatus string        `json:"fulfillment_status,omitempty"`
	CreatedAt         string        `json:"created_at"`
	LineItems         []LineItemDTO `json:"line_items"`
}

type ListBookingsResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		Bookings []BookingDTO `json:"bookings"`
		Count    int          `json:"count"`
	} `json:"data"`
}

type GetBookingResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		Booking BookingDTO `json:"booking"`
	} `json:"data"`
}
