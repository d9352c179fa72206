package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is one free-form key/value pair attached to an order or line item.
// Upstream commerce systems expose these as "note attributes" and "line item
// properties"; the booking widget writes its scheduling metadata into them.
type Property struct {
	Name  string
	Value string
}

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type LineItem struct {
	Name       string
	Quantity   int
	Price      decimal.Decimal
	Vendor     string
	ProductID  string
	Properties []Property
}

// RawOrder is the commerce order exactly as the upstream store returns it.
// It is read-only input; nothing in the pipeline mutates it.
type RawOrder struct {
	ID                string
	Name              string
	Customer          *Customer
	LineItems         []LineItem
	NoteAttributes    []Property
	CreatedAt         time.Time
	FinancialStatus   string
	FulfillmentStatus string
}
