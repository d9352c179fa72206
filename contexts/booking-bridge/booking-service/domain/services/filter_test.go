package services

import (
	"testing"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
)

func filterFixture() []entities.CanonicalBooking {
	return []entities.CanonicalBooking{
		{
			OrderID:     "1",
			Provider:    "Llamas",
			CowlendarID: "cow-1",
			Schedule:    entities.ParsedSchedule{Date: "2025-11-30"},
		},
		{
			OrderID:     "2",
			Provider:    "Studio Marta",
			CowlendarID: "cow-2",
			Schedule:    entities.ParsedSchedule{Date: "2025-12-05"},
		},
		{
			OrderID:  "3",
			Provider: "Llamas",
			Schedule: entities.ParsedSchedule{},
		},
	}
}

func TestApplyFilterCriteriaComposeAsIntersection(t *testing.T) {
	got := ApplyFilter(filterFixture(), FilterSpec{
		Provider:  "Llamas",
		EventDate: "2025-11-30",
	})
	if len(got) != 1 || got[0].OrderID != "1" {
		t.Fatalf("expected only order 1, got %+v", got)
	}
}

func TestApplyFilterDateRangeIsInclusiveAndSkipsUndated(t *testing.T) {
	got := ApplyFilter(filterFixture(), FilterSpec{
		DateFrom: "2025-11-30",
		DateTo:   "2025-12-05",
	})
	if len(got) != 2 {
		t.Fatalf("expected both dated bookings, got %+v", got)
	}
	for _, booking := range got {
		if booking.Schedule.Date == "" {
			t.Fatalf("undated booking leaked into range result: %+v", booking)
		}
	}

	lower := ApplyFilter(filterFixture(), FilterSpec{DateFrom: "2025-12-01"})
	if len(lower) != 1 || lower[0].OrderID != "2" {
		t.Fatalf("expected only order 2 past the lower bound, got %+v", lower)
	}
}

func TestApplyFilterByCowlendarID(t *testing.T) {
	got := ApplyFilter(filterFixture(), FilterSpec{CowlendarID: "cow-2"})
	if len(got) != 1 || got[0].OrderID != "2" {
		t.Fatalf("expected only order 2, got %+v", got)
	}
}

func TestApplyFilterPreservesOrderAndAppliesLimit(t *testing.T) {
	all := ApplyFilter(filterFixture(), FilterSpec{})
	if len(all) != 3 {
		t.Fatalf("expected all bookings with empty filter, got %d", len(all))
	}
	for i, booking := range all {
		if booking.OrderID != filterFixture()[i].OrderID {
			t.Fatalf("expected input order preserved, got %+v", all)
		}
	}

	limited := ApplyFilter(filterFixture(), FilterSpec{Provider: "Llamas", Limit: 1})
	if len(limited) != 1 || limited[0].OrderID != "1" {
		t.Fatalf("expected first match only, got %+v", limited)
	}
}
