package domain_test

import (
	"testing"
	"time"

	"github.com/samirrijal/rihla/internal/core/domain"
)

func sampleRoute() domain.Route {
	return domain.Route{
		Cities: []string{"Casablanca", "Rabat", "Kenitra", "Tangier"},
		Prices: map[string]float64{"Casablanca": 500, "Rabat": 350, "Kenitra": 200},
	}
}

func TestRoute_FareFrom(t *testing.T) {
	r := sampleRoute()

	for stop, want := range r.Prices {
		got, ok := r.FareFrom(stop)
		if !ok {
			t.Fatalf("expected fare for %s", stop)
		}
		if got != want {
			t.Errorf("FareFrom(%s) = %v, want %v", stop, got, want)
		}
	}

	if _, ok := r.FareFrom("Tangier"); ok {
		t.Error("terminal stop must have no fare")
	}
	if _, ok := r.FareFrom("Fes"); ok {
		t.Error("stop not on route must have no fare")
	}
	if _, ok := r.FareFrom(""); ok {
		t.Error("empty stop must have no fare")
	}
}

func TestRoute_FareFrom_NonPositiveIsUnset(t *testing.T) {
	r := domain.Route{Cities: []string{"A", "B"}, Prices: map[string]float64{"A": 0}}
	if _, ok := r.FareFrom("A"); ok {
		t.Error("zero fare must be reported as unset")
	}
}

func TestRoute_Total(t *testing.T) {
	r := domain.Route{Cities: []string{"A", "B", "C"}, Prices: map[string]float64{"A": 500, "B": 300}}

	total, err := r.Total("A", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1500 {
		t.Errorf("expected 1500, got %v", total)
	}

	total, err = r.Total("B", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 600 {
		t.Errorf("expected 600, got %v", total)
	}

	if _, err := r.Total("A", 0); !domain.IsValidation(err) {
		t.Errorf("expected validation error for zero seats, got %v", err)
	}
	if _, err := r.Total("C", 1); !domain.IsValidation(err) {
		t.Errorf("expected validation error for terminal stop, got %v", err)
	}
}

func TestRoute_ValidateLeg(t *testing.T) {
	r := domain.Route{Cities: []string{"A", "B", "C"}}

	tests := []struct {
		from, to string
		ok       bool
	}{
		{"A", "B", true},
		{"A", "C", true},
		{"B", "C", true},
		{"C", "A", false},
		{"B", "B", false},
		{"C", "C", false},
		{"A", "Z", false},
		{"", "C", false},
	}
	for _, tt := range tests {
		err := r.ValidateLeg(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("%s->%s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok && !domain.IsValidation(err) {
			t.Errorf("%s->%s: expected validation error, got %v", tt.from, tt.to, err)
		}
	}
}

func TestTrip_CheckSeats(t *testing.T) {
	trip := &domain.Trip{SeatsAvailable: 3}

	if err := trip.CheckSeats(3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := trip.CheckSeats(4); !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := trip.CheckSeats(0); !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestTrip_Bookable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	trip := &domain.Trip{Status: domain.TripActive, DepartureTime: now.Add(time.Hour)}
	if !trip.Bookable(now) {
		t.Error("future active trip should be bookable")
	}
	trip.DepartureTime = now
	if trip.Bookable(now) {
		t.Error("trip departing now should not be bookable")
	}
	trip.DepartureTime = now.Add(time.Hour)
	trip.Status = domain.TripCancelled
	if trip.Bookable(now) {
		t.Error("cancelled trip should not be bookable")
	}
}

func TestBooking_State(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	b := &domain.Booking{
		Status: domain.BookingConfirmed,
		Trip:   &domain.Trip{DepartureTime: now.Add(-time.Minute)},
	}
	if got := b.State(now); got != domain.BookingExpired {
		t.Errorf("expected expired, got %s", got)
	}
	if b.Cancellable(now) {
		t.Error("expired booking must not be cancellable")
	}

	b.Trip.DepartureTime = now.Add(time.Hour)
	if !b.Cancellable(now) {
		t.Error("confirmed future booking should be cancellable")
	}

	b.Status = domain.BookingCancelled
	if got := b.State(now); got != domain.BookingCancelled {
		t.Errorf("expected cancelled, got %s", got)
	}
}

func TestLocation_Validate(t *testing.T) {
	if err := (domain.Location{Lat: 33.57, Lng: -7.59}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (domain.Location{Lat: 91, Lng: 181}).Validate(); !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
