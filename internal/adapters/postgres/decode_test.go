package postgres

import (
	"testing"

	"github.com/samirrijal/rihla/internal/core/domain"
)

func TestDecodePrices(t *testing.T) {
	got, err := decodePrices([]byte(`{"Casablanca": 500, "Rabat": "350.5"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["Casablanca"] != 500 || got["Rabat"] != 350.5 {
		t.Errorf("unexpected prices: %v", got)
	}

	empty, err := decodePrices(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("NULL should decode to an empty table, got %v, %v", empty, err)
	}

	for _, raw := range []string{`[1,2]`, `{"A": true}`, `{"A": "cheap"}`} {
		if _, err := decodePrices([]byte(raw)); !domain.IsParse(err) {
			t.Errorf("%s: expected parse error, got %v", raw, err)
		}
	}
}

func TestDecodeLocation(t *testing.T) {
	loc, err := decodeLocation([]byte(`{"lat": 33.57, "lng": -7.59}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Lat != 33.57 || loc.Lng != -7.59 {
		t.Errorf("unexpected location: %+v", loc)
	}

	if loc, err := decodeLocation([]byte(`null`)); loc != nil || err != nil {
		t.Errorf("null should mean not sharing, got %v, %v", loc, err)
	}

	for _, raw := range []string{`{"lat": 1}`, `"here"`, `{"lat": 100, "lng": 0}`} {
		if _, err := decodeLocation([]byte(raw)); !domain.IsParse(err) {
			t.Errorf("%s: expected parse error, got %v", raw, err)
		}
	}
}

func TestMigrationNamesSorted(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) < 2 || names[0] != "001_core_tables.sql" || names[1] != "002_booking_functions.sql" {
		t.Errorf("unexpected migrations: %v", names)
	}
}
