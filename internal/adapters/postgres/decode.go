package postgres

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// decodePrices reads a route_prices column. Fares may be stored as JSON
// numbers or numeric strings; anything else is a ParseError.
func decodePrices(raw []byte) (map[string]float64, error) {
	prices := make(map[string]float64)
	if len(raw) == 0 || string(raw) == "null" {
		return prices, nil
	}

	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, domain.ParseError{Record: "trip", Field: "route_prices", Err: err}
	}
	for stop, v := range loose {
		switch f := v.(type) {
		case float64:
			prices[stop] = f
		case string:
			n, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, domain.ParseError{Record: "trip", Field: "route_prices", Err: fmt.Errorf("fare for %q: %w", stop, err)}
			}
			prices[stop] = n
		default:
			return nil, domain.ParseError{Record: "trip", Field: "route_prices", Err: fmt.Errorf("fare for %q has type %T", stop, v)}
		}
	}
	return prices, nil
}

// decodeLocation reads a current_location column. NULL means not sharing.
func decodeLocation(raw []byte) (*domain.Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var loc struct {
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
		UpdatedAt string   `json:"updated_at"`
	}
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, domain.ParseError{Record: "trip", Field: "current_location", Err: err}
	}
	if loc.Lat == nil || loc.Lng == nil {
		return nil, domain.ParseError{Record: "trip", Field: "current_location", Err: fmt.Errorf("missing lat or lng")}
	}
	out := &domain.Location{Lat: *loc.Lat, Lng: *loc.Lng}
	if loc.UpdatedAt != "" {
		if err := out.UpdatedAt.UnmarshalText([]byte(loc.UpdatedAt)); err != nil {
			return nil, domain.ParseError{Record: "trip", Field: "current_location", Err: err}
		}
	}
	if err := out.Validate(); err != nil {
		return nil, domain.ParseError{Record: "trip", Field: "current_location", Err: err}
	}
	return out, nil
}

func decodeMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, domain.ParseError{Record: "notification", Field: "metadata", Err: err}
	}
	return m, nil
}
