package domain

import "strings"

const minStops = 2

// RouteDraft is the validated output of a RouteBuilder.
type RouteDraft struct {
	Cities []string
	Prices map[string]float64
	Price  float64 // fare of the first stop
}

// From returns the overall origin.
func (d RouteDraft) From() string { return d.Cities[0] }

// To returns the overall destination.
func (d RouteDraft) To() string { return d.Cities[len(d.Cities)-1] }

// RouteBuilder holds an editable stop list with fares keyed by the current
// stop name. It never reaches an unusable state: a refused Submit leaves
// every entry in place.
type RouteBuilder struct {
	stops []string
	fares map[string]float64
}

// NewRouteBuilder starts with two empty stops.
func NewRouteBuilder() *RouteBuilder {
	return &RouteBuilder{
		stops: make([]string, minStops),
		fares: make(map[string]float64),
	}
}

// RouteBuilderFrom seeds a builder from an existing stop list and fare table.
// Names and fare keys are trimmed; a blank name is an empty stop.
func RouteBuilderFrom(cities []string, prices map[string]float64) *RouteBuilder {
	b := NewRouteBuilder()
	trimmed := make([]string, len(cities))
	for i, c := range cities {
		trimmed[i] = strings.TrimSpace(c)
	}
	if len(trimmed) >= minStops {
		b.stops = trimmed
	} else {
		copy(b.stops, trimmed)
	}
	for k, v := range prices {
		if k = strings.TrimSpace(k); k != "" {
			b.fares[k] = v
		}
	}
	return b
}

func (b *RouteBuilder) Stops() []string {
	return append([]string(nil), b.stops...)
}

func (b *RouteBuilder) Fares() map[string]float64 {
	out := make(map[string]float64, len(b.fares))
	for k, v := range b.fares {
		out[k] = v
	}
	return out
}

// Append adds a stop at the end.
func (b *RouteBuilder) Append(name string) {
	b.stops = append(b.stops, strings.TrimSpace(name))
}

// Remove deletes the stop at i. It refuses to go below two stops.
func (b *RouteBuilder) Remove(i int) error {
	if i < 0 || i >= len(b.stops) {
		return ValidationError{Field: "stop", Msg: "index out of range"}
	}
	if len(b.stops) <= minStops {
		return ValidationError{Field: "stops", Msg: "a route needs at least 2 stops"}
	}
	name := b.stops[i]
	b.stops = append(b.stops[:i], b.stops[i+1:]...)
	if name != "" && !b.contains(name) {
		delete(b.fares, name)
	}
	return nil
}

// Rename changes the stop at i. Fares are keyed by name, so the old
// name's fare is discarded and the new name starts without one.
func (b *RouteBuilder) Rename(i int, name string) error {
	if i < 0 || i >= len(b.stops) {
		return ValidationError{Field: "stop", Msg: "index out of range"}
	}
	old := b.stops[i]
	name = strings.TrimSpace(name)
	if old == name {
		return nil
	}
	b.stops[i] = name
	if old != "" && !b.contains(old) {
		delete(b.fares, old)
	}
	if name != "" {
		delete(b.fares, name)
	}
	return nil
}

// SetFare records the fare from the stop at i to the final stop.
func (b *RouteBuilder) SetFare(i int, fare float64) error {
	if i < 0 || i >= len(b.stops) {
		return ValidationError{Field: "stop", Msg: "index out of range"}
	}
	if i == len(b.stops)-1 {
		return ValidationError{Field: "fare", Msg: "the final stop has no fare"}
	}
	name := b.stops[i]
	if name == "" {
		return ValidationError{Field: "fare", Msg: "name the stop before setting its fare"}
	}
	if fare <= 0 {
		return ValidationError{Field: "fare", Msg: "must be positive"}
	}
	b.fares[name] = fare
	return nil
}

// Submit validates the route. On failure every violation is returned as a
// ValidationErrors value and the builder is left unchanged.
func (b *RouteBuilder) Submit() (RouteDraft, error) {
	var errs ValidationErrors
	var filled []string
	seen := make(map[string]bool)
	for _, s := range b.stops {
		if s == "" {
			continue
		}
		if seen[s] {
			errs = append(errs, ValidationError{Field: "stops", Msg: "duplicate stop " + s})
			continue
		}
		seen[s] = true
		filled = append(filled, s)
	}
	if len(filled) < minStops {
		errs = append(errs, ValidationError{Field: "stops", Msg: "a route needs at least 2 stops"})
		return RouteDraft{}, errs
	}

	prices := make(map[string]float64, len(filled)-1)
	for _, s := range filled[:len(filled)-1] {
		fare, ok := b.fares[s]
		if !ok || fare <= 0 {
			errs = append(errs, ValidationError{Field: "fare", Msg: "missing fare for " + s})
			continue
		}
		prices[s] = fare
	}
	if len(errs) > 0 {
		return RouteDraft{}, errs
	}
	return RouteDraft{
		Cities: filled,
		Prices: prices,
		Price:  prices[filled[0]],
	}, nil
}

func (b *RouteBuilder) contains(name string) bool {
	for _, s := range b.stops {
		if s == name {
			return true
		}
	}
	return false
}
