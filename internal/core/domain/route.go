package domain

// Route is an ordered list of stops with the fare from each non-terminal
// stop to the final destination.
type Route struct {
	Cities []string
	Prices map[string]float64
}

// IndexOf returns the position of a stop, or -1.
func (r Route) IndexOf(stop string) int {
	for i, c := range r.Cities {
		if c == stop {
			return i
		}
	}
	return -1
}

// FareFrom resolves the per-seat fare for boarding at stop. The second
// result is false when no fare applies: the stop is terminal, absent from
// the route, or has no positive entry.
func (r Route) FareFrom(stop string) (float64, bool) {
	i := r.IndexOf(stop)
	if i < 0 || i == len(r.Cities)-1 {
		return 0, false
	}
	fare, ok := r.Prices[stop]
	if !ok || fare <= 0 {
		return 0, false
	}
	return fare, true
}

// Total returns fare × seats for boarding at stop.
func (r Route) Total(stop string, seats int) (float64, error) {
	if seats < 1 {
		return 0, ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	fare, ok := r.FareFrom(stop)
	if !ok {
		return 0, ValidationError{Field: "from_city", Msg: "no fare set for " + stop}
	}
	return fare * float64(seats), nil
}

// ValidateLeg checks that both stops are on the route and that boarding
// comes strictly before alighting.
func (r Route) ValidateLeg(from, to string) error {
	if from == "" || to == "" {
		return ValidationError{Msg: "boarding and alighting stops are required"}
	}
	fi, ti := r.IndexOf(from), r.IndexOf(to)
	if fi < 0 {
		return ValidationError{Field: "from_city", Msg: from + " is not on this route"}
	}
	if ti < 0 {
		return ValidationError{Field: "to_city", Msg: to + " is not on this route"}
	}
	if fi >= ti {
		return ValidationError{Msg: "boarding stop must come before alighting stop"}
	}
	return nil
}
