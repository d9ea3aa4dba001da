package domain

import (
	"time"
)

// TripStatus is the server-side lifecycle state of a trip.
type TripStatus string

const (
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// BookingStatus is the stored state of a booking. Expiry is derived, never stored.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired" // derived only
)

// Role is the marketplace role stored on a profile.
type Role string

const (
	RoleUser   Role = "user"
	RoleDriver Role = "driver"
)

// Trip is a multi-stop route offered by a driver with per-leg fares and a seat pool.
type Trip struct {
	ID              string             `json:"id"`
	DriverID        string             `json:"driver_id"`
	RouteCities     []string           `json:"route_cities"`
	RoutePrices     map[string]float64 `json:"route_prices"`
	Price           float64            `json:"price"` // legacy single fare, equals fare of first stop
	FromCity        string             `json:"from_city"`
	ToCity          string             `json:"to_city"`
	SeatsTotal      int                `json:"seats"`
	SeatsAvailable  int                `json:"available_seats"`
	DepartureTime   time.Time          `json:"departure_time"`
	Status          TripStatus         `json:"status"`
	CurrentLocation *Location          `json:"current_location,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Route returns the stop sequence and fare table of the trip.
func (t *Trip) Route() Route {
	return Route{Cities: t.RouteCities, Prices: t.RoutePrices}
}

// Bookable reports whether riders may still reserve seats on the trip.
func (t *Trip) Bookable(now time.Time) bool {
	return t.Status == TripActive && t.DepartureTime.After(now)
}

// CheckSeats validates a requested seat count against the last fetched
// availability. The result is advisory: the reservation operation is the
// only authority on remaining seats.
func (t *Trip) CheckSeats(n int) error {
	if n < 1 {
		return ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	if n > t.SeatsAvailable {
		return ValidationError{Field: "seats", Msg: "only " + itoa(t.SeatsAvailable) + " seats available"}
	}
	return nil
}

// Booking is a rider's reservation on one leg of a trip.
type Booking struct {
	ID          string        `json:"id"`
	TripID      string        `json:"trip_id"`
	UserID      string        `json:"user_id"`
	FromCity    string        `json:"from_city"`
	ToCity      string        `json:"to_city"`
	SeatsBooked int           `json:"seats_booked"`
	PricePaid   float64       `json:"price_paid"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	Trip        *Trip         `json:"trip,omitempty"`
}

// State returns the effective status, reporting expired once the trip has departed.
func (b *Booking) State(now time.Time) BookingStatus {
	if b.Status == BookingCancelled {
		return BookingCancelled
	}
	if b.Trip != nil && !b.Trip.DepartureTime.After(now) {
		return BookingExpired
	}
	return b.Status
}

// Cancellable reports whether the rider may still cancel.
func (b *Booking) Cancellable(now time.Time) bool {
	s := b.State(now)
	return s == BookingPending || s == BookingConfirmed
}

// Ad is a single-destination tourism listing that requires moderation.
type Ad struct {
	ID             string    `json:"id"`
	DriverID       string    `json:"driver_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	ImageURL       string    `json:"image_url"`
	Destination    string    `json:"destination"`
	Price          float64   `json:"price"`
	SeatsTotal     int       `json:"seats"`
	SeatsAvailable int       `json:"available_seats"`
	DepartureDate  time.Time `json:"departure_date"`
	Phone          string    `json:"phone,omitempty"`
	Status         AdStatus  `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Visible reports whether riders may see the ad.
func (a *Ad) Visible() bool {
	return a.Status == AdActive
}

// AdBooking is a seat request against an ad.
type AdBooking struct {
	ID          string        `json:"id"`
	AdID        string        `json:"ad_id"`
	UserID      string        `json:"user_id"`
	SeatsBooked int           `json:"seats_booked"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Profile is the public record attached to an account.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Location is a driver's last shared position.
type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationUpdate is published on every change of a trip's live location.
// A nil Location means the driver stopped sharing.
type LocationUpdate struct {
	TripID   string    `json:"trip_id"`
	Location *Location `json:"location"`
	Sequence int64     `json:"sequence"`
	SentAt   time.Time `json:"sent_at"`
}

// Notification is an inbox entry for a user.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	IsRead    bool           `json:"is_read"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ConsultationRequest is a driver's request for help from the back office.
type ConsultationRequest struct {
	ID          string    `json:"id"`
	DriverID    string    `json:"driver_id"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone"`
	Description string    `json:"description"`
	RequestType string    `json:"request_type"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// LostItem is a rider's report of something left behind on a trip.
type LostItem struct {
	ID              string    `json:"id"`
	BookingID       string    `json:"booking_id"`
	TripID          string    `json:"trip_id"`
	UserID          string    `json:"user_id"`
	DriverID        string    `json:"driver_id"`
	ItemDescription string    `json:"item_description"`
	DriverResponse  string    `json:"driver_response,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ReservationRequest is the argument tuple of the atomic reservation operation.
type ReservationRequest struct {
	TripID     string
	UserID     string
	FromCity   string
	ToCity     string
	Seats      int
	TotalPrice float64
}

// ReservationResult is what the atomic reservation operation reports back.
type ReservationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BookingEvent is published once a reservation has been accepted.
type BookingEvent struct {
	BookingID  string    `json:"booking_id,omitempty"`
	TripID     string    `json:"trip_id"`
	DriverID   string    `json:"driver_id"`
	UserID     string    `json:"user_id"`
	FromCity   string    `json:"from_city"`
	ToCity     string    `json:"to_city"`
	Seats      int       `json:"seats"`
	TotalPrice float64   `json:"total_price"`
	At         time.Time `json:"at"`
}

// ModerationEvent is published when an administrator changes an ad's status.
type ModerationEvent struct {
	AdID     string    `json:"ad_id"`
	DriverID string    `json:"driver_id"`
	Title    string    `json:"title"`
	From     AdStatus  `json:"from"`
	To       AdStatus  `json:"to"`
	AdminID  string    `json:"admin_id"`
	At       time.Time `json:"at"`
}
