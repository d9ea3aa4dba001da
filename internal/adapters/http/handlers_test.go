package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	handler "github.com/samirrijal/rihla/internal/adapters/http"
	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
	"github.com/samirrijal/rihla/internal/core/usecases"
)

const (
	tripID   = "7b0c6d1e-2f43-4b8a-9c55-0d1e2f3a4b5c"
	adID     = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	riderID  = "11111111-1111-4111-8111-111111111111"
	driverID = "22222222-2222-4222-8222-222222222222"
	adminID  = "33333333-3333-4333-8333-333333333333"
)

var testSecret = []byte("test-secret-that-is-at-least-32-bytes-long")

// ---- Mock repositories ----

type mockTripRepo struct {
	getByIDFn    func(ctx context.Context, id string) (*domain.Trip, error)
	listActiveFn func(ctx context.Context, f ports.TripFilter) ([]domain.Trip, error)
	createFn     func(ctx context.Context, t *domain.Trip) error
	updateLocFn  func(ctx context.Context, id string, loc *domain.Location) error
	gets         int
}

func (m *mockTripRepo) Create(ctx context.Context, t *domain.Trip) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	t.ID = tripID
	return nil
}
func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.gets++
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NotFoundError{Resource: "trip"}
}
func (m *mockTripRepo) ListActive(ctx context.Context, f ports.TripFilter) ([]domain.Trip, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, f)
	}
	return nil, nil
}
func (m *mockTripRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Trip, error) {
	return nil, nil
}
func (m *mockTripRepo) Delete(ctx context.Context, id string) error { return nil }
func (m *mockTripRepo) UpdateLocation(ctx context.Context, id string, loc *domain.Location) error {
	if m.updateLocFn != nil {
		return m.updateLocFn(ctx, id, loc)
	}
	return nil
}

type mockGateway struct {
	reserveFn func(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error)
	calls     int
}

func (m *mockGateway) ReserveSeats(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
	m.calls++
	if m.reserveFn != nil {
		return m.reserveFn(ctx, req)
	}
	return domain.ReservationResult{Success: true, Message: "Booking successful"}, nil
}

type mockBookingRepo struct{}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return nil, domain.NotFoundError{Resource: "booking"}
}
func (m *mockBookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) ListForDriver(ctx context.Context, driverID string) ([]domain.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	return nil
}

type mockAdRepo struct {
	getByIDFn      func(ctx context.Context, id string) (*domain.Ad, error)
	listByStatusFn func(ctx context.Context, status domain.AdStatus) ([]domain.Ad, error)
	updateStatusFn func(ctx context.Context, id string, from, to domain.AdStatus) error
	reserveFn      func(ctx context.Context, adID, userID string, seats int) (domain.ReservationResult, error)
}

func (m *mockAdRepo) Create(ctx context.Context, ad *domain.Ad) error { return nil }
func (m *mockAdRepo) GetByID(ctx context.Context, id string) (*domain.Ad, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NotFoundError{Resource: "ad"}
}
func (m *mockAdRepo) ListActive(ctx context.Context, after time.Time) ([]domain.Ad, error) {
	return nil, nil
}
func (m *mockAdRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Ad, error) {
	return nil, nil
}
func (m *mockAdRepo) ListByStatus(ctx context.Context, status domain.AdStatus) ([]domain.Ad, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status)
	}
	return nil, nil
}
func (m *mockAdRepo) UpdateStatus(ctx context.Context, id string, from, to domain.AdStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, from, to)
	}
	return nil
}
func (m *mockAdRepo) Delete(ctx context.Context, id string) error { return nil }
func (m *mockAdRepo) ReserveSeats(ctx context.Context, adID, userID string, seats int) (domain.ReservationResult, error) {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, adID, userID, seats)
	}
	return domain.ReservationResult{Success: true}, nil
}

type mockTx struct{}

func (mockTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockProfileRepo struct {
	profiles map[string]*domain.Profile
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.NotFoundError{Resource: "profile"}
}
func (m *mockProfileRepo) Update(ctx context.Context, p *domain.Profile) error { return nil }

type mockPublisher struct {
	confirmed []*domain.BookingEvent
	locations []*domain.LocationUpdate
}

func (m *mockPublisher) PublishBookingConfirmed(ctx context.Context, ev *domain.BookingEvent) error {
	m.confirmed = append(m.confirmed, ev)
	return nil
}
func (m *mockPublisher) PublishBookingRejected(ctx context.Context, ev *domain.BookingEvent) error {
	return nil
}
func (m *mockPublisher) PublishLocation(ctx context.Context, u *domain.LocationUpdate) error {
	m.locations = append(m.locations, u)
	return nil
}
func (m *mockPublisher) PublishNotification(ctx context.Context, n *domain.Notification) error {
	return nil
}

type mockOutbox struct {
	added []*domain.OutboxEvent
}

func (m *mockOutbox) Add(ctx context.Context, e *domain.OutboxEvent) error {
	m.added = append(m.added, e)
	return nil
}
func (m *mockOutbox) ClaimPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	return nil, nil
}
func (m *mockOutbox) MarkPublished(ctx context.Context, ids []string) error { return nil }

// ---- Test helpers ----

type fixture struct {
	trips     *mockTripRepo
	gateway   *mockGateway
	ads       *mockAdRepo
	publisher *mockPublisher
	outbox    *mockOutbox
}

func activeTrip(available int) *domain.Trip {
	return &domain.Trip{
		ID:             tripID,
		DriverID:       driverID,
		RouteCities:    []string{"Casablanca", "Rabat", "Tangier"},
		RoutePrices:    map[string]float64{"Casablanca": 120, "Rabat": 80},
		Price:          120,
		FromCity:       "Casablanca",
		ToCity:         "Tangier",
		SeatsTotal:     4,
		SeatsAvailable: available,
		DepartureTime:  time.Now().Add(24 * time.Hour),
		Status:         domain.TripActive,
	}
}

func newFixture() *fixture {
	return &fixture{
		trips:     &mockTripRepo{},
		gateway:   &mockGateway{},
		ads:       &mockAdRepo{},
		publisher: &mockPublisher{},
		outbox:    &mockOutbox{},
	}
}

func (f *fixture) deps() *handler.Dependencies {
	profiles := &mockProfileRepo{profiles: map[string]*domain.Profile{
		riderID:  {ID: riderID, Role: domain.RoleUser},
		driverID: {ID: driverID, Role: domain.RoleDriver},
		adminID:  {ID: adminID, Role: domain.RoleUser, IsAdmin: true},
	}}
	return &handler.Dependencies{
		Trips:    usecases.NewTripService(f.trips, f.publisher, nil, usecases.TripOptions{}),
		Bookings: usecases.NewBookingService(f.trips, f.gateway, &mockBookingRepo{}, f.publisher, nil),
		Ads:      usecases.NewAdService(f.ads, mockTx{}, f.outbox, nil, 50),
		Profiles: usecases.NewProfileService(profiles),
		Auth:     handler.AuthConfig{Secret: testSecret, Issuer: "rihla"},
	}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func signToken(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    "rihla",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	s, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func doRequest(t *testing.T, app *fiber.App, method, path, body, userID string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID, time.Hour))
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, b
}

func decodeError(t *testing.T, body []byte) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return apiErr
}

// ---- Trip handler tests ----

func TestListTrips_Success(t *testing.T) {
	f := newFixture()
	var got ports.TripFilter
	f.trips.listActiveFn = func(ctx context.Context, filter ports.TripFilter) ([]domain.Trip, error) {
		got = filter
		return []domain.Trip{*activeTrip(3)}, nil
	}
	app := setupApp(f.deps())

	status, body := doRequest(t, app, "GET", "/v1/trips?from=Rabat&limit=10", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var result struct {
		Data       []domain.Trip      `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data) != 1 || result.Pagination.Count != 1 || result.Pagination.Limit != 10 {
		t.Errorf("unexpected page: %+v", result.Pagination)
	}
	if got.FromCity != "Rabat" || got.Limit != 10 {
		t.Errorf("filter not forwarded: %+v", got)
	}
}

func TestGetTrip_InvalidID(t *testing.T) {
	app := setupApp(newFixture().deps())

	status, body := doRequest(t, app, "GET", "/v1/trips/not-a-uuid", "", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := decodeError(t, body).Code; code != "bad_request" {
		t.Errorf("expected bad_request, got %s", code)
	}
}

func TestGetTrip_NotFound(t *testing.T) {
	app := setupApp(newFixture().deps())

	status, body := doRequest(t, app, "GET", "/v1/trips/"+tripID, "", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if code := decodeError(t, body).Code; code != "not_found" {
		t.Errorf("expected not_found, got %s", code)
	}
}

func TestTripFare_IntermediateStop(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	app := setupApp(f.deps())

	status, body := doRequest(t, app, "GET", "/v1/trips/"+tripID+"/fare?from=Rabat&seats=2", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var q usecases.Quote
	if err := json.Unmarshal(body, &q); err != nil {
		t.Fatal(err)
	}
	if q.Fare != 80 || q.Total != 160 || q.ToCity != "Tangier" {
		t.Errorf("unexpected quote %+v", q)
	}
}

func TestTripFare_BackwardLeg(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	app := setupApp(f.deps())

	status, _ := doRequest(t, app, "GET", "/v1/trips/"+tripID+"/fare?from=Rabat&to=Casablanca", "", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestLegacyPrice_Deprecated(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	app := setupApp(f.deps())

	req := httptest.NewRequest("GET", "/v1/trips/"+tripID+"/price", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("missing Deprecation header")
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, "/v1/trips/"+tripID+"/fare") {
		t.Errorf("successor link = %q", link)
	}
	var out struct {
		Price float64 `json:"price"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Price != 120 {
		t.Errorf("expected price 120, got %v", out.Price)
	}
}

func TestCreateTrip_RiderForbidden(t *testing.T) {
	app := setupApp(newFixture().deps())

	body := `{"route_cities":["Casablanca","Rabat"],"route_prices":{"Casablanca":100},"seats":3,"departure_time":"` +
		time.Now().Add(48*time.Hour).UTC().Format(time.RFC3339) + `"}`
	status, resp := doRequest(t, app, "POST", "/v1/trips", body, riderID)
	if status != 403 {
		t.Fatalf("expected 403, got %d: %s", status, resp)
	}
}

func TestCreateTrip_Driver(t *testing.T) {
	f := newFixture()
	var stored *domain.Trip
	f.trips.createFn = func(ctx context.Context, tr *domain.Trip) error {
		tr.ID = tripID
		stored = tr
		return nil
	}
	app := setupApp(f.deps())

	body := `{"route_cities":["Casablanca","Rabat","Tangier"],"route_prices":{"Casablanca":120,"Rabat":80},"seats":3,"departure_time":"` +
		time.Now().Add(48*time.Hour).UTC().Format(time.RFC3339) + `"}`
	status, resp := doRequest(t, app, "POST", "/v1/trips", body, driverID)
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, resp)
	}
	if stored == nil || stored.DriverID != driverID || stored.Price != 120 || stored.ToCity != "Tangier" {
		t.Errorf("unexpected stored trip %+v", stored)
	}
}

func TestCreateTrip_MissingFare(t *testing.T) {
	app := setupApp(newFixture().deps())

	body := `{"route_cities":["Casablanca","Rabat","Tangier"],"route_prices":{"Casablanca":120},"seats":3,"departure_time":"` +
		time.Now().Add(48*time.Hour).UTC().Format(time.RFC3339) + `"}`
	status, resp := doRequest(t, app, "POST", "/v1/trips", body, driverID)
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, resp)
	}
	if msg := decodeError(t, resp).Message; !strings.Contains(msg, "Rabat") {
		t.Errorf("expected the stop missing a fare in %q", msg)
	}
}

func TestShareLocation_InvalidCoordinates(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	app := setupApp(f.deps())

	status, _ := doRequest(t, app, "PUT", "/v1/trips/"+tripID+"/location", `{"lat":123,"lng":7}`, driverID)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if len(f.publisher.locations) != 0 {
		t.Error("invalid location must not be published")
	}
}

func TestShareLocation_Owner(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	app := setupApp(f.deps())

	status, body := doRequest(t, app, "PUT", "/v1/trips/"+tripID+"/location", `{"lat":34.02,"lng":-6.83}`, driverID)
	if status != 204 {
		t.Fatalf("expected 204, got %d: %s", status, body)
	}
	if len(f.publisher.locations) != 1 {
		t.Fatalf("expected 1 published update, got %d", len(f.publisher.locations))
	}
}

// ---- Booking handler tests ----

func TestCreateBooking_Anonymous(t *testing.T) {
	app := setupApp(newFixture().deps())

	body := `{"trip_id":"` + tripID + `","from_city":"Casablanca","to_city":"Rabat","seats":1}`
	status, resp := doRequest(t, app, "POST", "/v1/bookings", body, "")
	if status != 401 {
		t.Fatalf("expected 401, got %d: %s", status, resp)
	}
}

func TestCreateBooking_InvalidToken(t *testing.T) {
	app := setupApp(newFixture().deps())

	req := httptest.NewRequest("POST", "/v1/bookings", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateBooking_ExpiredToken(t *testing.T) {
	app := setupApp(newFixture().deps())

	req := httptest.NewRequest("GET", "/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, riderID, -time.Minute))
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	var sent domain.ReservationRequest
	f.gateway.reserveFn = func(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
		sent = req
		return domain.ReservationResult{Success: true, Message: "Booking successful"}, nil
	}
	app := setupApp(f.deps())

	body := `{"trip_id":"` + tripID + `","from_city":"Rabat","to_city":"Tangier","seats":2}`
	status, resp := doRequest(t, app, "POST", "/v1/bookings", body, riderID)
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, resp)
	}
	if f.gateway.calls != 1 {
		t.Errorf("expected exactly one reservation call, got %d", f.gateway.calls)
	}
	if sent.TotalPrice != 160 || sent.UserID != riderID {
		t.Errorf("unexpected request %+v", sent)
	}
	if f.trips.gets != 2 {
		t.Errorf("expected the trip to be re-read after the call, got %d reads", f.trips.gets)
	}
	var out usecases.ReserveOutcome
	if err := json.Unmarshal(resp, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Result.Success || out.Trip == nil {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestCreateBooking_SoldOut(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	f.gateway.reserveFn = func(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
		return domain.ReservationResult{Success: false, Message: "Not enough seats available"}, nil
	}
	app := setupApp(f.deps())

	body := `{"trip_id":"` + tripID + `","from_city":"Casablanca","to_city":"Tangier","seats":3}`
	status, resp := doRequest(t, app, "POST", "/v1/bookings", body, riderID)
	if status != 409 {
		t.Fatalf("expected 409, got %d: %s", status, resp)
	}
	var refusal handler.RefusalResponse
	if err := json.Unmarshal(resp, &refusal); err != nil {
		t.Fatalf("decode body %s: %v", resp, err)
	}
	if refusal.Code != "conflict" || refusal.Message != "Not enough seats available" {
		t.Errorf("unexpected error %+v", refusal.APIError)
	}
	if refusal.Trip == nil || !strings.Contains(string(resp), `"available_seats"`) {
		t.Fatalf("expected the re-read trip in the body, got %s", resp)
	}
	if refusal.Trip.SeatsAvailable != 3 {
		t.Errorf("expected available_seats 3, got %d", refusal.Trip.SeatsAvailable)
	}
	if f.trips.gets != 2 {
		t.Errorf("expected one read before and one after the call, got %d", f.trips.gets)
	}
	if len(f.publisher.confirmed) != 0 {
		t.Error("a refused reservation must not publish a confirmation")
	}
}

func TestBookAd_RefusalCarriesAd(t *testing.T) {
	f := newFixture()
	reads := 0
	f.ads.getByIDFn = func(ctx context.Context, id string) (*domain.Ad, error) {
		reads++
		ad := pendingAd()
		ad.Status = domain.AdActive
		if reads > 1 {
			ad.SeatsAvailable = 1
		}
		return ad, nil
	}
	f.ads.reserveFn = func(ctx context.Context, adID, userID string, seats int) (domain.ReservationResult, error) {
		return domain.ReservationResult{Success: false, Message: "Not enough seats available"}, nil
	}
	app := setupApp(f.deps())

	status, resp := doRequest(t, app, "POST", "/v1/ads/"+adID+"/book", `{"seats":2}`, riderID)
	if status != 409 {
		t.Fatalf("expected 409, got %d: %s", status, resp)
	}
	var refusal handler.RefusalResponse
	if err := json.Unmarshal(resp, &refusal); err != nil {
		t.Fatalf("decode body %s: %v", resp, err)
	}
	if refusal.Code != "conflict" || refusal.Message != "Not enough seats available" {
		t.Errorf("unexpected error %+v", refusal.APIError)
	}
	if refusal.Ad == nil || refusal.Ad.SeatsAvailable != 1 || refusal.Trip != nil {
		t.Errorf("expected the re-read ad only, got %s", resp)
	}
}

func TestGetTrip_CorruptRowIsServerError(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) {
		return nil, domain.ParseError{Record: "trip", Field: "route_prices", Err: errors.New("not an object")}
	}
	app := setupApp(f.deps())

	status, resp := doRequest(t, app, "GET", "/v1/trips/"+tripID, "", "")
	if status != 500 {
		t.Fatalf("expected 500, got %d: %s", status, resp)
	}
	apiErr := decodeError(t, resp)
	if apiErr.Code != "internal_error" || strings.Contains(apiErr.Message, "route_prices") {
		t.Errorf("stored-record failures must not leak: %+v", apiErr)
	}
}

func TestCreateBooking_GatewayFailure(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	f.gateway.reserveFn = func(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
		return domain.ReservationResult{}, errors.New("connection reset")
	}
	app := setupApp(f.deps())

	body := `{"trip_id":"` + tripID + `","from_city":"Casablanca","to_city":"Rabat","seats":1}`
	status, resp := doRequest(t, app, "POST", "/v1/bookings", body, riderID)
	if status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	apiErr := decodeError(t, resp)
	if strings.Contains(apiErr.Message, "connection reset") {
		t.Error("internal error text leaked to the client")
	}
	if f.gateway.calls != 1 {
		t.Errorf("expected no retry, got %d calls", f.gateway.calls)
	}
}

func TestCreateBooking_TooManySeats(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(1), nil }
	app := setupApp(f.deps())

	body := `{"trip_id":"` + tripID + `","from_city":"Casablanca","to_city":"Rabat","seats":2}`
	status, _ := doRequest(t, app, "POST", "/v1/bookings", body, riderID)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if f.gateway.calls != 0 {
		t.Error("gateway must not be called when the local check fails")
	}
}

// ---- Ad handler tests ----

func pendingAd() *domain.Ad {
	return &domain.Ad{
		ID:             adID,
		DriverID:       driverID,
		Title:          "Merzouga dunes",
		Destination:    "Merzouga",
		Price:          900,
		SeatsTotal:     8,
		SeatsAvailable: 8,
		DepartureDate:  time.Now().Add(72 * time.Hour),
		Status:         domain.AdPending,
	}
}

func TestModerateAd_Approve(t *testing.T) {
	f := newFixture()
	f.ads.getByIDFn = func(ctx context.Context, id string) (*domain.Ad, error) { return pendingAd(), nil }
	var from, to domain.AdStatus
	f.ads.updateStatusFn = func(ctx context.Context, id string, a, b domain.AdStatus) error {
		from, to = a, b
		return nil
	}
	app := setupApp(f.deps())

	status, resp := doRequest(t, app, "POST", "/v1/ads/"+adID+"/moderate", `{"action":"approve"}`, adminID)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, resp)
	}
	if from != domain.AdPending || to != domain.AdActive {
		t.Errorf("unexpected transition %s -> %s", from, to)
	}
	if len(f.outbox.added) != 1 || f.outbox.added[0].Type != domain.EventAdModerated {
		t.Errorf("expected one recorded moderation event, got %+v", f.outbox.added)
	}
}

func TestModerateAd_NotAdmin(t *testing.T) {
	f := newFixture()
	f.ads.getByIDFn = func(ctx context.Context, id string) (*domain.Ad, error) { return pendingAd(), nil }
	app := setupApp(f.deps())

	status, _ := doRequest(t, app, "POST", "/v1/ads/"+adID+"/moderate", `{"action":"approve"}`, driverID)
	if status != 403 {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestModerateAd_IllegalTransition(t *testing.T) {
	f := newFixture()
	f.ads.getByIDFn = func(ctx context.Context, id string) (*domain.Ad, error) {
		ad := pendingAd()
		ad.Status = domain.AdRejected
		return ad, nil
	}
	app := setupApp(f.deps())

	status, _ := doRequest(t, app, "POST", "/v1/ads/"+adID+"/moderate", `{"action":"approve"}`, adminID)
	if status != 409 {
		t.Fatalf("expected 409, got %d", status)
	}
}

func TestModerateAd_UnknownAction(t *testing.T) {
	app := setupApp(newFixture().deps())

	status, _ := doRequest(t, app, "POST", "/v1/ads/"+adID+"/moderate", `{"action":"publish"}`, adminID)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestGetAd_PendingHiddenFromRiders(t *testing.T) {
	f := newFixture()
	f.ads.getByIDFn = func(ctx context.Context, id string) (*domain.Ad, error) { return pendingAd(), nil }
	app := setupApp(f.deps())

	if status, _ := doRequest(t, app, "GET", "/v1/ads/"+adID, "", riderID); status != 404 {
		t.Errorf("rider: expected 404, got %d", status)
	}
	if status, _ := doRequest(t, app, "GET", "/v1/ads/"+adID, "", driverID); status != 200 {
		t.Errorf("owner: expected 200, got %d", status)
	}
}

func TestGetAd_CacheControlFollowsVisibility(t *testing.T) {
	f := newFixture()
	ad := pendingAd()
	f.ads.getByIDFn = func(ctx context.Context, id string) (*domain.Ad, error) {
		cp := *ad
		return &cp, nil
	}
	app := setupApp(f.deps())

	get := func() *http.Response {
		req := httptest.NewRequest("GET", "/v1/ads/"+adID, nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, driverID, time.Hour))
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		return resp
	}

	resp := get()
	if cc := resp.Header.Get("Cache-Control"); cc != "private, no-store" {
		t.Errorf("pending ad: Cache-Control = %q", cc)
	}
	if resp.Header.Get("ETag") != "" {
		t.Error("pending ad must not carry an ETag")
	}

	ad.Status = domain.AdActive
	if cc := get().Header.Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("active ad: Cache-Control = %q", cc)
	}
}

func TestPendingAds_AdminOnly(t *testing.T) {
	f := newFixture()
	f.ads.listByStatusFn = func(ctx context.Context, s domain.AdStatus) ([]domain.Ad, error) {
		return []domain.Ad{*pendingAd()}, nil
	}
	app := setupApp(f.deps())

	if status, _ := doRequest(t, app, "GET", "/v1/ads/pending", "", riderID); status != 403 {
		t.Errorf("rider: expected 403, got %d", status)
	}
	status, body := doRequest(t, app, "GET", "/v1/ads/pending", "", adminID)
	if status != 200 {
		t.Fatalf("admin: expected 200, got %d", status)
	}
	var ads []domain.Ad
	json.Unmarshal(body, &ads)
	if len(ads) != 1 {
		t.Errorf("expected 1 pending ad, got %d", len(ads))
	}
}

// ---- GraphQL ----

func TestGraphQL_Fare(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	app := setupApp(f.deps())

	query := `{"query":"{ fare(trip_id: \"` + tripID + `\", from: \"Casablanca\", seats: 2) { fare total to_city } }"}`
	status, body := doRequest(t, app, "POST", "/graphql", query, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result struct {
		Data struct {
			Fare struct {
				Fare   float64 `json:"fare"`
				Total  float64 `json:"total"`
				ToCity string  `json:"to_city"`
			} `json:"fare"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Data.Fare.Total != 240 || result.Data.Fare.ToCity != "Tangier" {
		t.Errorf("unexpected fare %+v", result.Data.Fare)
	}
}

func TestGraphQL_TripRoutePrices(t *testing.T) {
	f := newFixture()
	f.trips.getByIDFn = func(ctx context.Context, id string) (*domain.Trip, error) { return activeTrip(3), nil }
	app := setupApp(f.deps())

	query := `{"query":"{ trip(id: \"` + tripID + `\") { available_seats route_prices { city price } } }"}`
	status, body := doRequest(t, app, "POST", "/graphql", query, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result struct {
		Data struct {
			Trip struct {
				AvailableSeats int `json:"available_seats"`
				RoutePrices    []struct {
					City  string  `json:"city"`
					Price float64 `json:"price"`
				} `json:"route_prices"`
			} `json:"trip"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	fares := result.Data.Trip.RoutePrices
	if len(fares) != 2 || fares[0].City != "Casablanca" || fares[1].City != "Rabat" {
		t.Errorf("expected fares in route order without the final stop, got %+v", fares)
	}
	if result.Data.Trip.AvailableSeats != 3 {
		t.Errorf("expected 3 seats, got %d", result.Data.Trip.AvailableSeats)
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	app := setupApp(newFixture().deps())

	status, _ := doRequest(t, app, "POST", "/graphql", `{"query":""}`, "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

// ---- System ----

func TestHealth(t *testing.T) {
	app := setupApp(newFixture().deps())

	status, body := doRequest(t, app, "GET", "/v1/health", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), "healthy") {
		t.Errorf("unexpected body %s", body)
	}
}

func TestReady_WithoutDatabase(t *testing.T) {
	app := setupApp(newFixture().deps())

	status, body := doRequest(t, app, "GET", "/v1/ready", "", "")
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
	var resp struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Checks["database"] != "not configured" || resp.Checks["cache"] != "not configured" {
		t.Errorf("unexpected checks %v", resp.Checks)
	}
}

func TestDocs_OpenAPIJSON(t *testing.T) {
	app := setupApp(newFixture().deps())

	status, body := doRequest(t, app, "GET", "/docs/openapi.json", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(string(body), "Rihla Trip Marketplace API") {
		t.Errorf("expected API title in document")
	}
}

func TestRequestIDOnErrors(t *testing.T) {
	app := setupApp(newFixture().deps())

	_, body := doRequest(t, app, "GET", "/v1/trips/"+tripID, "", "")
	if decodeError(t, body).RequestID == "" {
		t.Error("expected a request id in the error body")
	}
}

func TestPrivateRoutesNotPubliclyCached(t *testing.T) {
	app := setupApp(newFixture().deps())

	req := httptest.NewRequest("GET", "/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, riderID, time.Hour))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if resp.Header.Get("ETag") != "" {
		t.Error("no-store responses must not carry an ETag")
	}
}
