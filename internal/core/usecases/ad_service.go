package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
	"github.com/samirrijal/rihla/internal/pkg/metrics"
)

// AdInput is what a driver submits to list a tourism trip.
type AdInput struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	Destination   string    `json:"destination"`
	Price         float64   `json:"price"`
	Seats         int       `json:"seats"`
	DepartureDate time.Time `json:"departure_date"`
	Phone         string    `json:"phone"`
}

func (in AdInput) validate(maxSeats int) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, domain.ValidationError{Field: "title", Msg: "is required"})
	}
	if strings.TrimSpace(in.Destination) == "" {
		errs = append(errs, domain.ValidationError{Field: "destination", Msg: "is required"})
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		errs = append(errs, domain.ValidationError{Field: "image_url", Msg: "is required"})
	}
	if in.Price <= 0 {
		errs = append(errs, domain.ValidationError{Field: "price", Msg: "must be positive"})
	}
	if in.Seats < 1 || in.Seats > maxSeats {
		errs = append(errs, domain.ValidationError{Field: "seats", Msg: fmt.Sprintf("must be between 1 and %d", maxSeats)})
	}
	if !in.DepartureDate.After(time.Now()) {
		errs = append(errs, domain.ValidationError{Field: "departure_date", Msg: "must be in the future"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// AdBookingOutcome is the remote verdict plus the ad as re-read after it.
type AdBookingOutcome struct {
	Result domain.ReservationResult `json:"result"`
	Ad     *domain.Ad               `json:"ad,omitempty"`
}

// AdService handles tourism ads and their moderation.
type AdService struct {
	ads      ports.AdRepository
	tx       ports.Transactor
	outbox   ports.Outbox
	cache    ports.CacheService
	maxSeats int
}

// NewAdService creates a new AdService.
func NewAdService(ads ports.AdRepository, tx ports.Transactor, outbox ports.Outbox, cache ports.CacheService, maxSeats int) *AdService {
	if maxSeats <= 0 {
		maxSeats = 50
	}
	return &AdService{ads: ads, tx: tx, outbox: outbox, cache: cache, maxSeats: maxSeats}
}

// Create stores a new ad awaiting moderation.
func (s *AdService) Create(ctx context.Context, sess *domain.Session, in AdInput) (*domain.Ad, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}
	if err := in.validate(s.maxSeats); err != nil {
		return nil, err
	}
	ad := &domain.Ad{
		DriverID:       sess.UserID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		ImageURL:       in.ImageURL,
		Destination:    strings.TrimSpace(in.Destination),
		Price:          in.Price,
		SeatsTotal:     in.Seats,
		SeatsAvailable: in.Seats,
		DepartureDate:  in.DepartureDate,
		Phone:          in.Phone,
		Status:         domain.AdPending,
	}
	if err := s.ads.Create(ctx, ad); err != nil {
		return nil, fmt.Errorf("create ad: %w", err)
	}
	return ad, nil
}

// ListActive returns approved ads with seats left departing in the future.
func (s *AdService) ListActive(ctx context.Context) ([]domain.Ad, error) {
	var ads []domain.Ad
	if cached(ctx, s.cache, keyActiveAds, &ads) {
		return ads, nil
	}
	ads, err := s.ads.ListActive(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	store(ctx, s.cache, keyActiveAds, ads, 120)
	return ads, nil
}

// Get returns an ad. Ads that are not active are only visible to their
// owner and administrators.
func (s *AdService) Get(ctx context.Context, sess *domain.Session, id string) (*domain.Ad, error) {
	var ad *domain.Ad
	var hit domain.Ad
	if cached(ctx, s.cache, adKey(id), &hit) {
		ad = &hit
	} else {
		var err error
		if ad, err = s.ads.GetByID(ctx, id); err != nil {
			return nil, err
		}
		store(ctx, s.cache, adKey(id), ad, 60)
	}
	if !ad.Visible() && !sess.Owns(ad.DriverID) {
		return nil, domain.NotFoundError{Resource: "ad"}
	}
	return ad, nil
}

// ListPending returns ads awaiting review.
func (s *AdService) ListPending(ctx context.Context, sess *domain.Session) ([]domain.Ad, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.ads.ListByStatus(ctx, domain.AdPending)
}

// Moderate applies an administrator action. The moderation event is written
// to the outbox in the same transaction as the status change; the relay
// publishes it after commit.
func (s *AdService) Moderate(ctx context.Context, sess *domain.Session, id string, action domain.AdAction) (*domain.Ad, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}

	var moderated *domain.Ad
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ad, err := s.ads.GetByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := ad.Status.Transition(action)
		if err != nil {
			return err
		}
		if err := s.ads.UpdateStatus(ctx, id, ad.Status, next); err != nil {
			return err
		}
		ev := &domain.ModerationEvent{
			AdID:     ad.ID,
			DriverID: ad.DriverID,
			Title:    ad.Title,
			From:     ad.Status,
			To:       next,
			AdminID:  sess.UserID,
			At:       time.Now(),
		}
		out, err := domain.NewOutboxEvent(domain.EventAdModerated, ev)
		if err != nil {
			return err
		}
		if err := s.outbox.Add(ctx, out); err != nil {
			return fmt.Errorf("record moderation event: %w", err)
		}
		ad.Status = next
		moderated = ad
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.AdModerations.WithLabelValues(string(action)).Inc()
	invalidate(ctx, s.cache, keyActiveAds, adKey(id))
	return moderated, nil
}

// Book reserves seats on an active ad through one atomic call and returns
// the ad as re-read afterwards.
func (s *AdService) Book(ctx context.Context, sess *domain.Session, id string, seats int) (*AdBookingOutcome, error) {
	if err := sess.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	ad, err := s.ads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ad.Visible() {
		return nil, domain.NotFoundError{Resource: "ad"}
	}
	if !ad.DepartureDate.After(time.Now()) {
		return nil, domain.ValidationError{Field: "ad", Msg: "ad is no longer open for booking"}
	}
	if seats < 1 {
		return nil, domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	if seats > ad.SeatsAvailable {
		return nil, domain.ValidationError{Field: "seats", Msg: fmt.Sprintf("only %d seats available", ad.SeatsAvailable)}
	}

	result, callErr := s.ads.ReserveSeats(ctx, id, sess.UserID, seats)
	metrics.BookingsTotal.WithLabelValues("ad", metrics.Result(result.Success, callErr)).Inc()

	out := &AdBookingOutcome{Result: result}
	invalidate(ctx, s.cache, keyActiveAds, adKey(id))
	if fresh, err := s.ads.GetByID(ctx, id); err == nil {
		out.Ad = fresh
	}
	if callErr != nil {
		return out, fmt.Errorf("reserve ad seats: %w", callErr)
	}
	if !result.Success {
		return out, domain.ConflictError{Resource: "booking", Msg: result.Message}
	}
	return out, nil
}

// ListByDriver returns the caller's own ads in every status.
func (s *AdService) ListByDriver(ctx context.Context, sess *domain.Session) ([]domain.Ad, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}
	return s.ads.ListByDriver(ctx, sess.UserID)
}

// Delete removes an ad owned by the caller.
func (s *AdService) Delete(ctx context.Context, sess *domain.Session, id string) error {
	ad, err := s.ads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !sess.Owns(ad.DriverID) {
		return domain.ForbiddenError{Action: "delete this ad"}
	}
	if err := s.ads.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete ad: %w", err)
	}
	invalidate(ctx, s.cache, keyActiveAds, adKey(id))
	return nil
}
