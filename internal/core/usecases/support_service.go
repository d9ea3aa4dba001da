package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
)

// ConsultationInput is a driver's help request.
type ConsultationInput struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
	RequestType string `json:"request_type"`
}

// SupportService handles consultation requests and lost-item reports.
type SupportService struct {
	consultations ports.ConsultationRepository
	lostItems     ports.LostItemRepository
	bookings      ports.BookingRepository
}

// NewSupportService creates a new SupportService.
func NewSupportService(
	consultations ports.ConsultationRepository,
	lostItems ports.LostItemRepository,
	bookings ports.BookingRepository,
) *SupportService {
	return &SupportService{consultations: consultations, lostItems: lostItems, bookings: bookings}
}

// RequestConsultation files a driver's request for the back office.
func (s *SupportService) RequestConsultation(ctx context.Context, sess *domain.Session, in ConsultationInput) (*domain.ConsultationRequest, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}
	var errs domain.ValidationErrors
	if strings.TrimSpace(in.FullName) == "" {
		errs = append(errs, domain.ValidationError{Field: "full_name", Msg: "is required"})
	}
	if strings.TrimSpace(in.Phone) == "" {
		errs = append(errs, domain.ValidationError{Field: "phone", Msg: "is required"})
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, domain.ValidationError{Field: "description", Msg: "is required"})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if in.RequestType == "" {
		in.RequestType = "general"
	}
	c := &domain.ConsultationRequest{
		DriverID:    sess.UserID,
		FullName:    strings.TrimSpace(in.FullName),
		Phone:       strings.TrimSpace(in.Phone),
		Description: in.Description,
		RequestType: in.RequestType,
		Status:      "pending",
	}
	if err := s.consultations.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create consultation: %w", err)
	}
	return c, nil
}

// ListConsultations returns the caller's own requests.
func (s *SupportService) ListConsultations(ctx context.Context, sess *domain.Session) ([]domain.ConsultationRequest, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}
	return s.consultations.ListByDriver(ctx, sess.UserID)
}

// ReportLostItem files a report against one of the caller's bookings and
// routes it to the trip's driver.
func (s *SupportService) ReportLostItem(ctx context.Context, sess *domain.Session, bookingID, description string) (*domain.LostItem, error) {
	if sess.Anonymous() {
		return nil, domain.ForbiddenError{Action: "report a lost item without signing in"}
	}
	if strings.TrimSpace(description) == "" {
		return nil, domain.ValidationError{Field: "item_description", Msg: "is required"}
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != sess.UserID {
		return nil, domain.ForbiddenError{Action: "report on this booking"}
	}
	if b.Trip == nil {
		return nil, domain.NotFoundError{Resource: "trip"}
	}
	item := &domain.LostItem{
		BookingID:       b.ID,
		TripID:          b.TripID,
		UserID:          sess.UserID,
		DriverID:        b.Trip.DriverID,
		ItemDescription: strings.TrimSpace(description),
		Status:          "pending",
	}
	if err := s.lostItems.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create lost item: %w", err)
	}
	return item, nil
}

// LostItemsForDriver returns reports on the caller's trips.
func (s *SupportService) LostItemsForDriver(ctx context.Context, sess *domain.Session) ([]domain.LostItem, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}
	return s.lostItems.ListByDriver(ctx, sess.UserID)
}

// MyLostItems returns the caller's own reports.
func (s *SupportService) MyLostItems(ctx context.Context, sess *domain.Session) ([]domain.LostItem, error) {
	if sess.Anonymous() {
		return nil, domain.ForbiddenError{Action: "list lost items without signing in"}
	}
	return s.lostItems.ListByUser(ctx, sess.UserID)
}

// RespondLostItem records the driver's answer; found reports whether the item was located.
func (s *SupportService) RespondLostItem(ctx context.Context, sess *domain.Session, id, response string, found bool) (*domain.LostItem, error) {
	if strings.TrimSpace(response) == "" {
		return nil, domain.ValidationError{Field: "driver_response", Msg: "is required"}
	}
	item, err := s.lostItems.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Owns(item.DriverID) {
		return nil, domain.ForbiddenError{Action: "respond to this report"}
	}
	status := "not_found"
	if found {
		status = "found"
	}
	if err := s.lostItems.Respond(ctx, id, response, status); err != nil {
		return nil, fmt.Errorf("respond lost item: %w", err)
	}
	item.DriverResponse = response
	item.Status = status
	return item, nil
}
