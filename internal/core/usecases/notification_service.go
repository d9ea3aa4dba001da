package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
)

// NotificationService manages user inboxes and delivery.
type NotificationService struct {
	notifications ports.NotificationRepository
	publisher     ports.EventPublisher
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifications ports.NotificationRepository, publisher ports.EventPublisher) *NotificationService {
	return &NotificationService{notifications: notifications, publisher: publisher}
}

func (s *NotificationService) List(ctx context.Context, sess *domain.Session, limit int) ([]domain.Notification, error) {
	if sess.Anonymous() {
		return nil, domain.ForbiddenError{Action: "read notifications without signing in"}
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notifications.ListByUser(ctx, sess.UserID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, sess *domain.Session, id string) error {
	if sess.Anonymous() {
		return domain.ForbiddenError{Action: "read notifications without signing in"}
	}
	return s.notifications.MarkRead(ctx, sess.UserID, id)
}

// Store writes the notification to the recipient's inbox.
func (s *NotificationService) Store(ctx context.Context, n *domain.Notification) error {
	if n.UserID == "" {
		return domain.ValidationError{Field: "user_id", Msg: "is required"}
	}
	if err := s.notifications.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Push sends a stored notification to the recipient's live channel.
func (s *NotificationService) Push(ctx context.Context, n *domain.Notification) error {
	return s.publisher.PublishNotification(ctx, n)
}

// Deliver stores then pushes.
func (s *NotificationService) Deliver(ctx context.Context, n *domain.Notification) error {
	if err := s.Store(ctx, n); err != nil {
		return err
	}
	return s.Push(ctx, n)
}

// BookingNotification tells the driver a seat was reserved on their trip.
func BookingNotification(ev *domain.BookingEvent) *domain.Notification {
	return &domain.Notification{
		UserID:  ev.DriverID,
		Title:   "New booking",
		Message: fmt.Sprintf("%d seat(s) booked from %s to %s", ev.Seats, ev.FromCity, ev.ToCity),
		Type:    "booking",
		Metadata: map[string]any{
			"trip_id":     ev.TripID,
			"user_id":     ev.UserID,
			"seats":       ev.Seats,
			"total_price": ev.TotalPrice,
		},
	}
}

// ModerationNotification tells the driver what happened to their ad.
func ModerationNotification(ev *domain.ModerationEvent) *domain.Notification {
	title, msg := "Ad updated", fmt.Sprintf("Your ad %q is now %s", ev.Title, ev.To)
	switch ev.To {
	case domain.AdActive:
		title, msg = "Ad approved", fmt.Sprintf("Your ad %q is now visible to riders", ev.Title)
	case domain.AdRejected:
		title, msg = "Ad rejected", fmt.Sprintf("Your ad %q was not approved", ev.Title)
	}
	return &domain.Notification{
		UserID:   ev.DriverID,
		Title:    title,
		Message:  msg,
		Type:     "ad_" + string(ev.To),
		Metadata: map[string]any{"ad_id": ev.AdID},
	}
}
