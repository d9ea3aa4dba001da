package workflows

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/usecases"
	"github.com/samirrijal/rihla/internal/pkg/metrics"
)

// Activity names registered by the worker.
const (
	ActivityStoreNotification = "StoreNotification"
	ActivityPushNotification  = "PushNotification"
)

// NotificationActivities holds the activity implementations for NotificationWorkflow.
type NotificationActivities struct {
	Notifications *usecases.NotificationService
}

// StoreNotification writes the notification to the recipient's inbox and
// returns it with its id. Invalid notifications are not retried.
func (a *NotificationActivities) StoreNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if err := a.Notifications.Store(ctx, &n); err != nil {
		if domain.IsValidation(err) {
			return n, temporal.NewNonRetryableApplicationError(err.Error(), "validation", err)
		}
		return n, err
	}
	metrics.NotificationsDelivered.WithLabelValues("stored").Inc()
	return n, nil
}

// PushNotification sends a stored notification to the recipient's live channel.
func (a *NotificationActivities) PushNotification(ctx context.Context, n domain.Notification) error {
	if err := a.Notifications.Push(ctx, &n); err != nil {
		activity.GetLogger(ctx).Warn("push failed", "user_id", n.UserID, "error", err)
		return err
	}
	metrics.NotificationsDelivered.WithLabelValues("pushed").Inc()
	return nil
}
