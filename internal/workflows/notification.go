package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// NotificationWorkflow stores a notification in the recipient's inbox, then
// pushes it to their live channel. The inbox row is the durable record: a
// push that still fails after its retries is logged and the workflow
// completes.
func NotificationWorkflow(ctx workflow.Context, n domain.Notification) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting notification workflow", "user_id", n.UserID, "type", n.Type)

	storeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    5,
		},
	})

	var stored domain.Notification
	if err := workflow.ExecuteActivity(storeCtx, ActivityStoreNotification, n).Get(ctx, &stored); err != nil {
		return err
	}

	pushCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
	if err := workflow.ExecuteActivity(pushCtx, ActivityPushNotification, stored).Get(ctx, nil); err != nil {
		logger.Warn("push failed, notification stays in the inbox", "notification_id", stored.ID, "error", err)
		return nil
	}

	logger.Info("Notification delivered", "notification_id", stored.ID)
	return nil
}
