package workflows

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// EventID derives a stable id from the parts identifying an event, so a
// redelivered event maps onto the same notification and workflow.
func EventID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "|"))).String()
}

// Starter launches notification workflows.
type Starter struct {
	client    client.Client
	taskQueue string
}

func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// Notify starts NotificationWorkflow for n. n.ID must be set; a workflow
// already started for the same id is treated as success.
func (s *Starter) Notify(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		return domain.ValidationError{Field: "id", Msg: "is required"}
	}
	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    "notify-" + n.ID,
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, NotificationWorkflow, *n)

	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return nil
	}
	return err
}
