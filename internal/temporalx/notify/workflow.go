package notify

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RetryPolicy governs redelivery of a failed email.
var RetryPolicy = &temporal.RetryPolicy{
	InitialInterval:        10 * time.Second,
	BackoffCoefficient:     2,
	MaximumInterval:        10 * time.Minute,
	MaximumAttempts:        8,
	NonRetryableErrorTypes: []string{ErrTypeShipmentGone},
}

func Workflow(ctx workflow.Context, req Request) error {
	if strings.TrimSpace(req.TrackingID) == "" {
		return fmt.Errorf("notify: missing tracking_id")
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         RetryPolicy,
	})
	return workflow.ExecuteActivity(ctx, ActivityDeliver, req).Get(ctx, nil)
}
