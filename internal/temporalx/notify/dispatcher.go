package notify

import (
	"context"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

// Dispatcher hands notifications to Temporal so failed emails are retried
// outside the request. When a workflow cannot be started it sends inline
// through fallback.
type Dispatcher struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
	fallback  services.ShipmentNotifier
}

func NewDispatcher(log *logger.Logger, tc temporalsdkclient.Client, taskQueue string, fallback services.ShipmentNotifier) *Dispatcher {
	return &Dispatcher{
		log:       log.With("service", "NotificationDispatcher"),
		tc:        tc,
		taskQueue: taskQueue,
		fallback:  fallback,
	}
}

func (d *Dispatcher) start(ctx context.Context, workflowID string, req Request) error {
	run, err := d.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: d.taskQueue,
	}, WorkflowName, req)
	if err != nil {
		return err
	}
	d.log.Debug("Notification workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}

func (d *Dispatcher) ShipmentRegistered(ctx context.Context, s *types.Shipment, receipt []byte) error {
	err := d.start(ctx, "notify-registered-"+s.TrackingID, Request{TrackingID: s.TrackingID, Kind: KindRegistered})
	if err == nil || d.fallback == nil {
		return err
	}
	d.log.Warn("Notification workflow not started; sending inline", "tracking_id", s.TrackingID, "error", err)
	return d.fallback.ShipmentRegistered(ctx, s, receipt)
}

func (d *Dispatcher) ShipmentUpdated(ctx context.Context, s *types.Shipment, change services.ShipmentChange) error {
	id := "notify-updated-" + s.TrackingID + "-" + uuid.NewString()
	err := d.start(ctx, id, Request{TrackingID: s.TrackingID, Kind: KindUpdated, Change: &change})
	if err == nil || d.fallback == nil {
		return err
	}
	d.log.Warn("Notification workflow not started; sending inline", "tracking_id", s.TrackingID, "error", err)
	return d.fallback.ShipmentUpdated(ctx, s, change)
}
