package notify

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

const ErrTypeShipmentGone = "ShipmentGone"

type Activities struct {
	Log       *logger.Logger
	Shipments repos.ShipmentRepo
	// Receipts and Renderer are optional; registration emails go out without
	// an attachment when neither yields a PDF.
	Receipts services.ReceiptStore
	Renderer services.ReceiptRenderer
	Mailer   services.ShipmentNotifier
}

func (a *Activities) Deliver(ctx context.Context, req Request) error {
	if a == nil || a.Shipments == nil || a.Mailer == nil {
		return fmt.Errorf("notify: activity not configured")
	}
	s, err := a.Shipments.GetByTrackingID(dbctx.Context{Ctx: ctx}, req.TrackingID)
	if err != nil {
		return err
	}
	if s == nil {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("shipment %s no longer exists", req.TrackingID), ErrTypeShipmentGone, nil)
	}

	attempt := int32(1)
	if activity.IsActivity(ctx) {
		attempt = activity.GetInfo(ctx).Attempt
	}
	a.Log.Info("Delivering shipment notification", "tracking_id", req.TrackingID, "kind", req.Kind, "attempt", attempt)

	switch req.Kind {
	case KindRegistered:
		return a.Mailer.ShipmentRegistered(ctx, s, a.receipt(ctx, s))
	case KindUpdated:
		change := services.ShipmentChange{NewStatus: s.Status}
		if req.Change != nil {
			change = *req.Change
		}
		return a.Mailer.ShipmentUpdated(ctx, s, change)
	default:
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("unknown notification kind %q", req.Kind), "UnknownKind", nil)
	}
}

func (a *Activities) receipt(ctx context.Context, s *types.Shipment) []byte {
	if a.Receipts != nil {
		pdf, err := a.Receipts.Load(ctx, s.TrackingID)
		if err == nil && len(pdf) > 0 {
			return pdf
		}
		if err != nil && !errors.Is(err, services.ErrReceiptNotFound) {
			a.Log.Warn("Receipt archive read failed", "tracking_id", s.TrackingID, "error", err)
		}
	}
	if a.Renderer == nil {
		return nil
	}
	pdf, err := a.Renderer.Render(ctx, s)
	if err != nil {
		a.Log.Warn("Receipt render failed; sending without attachment", "tracking_id", s.TrackingID, "error", err)
		return nil
	}
	return pdf
}
