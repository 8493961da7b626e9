package services

import (
	"context"
	"time"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/shipment"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

const defaultReconcileBatchSize = 200

type ReconcileOptions struct {
	BatchSize int
	// DryRun reports drift without writing.
	DryRun bool
}

type ReconcileReport struct {
	Scanned  int           `json:"scanned"`
	Missing  int           `json:"missing"`
	Drifted  int           `json:"drifted"`
	Repaired int           `json:"repaired"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Reconciler re-projects shipments onto the tracking store wherever the
// tracking record is missing or disagrees with its shipment.
type Reconciler interface {
	Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error)
}

type reconciler struct {
	log       *logger.Logger
	shipments repos.ShipmentRepo
	trackings repos.TrackingRepo
	cache     TrackingCache
	now       func() time.Time
}

func NewReconciler(log *logger.Logger, shipments repos.ShipmentRepo, trackings repos.TrackingRepo, cache TrackingCache) Reconciler {
	return &reconciler{
		log:       log.With("service", "Reconciler"),
		shipments: shipments,
		trackings: trackings,
		cache:     cache,
		now:       time.Now,
	}
}

func (r *reconciler) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = defaultReconcileBatchSize
	}
	started := r.now()
	report := &ReconcileReport{}

	err := r.shipments.ForEachBatch(dbctx.Context{Ctx: ctx}, size, func(batch []*types.Shipment) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids := make([]string, 0, len(batch))
		for _, s := range batch {
			ids = append(ids, s.TrackingID)
		}
		existing, err := r.trackings.GetByTrackingIDs(dbctx.Context{Ctx: ctx}, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]*types.Tracking, len(existing))
		for _, t := range existing {
			byID[t.TrackingID] = t
		}

		for _, s := range batch {
			report.Scanned++
			t, ok := byID[s.TrackingID]
			switch {
			case !ok:
				report.Missing++
				r.log.Warn("Tracking record missing", "tracking_id", s.TrackingID)
			case t.Drifted(s):
				report.Drifted++
				r.log.Warn("Tracking record drifted",
					"tracking_id", s.TrackingID,
					"shipment_status", s.Status,
					"tracking_status", t.Status,
				)
			default:
				continue
			}
			if opts.DryRun {
				continue
			}
			if err := r.trackings.Upsert(dbctx.Context{Ctx: ctx}, shipment.ProjectTracking(s)); err != nil {
				report.Failed++
				r.log.Error("Tracking repair failed", "tracking_id", s.TrackingID, "error", err)
				continue
			}
			report.Repaired++
			if r.cache != nil {
				if err := r.cache.Delete(ctx, s.TrackingID); err != nil {
					r.log.Warn("Tracking cache evict failed", "tracking_id", s.TrackingID, "error", err)
				}
			}
		}
		return nil
	})
	report.Duration = r.now().Sub(started)
	if err != nil {
		r.log.Error("Reconciliation aborted", "scanned", report.Scanned, "error", err)
		return report, err
	}

	r.log.Info("Reconciliation finished",
		"scanned", report.Scanned,
		"missing", report.Missing,
		"drifted", report.Drifted,
		"repaired", report.Repaired,
		"failed", report.Failed,
		"dry_run", opts.DryRun,
		"duration", report.Duration.String(),
	)
	return report, nil
}
