package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/shipment"
	"github.com/Britinogn/CourviaShipAPI/internal/observability"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TrackingCache is a read-through cache in front of the tracking store.
// Get returns nil, nil on a miss.
type TrackingCache interface {
	Get(ctx context.Context, trackingID string) (*types.Tracking, error)
	Set(ctx context.Context, t *types.Tracking) error
	Delete(ctx context.Context, trackingIDs ...string) error
}

// ShipmentNotifier delivers customer notifications. Errors are logged by the
// caller and never fail the workflow that triggered them.
type ShipmentNotifier interface {
	ShipmentRegistered(ctx context.Context, s *types.Shipment, receipt []byte) error
	ShipmentUpdated(ctx context.Context, s *types.Shipment, change ShipmentChange) error
}

type ShipmentChange struct {
	OldStatus                types.ShipmentStatus `json:"oldStatus"`
	NewStatus                types.ShipmentStatus `json:"newStatus"`
	EstimatedDeliveryChanged bool                 `json:"estimatedDeliveryChanged"`
}

type RegisterShipmentResult struct {
	TrackingID string          `json:"trackingId"`
	Message    string          `json:"message"`
	ShipmentID string          `json:"shipmentId"`
	Shipment   *types.Shipment `json:"shipment"`
	// Receipt is nil when rendering failed.
	Receipt    []byte `json:"-"`
	ReceiptURL string `json:"receiptUrl,omitempty"`
}

type UpdateShipmentResult struct {
	Success           bool            `json:"success"`
	Message           string          `json:"message"`
	TrackingID        string          `json:"trackingId"`
	UpdatedShipmentID string          `json:"updatedShipmentId"`
	Shipment          *types.Shipment `json:"-"`
}

type DeleteManyResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

type ListShipmentsQuery struct {
	Status        string
	SenderName    string
	ReceiverName  string
	SenderEmail   string
	ReceiverEmail string
	Limit         int
	Skip          int
}

type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Skip    int   `json:"skip"`
	HasMore bool  `json:"hasMore"`
}

type ListShipmentsResult struct {
	Shipments  []*types.Shipment `json:"shipments"`
	Pagination Pagination        `json:"pagination"`
}

type ShipmentService interface {
	Register(ctx context.Context, in RegisterShipmentInput) (*RegisterShipmentResult, error)
	Update(ctx context.Context, trackingID string, in UpdateShipmentInput) (*UpdateShipmentResult, error)
	Delete(ctx context.Context, trackingID string) error
	DeleteMany(ctx context.Context, trackingIDs []string) (*DeleteManyResult, error)
	Get(ctx context.Context, trackingID string) (*types.Shipment, error)
	List(ctx context.Context, q ListShipmentsQuery) (*ListShipmentsResult, error)
	Receipt(ctx context.Context, trackingID string) ([]byte, error)
}

type shipmentService struct {
	log          *logger.Logger
	shipments    repos.ShipmentRepo
	trackings    repos.TrackingRepo
	codes        TrackingCodeGenerator
	codeCfg      TrackingCodeConfig
	receipts     ReceiptRenderer
	receiptStore ReceiptStore
	notifier     ShipmentNotifier
	cache        TrackingCache
	now          func() time.Time
}

// NewShipmentService wires the dual-write workflows. receipts, receiptStore,
// notifier and cache may be nil; each of them is best-effort.
func NewShipmentService(
	log *logger.Logger,
	shipments repos.ShipmentRepo,
	trackings repos.TrackingRepo,
	codes TrackingCodeGenerator,
	codeCfg TrackingCodeConfig,
	receipts ReceiptRenderer,
	receiptStore ReceiptStore,
	notifier ShipmentNotifier,
	cache TrackingCache,
) ShipmentService {
	return &shipmentService{
		log:          log.With("service", "ShipmentService"),
		shipments:    shipments,
		trackings:    trackings,
		codes:        codes,
		codeCfg:      codeCfg,
		receipts:     receipts,
		receiptStore: receiptStore,
		notifier:     notifier,
		cache:        cache,
		now:          time.Now,
	}
}

// bestEffort runs a secondary step. Its failure is logged and swallowed.
func (s *shipmentService) bestEffort(ctx context.Context, op, trackingID string, fn func(context.Context) error) bool {
	if err := fn(ctx); err != nil {
		s.log.Warn("Secondary step failed",
			"op", op,
			"tracking_id", trackingID,
			"error", err,
		)
		observability.Current().ObserveShipmentOp(op, "failed")
		return false
	}
	return true
}

func (s *shipmentService) evict(ctx context.Context, trackingIDs ...string) {
	if s.cache == nil || len(trackingIDs) == 0 {
		return
	}
	s.bestEffort(ctx, "cache_evict", strings.Join(trackingIDs, ","), func(ctx context.Context) error {
		return s.cache.Delete(ctx, trackingIDs...)
	})
}

func (s *shipmentService) Register(ctx context.Context, in RegisterShipmentInput) (*RegisterShipmentResult, error) {
	now := s.now().UTC()
	rec, err := in.toShipment(now)
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Generate(ctx, s.codeCfg.Prefix, s.codeCfg.Length, s.codeCfg.MaxRetries)
	if err != nil {
		s.log.Error("Tracking code generation failed", "prefix", s.codeCfg.Prefix, "error", err)
		return nil, toAPIError(err)
	}

	rec.TrackingID = code
	rec.Status = types.StatusInTransit
	rec.RegisteredAt = now
	rec.CurrentLocation = shipment.NewLocationColumn(nil)

	dbc := dbctx.Context{Ctx: ctx}
	if err := s.shipments.Create(dbc, rec); err != nil {
		s.log.Error("Failed to persist shipment", "tracking_id", code, "error", err)
		return nil, toAPIError(err)
	}

	// The shipment is authoritative from here on; nothing below rolls it back.
	if !s.bestEffort(ctx, "tracking_create", code, func(ctx context.Context) error {
		return s.trackings.Create(dbctx.Context{Ctx: ctx}, shipment.ProjectTracking(rec))
	}) {
		s.log.Warn("Dual-write drift: tracking record missing", "tracking_id", code)
	}

	result := &RegisterShipmentResult{
		TrackingID: code,
		Message:    "Shipment registered successfully",
		ShipmentID: rec.ID.String(),
		Shipment:   rec,
	}

	if s.receipts != nil {
		s.bestEffort(ctx, "receipt_render", code, func(ctx context.Context) error {
			pdf, err := s.receipts.Render(ctx, rec)
			if err != nil {
				return err
			}
			result.Receipt = pdf
			return nil
		})
	}
	if result.Receipt != nil && s.receiptStore != nil {
		s.bestEffort(ctx, "receipt_archive", code, func(ctx context.Context) error {
			url, err := s.receiptStore.Save(ctx, code, result.Receipt)
			if err != nil {
				return err
			}
			result.ReceiptURL = url
			return nil
		})
	}
	if s.notifier != nil {
		s.bestEffort(ctx, "notify_registered", code, func(ctx context.Context) error {
			return s.notifier.ShipmentRegistered(ctx, rec, result.Receipt)
		})
	}

	observability.Current().ObserveShipmentOp("register", "ok")
	s.log.Info("Shipment registered", "tracking_id", code)
	return result, nil
}

func (s *shipmentService) Update(ctx context.Context, trackingID string, in UpdateShipmentInput) (*UpdateShipmentResult, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, apierr.Validation("Tracking ID is required to update shipment")
	}
	if in.IsEmpty() {
		return nil, apierr.Validation("No update data provided")
	}
	cols, err := in.columns()
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	before, err := s.shipments.GetByTrackingID(dbc, trackingID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, apierr.NotFound("Shipment not found")
	}

	n, err := s.shipments.UpdateFields(dbc, trackingID, cols)
	if err != nil {
		s.log.Error("Failed to update shipment", "tracking_id", trackingID, "error", err)
		return nil, err
	}
	if n == 0 {
		return nil, apierr.NotFound("Shipment not found")
	}

	after, err := s.shipments.GetByTrackingID(dbc, trackingID)
	if err != nil {
		return nil, err
	}
	if after == nil {
		return nil, apierr.NotFound("Shipment not found")
	}

	if patch := trackingPatch(cols); len(patch) > 0 {
		// Evict on both sides of the write; a lookup that read the old row
		// before the write can still repopulate the cache after the first
		// eviction.
		s.evict(ctx, trackingID)
		s.bestEffort(ctx, "tracking_update", trackingID, func(ctx context.Context) error {
			n, err := s.trackings.UpdateFields(dbctx.Context{Ctx: ctx}, trackingID, patch)
			if err != nil {
				return err
			}
			if n == 0 {
				s.log.Warn("Dual-write drift: tracking record missing on update", "tracking_id", trackingID)
			}
			return nil
		})
		s.evict(ctx, trackingID)
	}

	if s.receiptStore != nil {
		s.bestEffort(ctx, "receipt_invalidate", trackingID, func(ctx context.Context) error {
			return s.receiptStore.Delete(ctx, trackingID)
		})
	}

	change := ShipmentChange{
		OldStatus:                before.Status,
		NewStatus:                after.Status,
		EstimatedDeliveryChanged: !before.EstimatedDelivery.Equal(after.EstimatedDelivery),
	}
	if s.notifier != nil && (change.OldStatus != change.NewStatus || change.EstimatedDeliveryChanged) {
		s.bestEffort(ctx, "notify_updated", trackingID, func(ctx context.Context) error {
			return s.notifier.ShipmentUpdated(ctx, after, change)
		})
	}

	return &UpdateShipmentResult{
		Success:           true,
		Message:           "Shipment updated successfully",
		TrackingID:        trackingID,
		UpdatedShipmentID: after.ID.String(),
		Shipment:          after,
	}, nil
}

func (s *shipmentService) Delete(ctx context.Context, trackingID string) error {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return apierr.Validation("Tracking ID is required")
	}

	n, err := s.shipments.DeleteByTrackingID(dbctx.Context{Ctx: ctx}, trackingID)
	if err != nil {
		s.log.Error("Failed to delete shipment", "tracking_id", trackingID, "error", err)
		return err
	}
	if n == 0 {
		return apierr.NotFound("Shipment not found")
	}

	s.bestEffort(ctx, "tracking_delete", trackingID, func(ctx context.Context) error {
		n, err := s.trackings.DeleteByTrackingID(dbctx.Context{Ctx: ctx}, trackingID)
		if err != nil {
			return err
		}
		if n == 0 {
			s.log.Warn("Tracking record already missing on delete", "tracking_id", trackingID)
		}
		return nil
	})
	s.evict(ctx, trackingID)
	if s.receiptStore != nil {
		s.bestEffort(ctx, "receipt_delete", trackingID, func(ctx context.Context) error {
			return s.receiptStore.Delete(ctx, trackingID)
		})
	}
	return nil
}

func normalizeTrackingIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *shipmentService) DeleteMany(ctx context.Context, trackingIDs []string) (*DeleteManyResult, error) {
	ids := normalizeTrackingIDs(trackingIDs)
	if len(ids) == 0 {
		return nil, apierr.Validation("Array of tracking IDs is required")
	}

	deleted, err := s.shipments.DeleteByTrackingIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		s.log.Error("Failed to bulk delete shipments", "count", len(ids), "error", err)
		return nil, err
	}

	s.bestEffort(ctx, "tracking_bulk_delete", strings.Join(ids, ","), func(ctx context.Context) error {
		n, err := s.trackings.DeleteByTrackingIDs(dbctx.Context{Ctx: ctx}, ids)
		if err != nil {
			return err
		}
		if n != deleted {
			s.log.Warn("Bulk delete count mismatch",
				"requested", len(ids),
				"shipments_deleted", deleted,
				"trackings_deleted", n,
			)
		}
		return nil
	})
	s.evict(ctx, ids...)
	if s.receiptStore != nil {
		for _, id := range ids {
			s.bestEffort(ctx, "receipt_delete", id, func(ctx context.Context) error {
				return s.receiptStore.Delete(ctx, id)
			})
		}
	}

	return &DeleteManyResult{DeletedCount: deleted}, nil
}

func (s *shipmentService) Get(ctx context.Context, trackingID string) (*types.Shipment, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, apierr.Validation("Tracking ID is required")
	}
	rec, err := s.shipments.GetByTrackingID(dbctx.Context{Ctx: ctx}, trackingID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierr.NotFound("Shipment not found")
	}
	return rec, nil
}

func (s *shipmentService) List(ctx context.Context, q ListShipmentsQuery) (*ListShipmentsResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	skip := q.Skip
	if skip < 0 {
		skip = 0
	}

	filter := repos.ShipmentFilter{
		SenderName:    q.SenderName,
		ReceiverName:  q.ReceiverName,
		SenderEmail:   q.SenderEmail,
		ReceiverEmail: q.ReceiverEmail,
		Limit:         limit,
		Skip:          skip,
	}
	if raw := strings.TrimSpace(q.Status); raw != "" {
		status, ok := shipment.ParseStatus(raw)
		if !ok {
			return nil, apierr.Validation("Invalid status. Must be one of: " + shipment.StatusList())
		}
		filter.Status = status
	}

	rows, total, err := s.shipments.List(dbctx.Context{Ctx: ctx}, filter)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*types.Shipment{}
	}
	return &ListShipmentsResult{
		Shipments: rows,
		Pagination: Pagination{
			Total:   total,
			Limit:   limit,
			Skip:    skip,
			HasMore: int64(skip+len(rows)) < total,
		},
	}, nil
}

// Receipt returns the archived receipt, rendering and archiving a fresh one
// when nothing is stored.
func (s *shipmentService) Receipt(ctx context.Context, trackingID string) ([]byte, error) {
	rec, err := s.Get(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if s.receiptStore != nil {
		pdf, err := s.receiptStore.Load(ctx, rec.TrackingID)
		if err == nil && len(pdf) > 0 {
			return pdf, nil
		}
		if err != nil && !errors.Is(err, ErrReceiptNotFound) {
			s.log.Warn("Receipt archive read failed", "tracking_id", rec.TrackingID, "error", err)
		}
	}
	if s.receipts == nil {
		return nil, apierr.NotFound("Receipt not available")
	}
	pdf, err := s.receipts.Render(ctx, rec)
	if err != nil {
		return nil, err
	}
	if s.receiptStore != nil {
		s.bestEffort(ctx, "receipt_archive", rec.TrackingID, func(ctx context.Context) error {
			_, err := s.receiptStore.Save(ctx, rec.TrackingID, pdf)
			return err
		})
	}
	return pdf, nil
}
