package services

import (
	"context"
	"strings"
	"time"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/observability"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

const publicDateLayout = "2006-01-02"

// PublicTracking is what an unauthenticated caller may see about a shipment.
type PublicTracking struct {
	TrackingID        string                 `json:"trackingId"`
	Sender            types.TrackingSender   `json:"sender"`
	Receiver          types.TrackingReceiver `json:"receiver"`
	Status            types.ShipmentStatus   `json:"status"`
	Destination       types.Address          `json:"destination"`
	CurrentLocation   *types.Location        `json:"currentLocation"`
	RegisteredAt      string                 `json:"registeredAt"`
	EstimatedDelivery string                 `json:"estimatedDelivery"`
}

func publicDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(publicDateLayout)
}

func NewPublicTracking(t *types.Tracking) *PublicTracking {
	if t == nil {
		return nil
	}
	return &PublicTracking{
		TrackingID:        t.TrackingID,
		Sender:            t.Sender,
		Receiver:          t.Receiver,
		Status:            t.Status,
		Destination:       t.Destination,
		CurrentLocation:   t.CurrentLocation.Data(),
		RegisteredAt:      publicDate(t.RegisteredAt),
		EstimatedDelivery: publicDate(t.EstimatedDelivery),
	}
}

type TrackingService interface {
	Lookup(ctx context.Context, trackingID string) (*PublicTracking, error)
}

type trackingService struct {
	log       *logger.Logger
	trackings repos.TrackingRepo
	cache     TrackingCache
}

// NewTrackingService reads only the tracking store. cache may be nil.
func NewTrackingService(log *logger.Logger, trackings repos.TrackingRepo, cache TrackingCache) TrackingService {
	return &trackingService{
		log:       log.With("service", "TrackingService"),
		trackings: trackings,
		cache:     cache,
	}
}

func (s *trackingService) Lookup(ctx context.Context, trackingID string) (*PublicTracking, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, apierr.Validation("Tracking ID is required")
	}

	if s.cache != nil {
		hit, err := s.cache.Get(ctx, trackingID)
		if err != nil {
			s.log.Warn("Tracking cache read failed", "tracking_id", trackingID, "error", err)
		} else if hit != nil {
			observability.Current().ObserveTrackingCache(true)
			return NewPublicTracking(hit), nil
		}
		observability.Current().ObserveTrackingCache(false)
	}

	rec, err := s.trackings.GetByTrackingID(dbctx.Context{Ctx: ctx}, trackingID)
	if err != nil {
		s.log.Error("Tracking lookup failed", "tracking_id", trackingID, "error", err)
		return nil, err
	}
	if rec == nil {
		return nil, apierr.NotFound("Tracking number not found")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rec); err != nil {
			s.log.Warn("Tracking cache write failed", "tracking_id", trackingID, "error", err)
		}
	}
	return NewPublicTracking(rec), nil
}
