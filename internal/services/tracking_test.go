package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/testutil"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/shipment"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

func TestLookupReturnsPublicProjection(t *testing.T) {
	st := newTestStores(t)
	ctx := context.Background()
	s := testutil.SeedShipment(t, ctx, st.db, "NSDTRK001", func(s *types.Shipment) {
		s.RegisteredAt = time.Date(2025, 3, 4, 22, 15, 0, 0, time.UTC)
		s.EstimatedDelivery = time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
		s.CurrentLocation = shipment.NewLocationColumn(&types.Location{HubName: "Lagos Hub", City: "Lagos", Country: "Nigeria"})
	})
	testutil.SeedTracking(t, ctx, st.db, s)

	svc := NewTrackingService(logger.Nop(), st.trackings, nil)
	got, err := svc.Lookup(ctx, " NSDTRK001 ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.RegisteredAt != "2025-03-04" || got.EstimatedDelivery != "2025-03-09" {
		t.Fatalf("dates: got registered=%q eta=%q", got.RegisteredAt, got.EstimatedDelivery)
	}
	if got.CurrentLocation == nil || got.CurrentLocation.HubName != "Lagos Hub" {
		t.Fatalf("current location: got=%+v", got.CurrentLocation)
	}
	if got.Receiver.Phone != s.Receiver.Phone {
		t.Fatalf("receiver phone: want=%q got=%q", s.Receiver.Phone, got.Receiver.Phone)
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, leak := range []string{s.Sender.Email, s.Receiver.Email, s.ID.String(), "createdAt", "weightKg"} {
		if strings.Contains(body, leak) {
			t.Fatalf("public payload leaks %q: %s", leak, body)
		}
	}
}

func TestLookupErrors(t *testing.T) {
	st := newTestStores(t)
	svc := NewTrackingService(logger.Nop(), st.trackings, nil)

	_, err := svc.Lookup(context.Background(), "  ")
	wantStatus(t, err, http.StatusBadRequest)

	_, err = svc.Lookup(context.Background(), "NSDNOPE00")
	wantStatus(t, err, http.StatusNotFound)
	if err.Error() != "Tracking number not found" {
		t.Fatalf("message: got=%q", err.Error())
	}
}

func TestLookupIgnoresShipmentWithoutTracking(t *testing.T) {
	st := newTestStores(t)
	testutil.SeedShipment(t, context.Background(), st.db, "NSDONLY01")
	svc := NewTrackingService(logger.Nop(), st.trackings, nil)

	_, err := svc.Lookup(context.Background(), "NSDONLY01")
	wantStatus(t, err, http.StatusNotFound)
}

func TestLookupUsesCache(t *testing.T) {
	st := newTestStores(t)
	ctx := context.Background()
	s := testutil.SeedShipment(t, ctx, st.db, "NSDCACHE1")
	testutil.SeedTracking(t, ctx, st.db, s)
	cache := newMemTrackingCache()
	svc := NewTrackingService(logger.Nop(), st.trackings, cache)

	if _, err := svc.Lookup(ctx, "NSDCACHE1"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if cache.entries["NSDCACHE1"] == nil {
		t.Fatalf("miss must populate the cache")
	}

	// A cached entry is served even after the row is gone.
	if _, err := st.trackings.DeleteByTrackingID(dbctx.Context{Ctx: ctx}, "NSDCACHE1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := svc.Lookup(ctx, "NSDCACHE1")
	if err != nil {
		t.Fatalf("cached Lookup: %v", err)
	}
	if got.TrackingID != "NSDCACHE1" {
		t.Fatalf("tracking id: got=%q", got.TrackingID)
	}
	if cache.gets != 2 {
		t.Fatalf("cache reads: want=2 got=%d", cache.gets)
	}
}

func TestPublicDate(t *testing.T) {
	if got := publicDate(time.Time{}); got != "" {
		t.Fatalf("zero: got=%q", got)
	}
	lagos := time.FixedZone("WAT", 3600)
	if got := publicDate(time.Date(2025, 1, 1, 0, 30, 0, 0, lagos)); got != "2024-12-31" {
		t.Fatalf("utc date: want=%q got=%q", "2024-12-31", got)
	}
}
