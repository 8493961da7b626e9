package services

import (
	"context"
	"testing"
	"time"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/testutil"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

func TestPeriodStarts(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		wantWeek time.Time
	}{
		{"wednesday", time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"monday", time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			day, week, month, last30 := periodStarts(tc.now)
			y, m, d := tc.now.Date()
			if want := time.Date(y, m, d, 0, 0, 0, 0, time.UTC); !day.Equal(want) {
				t.Fatalf("day: want=%v got=%v", want, day)
			}
			if !week.Equal(tc.wantWeek) {
				t.Fatalf("week: want=%v got=%v", tc.wantWeek, week)
			}
			if want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC); !month.Equal(want) {
				t.Fatalf("month: want=%v got=%v", want, month)
			}
			if want := tc.now.AddDate(0, 0, -30); !last30.Equal(want) {
				t.Fatalf("last30: want=%v got=%v", want, last30)
			}
		})
	}
}

func seedDashboard(t *testing.T) (testStores, *dashboardService) {
	t.Helper()
	st := newTestStores(t)
	ctx := context.Background()
	at := func(s string) func(*types.Shipment) {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return func(sh *types.Shipment) { sh.CreatedAt = ts }
	}
	testutil.SeedShipment(t, ctx, st.db, "NSDDSH001", at("2025-03-12T10:00:00Z"))
	testutil.SeedShipment(t, ctx, st.db, "NSDDSH002", at("2025-03-10T09:00:00Z"), func(s *types.Shipment) {
		s.Status = types.StatusDelivered
	})
	testutil.SeedShipment(t, ctx, st.db, "NSDDSH003", at("2025-03-02T09:00:00Z"), func(s *types.Shipment) {
		s.Origin.Country = "Kenya"
		s.Destination.Country = "Nigeria"
		s.Status = types.StatusDelayed
	})
	testutil.SeedShipment(t, ctx, st.db, "NSDDSH004", at("2025-02-20T09:00:00Z"))
	testutil.SeedShipment(t, ctx, st.db, "NSDDSH005", at("2025-01-01T09:00:00Z"))

	svc := NewDashboardService(logger.Nop(), st.shipments).(*dashboardService)
	svc.now = func() time.Time { return time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) }
	return st, svc
}

func TestDashboardStatusAndTotals(t *testing.T) {
	_, svc := seedDashboard(t)
	ctx := context.Background()

	total, err := svc.Total(ctx)
	if err != nil || total != 5 {
		t.Fatalf("Total: want=5 got=%d err=%v", total, err)
	}
	breakdown, err := svc.ByStatus(ctx)
	if err != nil {
		t.Fatalf("ByStatus: %v", err)
	}
	if breakdown.Total != 5 || len(breakdown.ByStatus) != 9 {
		t.Fatalf("breakdown: total=%d statuses=%d", breakdown.Total, len(breakdown.ByStatus))
	}
	got := map[types.ShipmentStatus]int64{}
	for _, c := range breakdown.ByStatus {
		got[c.Status] = c.Count
	}
	if got[types.StatusInTransit] != 3 || got[types.StatusDelivered] != 1 || got[types.StatusDelayed] != 1 || got[types.StatusCancelled] != 0 {
		t.Fatalf("by status: got=%v", got)
	}
}

func TestDashboardTimePeriods(t *testing.T) {
	_, svc := seedDashboard(t)
	got, err := svc.ByTimePeriod(context.Background())
	if err != nil {
		t.Fatalf("ByTimePeriod: %v", err)
	}
	want := TimePeriodStats{Today: 1, ThisWeek: 2, ThisMonth: 3, Last30Days: 4}
	if *got != want {
		t.Fatalf("periods: want=%+v got=%+v", want, *got)
	}
}

func TestDashboardCountriesAndRoutes(t *testing.T) {
	_, svc := seedDashboard(t)
	ctx := context.Background()

	countries, err := svc.ByCountry(ctx)
	if err != nil {
		t.Fatalf("ByCountry: %v", err)
	}
	if len(countries.TopOrigins) != 2 || countries.TopOrigins[0].Country != "Nigeria" || countries.TopOrigins[0].Count != 4 {
		t.Fatalf("origins: got=%+v", countries.TopOrigins)
	}
	if countries.TopDestinations[0].Country != "Ghana" {
		t.Fatalf("destinations: got=%+v", countries.TopDestinations)
	}

	routes, err := svc.PopularRoutes(ctx, 1)
	if err != nil {
		t.Fatalf("PopularRoutes: %v", err)
	}
	if len(routes) != 1 || routes[0].Route != "Nigeria → Ghana" || routes[0].Count != 4 {
		t.Fatalf("routes: got=%+v", routes)
	}
}

func TestDashboardRecentAndOverview(t *testing.T) {
	_, svc := seedDashboard(t)
	ctx := context.Background()

	recent, err := svc.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].TrackingID != "NSDDSH001" || recent[1].TrackingID != "NSDDSH002" {
		t.Fatalf("recent order: got=%+v", recent)
	}

	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.TotalShipments != 5 || len(ov.RecentShipments) != 5 || len(ov.ShipmentsByStatus) != 9 {
		t.Fatalf("overview: total=%d recent=%d statuses=%d", ov.TotalShipments, len(ov.RecentShipments), len(ov.ShipmentsByStatus))
	}
	if ov.TimePeriod.Today != 1 || len(ov.PopularRoutes) != 2 {
		t.Fatalf("overview: period=%+v routes=%+v", ov.TimePeriod, ov.PopularRoutes)
	}
}

func TestClampLimit(t *testing.T) {
	for _, tc := range []struct{ in, want int }{{0, 10}, {-3, 10}, {5, 5}, {500, maxDashboardLimit}} {
		if got := clampLimit(tc.in, 10); got != tc.want {
			t.Fatalf("clampLimit(%d): want=%d got=%d", tc.in, tc.want, got)
		}
	}
}
