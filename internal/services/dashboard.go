package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/shipment"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

const (
	defaultRecentLimit = 10
	defaultRoutesLimit = 10
	topCountriesLimit  = 10
	maxDashboardLimit  = 100
)

type StatusCount struct {
	Status types.ShipmentStatus `json:"status"`
	Count  int64                `json:"count"`
}

type StatusBreakdown struct {
	ByStatus []StatusCount `json:"byStatus"`
	Total    int64         `json:"total"`
}

// RecentShipment is the trimmed row shown in the dashboard feed.
type RecentShipment struct {
	TrackingID        string               `json:"trackingId"`
	Status            types.ShipmentStatus `json:"status"`
	SenderName        string               `json:"senderName"`
	ReceiverName      string               `json:"receiverName"`
	ReceiverCity      string               `json:"receiverCity"`
	ReceiverCountry   string               `json:"receiverCountry"`
	EstimatedDelivery time.Time            `json:"estimatedDelivery"`
	CreatedAt         time.Time            `json:"createdAt"`
}

type CountryStats struct {
	TopOrigins      []repos.CountryCount `json:"topOrigins"`
	TopDestinations []repos.CountryCount `json:"topDestinations"`
}

type TimePeriodStats struct {
	Today      int64 `json:"today"`
	ThisWeek   int64 `json:"thisWeek"`
	ThisMonth  int64 `json:"thisMonth"`
	Last30Days int64 `json:"last30Days"`
}

type PopularRoute struct {
	Route       string `json:"route"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Count       int64  `json:"count"`
}

type DashboardOverview struct {
	TotalShipments    int64                `json:"totalShipments"`
	ShipmentsByStatus []StatusCount        `json:"shipmentsByStatus"`
	RecentShipments   []RecentShipment     `json:"recentShipments"`
	TopOrigins        []repos.CountryCount `json:"topOrigins"`
	TopDestinations   []repos.CountryCount `json:"topDestinations"`
	TimePeriod        TimePeriodStats      `json:"timePeriod"`
	PopularRoutes     []PopularRoute       `json:"popularRoutes"`
}

type DashboardService interface {
	Total(ctx context.Context) (int64, error)
	ByStatus(ctx context.Context) (*StatusBreakdown, error)
	Recent(ctx context.Context, limit int) ([]RecentShipment, error)
	ByCountry(ctx context.Context) (*CountryStats, error)
	ByTimePeriod(ctx context.Context) (*TimePeriodStats, error)
	PopularRoutes(ctx context.Context, limit int) ([]PopularRoute, error)
	Overview(ctx context.Context) (*DashboardOverview, error)
}

type dashboardService struct {
	log       *logger.Logger
	shipments repos.ShipmentRepo
	now       func() time.Time
}

func NewDashboardService(log *logger.Logger, shipments repos.ShipmentRepo) DashboardService {
	return &dashboardService{
		log:       log.With("service", "DashboardService"),
		shipments: shipments,
		now:       time.Now,
	}
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxDashboardLimit {
		return maxDashboardLimit
	}
	return limit
}

func (s *dashboardService) Total(ctx context.Context) (int64, error) {
	return s.shipments.Count(dbctx.Context{Ctx: ctx})
}

func (s *dashboardService) ByStatus(ctx context.Context) (*StatusBreakdown, error) {
	statuses := shipment.Statuses()
	counts := make([]StatusCount, len(statuses))

	g, gctx := errgroup.WithContext(ctx)
	for i, status := range statuses {
		g.Go(func() error {
			n, err := s.shipments.CountByStatus(dbctx.Context{Ctx: gctx}, status)
			if err != nil {
				return err
			}
			counts[i] = StatusCount{Status: status, Count: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("Status breakdown failed", "error", err)
		return nil, err
	}

	out := &StatusBreakdown{ByStatus: counts}
	for _, c := range counts {
		out.Total += c.Count
	}
	return out, nil
}

func (s *dashboardService) Recent(ctx context.Context, limit int) ([]RecentShipment, error) {
	rows, err := s.shipments.Recent(dbctx.Context{Ctx: ctx}, clampLimit(limit, defaultRecentLimit))
	if err != nil {
		return nil, err
	}
	out := make([]RecentShipment, 0, len(rows))
	for _, r := range rows {
		out = append(out, RecentShipment{
			TrackingID:        r.TrackingID,
			Status:            r.Status,
			SenderName:        r.Sender.Name,
			ReceiverName:      r.Receiver.Name,
			ReceiverCity:      r.Receiver.City,
			ReceiverCountry:   r.Receiver.Country,
			EstimatedDelivery: r.EstimatedDelivery,
			CreatedAt:         r.CreatedAt,
		})
	}
	return out, nil
}

func (s *dashboardService) ByCountry(ctx context.Context) (*CountryStats, error) {
	out := &CountryStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.shipments.TopOriginCountries(dbctx.Context{Ctx: gctx}, topCountriesLimit)
		out.TopOrigins = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.shipments.TopDestinationCountries(dbctx.Context{Ctx: gctx}, topCountriesLimit)
		out.TopDestinations = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.TopOrigins == nil {
		out.TopOrigins = []repos.CountryCount{}
	}
	if out.TopDestinations == nil {
		out.TopDestinations = []repos.CountryCount{}
	}
	return out, nil
}

// periodStarts returns the start of today, of this week (Monday) and of this
// month, plus the instant 30 days ago, all in now's location.
func periodStarts(now time.Time) (day, week, month, last30 time.Time) {
	y, m, d := now.Date()
	day = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	offset := (int(now.Weekday()) + 6) % 7
	week = day.AddDate(0, 0, -offset)
	month = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	last30 = now.AddDate(0, 0, -30)
	return day, week, month, last30
}

func (s *dashboardService) ByTimePeriod(ctx context.Context) (*TimePeriodStats, error) {
	day, week, month, last30 := periodStarts(s.now())
	out := &TimePeriodStats{}

	g, gctx := errgroup.WithContext(ctx)
	count := func(since time.Time, dst *int64) {
		g.Go(func() error {
			n, err := s.shipments.CountCreatedSince(dbctx.Context{Ctx: gctx}, since)
			*dst = n
			return err
		})
	}
	count(day, &out.Today)
	count(week, &out.ThisWeek)
	count(month, &out.ThisMonth)
	count(last30, &out.Last30Days)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *dashboardService) PopularRoutes(ctx context.Context, limit int) ([]PopularRoute, error) {
	rows, err := s.shipments.PopularRoutes(dbctx.Context{Ctx: ctx}, clampLimit(limit, defaultRoutesLimit))
	if err != nil {
		return nil, err
	}
	out := make([]PopularRoute, 0, len(rows))
	for _, r := range rows {
		out = append(out, PopularRoute{
			Route:       r.OriginCountry + " → " + r.DestinationCountry,
			Origin:      r.OriginCountry,
			Destination: r.DestinationCountry,
			Count:       r.Count,
		})
	}
	return out, nil
}

func (s *dashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	var (
		out       DashboardOverview
		breakdown *StatusBreakdown
		countries *CountryStats
		period    *TimePeriodStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalShipments, err = s.Total(gctx)
		return err
	})
	g.Go(func() (err error) {
		breakdown, err = s.ByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.RecentShipments, err = s.Recent(gctx, defaultRecentLimit)
		return err
	})
	g.Go(func() (err error) {
		countries, err = s.ByCountry(gctx)
		return err
	})
	g.Go(func() (err error) {
		period, err = s.ByTimePeriod(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.PopularRoutes, err = s.PopularRoutes(gctx, defaultRoutesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Dashboard overview failed", "error", err)
		return nil, err
	}

	out.ShipmentsByStatus = breakdown.ByStatus
	out.TopOrigins = countries.TopOrigins
	out.TopDestinations = countries.TopDestinations
	out.TimePeriod = *period
	return &out, nil
}
