package app

import (
	"context"

	"gorm.io/gorm"

	httpH "github.com/Britinogn/CourviaShipAPI/internal/http/handlers"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Shipment  *httpH.ShipmentHandler
	Tracking  *httpH.TrackingHandler
	Dashboard *httpH.DashboardHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(healthChecks(db, clients)),
		Auth:      httpH.NewAuthHandler(services.Auth),
		Shipment:  httpH.NewShipmentHandler(services.Shipments),
		Tracking:  httpH.NewTrackingHandler(services.Tracking),
		Dashboard: httpH.NewDashboardHandler(services.Dashboard),
	}
}

func healthChecks(db *gorm.DB, clients Clients) map[string]httpH.HealthCheck {
	checks := map[string]httpH.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Cache != nil {
		checks["redis"] = clients.Cache.Ping
	}
	return checks
}
