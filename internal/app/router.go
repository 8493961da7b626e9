package app

import (
	httpserver "github.com/Britinogn/CourviaShipAPI/internal/http"
	"github.com/Britinogn/CourviaShipAPI/internal/observability"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) httpserver.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      serviceName,
		CORSOrigins:      cfg.CORSOrigins,
		AuthMiddleware:   middleware.Auth,
		AuthHandler:      handlers.Auth,
		ShipmentHandler:  handlers.Shipment,
		TrackingHandler:  handlers.Tracking,
		DashboardHandler: handlers.Dashboard,
		HealthHandler:    handlers.Health,
	}
}
