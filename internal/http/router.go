package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Britinogn/CourviaShipAPI/internal/http/handlers"
	httpMW "github.com/Britinogn/CourviaShipAPI/internal/http/middleware"
	"github.com/Britinogn/CourviaShipAPI/internal/observability"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler      *httpH.AuthHandler
	ShipmentHandler  *httpH.ShipmentHandler
	TrackingHandler  *httpH.TrackingHandler
	DashboardHandler *httpH.DashboardHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/health", cfg.HealthHandler.HealthCheck)
		r.GET("/api/health", cfg.HealthHandler.APIHealth)
		r.GET("/ping", cfg.HealthHandler.Ping)
	}

	// Public tracking
	if cfg.TrackingHandler != nil {
		r.GET("/tracking/:trackingId", cfg.TrackingHandler.Track)
	}

	auth := r.Group("/api/auth")
	if cfg.AuthHandler != nil {
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	requireAuth := func(g *gin.RouterGroup) {
		if cfg.AuthMiddleware != nil {
			g.Use(cfg.AuthMiddleware.RequireAuth())
		}
	}

	if cfg.AuthHandler != nil {
		logout := r.Group("/api/auth")
		requireAuth(logout)
		logout.POST("/logout", cfg.AuthHandler.Logout)
	}

	// Shipments (admin)
	if cfg.ShipmentHandler != nil {
		shipments := r.Group("/shipments")
		requireAuth(shipments)
		shipments.POST("", cfg.ShipmentHandler.Create)
		shipments.GET("", cfg.ShipmentHandler.List)
		shipments.GET("/:trackingId", cfg.ShipmentHandler.Get)
		shipments.GET("/:trackingId/receipt", cfg.ShipmentHandler.Receipt)
		shipments.PATCH("/:trackingId", cfg.ShipmentHandler.Update)
		shipments.DELETE("/bulk", cfg.ShipmentHandler.DeleteMany)
		shipments.DELETE("/:trackingId", cfg.ShipmentHandler.Delete)
	}

	// Dashboard (admin)
	if cfg.DashboardHandler != nil {
		dash := r.Group("/dashboard")
		requireAuth(dash)
		dash.GET("", cfg.DashboardHandler.Overview)
		dash.GET("/total", cfg.DashboardHandler.Total)
		dash.GET("/by-status", cfg.DashboardHandler.ByStatus)
		dash.GET("/recent", cfg.DashboardHandler.Recent)
		dash.GET("/by-country", cfg.DashboardHandler.ByCountry)
		dash.GET("/by-time", cfg.DashboardHandler.ByTimePeriod)
		dash.GET("/popular-routes", cfg.DashboardHandler.PopularRoutes)
	}

	return r
}
