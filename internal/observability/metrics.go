package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/envutil"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

type MetricsConfig struct {
	Enabled        bool
	Addr           string
	ScrapeInterval time.Duration
}

func MetricsConfigFromEnv() MetricsConfig {
	return MetricsConfig{
		Enabled:        envutil.Bool("METRICS_ENABLED", false),
		Addr:           envutil.String("METRICS_ADDR", ":9090"),
		ScrapeInterval: envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second),
	}
}

type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *GaugeVec
	shipmentOps   *CounterVec
	notifications *CounterVec
	trackingCache *CounterVec
	reconcile     *CounterVec
	reconcileDur  *HistogramVec
	pgStats       *GaugeVec
	redisUp       *GaugeVec
	redisPing     *GaugeVec

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when disabled. Every
// method on *Metrics is nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(cfg)
		log.Info("Observability metrics enabled", "addr", cfg.Addr)
	})
	return instance
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	interval := cfg.ScrapeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Metrics{
		apiRequests: NewCounterVec("cs_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cs_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight:   NewGaugeVec("cs_api_inflight_requests", "In-flight API requests.", nil),
		shipmentOps:   NewCounterVec("cs_shipment_operations_total", "Shipment writes by operation/outcome.", []string{"op", "outcome"}),
		notifications: NewCounterVec("cs_notifications_total", "Customer notifications by kind/status.", []string{"kind", "status"}),
		trackingCache: NewCounterVec("cs_tracking_cache_total", "Public tracking cache lookups by result.", []string{"result"}),
		reconcile:     NewCounterVec("cs_reconcile_records_total", "Reconciled tracking records by outcome.", []string{"outcome"}),
		reconcileDur: NewHistogramVec(
			"cs_reconcile_duration_seconds",
			"Reconcile pass duration in seconds.",
			nil,
			[]float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		),
		pgStats:        NewGaugeVec("cs_postgres_stats", "Postgres connection pool stats.", []string{"metric"}),
		redisUp:        NewGaugeVec("cs_redis_up", "Redis connectivity (1=up, 0=down).", nil),
		redisPing:      NewGaugeVec("cs_redis_ping_seconds", "Redis ping latency in seconds.", nil),
		scrapeInterval: interval,
	}
}

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.shipmentOps, m.notifications, m.trackingCache,
		m.reconcile, m.reconcileDur,
		m.pgStats, m.redisUp, m.redisPing,
	}
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// StartServer serves /metrics on its own listener until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil || strings.TrimSpace(addr) == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.Add(delta)
}

// ObserveShipmentOp records a register/update/delete outcome; outcome is
// "ok" or the error kind.
func (m *Metrics) ObserveShipmentOp(op, outcome string) {
	if m == nil {
		return
	}
	m.shipmentOps.Inc(op, outcome)
}

func (m *Metrics) ObserveNotification(kind, status string) {
	if m == nil {
		return
	}
	m.notifications.Inc(kind, status)
}

func (m *Metrics) ObserveTrackingCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.trackingCache.Inc(result)
}

func (m *Metrics) ObserveReconcile(scanned, missing, drifted, repaired, failed int, dur time.Duration) {
	if m == nil {
		return
	}
	m.reconcile.Add(float64(scanned), "scanned")
	m.reconcile.Add(float64(missing), "missing")
	m.reconcile.Add(float64(drifted), "drifted")
	m.reconcile.Add(float64(repaired), "repaired")
	m.reconcile.Add(float64(failed), "failed")
	m.reconcileDur.Observe(dur.Seconds())
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	m.every(ctx, func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.Warn("metrics: postgres stats unavailable", "error", err)
			return
		}
		stats := sqlDB.Stats()
		m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
		m.pgStats.Set(float64(stats.InUse), "in_use")
		m.pgStats.Set(float64(stats.Idle), "idle")
		m.pgStats.Set(float64(stats.WaitCount), "wait_count")
		m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
		m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	})
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, p Pinger) {
	if m == nil || p == nil {
		return
	}
	m.every(ctx, func() {
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			m.redisUp.Set(0)
			log.Warn("metrics: redis ping failed", "error", err)
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

func (m *Metrics) every(ctx context.Context, fn func()) {
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
