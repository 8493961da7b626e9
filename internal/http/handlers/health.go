package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const runningMessage = "NovaSend API is running!"

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	now     func() time.Time
}

// NewHealthHandler takes named probes; "database" is reported at the top
// level the way clients expect.
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second, now: time.Now}
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status, code := "OK", http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = "disconnected"
			status, code = "DEGRADED", http.StatusServiceUnavailable
			continue
		}
		deps[name] = "connected"
	}
	body := gin.H{
		"status":    status,
		"timeStamp": h.now().UTC().Format(time.RFC3339),
		"services":  deps,
	}
	if db, ok := deps["database"]; ok {
		body["database"] = db
	}
	c.JSON(code, body)
}

// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": runningMessage})
}

// GET /api/health
func (h *HealthHandler) APIHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": runningMessage})
}

// GET /ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.String(http.StatusOK, runningMessage)
}
