package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Britinogn/CourviaShipAPI/internal/http/response"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

type DashboardHandler struct {
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /dashboard
func (h *DashboardHandler) Overview(c *gin.Context) {
	res, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondSuccess(c, res)
}

// GET /dashboard/total
func (h *DashboardHandler) Total(c *gin.Context) {
	total, err := h.dashboard.Total(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{"total": total})
}

// GET /dashboard/by-status
func (h *DashboardHandler) ByStatus(c *gin.Context) {
	res, err := h.dashboard.ByStatus(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondSuccess(c, res)
}

// GET /dashboard/recent?limit=
func (h *DashboardHandler) Recent(c *gin.Context) {
	rows, err := h.dashboard.Recent(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{"shipments": rows, "count": len(rows)})
}

// GET /dashboard/by-country
func (h *DashboardHandler) ByCountry(c *gin.Context) {
	res, err := h.dashboard.ByCountry(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondSuccess(c, res)
}

// GET /dashboard/by-time
func (h *DashboardHandler) ByTimePeriod(c *gin.Context) {
	res, err := h.dashboard.ByTimePeriod(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondSuccess(c, res)
}

// GET /dashboard/popular-routes?limit=
func (h *DashboardHandler) PopularRoutes(c *gin.Context) {
	routes, err := h.dashboard.PopularRoutes(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondSuccess(c, gin.H{"routes": routes, "count": len(routes)})
}
