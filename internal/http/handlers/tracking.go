package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Britinogn/CourviaShipAPI/internal/http/response"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

type TrackingHandler struct {
	tracking services.TrackingService
}

func NewTrackingHandler(tracking services.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// GET /tracking/:trackingId
func (h *TrackingHandler) Track(c *gin.Context) {
	res, err := h.tracking.Lookup(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondSuccess(c, res)
}
