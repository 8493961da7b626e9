package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Britinogn/CourviaShipAPI/internal/http/response"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

type ShipmentHandler struct {
	shipments services.ShipmentService
}

func NewShipmentHandler(shipments services.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

type registerShipmentData struct {
	Shipment *services.RegisterShipmentResult `json:"shipment"`
	// ReceiptPDF is base64 on the wire.
	ReceiptPDF []byte `json:"receiptPdf,omitempty"`
}

// POST /shipments
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req services.RegisterShipmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
		return
	}
	res, err := h.shipments.Register(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, res.Message, registerShipmentData{Shipment: res, ReceiptPDF: res.Receipt})
}

// GET /shipments
func (h *ShipmentHandler) List(c *gin.Context) {
	res, err := h.shipments.List(c.Request.Context(), services.ListShipmentsQuery{
		Status:        c.Query("status"),
		SenderName:    c.Query("senderName"),
		ReceiverName:  c.Query("receiverName"),
		SenderEmail:   c.Query("senderEmail"),
		ReceiverEmail: c.Query("receiverEmail"),
		Limit:         queryInt(c, "limit"),
		Skip:          queryInt(c, "skip"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, "Shipments retrieved successfully", res)
}

// GET /shipments/:trackingId
func (h *ShipmentHandler) Get(c *gin.Context) {
	rec, err := h.shipments.Get(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, "Shipment retrieved successfully", gin.H{"shipment": rec})
}

// PATCH /shipments/:trackingId
func (h *ShipmentHandler) Update(c *gin.Context) {
	var req services.UpdateShipmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
		return
	}
	res, err := h.shipments.Update(c.Request.Context(), c.Param("trackingId"), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res.Message, gin.H{"shipment": res})
}

// DELETE /shipments/:trackingId
func (h *ShipmentHandler) Delete(c *gin.Context) {
	if err := h.shipments.Delete(c.Request.Context(), c.Param("trackingId")); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, "Shipment deleted successfully", nil)
}

// DELETE /shipments/bulk
func (h *ShipmentHandler) DeleteMany(c *gin.Context) {
	var req struct {
		TrackingIDs []string `json:"trackingId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.TrackingIDs) == 0 {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("Array of tracking IDs is required"))
		return
	}
	res, err := h.shipments.DeleteMany(c.Request.Context(), req.TrackingIDs)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, strconv.FormatInt(res.DeletedCount, 10)+" shipment(s) deleted successfully", res)
}

// GET /shipments/:trackingId/receipt
func (h *ShipmentHandler) Receipt(c *gin.Context) {
	trackingID := strings.TrimSpace(c.Param("trackingId"))
	pdf, err := h.shipments.Receipt(c.Request.Context(), trackingID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="receipt-`+trackingID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
