package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
)

func run(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	fn(c)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return rec, body
}

func TestRespondAPIError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", apierr.Validation("Tracking ID is required"), http.StatusBadRequest, apierr.CodeValidation, "Tracking ID is required"},
		{"not found", apierr.NotFound("Shipment not found"), http.StatusNotFound, apierr.CodeNotFound, "Shipment not found"},
		{"conflict", apierr.Conflict("duplicate_tracking_id", errors.New("dup")), http.StatusConflict, "duplicate_tracking_id", "dup"},
		{"exhausted", apierr.Internal(apierr.CodeTrackingCodeExhausted, errors.New("increase the code length")), http.StatusInternalServerError, apierr.CodeTrackingCodeExhausted, "increase the code length"},
		{"plain", errors.New("pq: connection refused"), http.StatusInternalServerError, apierr.CodeInternal, internalMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := run(t, func(c *gin.Context) { RespondAPIError(c, tc.err) })
			if rec.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d", tc.wantStatus, rec.Code)
			}
			if body["status"] != false || body["code"] != tc.wantCode || body["message"] != tc.wantMsg {
				t.Fatalf("body: got=%v", body)
			}
		})
	}
}

func TestSuccessEnvelopes(t *testing.T) {
	rec, body := run(t, func(c *gin.Context) { RespondCreated(c, "Shipment registered successfully", gin.H{"trackingId": "NSD1"}) })
	if rec.Code != http.StatusCreated || body["status"] != true || body["message"] != "Shipment registered successfully" {
		t.Fatalf("created: code=%d body=%v", rec.Code, body)
	}
	if _, ok := body["code"]; ok {
		t.Fatalf("success must not carry code: %v", body)
	}

	rec, body = run(t, func(c *gin.Context) { RespondSuccess(c, gin.H{"total": 3}) })
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("success: code=%d body=%v", rec.Code, body)
	}

	rec, body = run(t, func(c *gin.Context) { RespondFailure(c, apierr.NotFound("Tracking number not found")) })
	if rec.Code != http.StatusNotFound || body["success"] != false || body["message"] != "Tracking number not found" {
		t.Fatalf("failure: code=%d body=%v", rec.Code, body)
	}
}
