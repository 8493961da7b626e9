package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
)

const internalMessage = "Internal server error"

// Envelope is the admin API shape: {status, message, data}.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Result is the public and dashboard shape: {success, data}.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, Envelope{Status: false, Message: msg, Code: code})
}

// RespondAPIError writes err with the status of its *apierr.Error. Anything
// else becomes a 500 whose cause is not echoed to the client.
func RespondAPIError(c *gin.Context, err error) {
	status, code, msg := describe(err)
	c.JSON(status, Envelope{Status: false, Message: msg, Code: code})
}

func RespondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Status: true, Message: message, Data: data})
}

func RespondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Status: true, Message: message, Data: data})
}

func RespondSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Result{Success: true, Data: data})
}

func RespondFailure(c *gin.Context, err error) {
	status, _, msg := describe(err)
	c.JSON(status, Result{Success: false, Message: msg})
}

func describe(err error) (int, string, string) {
	ae := apierr.As(err)
	if ae == nil {
		return http.StatusInternalServerError, apierr.CodeInternal, internalMessage
	}
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if ae.Code == apierr.CodeInternal {
		return status, ae.Code, internalMessage
	}
	return status, ae.Code, ae.Error()
}
