package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Britinogn/CourviaShipAPI/internal/http/response"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

var errInvalidBody = errors.New("Invalid request body")

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type authPayload struct {
	*services.AuthResult
	ExpiresIn int `json:"expiresIn"`
}

func (ah *AuthHandler) payload(res *services.AuthResult) authPayload {
	return authPayload{AuthResult: res, ExpiresIn: int(ah.authService.GetAccessTTL().Seconds())}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
		return
	}
	res, err := ah.authService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, "User registered successfully", ah.payload(res))
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
		return
	}
	res, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, "Login successful", ah.payload(res))
}

// POST /api/auth/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errInvalidBody)
		return
	}
	res, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, "Token refreshed", ah.payload(res))
}

// POST /api/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, "Logged out successfully", nil)
}
