package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Britinogn/CourviaShipAPI/internal/http/response"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/ctxutil"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

const (
	msgNoToken      = "Unauthorized. No token provided."
	msgTokenExpired = "Unauthorized. Token expired."
	msgInvalidToken = "Unauthorized. Invalid token."
	msgUserNotFound = "Unauthorized. User not found."
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth admits requests carrying a live bearer token for an existing
// admin and attaches that admin to the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, msgNoToken)
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			msg := msgInvalidToken
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				msg = msgTokenExpired
			case errors.Is(err, services.ErrTokenNoUser):
				msg = msgUserNotFound
			case errors.Is(err, services.ErrTokenMissing), errors.Is(err, services.ErrTokenInvalid):
			default:
				am.log.Error("Token verification failed", "path", c.FullPath(), "error", err)
			}
			abortUnauthorized(c, msg)
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			abortUnauthorized(c, msgUserNotFound)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New(msg))
	c.Abort()
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
