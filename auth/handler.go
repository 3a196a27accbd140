package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"beatsync/domain"
)

var (
	ErrMissingTokenStr  = "missing-token"
	ErrExpiredTokenStr  = "expired-token"
	ErrServerTimeoutStr = "server-timeout"
	ErrUnknownStr       = "unknown-error"
)

type AuthService interface {
	VerifyToken(ctx context.Context, token string) (domain.User, error)
}

type authHandler struct {
	authService AuthService
}

func NewAuthHandler(service AuthService) *authHandler {
	return &authHandler{authService: service}
}

// RequireAuthMiddleware resolves the session token and stores the
// authenticated user under the "user" context key. Websocket clients can't
// set headers on the upgrade request from a browser, so the token is accepted
// either as a cookie or as a query parameter.
func (ah *authHandler) RequireAuthMiddleware(trollTime time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie("token")
		if err != nil {
			token = ctx.Query("token")
		}
		if token == "" {
			ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			ctx.Abort()
			return
		}

		user, err := ah.authService.VerifyToken(ctx.Request.Context(), token)

		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidSigningMethod),
				errors.Is(err, domain.ErrInvalidTokenSignature),
				errors.Is(err, domain.ErrCorruptedToken):
				time.Sleep(trollTime)
				ctx.Status(http.StatusUnauthorized)
				ctx.Abort()
			case errors.Is(err, domain.ErrExpiredToken):
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)
				ctx.Abort()
			case errors.Is(err, domain.ErrUserNotFound):
				ctx.Status(http.StatusUnauthorized)
				ctx.Abort()
			case errors.Is(err, context.DeadlineExceeded):
				ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)
				ctx.Abort()
			default:
				ctx.String(http.StatusInternalServerError, ErrUnknownStr)
				ctx.Abort()
			}

			return
		}

		ctx.Set("user", user)
		ctx.Next()
	}
}
