package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Romanticus/TRexpress/internal/model"
	"github.com/Romanticus/TRexpress/internal/repository"
	"github.com/Romanticus/TRexpress/internal/utils"
)

// IdentityKey is the context key under which JWTAuth stores the verified
// utils.Identity. Handlers read it back with IdentityFrom.
const IdentityKey = "identity"

// UserLoader is the slice of the store the middleware needs: a single
// lookup by id for the per-request account re-fetch.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and attaches the caller's identity to the request context. Verification
// is strict: after the signature and claims check the account is re-fetched
// from the store, so a token issued before the account was blocked (403) or
// before its email changed (401) stops working immediately. This middleware
// must wrap every protected route; the role middleware below assumes it ran
// first.
func JWTAuth(accessSecret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer <token>". Anything else is a 401
			// before we even look at the token.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			id, err := utils.VerifyAccessToken(accessSecret, raw)
			switch err {
			case nil:
			case utils.ErrTokenExpired:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
			case utils.ErrTokenPayload:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token payload"})
			default:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, id.UserID)
			if err != nil {
				if err == repository.ErrUserNotFound {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account is blocked"})
			}
			// The token email is stale after an email change; force re-login.
			if u.Email != id.Email {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is no longer valid"})
			}

			// Use the stored role, not the token's: a promotion or demotion
			// after issue takes effect on the next request.
			ident := utils.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
			c.Set(IdentityKey, ident)
			c.Set("user_id", ident.UserID)
			c.Set("role", ident.Role)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by JWTAuth. The boolean is false
// when the middleware did not run (or failed), which on protected routes
// indicates a wiring bug.
func IdentityFrom(c echo.Context) (utils.Identity, bool) {
	ident, ok := c.Get(IdentityKey).(utils.Identity)
	return ident, ok
}
