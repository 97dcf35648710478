package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Romanticus/TRexpress/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// user holds one of the given roles. It assumes JWTAuth already ran, so a
// denial is always a 403 with a known identity behind it, never a 401.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok || !allowed[ident.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireAdmin allows only ADMIN users through.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}

// RequireSelfOrAdmin allows the request when the authenticated user is an
// admin or when the :id path parameter names their own account. Regular
// users can therefore only operate on themselves.
func RequireSelfOrAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			if ident.Role != model.RoleAdmin && ident.UserID != c.Param("id") {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only access your own data"})
			}
			return next(c)
		}
	}
}
