package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/Romanticus/TRexpress/internal/handler"
	"github.com/Romanticus/TRexpress/internal/middleware"
	"github.com/Romanticus/TRexpress/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers to
// verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterUserRoutes wires the auth and user endpoints together with their
// middleware chains. Authentication always runs before authorization so a
// denial is a 403 with a known identity, never a bare 401.
//
//	POST /auth/register           – open
//	POST /auth/login              – open
//	POST /auth/refresh            – open (refresh token in the body)
//	GET  /                        – bearer + admin
//	GET  /:id                     – bearer + self-or-admin
//	PATCH /:id/block              – bearer + self-or-admin
//	PATCH /:id/unblock            – bearer + admin
func RegisterUserRoutes(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, accessSecret string, users repository.UserStore) {
	e.POST("/auth/register", a.Register)
	e.POST("/auth/login", a.Login)
	e.POST("/auth/refresh", a.Refresh)

	auth := middleware.JWTAuth(accessSecret, users)
	e.GET("/", u.List, auth, middleware.RequireAdmin())
	e.GET("/:id", u.GetByID, auth, middleware.RequireSelfOrAdmin())
	e.PATCH("/:id/block", u.Block, auth, middleware.RequireSelfOrAdmin())
	e.PATCH("/:id/unblock", u.Unblock, auth, middleware.RequireAdmin())
}
