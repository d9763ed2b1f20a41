// Package router registers the HTTP routes of the API on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
)

// Guards are the middlewares shared by the route files. Limit throttles
// admission and auth; Cache and Invalidate keep the public restaurant
// listings fresh. Nil entries are skipped.
type Guards struct {
	JWTSecret  string
	Limit      echo.MiddlewareFunc
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
}

func (g Guards) auth(roles ...string) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(g.JWTSecret)}
	if len(roles) > 0 {
		mw = append(mw, middleware.RequireRole(roles...))
	}
	return mw
}

func with(mw []echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := append([]echo.MiddlewareFunc(nil), mw...)
	for _, m := range extra {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers /v1/auth. Only /me needs an access token; logout
// accepts either a bearer token or a refresh token in the body.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guards Guards) {
	g := e.Group("/v1/auth")
	limited := with(nil, guards.Limit)

	g.POST("/register", a.Register, limited...)
	g.POST("/login", a.Login, limited...)
	g.POST("/refresh", a.Refresh, limited...)
	g.POST("/refresh-access", a.RefreshAccess, limited...)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, guards.auth()...)
}

// RegisterPublic registers the unauthenticated restaurant browse endpoints.
func RegisterPublic(e *echo.Echo, h *handler.RestaurantHandler, guards Guards) {
	g := e.Group("/v1/restaurants")
	cached := with(nil, guards.Cache)

	g.GET("", h.List, cached...)
	g.GET("/search", h.Search, cached...)
	// availability changes with every booking and is never cached
	g.GET("/:id/availability", h.Availability)
}
