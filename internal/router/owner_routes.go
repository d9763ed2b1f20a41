package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// RegisterOwner registers the owner-scoped restaurant endpoints. All routes
// require a valid JWT and the owner role; writes purge the listing cache.
func RegisterOwner(e *echo.Echo, h *handler.RestaurantHandler, r *handler.ReservationHandler, guards Guards) {
	g := e.Group("/v1/restaurants")
	owner := guards.auth(model.RoleOwner)
	write := with(owner, guards.Invalidate)

	g.GET("/my", h.Mine, owner...)
	g.GET("/:id/bookings", r.RestaurantBookings, owner...)

	g.POST("", h.Create, write...)
	g.PUT("/:id", h.Update, write...)
	g.PATCH("/:id", h.Update, write...)
	g.DELETE("/:id", h.Delete, write...)
}
