package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
)

// RegisterCustomer registers the reservation endpoints. Any signed-in user
// may book; creation is rate limited.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, guards Guards) {
	g := e.Group("/v1/reservations", guards.auth()...)

	g.POST("", h.Create, with(nil, guards.Limit)...)
	g.GET("/my", h.ListMine)
}
