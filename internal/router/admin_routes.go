package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// RegisterAdmin registers the admin dashboard endpoints.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, guards Guards) {
	g := e.Group("/v1/admin", guards.auth(model.RoleAdmin)...)

	g.GET("/stats", h.Stats)
	g.GET("/activity-logs", h.ActivityLogs)
}
