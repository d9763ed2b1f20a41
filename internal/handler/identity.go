package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/middleware"
)

// requireUser returns the caller's id. When the route was not behind
// JWTAuth it writes a 401 and ok is false.
func requireUser(c echo.Context) (id uint64, ok bool, err error) {
	id, ok = middleware.UserID(c)
	if !ok {
		return 0, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return id, true, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
