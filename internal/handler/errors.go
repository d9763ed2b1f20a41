package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:       http.StatusBadRequest,
	apperr.KindNotFound:         http.StatusNotFound,
	apperr.KindForbidden:        http.StatusForbidden,
	apperr.KindCapacityExceeded: http.StatusConflict,
	apperr.KindConflict:         http.StatusConflict,
}

// respondError writes err as {"error": message}. Capacity rejections also
// carry the seats left. Unclassified failures are logged and answered with
// a generic 500.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindUnexpected {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	body := echo.Map{"error": e.Message}
	if e.Kind == apperr.KindCapacityExceeded {
		body["available"] = e.Available
	}
	return c.JSON(statusByKind[e.Kind], body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
