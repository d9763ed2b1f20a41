package telemetry

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// StartAdmissionSpan starts a span around one reservation admission.
func StartAdmissionSpan(ctx context.Context, slot model.Slot, guests int) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, "reservation.admit",
		trace.WithAttributes(
			attribute.Int64("restaurant.id", int64(slot.RestaurantID)),
			attribute.String("slot.date", slot.Date),
			attribute.String("slot.time", slot.Time),
			attribute.Int("reservation.guests", guests),
		),
	)
}

// HTTPMiddleware creates a server span for each request.
func HTTPMiddleware(serviceName string) echo.MiddlewareFunc {
	return echo.WrapMiddleware(otelhttp.NewMiddleware(serviceName))
}
