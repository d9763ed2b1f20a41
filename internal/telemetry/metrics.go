package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/iliyamo/restaurant-reservation"

// Metrics holds the admission instruments.
type Metrics struct {
	Admitted       metric.Int64Counter
	Rejected       metric.Int64Counter
	GuestsAdmitted metric.Int64Counter
	Duration       metric.Float64Histogram
}

// NewMetrics creates all instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}
	var err error

	m.Admitted, err = meter.Int64Counter("reservations.admitted",
		metric.WithDescription("Reservations committed"))
	if err != nil {
		return nil, err
	}
	m.Rejected, err = meter.Int64Counter("reservations.rejected",
		metric.WithDescription("Reservation attempts rejected, by reason"))
	if err != nil {
		return nil, err
	}
	m.GuestsAdmitted, err = meter.Int64Counter("reservations.guests",
		metric.WithDescription("Seats consumed by committed reservations"))
	if err != nil {
		return nil, err
	}
	m.Duration, err = meter.Float64Histogram("reservations.admission.duration_seconds",
		metric.WithDescription("Admission latency including lock wait"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAdmission updates the counters for one admission outcome. reason is
// empty on success.
func (m *Metrics) RecordAdmission(ctx context.Context, guests int, reason string, seconds float64) {
	if m == nil {
		return
	}
	m.Duration.Record(ctx, seconds)
	if reason == "" {
		m.Admitted.Add(ctx, 1)
		m.GuestsAdmitted.Add(ctx, int64(guests))
		return
	}
	m.Rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
