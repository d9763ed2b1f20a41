package handler

// This file defines the admin dashboard endpoints. Both routes require the
// admin role, which the router enforces before these handlers run.

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// Stats are the dashboard counters.
type Stats interface {
	CountUsers(ctx context.Context) (int64, error)
	CountRestaurants(ctx context.Context) (int64, error)
	CountReservationsSince(ctx context.Context, since time.Time) (int64, error)
	UpcomingSeatsBooked(ctx context.Context) (int64, error)
}

// ActivityLogs pages through audit records.
type ActivityLogs interface {
	List(ctx context.Context, limit, offset int) ([]model.ActivityLog, int64, error)
}

const (
	defaultLogLimit = 100
	maxLogLimit     = 500
)

// AdminHandler serves /v1/admin.
type AdminHandler struct {
	stats Stats
	logs  ActivityLogs
	now   func() time.Time // clock for the period boundaries, swapped in tests
	log   *zap.Logger
}

// NewAdminHandler returns a handler that reads the wall clock.
func NewAdminHandler(stats Stats, logs ActivityLogs, log *zap.Logger) *AdminHandler {
	return &AdminHandler{stats: stats, logs: logs, now: time.Now, log: log}
}

type bookingCounts struct {
	Daily   int64 `json:"daily"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
}

type statsResp struct {
	UsersCount       int64         `json:"usersCount"`
	RestaurantsCount int64         `json:"restaurantsCount"`
	Bookings         bookingCounts `json:"bookings"`         // reservations created since each period start
	TotalSeatsBooked int64         `json:"totalSeatsBooked"` // guests across today and later dates
}

// periodStarts returns the start of the day, the week (Sunday) and the
// month containing now, in now's location.
func periodStarts(now time.Time) (day, week, month time.Time) {
	day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	week = day.AddDate(0, 0, -int(day.Weekday()))
	month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return day, week, month
}

// Stats handles GET /v1/admin/stats. The six counts are independent queries,
// so they run concurrently; the first failure cancels the rest and the
// request answers 500.
func (h *AdminHandler) Stats(c echo.Context) error {
	day, week, month := periodStarts(h.now())
	var resp statsResp

	g, ctx := errgroup.WithContext(c.Request().Context())
	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			*dst = n
			return err
		})
	}
	since := func(t time.Time) func(context.Context) (int64, error) {
		return func(ctx context.Context) (int64, error) { return h.stats.CountReservationsSince(ctx, t) }
	}
	count(&resp.UsersCount, h.stats.CountUsers)
	count(&resp.RestaurantsCount, h.stats.CountRestaurants)
	count(&resp.Bookings.Daily, since(day))
	count(&resp.Bookings.Weekly, since(week))
	count(&resp.Bookings.Monthly, since(month))
	count(&resp.TotalSeatsBooked, h.stats.UpcomingSeatsBooked)
	if err := g.Wait(); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ActivityLogs handles GET /v1/admin/activity-logs. Records come back newest
// first together with the total count. limit defaults to 100 and is capped
// at 500; a missing or negative offset starts from the top.
func (h *AdminHandler) ActivityLogs(c echo.Context) error {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLogLimit
	}
	limit = min(limit, maxLogLimit)
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	logs, total, err := h.logs.List(c.Request().Context(), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"logs": logs, "total": total})
}
