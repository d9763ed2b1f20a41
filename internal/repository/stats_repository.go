package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
)

// StatsRepo answers the admin dashboard counters. Each method is a single
// query so callers may run them concurrently.
type StatsRepo struct{ db *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "stats query %q", query)
	}
	return n, nil
}

// CountUsers counts every account, whatever its role.
func (r *StatsRepo) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM users")
}

// CountRestaurants counts every restaurant.
func (r *StatsRepo) CountRestaurants(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM restaurants")
}

// CountReservationsSince counts reservations created at or after since.
func (r *StatsRepo) CountReservationsSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM reservations WHERE created_at >= ?", since)
}

// UpcomingSeatsBooked sums guests of reservations dated today or later.
func (r *StatsRepo) UpcomingSeatsBooked(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COALESCE(SUM(guests), 0) FROM reservations WHERE date >= CURDATE()")
}

// Ping checks database reachability for readiness probes.
func (r *StatsRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
