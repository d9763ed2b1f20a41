package repository

// This file defines data access for the reservations table. A reservation
// belongs to one slot: a restaurant, a DATE and a short time label that is
// compared byte for byte. Seats booked in a slot are always summed from the
// table rather than kept in a counter, so there is nothing to drift.

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ReservationRepo reads and writes the `reservations` table. Inserts are
// only reachable through AdmissionStore so every write happens under the
// restaurant row lock.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to db.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const bookedSeatsQuery = "SELECT COALESCE(SUM(guests), 0) FROM reservations WHERE restaurant_id = ? AND date = ? AND time = ?"

// bookedSeats sums the guests of every reservation in slot. An empty slot
// sums to zero, not NULL.
func bookedSeats(ctx context.Context, q Queryer, slot model.Slot) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, bookedSeatsQuery, slot.RestaurantID, slot.Date, slot.Time).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "sum booked seats")
	}
	return n, nil
}

// BookedSeats sums guests of a slot outside any transaction.
func (r *ReservationRepo) BookedSeats(ctx context.Context, slot model.Slot) (int, error) {
	return bookedSeats(ctx, r.db, slot)
}

// BookedSeatsTx sums guests of a slot inside tx.
func (r *ReservationRepo) BookedSeatsTx(ctx context.Context, tx *sql.Tx, slot model.Slot) (int, error) {
	return bookedSeats(ctx, tx, slot)
}

// CreateTx inserts m inside tx and fills its ID and timestamps.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Reservation) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, restaurant_id, date, time, guests, contact_number) VALUES (?, ?, ?, ?, ?, ?)",
		m.UserID, m.RestaurantID, m.Date, m.Time, m.Guests, m.ContactNumber)
	if err != nil {
		return errors.Wrap(markConstraint(err), "insert reservation")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "reservation id")
	}
	now := time.Now().UTC().Truncate(time.Second)
	m.ID = uint64(id)
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

const reservationColumns = "r.id, r.user_id, r.restaurant_id, DATE_FORMAT(r.date, '%Y-%m-%d'), r.time, r.guests, r.contact_number, r.created_at, r.updated_at"

// ListByUser returns a user's reservations with their restaurant, ordered
// by date then time.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reservationColumns+", s.id, s.name, s.cuisine, s.location, s.rating"+
			" FROM reservations r JOIN restaurants s ON s.id = r.restaurant_id"+
			" WHERE r.user_id = ? ORDER BY r.date ASC, r.time ASC, r.id ASC", userID)
	if err != nil {
		return nil, errors.Wrap(err, "query user reservations")
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		var (
			m      model.Reservation
			s      model.RestaurantSummary
			rating sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.RestaurantID, &m.Date, &m.Time, &m.Guests, &m.ContactNumber, &m.CreatedAt, &m.UpdatedAt,
			&s.ID, &s.Name, &s.Cuisine, &s.Location, &rating); err != nil {
			return nil, errors.Wrap(err, "scan user reservation")
		}
		if rating.Valid {
			v := rating.Float64
			s.Rating = &v
		}
		m.Restaurant = &s
		out = append(out, m)
	}
	return out, errors.Wrap(rows.Err(), "iterate user reservations")
}

// ListByRestaurant returns a restaurant's reservations with the booking
// user, ordered by date then time.
func (r *ReservationRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reservationColumns+", u.id, u.name, u.email"+
			" FROM reservations r JOIN users u ON u.id = r.user_id"+
			" WHERE r.restaurant_id = ? ORDER BY r.date ASC, r.time ASC, r.id ASC", restaurantID)
	if err != nil {
		return nil, errors.Wrap(err, "query restaurant reservations")
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		var (
			m model.Reservation
			u model.UserSummary
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.RestaurantID, &m.Date, &m.Time, &m.Guests, &m.ContactNumber, &m.CreatedAt, &m.UpdatedAt,
			&u.ID, &u.Name, &u.Email); err != nil {
			return nil, errors.Wrap(err, "scan restaurant reservation")
		}
		m.User = &u
		out = append(out, m)
	}
	return out, errors.Wrap(rows.Err(), "iterate restaurant reservations")
}
