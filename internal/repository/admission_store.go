package repository

// This file defines the transactional unit behind a reservation. The unit
// locks the restaurant row with SELECT ... FOR UPDATE, sums the slot and
// inserts, all in one transaction. Every admission to the same restaurant
// queues on that lock, which is what keeps a slot from being overbooked.

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// SlotTx is an open admission unit. LockRestaurant must be called first;
// the lock it takes is held until the unit commits or rolls back.
type SlotTx interface {
	LockRestaurant(ctx context.Context, id uint64) (*model.Restaurant, error)
	BookedSeats(ctx context.Context, slot model.Slot) (int, error)
	InsertReservation(ctx context.Context, m *model.Reservation) error
}

// AdmissionStore runs admission units as MySQL transactions. READ
// COMMITTED makes the seat sum taken after the row lock see every
// reservation committed by the previous lock holder.
type AdmissionStore struct {
	db           *sql.DB
	restaurants  *RestaurantRepo  // row lock on the restaurant
	reservations *ReservationRepo // seat sum and insert
}

// NewAdmissionStore returns a store whose units run against db.
func NewAdmissionStore(db *sql.DB, restaurants *RestaurantRepo, reservations *ReservationRepo) *AdmissionStore {
	return &AdmissionStore{db: db, restaurants: restaurants, reservations: reservations}
}

// InTx runs fn in one transaction. Any error from fn rolls back.
func (s *AdmissionStore) InTx(ctx context.Context, fn func(tx SlotTx) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	return withTx(ctx, s.db, opts, func(tx *sql.Tx) error {
		return fn(&sqlSlotTx{tx: tx, store: s})
	})
}

// sqlSlotTx adapts one *sql.Tx to SlotTx.
type sqlSlotTx struct {
	tx    *sql.Tx
	store *AdmissionStore
}

func (t *sqlSlotTx) LockRestaurant(ctx context.Context, id uint64) (*model.Restaurant, error) {
	return t.store.restaurants.LockByIDTx(ctx, t.tx, id)
}

func (t *sqlSlotTx) BookedSeats(ctx context.Context, slot model.Slot) (int, error) {
	return t.store.reservations.BookedSeatsTx(ctx, t.tx, slot)
}

func (t *sqlSlotTx) InsertReservation(ctx context.Context, m *model.Reservation) error {
	return t.store.reservations.CreateTx(ctx, t.tx, m)
}
