package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// memStore is an in-process stand-in for the MySQL admission store. Each
// restaurant has its own mutex playing the role of the row lock; inserts
// become visible only when the unit commits.
type memStore struct {
	mu           sync.Mutex
	restaurants  map[uint64]*model.Restaurant
	locks        map[uint64]*sync.Mutex
	reservations []model.Reservation
	nextID       uint64

	units     atomic.Int64
	insertErr error
	// hold delays each unit while it holds the restaurant lock.
	hold time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		restaurants: make(map[uint64]*model.Restaurant),
		locks:       make(map[uint64]*sync.Mutex),
	}
}

func (s *memStore) addRestaurant(id uint64, seats int, owner uint64) *model.Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &model.Restaurant{ID: id, Name: "Table " + string(rune('A'+id%26)), TotalSeats: seats, OwnerID: &owner}
	s.restaurants[id] = r
	s.locks[id] = &sync.Mutex{}
	return r
}

func (s *memStore) setSeats(id uint64, seats int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[id].TotalSeats = seats
}

func (s *memStore) InTx(ctx context.Context, fn func(tx repository.SlotTx) error) error {
	s.units.Add(1)
	tx := &memTx{store: s}
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	if s.hold > 0 {
		time.Sleep(s.hold)
	}
	s.mu.Lock()
	s.reservations = append(s.reservations, tx.pending...)
	s.mu.Unlock()
	return nil
}

func (s *memStore) committedSeats(slot model.Slot) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, r := range s.reservations {
		if r.Slot() == slot {
			total += r.Guests
		}
	}
	return total
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

// ReservationReader and RestaurantReader.

func (s *memStore) BookedSeats(_ context.Context, slot model.Slot) (int, error) {
	return s.committedSeats(slot), nil
}

func (s *memStore) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool { return r.UserID == userID }), nil
}

func (s *memStore) ListByRestaurant(_ context.Context, restaurantID uint64) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool { return r.RestaurantID == restaurantID }), nil
}

func (s *memStore) filter(keep func(model.Reservation) bool) []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memStore) GetByID(_ context.Context, id uint64) (*model.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[id]
	if !ok {
		return nil, repository.ErrRestaurantNotFound
	}
	cp := *r
	return &cp, nil
}

type memTx struct {
	store   *memStore
	locked  *sync.Mutex
	pending []model.Reservation
}

func (t *memTx) LockRestaurant(ctx context.Context, id uint64) (*model.Restaurant, error) {
	t.store.mu.Lock()
	lock, ok := t.store.locks[id]
	t.store.mu.Unlock()
	if !ok {
		return nil, repository.ErrRestaurantNotFound
	}
	lock.Lock()
	t.locked = lock
	return t.store.GetByID(ctx, id)
}

func (t *memTx) BookedSeats(_ context.Context, slot model.Slot) (int, error) {
	total := t.store.committedSeats(slot)
	for _, r := range t.pending {
		if r.Slot() == slot {
			total += r.Guests
		}
	}
	return total, nil
}

func (t *memTx) InsertReservation(_ context.Context, m *model.Reservation) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.store.mu.Lock()
	t.store.nextID++
	m.ID = t.store.nextID
	t.store.mu.Unlock()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	t.pending = append(t.pending, *m)
	return nil
}

func (t *memTx) release() {
	if t.locked != nil {
		t.locked.Unlock()
	}
}
