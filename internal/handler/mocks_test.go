package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

type reservationsMock struct{ mock.Mock }

func (m *reservationsMock) Create(ctx context.Context, userID uint64, req service.ReservationRequest) (*model.Reservation, error) {
	args := m.Called(ctx, userID, req)
	r, _ := args.Get(0).(*model.Reservation)
	return r, args.Error(1)
}

func (m *reservationsMock) ListMine(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]model.Reservation)
	return r, args.Error(1)
}

func (m *reservationsMock) RestaurantBookings(ctx context.Context, restaurantID, ownerID uint64) (*model.RestaurantBookings, error) {
	args := m.Called(ctx, restaurantID, ownerID)
	r, _ := args.Get(0).(*model.RestaurantBookings)
	return r, args.Error(1)
}

type restaurantsMock struct{ mock.Mock }

func (m *restaurantsMock) List(ctx context.Context) ([]model.Restaurant, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]model.Restaurant)
	return r, args.Error(1)
}

func (m *restaurantsMock) Search(ctx context.Context, q string) ([]model.Restaurant, error) {
	args := m.Called(ctx, q)
	r, _ := args.Get(0).([]model.Restaurant)
	return r, args.Error(1)
}

func (m *restaurantsMock) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Restaurant, error) {
	args := m.Called(ctx, ownerID)
	r, _ := args.Get(0).([]model.Restaurant)
	return r, args.Error(1)
}

func (m *restaurantsMock) Create(ctx context.Context, r *model.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *restaurantsMock) Update(ctx context.Context, id, ownerID uint64, patch repository.RestaurantPatch) (*model.Restaurant, error) {
	args := m.Called(ctx, id, ownerID, patch)
	r, _ := args.Get(0).(*model.Restaurant)
	return r, args.Error(1)
}

func (m *restaurantsMock) Delete(ctx context.Context, id, ownerID uint64) error {
	return m.Called(ctx, id, ownerID).Error(0)
}

type availabilityMock struct{ mock.Mock }

func (m *availabilityMock) Get(ctx context.Context, restaurantID uint64, date, tm string) (model.Availability, error) {
	args := m.Called(ctx, restaurantID, date, tm)
	return args.Get(0).(model.Availability), args.Error(1)
}

type usersMock struct{ mock.Mock }

func (m *usersMock) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	args := m.Called(ctx, name, email, password, role, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *usersMock) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *usersMock) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

type tokensMock struct{ mock.Mock }

func (m *tokensMock) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}

func (m *tokensMock) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *tokensMock) Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error) {
	args := m.Called(ctx, oldHash, newHash, exp)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *tokensMock) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *tokensMock) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

type statsMock struct{ mock.Mock }

func (m *statsMock) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *statsMock) CountRestaurants(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *statsMock) CountReservationsSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *statsMock) UpcomingSeatsBooked(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type logsMock struct{ mock.Mock }

func (m *logsMock) List(ctx context.Context, limit, offset int) ([]model.ActivityLog, int64, error) {
	args := m.Called(ctx, limit, offset)
	r, _ := args.Get(0).([]model.ActivityLog)
	return r, args.Get(1).(int64), args.Error(2)
}
