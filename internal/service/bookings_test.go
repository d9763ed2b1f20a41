package service

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/apperr"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

func TestAvailableSeats(t *testing.T) {
	assert.Equal(t, 20, AvailableSeats(20, 0))
	assert.Equal(t, 5, AvailableSeats(20, 15))
	assert.Equal(t, 0, AvailableSeats(20, 20))
	assert.Equal(t, 0, AvailableSeats(10, 14), "lowered capacity clamps to zero")
}

func TestAvailability_ReflectsBookings(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)
	avail := NewAvailabilityService(f.store, f.store, validation.New())
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, booking(1, "2025-06-01", "19:00", 15))
	require.NoError(t, err)

	got, err := avail.Get(ctx, 1, "2025-06-01", "19:00")
	require.NoError(t, err)
	assert.Equal(t, model.Availability{TotalSeats: 20, Booked: 15, Available: 5}, got)

	again, err := avail.Get(ctx, 1, "2025-06-01", "19:00")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	other, err := avail.Get(ctx, 1, "2025-06-01", "21:00")
	require.NoError(t, err)
	assert.Equal(t, model.Availability{TotalSeats: 20, Booked: 0, Available: 20}, other)
}

func TestAvailability_CapacityLoweredBelowBooked(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)
	avail := NewAvailabilityService(f.store, f.store, validation.New())
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, booking(1, "2025-06-01", "19:00", 12))
	require.NoError(t, err)
	f.store.setSeats(1, 10)

	got, err := avail.Get(ctx, 1, "2025-06-01", "19:00")
	require.NoError(t, err)
	assert.Equal(t, model.Availability{TotalSeats: 10, Booked: 12, Available: 0}, got)

	_, err = f.svc.Create(ctx, 2, booking(1, "2025-06-01", "19:00", 1))
	requireCapacity(t, err, 0)
}

func TestAvailability_Errors(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)
	avail := NewAvailabilityService(f.store, f.store, validation.New())
	ctx := context.Background()

	_, err := avail.Get(ctx, 1, "", "19:00")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = avail.Get(ctx, 1, "2025-06-01", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = avail.Get(ctx, 42, "2025-06-01", "19:00")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListMine_OrderedByDateAndTime(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)
	ctx := context.Background()

	for _, req := range []ReservationRequest{
		booking(1, "2025-06-03", "19:00", 2),
		booking(1, "2025-06-01", "21:00", 2),
		booking(1, "2025-06-01", "19:00", 2),
	} {
		_, err := f.svc.Create(ctx, 5, req)
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, 6, booking(1, "2025-06-01", "18:00", 2))
	require.NoError(t, err)

	list, err := f.svc.ListMine(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-06-01", list[0].Date)
	assert.Equal(t, "19:00", list[0].Time)
	assert.Equal(t, "21:00", list[1].Time)
	assert.Equal(t, "2025-06-03", list[2].Date)
}

func TestGroupBySlot(t *testing.T) {
	list := []model.Reservation{
		{ID: 1, RestaurantID: 1, Date: "2025-06-01", Time: "19:00", Guests: 4},
		{ID: 2, RestaurantID: 1, Date: "2025-06-01", Time: "19:00", Guests: 2},
		{ID: 3, RestaurantID: 1, Date: "2025-06-01", Time: "21:00", Guests: 6},
		{ID: 4, RestaurantID: 1, Date: "2025-06-02", Time: "19:00", Guests: 1},
	}

	want := []model.SlotBookings{
		{Date: "2025-06-01", Time: "19:00", Booked: 6, Reservations: []model.Reservation{list[0], list[1]}},
		{Date: "2025-06-01", Time: "21:00", Booked: 6, Reservations: []model.Reservation{list[2]}},
		{Date: "2025-06-02", Time: "19:00", Booked: 1, Reservations: []model.Reservation{list[3]}},
	}
	if diff := cmp.Diff(want, GroupBySlot(list), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("GroupBySlot mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, GroupBySlot(nil))
}

func TestRestaurantBookings_OwnerView(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 5, booking(1, "2025-06-01", "19:00", 4))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, 6, booking(1, "2025-06-01", "19:00", 3))
	require.NoError(t, err)

	view, err := f.svc.RestaurantBookings(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), view.Restaurant.ID)
	assert.Equal(t, 20, view.Restaurant.TotalSeats)
	require.Len(t, view.Bookings, 1)
	assert.Equal(t, 7, view.Bookings[0].Booked)
	assert.Len(t, view.AllReservations, 2)
}

func TestRestaurantBookings_RejectsOtherUsers(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)

	_, err := f.svc.RestaurantBookings(context.Background(), 1, 101)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindForbidden, e.Kind)
	assert.Equal(t, "Not authorized to view this restaurant", e.Message)

	_, err = f.svc.RestaurantBookings(context.Background(), 9, 100)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
