package service

import (
	"context"

	"github.com/iliyamo/restaurant-reservation/internal/apperr"
	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ListMine returns userID's reservations ordered by date then time.
func (s *ReservationService) ListMine(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	list, err := s.reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, classify(err, "list reservations")
	}
	return list, nil
}

// RestaurantBookings is the owner view of a restaurant: reservations grouped
// per slot plus the flat list. Only the owner may read it.
func (s *ReservationService) RestaurantBookings(ctx context.Context, restaurantID, ownerID uint64) (*model.RestaurantBookings, error) {
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, classify(err, "load restaurant")
	}
	if !restaurant.OwnedBy(ownerID) {
		return nil, apperr.Forbidden("Not authorized to view this restaurant")
	}
	list, err := s.reservations.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, classify(err, "list restaurant reservations")
	}

	out := &model.RestaurantBookings{Bookings: GroupBySlot(list), AllReservations: list}
	out.Restaurant.ID = restaurant.ID
	out.Restaurant.Name = restaurant.Name
	out.Restaurant.TotalSeats = restaurant.TotalSeats
	return out, nil
}

// GroupBySlot buckets reservations by date and time label. Groups appear in
// the order their first reservation appears in list.
func GroupBySlot(list []model.Reservation) []model.SlotBookings {
	groups := make([]model.SlotBookings, 0)
	index := make(map[string]int)
	for _, r := range list {
		key := r.Slot().Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.SlotBookings{Date: r.Date, Time: r.Time, Reservations: make([]model.Reservation, 0, 1)})
		}
		groups[i].Booked += r.Guests
		groups[i].Reservations = append(groups[i].Reservations, r)
	}
	return groups
}
