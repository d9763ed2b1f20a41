package service

import (
	"context"
	"strings"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

// AvailabilityService answers public seat queries. Reads take no lock, so
// a result may be stale by the time a booking is attempted; admission
// re-checks under the lock.
type AvailabilityService struct {
	restaurants RestaurantReader
	seats       SeatCounter
	validate    *validation.Validator
}

func NewAvailabilityService(restaurants RestaurantReader, seats SeatCounter, validate *validation.Validator) *AvailabilityService {
	return &AvailabilityService{restaurants: restaurants, seats: seats, validate: validate}
}

type slotQuery struct {
	RestaurantID uint64 `json:"restaurantId" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string `json:"time" validate:"required,max=10"`
}

// Get returns total, booked and available seats of one slot.
func (s *AvailabilityService) Get(ctx context.Context, restaurantID uint64, date, time string) (model.Availability, error) {
	q := slotQuery{RestaurantID: restaurantID, Date: strings.TrimSpace(date), Time: strings.TrimSpace(time)}
	if err := s.validate.Struct(q); err != nil {
		return model.Availability{}, err
	}
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return model.Availability{}, classify(err, "load restaurant")
	}
	slot := model.Slot{RestaurantID: restaurantID, Date: q.Date, Time: q.Time}
	a, err := slotLedger(ctx, s.seats, restaurant, slot)
	if err != nil {
		return model.Availability{}, classify(err, "read availability")
	}
	return a, nil
}
