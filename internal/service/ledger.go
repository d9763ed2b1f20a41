package service

import (
	"context"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// SeatCounter sums the guests already booked into a slot. Inside an
// admission unit it is the open transaction; for public reads it is the
// reservation repository.
type SeatCounter interface {
	BookedSeats(ctx context.Context, slot model.Slot) (int, error)
}

// AvailableSeats is the remaining capacity of a slot. It never goes below
// zero, even when capacity was lowered after bookings were taken.
func AvailableSeats(totalSeats, booked int) int {
	return max(0, totalSeats-booked)
}

// slotLedger reads the current booked and available seats of slot.
func slotLedger(ctx context.Context, counter SeatCounter, restaurant *model.Restaurant, slot model.Slot) (model.Availability, error) {
	booked, err := counter.BookedSeats(ctx, slot)
	if err != nil {
		return model.Availability{}, err
	}
	return model.Availability{
		TotalSeats: restaurant.TotalSeats,
		Booked:     booked,
		Available:  AvailableSeats(restaurant.TotalSeats, booked),
	}, nil
}
