package model

import "time"

// Reservation records that a user holds Guests seats in one slot of a
// restaurant. Several reservations may share the same slot; the sum of their
// guests is bounded by the restaurant's TotalSeats.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who booked.
//  RestaurantID  – restaurant being booked.
//  Date          – calendar date, YYYY-MM-DD.
//  Time          – opaque time label, at most 10 characters.
//  Guests        – seats consumed, at least 1.
//  ContactNumber – phone number given at booking, at most 20 characters.
type Reservation struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"userId"`
	RestaurantID  uint64    `json:"restaurantId"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Guests        int       `json:"guests"`
	ContactNumber string    `json:"contactNumber"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Restaurant *RestaurantSummary `json:"restaurant,omitempty"`
	User       *UserSummary       `json:"user,omitempty"`
}

// Slot returns the slot the reservation occupies.
func (r Reservation) Slot() Slot {
	return Slot{RestaurantID: r.RestaurantID, Date: r.Date, Time: r.Time}
}

// Availability is the public seat view of one slot.
type Availability struct {
	TotalSeats int `json:"totalSeats"`
	Booked     int `json:"booked"`
	Available  int `json:"available"`
}

// SlotBookings aggregates the reservations of one slot.
type SlotBookings struct {
	Date         string        `json:"date"`
	Time         string        `json:"time"`
	Booked       int           `json:"booked"`
	Reservations []Reservation `json:"reservations"`
}

// RestaurantBookings is the owner dashboard view of a restaurant.
type RestaurantBookings struct {
	Restaurant struct {
		ID         uint64 `json:"id"`
		Name       string `json:"name"`
		TotalSeats int    `json:"totalSeats"`
	} `json:"restaurant"`
	Bookings        []SlotBookings `json:"bookings"`
	AllReservations []Reservation  `json:"allReservations"`
}
