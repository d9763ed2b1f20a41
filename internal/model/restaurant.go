package model

import "time"

// Restaurant mirrors a row of the `restaurants` table. TotalSeats is the
// capacity of every slot; OwnerID is nil for restaurants seeded without an
// owner account.
type Restaurant struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Cuisine    string    `json:"cuisine"`
	Location   string    `json:"location"`
	Rating     *float64  `json:"rating"`
	TotalSeats int       `json:"totalSeats"`
	OwnerID    *uint64   `json:"ownerId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// OwnedBy reports whether userID owns the restaurant.
func (r Restaurant) OwnedBy(userID uint64) bool {
	return r.OwnerID != nil && *r.OwnerID == userID
}

// Summary returns the short form embedded in reservation listings.
func (r Restaurant) Summary() *RestaurantSummary {
	return &RestaurantSummary{ID: r.ID, Name: r.Name, Cuisine: r.Cuisine, Location: r.Location, Rating: r.Rating}
}

// RestaurantSummary is the restaurant view attached to a reservation.
type RestaurantSummary struct {
	ID       uint64   `json:"id"`
	Name     string   `json:"name"`
	Cuisine  string   `json:"cuisine"`
	Location string   `json:"location"`
	Rating   *float64 `json:"rating,omitempty"`
}
