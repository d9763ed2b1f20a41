package model

// Slot identifies one bookable seating window: a restaurant on a calendar
// date at a time label. The time label is opaque; "19:00" and "19:30" are
// different slots even though they overlap in reality.
type Slot struct {
	RestaurantID uint64
	Date         string // YYYY-MM-DD
	Time         string
}

// Key returns the grouping key used by per-slot booking views.
func (s Slot) Key() string { return s.Date + "_" + s.Time }
