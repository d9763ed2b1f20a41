// Package handler exposes the HTTP handlers for the public, customer, owner
// and admin APIs. Handlers bind and normalise input, call the domain layer and
// translate apperr kinds into status codes; none of them touch SQL directly.
//
// This file defines the reservation endpoints used by signed-in customers and
// the owner's per-slot bookings view.
package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// Reservations is what the reservation endpoints need from the domain.
type Reservations interface {
	Create(ctx context.Context, userID uint64, req service.ReservationRequest) (*model.Reservation, error)
	ListMine(ctx context.Context, userID uint64) ([]model.Reservation, error)
	RestaurantBookings(ctx context.Context, restaurantID, ownerID uint64) (*model.RestaurantBookings, error)
}

// ReservationHandler serves /v1/reservations and the owner bookings view.
// Every route it backs sits behind JWT middleware.
type ReservationHandler struct {
	svc Reservations // admission and booking views
	log *zap.Logger
}

// NewReservationHandler returns a handler backed by svc.
func NewReservationHandler(svc Reservations, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{svc: svc, log: log}
}

// Create handles POST /v1/reservations. The body names the restaurant, the
// date, the time label, the party size and a contact number. On success it
// returns 201 with the stored reservation. When the slot cannot take the
// party it returns 409 with the seats still available, so the client can
// offer a smaller booking. Validation failures answer 400 and an unknown
// restaurant answers 404.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, ok, err := requireUser(c)
	if !ok {
		return err
	}
	var req service.ReservationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	created, err := h.svc.Create(c.Request().Context(), uid, req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// ListMine handles GET /v1/reservations/my. Reservations come back newest
// first with a short summary of each restaurant attached.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	uid, ok, err := requireUser(c)
	if !ok {
		return err
	}
	list, err := h.svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// RestaurantBookings handles GET /v1/restaurants/:id/bookings. It groups the
// restaurant's reservations by date and time and reports seats booked and
// left per slot. Only the owner may see it; anyone else gets 403.
func (h *ReservationHandler) RestaurantBookings(c echo.Context) error {
	uid, ok, err := requireUser(c)
	if !ok {
		return err
	}
	rid, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Valid restaurant ID required")
	}
	view, err := h.svc.RestaurantBookings(c.Request().Context(), rid, uid)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, view)
}
