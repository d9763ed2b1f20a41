package handler

// This file defines the restaurant endpoints. Browsing, search and the
// availability query are public. Creating, editing and deleting restaurants
// require the owner role, and the store checks ownership itself so a
// foreign restaurant answers 403 rather than being changed.

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

// Restaurants is the restaurant store as seen by the handlers.
type Restaurants interface {
	List(ctx context.Context) ([]model.Restaurant, error)
	Search(ctx context.Context, q string) ([]model.Restaurant, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Restaurant, error)
	Create(ctx context.Context, m *model.Restaurant) error
	Update(ctx context.Context, id, ownerID uint64, patch repository.RestaurantPatch) (*model.Restaurant, error)
	Delete(ctx context.Context, id, ownerID uint64) error
}

// Availability answers seat queries for one slot.
type Availability interface {
	Get(ctx context.Context, restaurantID uint64, date, time string) (model.Availability, error)
}

// RestaurantHandler serves /v1/restaurants.
type RestaurantHandler struct {
	store    Restaurants           // catalogue reads and owner writes
	avail    Availability          // per-slot seat counts
	audit    *service.Auditor      // create, update and delete trail
	validate *validation.Validator // request struct validation
	log      *zap.Logger
}

// NewRestaurantHandler wires the restaurant endpoints to their stores.
func NewRestaurantHandler(store Restaurants, avail Availability, audit *service.Auditor, v *validation.Validator, log *zap.Logger) *RestaurantHandler {
	return &RestaurantHandler{store: store, avail: avail, audit: audit, validate: v, log: log}
}

type createRestaurantReq struct {
	Name       string   `json:"name" validate:"required,max=255"`
	Cuisine    string   `json:"cuisine" validate:"required,max=255"`
	Location   string   `json:"location" validate:"required,max=255"`
	Rating     *float64 `json:"rating" validate:"omitnil,gte=0,lte=5"`
	TotalSeats int      `json:"totalSeats" validate:"gte=1"`
}

// updateRestaurantReq is a partial update: nil fields are left unchanged.
type updateRestaurantReq struct {
	Name       *string  `json:"name" validate:"omitnil,min=1,max=255"`
	Cuisine    *string  `json:"cuisine" validate:"omitnil,min=1,max=255"`
	Location   *string  `json:"location" validate:"omitnil,min=1,max=255"`
	Rating     *float64 `json:"rating" validate:"omitnil,gte=0,lte=5"`
	TotalSeats *int     `json:"totalSeats" validate:"omitnil,gte=1"`
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// List handles GET /v1/restaurants and returns every restaurant ordered by
// name. Owner IDs and timestamps are not part of the public shape.
func (h *RestaurantHandler) List(c echo.Context) error {
	list, err := h.store.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Search handles GET /v1/restaurants/search?q=. The term is matched as a
// substring of name, cuisine or location; an empty term answers 400.
func (h *RestaurantHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, "Search query (q) is required")
	}
	list, err := h.store.Search(c.Request().Context(), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Availability handles GET /v1/restaurants/:id/availability?date=&time=. It
// reports total, booked and available seats for that slot. The answer is a
// snapshot; a later booking may still be refused.
func (h *RestaurantHandler) Availability(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Valid restaurant ID required")
	}
	date, tm := c.QueryParam("date"), c.QueryParam("time")
	if strings.TrimSpace(date) == "" || strings.TrimSpace(tm) == "" {
		return badRequest(c, "Query params date and time are required (YYYY-MM-DD and HH:mm)")
	}
	a, err := h.avail.Get(c.Request().Context(), id, date, tm)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Mine handles GET /v1/restaurants/my and lists the caller's restaurants.
func (h *RestaurantHandler) Mine(c echo.Context) error {
	uid, ok, err := requireUser(c)
	if !ok {
		return err
	}
	list, err := h.store.ListByOwner(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create handles POST /v1/restaurants. The restaurant is owned by the caller
// and the response is 201 with the stored record.
func (h *RestaurantHandler) Create(c echo.Context) error {
	uid, ok, err := requireUser(c)
	if !ok {
		return err
	}
	var req createRestaurantReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Cuisine = strings.TrimSpace(req.Cuisine)
	req.Location = strings.TrimSpace(req.Location)
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	m := &model.Restaurant{
		Name:       req.Name,
		Cuisine:    req.Cuisine,
		Location:   req.Location,
		Rating:     req.Rating,
		TotalSeats: req.TotalSeats,
		OwnerID:    &uid,
	}
	if err := h.store.Create(c.Request().Context(), m); err != nil {
		return respondError(c, h.log, service.StoreError(err, "create restaurant", ""))
	}
	h.audit.Record(model.NewActivity("create", "restaurant", m.ID, uid, map[string]any{
		"name": m.Name, "totalSeats": m.TotalSeats,
	}))
	return c.JSON(http.StatusCreated, m)
}

// Update handles PUT and PATCH /v1/restaurants/:id. Only the fields present
// in the body change. Lowering totalSeats leaves existing reservations in
// place; the slot then simply reports zero seats left until it frees up.
func (h *RestaurantHandler) Update(c echo.Context) error {
	uid, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Valid restaurant ID required")
	}
	var req updateRestaurantReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	trimPtr(req.Name)
	trimPtr(req.Cuisine)
	trimPtr(req.Location)
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	updated, err := h.store.Update(c.Request().Context(), id, uid, repository.RestaurantPatch{
		Name:       req.Name,
		Cuisine:    req.Cuisine,
		Location:   req.Location,
		Rating:     req.Rating,
		TotalSeats: req.TotalSeats,
	})
	if err != nil {
		return respondError(c, h.log, service.StoreError(err, "update restaurant", "Not authorized to update this restaurant"))
	}
	h.audit.Record(model.NewActivity("update", "restaurant", id, uid, req))
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/restaurants/:id. The restaurant's reservations
// go with it. Answers 204, 403 for a foreign restaurant and 404 when the ID
// does not exist.
func (h *RestaurantHandler) Delete(c echo.Context) error {
	uid, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Valid restaurant ID required")
	}
	if err := h.store.Delete(c.Request().Context(), id, uid); err != nil {
		return respondError(c, h.log, service.StoreError(err, "delete restaurant", "Not authorized to delete this restaurant"))
	}
	h.audit.Record(model.NewActivity("delete", "restaurant", id, uid, nil))
	return c.NoContent(http.StatusNoContent)
}
