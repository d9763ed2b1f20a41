// Package service holds the reservation domain logic: seat accounting,
// admission of new reservations, booking views and the audit trail.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/apperr"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/telemetry"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

// AdmissionStore opens admission units. Everything fn does through tx
// commits together or not at all.
type AdmissionStore interface {
	InTx(ctx context.Context, fn func(tx repository.SlotTx) error) error
}

// ReservationReader is the read side of the reservation store.
type ReservationReader interface {
	SeatCounter
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error)
}

// RestaurantReader loads a restaurant without locking it.
type RestaurantReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
}

// ReservationRequest is the input of an admission.
type ReservationRequest struct {
	RestaurantID  uint64 `json:"restaurantId" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string `json:"time" validate:"required,max=10"`
	Guests        int    `json:"guests" validate:"gte=1"`
	ContactNumber string `json:"contactNumber" validate:"required,max=20"`
}

func (r *ReservationRequest) normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.ContactNumber = strings.TrimSpace(r.ContactNumber)
}

func (r ReservationRequest) slot() model.Slot {
	return model.Slot{RestaurantID: r.RestaurantID, Date: r.Date, Time: r.Time}
}

const (
	defaultAdmissionAttempts = 3
	retryBackoff             = 25 * time.Millisecond
)

type ReservationService struct {
	store        AdmissionStore
	reservations ReservationReader
	restaurants  RestaurantReader
	validate     *validation.Validator
	audit        *Auditor
	metrics      *telemetry.Metrics
	log          *zap.Logger
	attempts     int
}

func NewReservationService(
	store AdmissionStore,
	reservations ReservationReader,
	restaurants RestaurantReader,
	validate *validation.Validator,
	audit *Auditor,
	metrics *telemetry.Metrics,
	log *zap.Logger,
) *ReservationService {
	return &ReservationService{
		store:        store,
		reservations: reservations,
		restaurants:  restaurants,
		validate:     validate,
		audit:        audit,
		metrics:      metrics,
		log:          log.Named("reservations"),
		attempts:     defaultAdmissionAttempts,
	}
}

// Create admits a reservation for userID if the slot still has room for
// req.Guests. The check and the insert run under the restaurant's row lock,
// so concurrent admissions to a slot never overbook it.
//
// Errors are apperr kinds: validation before any store access, NotFound for
// an unknown restaurant, CapacityExceeded carrying the seats left, Conflict
// for constraint violations and Unexpected for store failures.
func (s *ReservationService) Create(ctx context.Context, userID uint64, req ReservationRequest) (*model.Reservation, error) {
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	slot := req.slot()

	ctx, span := telemetry.StartAdmissionSpan(ctx, slot, req.Guests)
	defer span.End()
	start := time.Now()

	created, err := s.admitWithRetry(ctx, userID, slot, req)
	s.metrics.RecordAdmission(ctx, req.Guests, rejectReason(err), time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
		if apperr.Is(err, apperr.KindUnexpected) {
			s.log.Error("admission failed", zap.Uint64("restaurant_id", slot.RestaurantID),
				zap.String("date", slot.Date), zap.String("time", slot.Time), zap.Error(err))
		}
		return nil, err
	}

	s.audit.Record(model.NewActivity("create", "reservation", created.ID, userID, map[string]any{
		"restaurantId": slot.RestaurantID,
		"date":         slot.Date,
		"time":         slot.Time,
		"guests":       req.Guests,
	}))
	return created, nil
}

// admitWithRetry reruns the admission unit when MySQL reports a deadlock or
// lock wait timeout. Every other outcome is final.
func (s *ReservationService) admitWithRetry(ctx context.Context, userID uint64, slot model.Slot, req ReservationRequest) (*model.Reservation, error) {
	created, err := backoff.Retry(ctx, func() (*model.Reservation, error) {
		created, err := s.admit(ctx, userID, slot, req)
		if err != nil && !repository.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return created, err
	},
		backoff.WithBackOff(admissionBackOff()),
		backoff.WithMaxTries(uint(s.attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log.Debug("admission retry", zap.Duration("retry_in", next), zap.Error(err))
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		return nil, classify(err, "create reservation")
	}
	return created, nil
}

// admissionBackOff waits 25ms, then 50ms, between attempts.
func admissionBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryBackoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Second
	return b
}

func (s *ReservationService) admit(ctx context.Context, userID uint64, slot model.Slot, req ReservationRequest) (*model.Reservation, error) {
	var created *model.Reservation
	err := s.store.InTx(ctx, func(tx repository.SlotTx) error {
		restaurant, err := tx.LockRestaurant(ctx, slot.RestaurantID)
		if err != nil {
			return err
		}
		ledger, err := slotLedger(ctx, tx, restaurant, slot)
		if err != nil {
			return err
		}
		if req.Guests > ledger.Available {
			return apperr.CapacityExceeded(ledger.Available)
		}
		m := &model.Reservation{
			UserID:        userID,
			RestaurantID:  slot.RestaurantID,
			Date:          slot.Date,
			Time:          slot.Time,
			Guests:        req.Guests,
			ContactNumber: req.ContactNumber,
		}
		if err := tx.InsertReservation(ctx, m); err != nil {
			return err
		}
		m.Restaurant = restaurant.Summary()
		created = m
		return nil
	})
	return created, err
}

// classify maps repository errors onto the apperr taxonomy.
func classify(err error, op string) error {
	return StoreError(err, op, "Not authorized to access this restaurant")
}

// StoreError translates a repository sentinel into its apperr kind. Errors
// that already carry a kind pass through; anything unrecognised becomes
// Unexpected under op. forbidden is the message shown on ErrForbidden.
func StoreError(err error, op, forbidden string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrRestaurantNotFound):
		return apperr.NotFound("Restaurant not found")
	case errors.Is(err, repository.ErrForbidden):
		return apperr.Forbidden(forbidden)
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflict("conflict with existing data")
	default:
		return apperr.Unexpected(err, op)
	}
}

func rejectReason(err error) string {
	if err == nil {
		return ""
	}
	return strings.ToLower(string(apperr.KindOf(err)))
}
