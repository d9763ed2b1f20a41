package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/restaurant-reservation/internal/apperr"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

type sinkFunc func(ctx context.Context, entry model.ActivityLog) error

func (f sinkFunc) Record(ctx context.Context, entry model.ActivityLog) error { return f(ctx, entry) }

type captureSink struct {
	mu      sync.Mutex
	entries []model.ActivityLog
}

func (c *captureSink) Record(_ context.Context, entry model.ActivityLog) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureSink) all() []model.ActivityLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ActivityLog(nil), c.entries...)
}

type fixture struct {
	store *memStore
	sink  *captureSink
	audit *Auditor
	svc   *ReservationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	sink := &captureSink{}
	audit := NewAuditor(sink, zap.NewNop(), time.Second)
	svc := NewReservationService(store, store, store, validation.New(), audit, nil, zap.NewNop())
	return &fixture{store: store, sink: sink, audit: audit, svc: svc}
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.audit.Drain(ctx))
}

func booking(restaurantID uint64, date, tm string, guests int) ReservationRequest {
	return ReservationRequest{
		RestaurantID:  restaurantID,
		Date:          date,
		Time:          tm,
		Guests:        guests,
		ContactNumber: "+1 555 0100",
	}
}

func withContact(req ReservationRequest, contact string) ReservationRequest {
	req.ContactNumber = contact
	return req
}

func requireCapacity(t *testing.T, err error, available int) {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected classified error, got %v", err)
	require.Equal(t, apperr.KindCapacityExceeded, e.Kind)
	assert.Equal(t, available, e.Available)
	assert.Equal(t, apperr.CapacityMessage(available), e.Message)
}

func TestCreate_AdmitsWithinCapacity(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)

	got, err := f.svc.Create(context.Background(), 7, booking(1, "2025-06-01", "19:00", 4))
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, uint64(7), got.UserID)
	assert.Equal(t, 4, got.Guests)
	require.NotNil(t, got.Restaurant)
	assert.Equal(t, uint64(1), got.Restaurant.ID)
	assert.Equal(t, 4, f.store.committedSeats(model.Slot{RestaurantID: 1, Date: "2025-06-01", Time: "19:00"}))
}

func TestCreate_FillToExactCapacityThenReject(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, booking(1, "2025-06-01", "19:00", 20))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, 2, booking(1, "2025-06-01", "19:00", 1))
	requireCapacity(t, err, 0)
	assert.Equal(t, 1, f.store.count())
}

func TestCreate_FifteenFiveOne(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, booking(1, "2025-06-01", "19:00", 15))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, 2, booking(1, "2025-06-01", "19:00", 5))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, 3, booking(1, "2025-06-01", "19:00", 1))
	requireCapacity(t, err, 0)
	assert.EqualError(t, errors.Cause(err),
		"Only 0 seat(s) available for this date and time. Please choose fewer guests or another slot.")
}

func TestCreate_PartialRoomReportsRemaining(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, booking(1, "2025-06-01", "20:00", 7))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, 2, booking(1, "2025-06-01", "20:00", 4))
	requireCapacity(t, err, 3)
}

func TestCreate_GuestsAboveTotalOnEmptySlot(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 6, 100)

	_, err := f.svc.Create(context.Background(), 1, booking(1, "2025-06-01", "20:00", 7))
	requireCapacity(t, err, 6)
}

func TestCreate_ConcurrentFiveByFive(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 20, 100)
	f.store.hold = 5 * time.Millisecond

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected []error
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), user, booking(1, "2025-06-01", "19:00", 5))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rejected = append(rejected, err)
				return
			}
			ok++
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 4, ok)
	require.Len(t, rejected, 1)
	requireCapacity(t, rejected[0], 0)
	assert.Equal(t, 20, f.store.committedSeats(model.Slot{RestaurantID: 1, Date: "2025-06-01", Time: "19:00"}))
}

func TestCreate_ConcurrentRandomNeverOverbooks(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 30, 100)
	slot := model.Slot{RestaurantID: 1, Date: "2025-06-02", Time: "18:30"}

	rng := rand.New(rand.NewSource(42))
	guests := make([]int, 60)
	for i := range guests {
		guests[i] = rng.Intn(4) + 1
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i, g := range guests {
		wg.Add(1)
		go func(user uint64, g int) {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), user, booking(slot.RestaurantID, slot.Date, slot.Time, g))
			if err != nil {
				assert.True(t, apperr.Is(err, apperr.KindCapacityExceeded), "unexpected error %v", err)
				return
			}
			mu.Lock()
			admitted += g
			mu.Unlock()
		}(uint64(i+1), g)
	}
	wg.Wait()

	booked := f.store.committedSeats(slot)
	assert.LessOrEqual(t, booked, 30)
	assert.Equal(t, admitted, booked)
}

func TestCreate_SlotsAreIndependent(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)
	f.store.addRestaurant(2, 10, 100)
	ctx := context.Background()

	for _, req := range []ReservationRequest{
		booking(1, "2025-06-01", "19:00", 10),
		booking(1, "2025-06-01", "21:00", 10),
		booking(1, "2025-06-02", "19:00", 10),
		booking(2, "2025-06-01", "19:00", 10),
	} {
		_, err := f.svc.Create(ctx, 1, req)
		require.NoError(t, err, "%+v", req)
	}
}

func TestCreate_TimeLabelIsOpaque(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 4, 100)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, booking(1, "2025-06-01", "7pm", 4))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, 1, booking(1, "2025-06-01", "19:00", 4))
	require.NoError(t, err)
}

func TestCreate_UnknownRestaurant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), 1, booking(99, "2025-06-01", "19:00", 2))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Zero(t, f.store.count())
}

func TestCreate_ValidationHappensBeforeStore(t *testing.T) {
	cases := []struct {
		name string
		req  ReservationRequest
		msg  string
	}{
		{"zero guests", booking(1, "2025-06-01", "19:00", 0), "guests must be at least 1"},
		{"negative guests", booking(1, "2025-06-01", "19:00", -2), "guests must be at least 1"},
		{"missing restaurant", booking(0, "2025-06-01", "19:00", 2), "restaurantId is required"},
		{"bad date", booking(1, "2025-13-01", "19:00", 2), "date must be a valid date (YYYY-MM-DD)"},
		{"missing time", booking(1, "2025-06-01", "   ", 2), "time is required"},
		{"long time", booking(1, "2025-06-01", "19:00-21:00", 2), "time must be at most 10 characters"},
		{"missing contact", ReservationRequest{RestaurantID: 1, Date: "2025-06-01", Time: "19:00", Guests: 2}, "contactNumber is required"},
		{"blank contact", withContact(booking(1, "2025-06-01", "19:00", 2), "     "), "contactNumber is required"},
		{"long contact", withContact(booking(1, "2025-06-01", "19:00", 2), "+1 555 0100 ext 4321"+"9"), "contactNumber must be at most 20 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.addRestaurant(1, 20, 100)

			_, err := f.svc.Create(context.Background(), 1, tc.req)
			require.Error(t, err)
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, tc.msg, e.Message)
			assert.Zero(t, f.store.units.Load())
		})
	}
}

func TestCreate_ContactAtLimitIsAdmitted(t *testing.T) {
	cases := []struct {
		name    string
		contact string
		stored  string
	}{
		{"twenty ascii", "+1 555 0100 ext 4321", "+1 555 0100 ext 4321"},
		{"twenty runes padded", "  ٠١٢٣٤٥٦٧٨٩٠١٢٣٤٥٦٧٨٩ ", "٠١٢٣٤٥٦٧٨٩٠١٢٣٤٥٦٧٨٩"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.addRestaurant(1, 20, 100)

			got, err := f.svc.Create(context.Background(), 1, withContact(booking(1, "2025-06-01", "19:00", 2), tc.contact))
			require.NoError(t, err)
			assert.Equal(t, tc.stored, got.ContactNumber)
			assert.Equal(t, 1, f.store.count())
		})
	}
}

func TestStoreError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind apperr.Kind
		msg  string
	}{
		{"not found", errors.Wrap(repository.ErrRestaurantNotFound, "get"), apperr.KindNotFound, "Restaurant not found"},
		{"forbidden", errors.Wrap(repository.ErrForbidden, "update"), apperr.KindForbidden, "Not authorized to update this restaurant"},
		{"conflict", errors.Mark(errors.New("dup"), repository.ErrConflict), apperr.KindConflict, "conflict with existing data"},
		{"already classified", apperr.CapacityExceeded(3), apperr.KindCapacityExceeded, ""},
		{"unknown", errors.New("broken pipe"), apperr.KindUnexpected, "update restaurant"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := StoreError(tc.err, "update restaurant", "Not authorized to update this restaurant")
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, e.Kind)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, e.Message)
			}
		})
	}
	assert.NoError(t, StoreError(nil, "noop", ""))
}

func TestCreate_RetriesDeadlock(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)
	flaky := &flakyStore{memStore: f.store, failures: 2, err: &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}}
	f.svc.store = flaky

	got, err := f.svc.Create(context.Background(), 1, booking(1, "2025-06-01", "19:00", 2))
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, 3, flaky.calls)
}

func TestCreate_GivesUpAfterRetries(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)
	flaky := &flakyStore{memStore: f.store, failures: 10, err: &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}}
	f.svc.store = flaky

	_, err := f.svc.Create(context.Background(), 1, booking(1, "2025-06-01", "19:00", 2))
	assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))
	assert.Equal(t, defaultAdmissionAttempts, flaky.calls)
	assert.Zero(t, f.store.count())
}

func TestCreate_DoesNotRetryFinalErrors(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)
	flaky := &flakyStore{memStore: f.store, failures: 10, err: errors.Mark(errors.New("fk"), repository.ErrConflict)}
	f.svc.store = flaky

	_, err := f.svc.Create(context.Background(), 1, booking(1, "2025-06-01", "19:00", 2))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, e.Kind)
	assert.Equal(t, 1, flaky.calls)
}

func TestCreate_CancelledDuringRetryIsUnexpected(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)
	flaky := &flakyStore{memStore: f.store, failures: 10, err: &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}}
	f.svc.store = flaky
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := f.svc.Create(ctx, 1, booking(1, "2025-06-01", "19:00", 2))
	assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))
	assert.Less(t, flaky.calls, defaultAdmissionAttempts)
	assert.Zero(t, f.store.count())
}

func TestCreate_StoreFailureIsUnexpected(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)
	f.store.insertErr = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), 1, booking(1, "2025-06-01", "19:00", 2))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUnexpected, e.Kind)
	assert.Equal(t, "create reservation", e.Message)
	assert.Zero(t, f.store.count())
	assert.Empty(t, f.sink.all())
}

func TestCreate_ConstraintViolationIsConflict(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)
	f.store.insertErr = errors.Mark(errors.New("fk"), repository.ErrConflict)

	_, err := f.svc.Create(context.Background(), 1, booking(1, "2025-06-01", "19:00", 2))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreate_WritesAuditRecord(t *testing.T) {
	f := newFixture(t)
	f.store.addRestaurant(1, 10, 100)

	got, err := f.svc.Create(context.Background(), 7, booking(1, "2025-06-01", "19:00", 3))
	require.NoError(t, err)
	f.drain(t)

	entries := f.sink.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "reservation", entries[0].Entity)
	require.NotNil(t, entries[0].EntityID)
	assert.Equal(t, got.ID, *entries[0].EntityID)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, uint64(7), *entries[0].UserID)
	assert.JSONEq(t, `{"restaurantId":1,"date":"2025-06-01","time":"19:00","guests":3}`, string(entries[0].Metadata))
}

func TestCreate_AuditFailureDoesNotFailBooking(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := newMemStore()
	store.addRestaurant(1, 10, 100)
	audit := NewAuditor(sinkFunc(func(context.Context, model.ActivityLog) error {
		return errors.New("activity table missing")
	}), zap.New(core), time.Second)
	svc := NewReservationService(store, store, store, validation.New(), audit, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), 1, booking(1, "2025-06-01", "19:00", 2))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, audit.Drain(ctx))
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 1, logs.FilterMessage("activity log failed").Len())
}

func TestAuditor_RecoversFromPanickingSink(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	audit := NewAuditor(sinkFunc(func(context.Context, model.ActivityLog) error {
		panic("boom")
	}), zap.New(core), time.Second)

	audit.Record(model.NewActivity("login", "user", 1, 1, nil))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, audit.Drain(ctx))
	assert.Equal(t, 1, logs.FilterMessage("activity sink panicked").Len())
}

func TestAuditor_NilIsNoop(t *testing.T) {
	var a *Auditor
	assert.NotPanics(t, func() { a.Record(model.NewActivity("login", "user", 1, 1, nil)) })
}

type flakyStore struct {
	*memStore
	mu       sync.Mutex
	calls    int
	failures int
	err      error
}

func (s *flakyStore) InTx(ctx context.Context, fn func(tx repository.SlotTx) error) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.failures
	s.mu.Unlock()
	if fail {
		return fmt.Errorf("commit: %w", s.err)
	}
	return s.memStore.InTx(ctx, fn)
}
