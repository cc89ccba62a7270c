package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cinema-reservation/internal/data/cache"
	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/queue"
	"cinema-reservation/internal/reservation"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ==================== FAKES ====================

type fakeMovieRepo struct {
	movies map[uuid.UUID]*entity.Movie
}

func (f *fakeMovieRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Movie, error) {
	return f.movies[id], nil
}

type fakeShowtimeRepo struct {
	showtimes map[uuid.UUID]*entity.Showtime
}

func (f *fakeShowtimeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error) {
	return f.showtimes[id], nil
}

type fakeRoomRepo struct {
	rooms map[uuid.UUID]*entity.Room
}

func (f *fakeRoomRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	return f.rooms[id], nil
}

type fakeSeatRepo struct {
	seats []*entity.Seat
}

func (f *fakeSeatRepo) FindByRoomID(ctx context.Context, roomID uuid.UUID) ([]*entity.Seat, error) {
	var out []*entity.Seat
	for _, seat := range f.seats {
		if seat.RoomID == roomID {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (f *fakeSeatRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	var out []*entity.Seat
	for _, seat := range f.seats {
		for _, id := range ids {
			if seat.ID == id {
				out = append(out, seat)
			}
		}
	}
	return out, nil
}

type fakeSeatTypeRepo struct {
	types []*entity.SeatType
}

func (f *fakeSeatTypeRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.SeatType, error) {
	var out []*entity.SeatType
	for _, st := range f.types {
		for _, id := range ids {
			if st.ID == id {
				out = append(out, st)
			}
		}
	}
	return out, nil
}

func (f *fakeSeatTypeRepo) FindByRoomID(ctx context.Context, roomID uuid.UUID) ([]*entity.SeatType, error) {
	return f.types, nil
}

type fakeVoucherRepo struct {
	vouchers map[string]*entity.Voucher
}

func (f *fakeVoucherRepo) FindByCode(ctx context.Context, code string) (*entity.Voucher, error) {
	return f.vouchers[code], nil
}

func (f *fakeVoucherRepo) FindAllActive(ctx context.Context) ([]*entity.Voucher, error) {
	var out []*entity.Voucher
	for _, v := range f.vouchers {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeRefreshmentRepo struct {
	refreshments map[uuid.UUID]*entity.Refreshment
}

func (f *fakeRefreshmentRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Refreshment, error) {
	var out []*entity.Refreshment
	for _, id := range ids {
		if r, ok := f.refreshments[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRefreshmentRepo) FindAllCurrent(ctx context.Context) ([]*entity.Refreshment, error) {
	var out []*entity.Refreshment
	for _, r := range f.refreshments {
		if r.IsCurrent {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	created  []*entity.Booking
	seatsFor map[uuid.UUID][]uuid.UUID
	booked   []uuid.UUID
	failNext error
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking, seatIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.created = append(f.created, booking)
	if f.seatsFor == nil {
		f.seatsFor = make(map[uuid.UUID][]uuid.UUID)
	}
	f.seatsFor[booking.ID] = append([]uuid.UUID(nil), seatIDs...)
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.created {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) FindByHoldID(ctx context.Context, holdID uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.created {
		if b.HoldID == holdID {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) FindSeatIDs(ctx context.Context, bookingID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.seatsFor[bookingID]...), nil
}

func (f *fakeBookingRepo) FindBookedSeatIDs(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.booked...), nil
}

func (f *fakeBookingRepo) bookings() []*entity.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.Booking(nil), f.created...)
}

type publishedEvent struct {
	queue string
	event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{queue: queueName, event: event})
	return nil
}

func (f *fakePublisher) published(queueName string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, e := range f.events {
		if e.queue == queueName {
			out = append(out, e.event)
		}
	}
	return out
}

// fakeClock and holdTTL mirror the reservation package tests.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	fireAt  time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) reservation.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clock: c, fireAt: c.now.Add(d), f: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired && !c.now.Before(timer.fireAt) {
			timer.fired = true
			due = append(due, timer)
		}
	}
	c.mu.Unlock()

	for _, timer := range due {
		timer.f()
	}
}

// ==================== FIXTURE ====================

const holdTTL = 5 * time.Minute

type bookingFixture struct {
	service     BookingService
	registry    *reservation.Registry
	coordinator *reservation.Coordinator
	inv         *reservation.Inventory
	clock       *fakeClock
	bookingRepo *fakeBookingRepo
	publisher   *fakePublisher

	showtime *entity.Showtime
	seats    []*entity.Seat
	seatType *entity.SeatType
	voucher  *entity.Voucher
	popcorn  *entity.Refreshment
}

// Three standard seats at 10.00 each: base price 8.00 plus a 2.00
// seat type premium.
func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	roomID := uuid.New()
	seatType := &entity.SeatType{Name: "Standard", Price: 2}
	seatType.ID = uuid.New()

	seats := make([]*entity.Seat, 3)
	labels := []string{"A1", "A2", "A3"}
	for i := range seats {
		seats[i] = &entity.Seat{
			RoomID:     roomID,
			SeatTypeID: seatType.ID,
			Label:      labels[i],
			SeatRow:    "A",
			SeatColumn: i + 1,
		}
		seats[i].ID = uuid.New()
	}

	movie := &entity.Movie{Title: "Interstellar", DurationMinutes: 169}
	movie.ID = uuid.New()

	showtime := &entity.Showtime{
		MovieID:   movie.ID,
		RoomID:    roomID,
		StartsAt:  time.Now().Add(2 * time.Hour),
		BasePrice: 8,
	}
	showtime.ID = uuid.New()

	voucher := &entity.Voucher{
		Name:            "Summer sale",
		Code:            "SUMMER10",
		DiscountPercent: ptr(10.0),
		IsActive:        true,
	}
	voucher.ID = uuid.New()

	popcorn := &entity.Refreshment{Name: "Popcorn", Price: 5, IsCurrent: true}
	popcorn.ID = uuid.New()

	f := &bookingFixture{
		clock:       newFakeClock(),
		bookingRepo: &fakeBookingRepo{},
		publisher:   &fakePublisher{},
		showtime:    showtime,
		seats:       seats,
		seatType:    seatType,
		voucher:     voucher,
		popcorn:     popcorn,
	}

	repo := &repository.Repository{
		Movie:       &fakeMovieRepo{movies: map[uuid.UUID]*entity.Movie{movie.ID: movie}},
		Showtime:    &fakeShowtimeRepo{showtimes: map[uuid.UUID]*entity.Showtime{showtime.ID: showtime}},
		Room:        &fakeRoomRepo{rooms: map[uuid.UUID]*entity.Room{roomID: {Name: "Room 1"}}},
		Seat:        &fakeSeatRepo{seats: seats},
		SeatType:    &fakeSeatTypeRepo{types: []*entity.SeatType{seatType}},
		Voucher:     &fakeVoucherRepo{vouchers: map[string]*entity.Voucher{voucher.Code: voucher}},
		Refreshment: &fakeRefreshmentRepo{refreshments: map[uuid.UUID]*entity.Refreshment{popcorn.ID: popcorn}},
		Booking:     f.bookingRepo,
	}

	rdb, _ := redismock.NewClientMock()
	seatCache := cache.NewSeatMapCache(rdb, time.Minute, zap.NewNop())

	f.inv = reservation.NewInventory(zap.NewNop())
	f.registry = reservation.NewRegistry(f.inv, f.clock, holdTTL, zap.NewNop())
	f.coordinator = reservation.NewCoordinator(
		reservation.NewSimulatedProvider(), f.registry, time.Second, f.clock, zap.NewNop())

	loader := &inventoryLoader{repo: repo, inv: f.inv}
	f.service = NewBookingService(
		repo, f.inv, f.registry, f.coordinator, seatCache, f.publisher, loader, zap.NewNop())

	return f
}

func ptr(v float64) *float64 { return &v }

func (f *bookingFixture) seatIDStrs(idx ...int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = f.seats[j].ID.String()
	}
	return out
}

func (f *bookingFixture) holdAllSeats(t *testing.T) string {
	t.Helper()
	resp, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID: f.showtime.ID.String(),
		SeatIDs:    f.seatIDStrs(0, 1, 2),
	})
	require.NoError(t, err)
	return resp.BookingID
}

// ==================== TESTS ====================

func TestHoldSeats_PricesSeatsFromBaseAndType(t *testing.T) {
	f := newBookingFixture(t)

	resp, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID: f.showtime.ID.String(),
		SeatIDs:    f.seatIDStrs(0, 1, 2),
	})
	require.NoError(t, err)

	// 3 x (8.00 + 2.00)
	assert.Equal(t, 30.0, resp.TotalPrice)
	assert.Contains(t, resp.Message, "5 minutes")

	holdID, err := uuid.Parse(resp.BookingID)
	require.NoError(t, err)
	hold, err := f.registry.Get(holdID)
	require.NoError(t, err)
	assert.Equal(t, entity.HoldStatusActive, hold.Status)
	assert.Equal(t, resp.ExpiresAt, hold.ExpiresAt)
}

func TestHoldSeats_ConflictReportsSeatLabels(t *testing.T) {
	f := newBookingFixture(t)

	f.holdAllSeats(t)

	_, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID: f.showtime.ID.String(),
		SeatIDs:    f.seatIDStrs(0, 1),
	})
	require.Error(t, err)

	var conflict *reservation.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ElementsMatch(t, []string{"A1", "A2"}, conflict.Seats)
}

func TestHoldSeats_UnknownShowtime(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID: uuid.New().String(),
		SeatIDs:    f.seatIDStrs(0),
	})
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestHoldSeats_SeatOutsideRoom(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID: f.showtime.ID.String(),
		SeatIDs:    []string{uuid.New().String()},
	})
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestHoldSeats_ValidationFailure(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID: f.showtime.ID.String(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestHoldSeats_AppliesPercentVoucher(t *testing.T) {
	f := newBookingFixture(t)

	resp, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID:  f.showtime.ID.String(),
		SeatIDs:     f.seatIDStrs(0, 1, 2),
		VoucherCode: "SUMMER10",
	})
	require.NoError(t, err)

	// 30.00 minus 10%
	assert.Equal(t, 27.0, resp.TotalPrice)
}

func TestHoldSeats_VoucherDiscountIsCapped(t *testing.T) {
	f := newBookingFixture(t)
	f.voucher.MaxDiscountValue = ptr(2.0)

	resp, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID:  f.showtime.ID.String(),
		SeatIDs:     f.seatIDStrs(0, 1, 2),
		VoucherCode: "SUMMER10",
	})
	require.NoError(t, err)

	// 10% of 30.00 is 3.00 but the cap is 2.00.
	assert.Equal(t, 28.0, resp.TotalPrice)
}

func TestHoldSeats_VoucherBelowMinimumOrder(t *testing.T) {
	f := newBookingFixture(t)
	f.voucher.MinimumOrderValue = ptr(50.0)

	_, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID:  f.showtime.ID.String(),
		SeatIDs:     f.seatIDStrs(0, 1, 2),
		VoucherCode: "SUMMER10",
	})
	assert.ErrorIs(t, err, reservation.ErrInvalidState)
}

func TestHoldSeats_UnknownVoucher(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID:  f.showtime.ID.String(),
		SeatIDs:     f.seatIDStrs(0),
		VoucherCode: "NOPE",
	})
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestHoldSeats_IncludesRefreshments(t *testing.T) {
	f := newBookingFixture(t)

	resp, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID: f.showtime.ID.String(),
		SeatIDs:    f.seatIDStrs(0),
		RefreshmentsOption: []request.RefreshmentOption{
			{RefreshmentID: f.popcorn.ID.String(), Quantity: 2},
		},
	})
	require.NoError(t, err)

	// 10.00 seat plus 2 x 5.00 popcorn.
	assert.Equal(t, 20.0, resp.TotalPrice)
}

func TestHoldSeats_RejectsDiscontinuedRefreshment(t *testing.T) {
	f := newBookingFixture(t)
	f.popcorn.IsCurrent = false

	_, err := f.service.HoldSeats(context.Background(), &request.HoldSeatsRequest{
		ShowtimeID: f.showtime.ID.String(),
		SeatIDs:    f.seatIDStrs(0),
		RefreshmentsOption: []request.RefreshmentOption{
			{RefreshmentID: f.popcorn.ID.String(), Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, reservation.ErrInvalidState)
}

func TestPaymentFlow_SuccessCreatesBooking(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)

	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, intent.Amount)
	assert.NotEmpty(t, intent.ClientSecret)

	err = f.service.HandleProviderCallback(context.Background(), &request.PaymentWebhookRequest{
		IntentID: intent.IntentID,
		Outcome:  "succeeded",
	})
	require.NoError(t, err)

	bookings := f.bookingRepo.bookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, 30.0, bookings[0].TotalPrice)
	assert.Equal(t, 3, bookings[0].TotalSeats)
	assert.NotEmpty(t, bookings[0].Code)

	confirmed := f.publisher.published("hold.confirmed")
	require.Len(t, confirmed, 1)
	event, ok := confirmed[0].(queue.HoldConfirmedEvent)
	require.True(t, ok)
	assert.Equal(t, "Interstellar", event.MovieTitle)
	assert.Equal(t, bookings[0].Code, event.BookingCode)
}

func TestPaymentFlow_FailureLeavesHoldActiveForRetry(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)

	err = f.service.HandleProviderCallback(context.Background(), &request.PaymentWebhookRequest{
		IntentID: intent.IntentID,
		Outcome:  "failed",
	})
	require.NoError(t, err)

	assert.Empty(t, f.bookingRepo.bookings())

	// The hold survives for another attempt with a new intent.
	retry, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, intent.IntentID, retry.IntentID)
}

func TestPaymentFlow_LateSuccessPublishesReconciliation(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)

	f.clock.Advance(holdTTL)

	// The webhook is acked; operators are alerted instead.
	err = f.service.HandleProviderCallback(context.Background(), &request.PaymentWebhookRequest{
		IntentID: intent.IntentID,
		Outcome:  "succeeded",
	})
	require.NoError(t, err)

	assert.Empty(t, f.bookingRepo.bookings())
	require.Len(t, f.publisher.published("payment.reconciliation"), 1)
}

func TestHoldExpiry_PublishesEventAndCancelsIntent(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)

	f.clock.Advance(holdTTL)

	assert.Len(t, f.publisher.published("hold.expired"), 1)

	got, err := f.coordinator.Intent(intent.IntentID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentIntentCancelled, got.Status)
}

func TestCancelHold_FreesSeats(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	require.NoError(t, f.service.CancelHold(context.Background(), bookingID))

	states, err := f.inv.States(f.showtime.ID)
	require.NoError(t, err)
	for _, seat := range f.seats {
		assert.Equal(t, reservation.SeatFree, states[seat.ID])
	}

	// Cancellation is not expiry; no expiry event goes out.
	assert.Empty(t, f.publisher.published("hold.expired"))
}

func TestCancelPayment_KeepsHoldActive(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)

	err = f.service.CancelPayment(context.Background(), &request.CancelPaymentRequest{
		ClientSecret: intent.ClientSecret,
	})
	require.NoError(t, err)

	holdID, _ := uuid.Parse(bookingID)
	hold, err := f.registry.Get(holdID)
	require.NoError(t, err)
	assert.Equal(t, entity.HoldStatusActive, hold.Status)

	states, _ := f.inv.States(f.showtime.ID)
	assert.Equal(t, reservation.SeatHeld, states[f.seats[0].ID])
}

func TestGetBooking_AfterConfirmation(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)
	require.NoError(t, f.service.HandleProviderCallback(context.Background(), &request.PaymentWebhookRequest{
		IntentID: intent.IntentID,
		Outcome:  "succeeded",
	}))

	created := f.bookingRepo.bookings()
	require.Len(t, created, 1)

	resp, err := f.service.GetBooking(context.Background(), created[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, created[0].Code, resp.Code)
	assert.Equal(t, 30.0, resp.TotalPrice)
	assert.ElementsMatch(t, []string{"A1", "A2", "A3"}, resp.SeatLabels)
}

func TestGetBooking_Unknown(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.GetBooking(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestHandleProviderCallback_PersistFailureIsRetriable(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)

	f.bookingRepo.failNext = errors.New("connection reset")

	err = f.service.HandleProviderCallback(context.Background(), &request.PaymentWebhookRequest{
		IntentID: intent.IntentID,
		Outcome:  "succeeded",
	})
	assert.Error(t, err)
}

func TestHandleProviderCallback_RedeliveryAfterPersistFailureWritesBooking(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)

	callback := &request.PaymentWebhookRequest{
		IntentID: intent.IntentID,
		Outcome:  "succeeded",
	}

	// First delivery confirms the hold but the booking write fails, so
	// the provider gets a non-2xx and redelivers.
	f.bookingRepo.failNext = errors.New("connection reset")
	require.Error(t, f.service.HandleProviderCallback(context.Background(), callback))
	require.Empty(t, f.bookingRepo.bookings())

	// The redelivery writes the booking instead of acking an empty one.
	require.NoError(t, f.service.HandleProviderCallback(context.Background(), callback))

	created := f.bookingRepo.bookings()
	require.Len(t, created, 1)
	assert.Equal(t, bookingID, created[0].HoldID.String())
	assert.Len(t, f.publisher.published("hold.confirmed"), 1)
}

func TestHandleProviderCallback_RedeliveryDoesNotDuplicateBooking(t *testing.T) {
	f := newBookingFixture(t)

	bookingID := f.holdAllSeats(t)
	intent, err := f.service.CreatePaymentIntent(context.Background(), &request.CreatePaymentIntentRequest{
		BookingID: bookingID,
	})
	require.NoError(t, err)

	callback := &request.PaymentWebhookRequest{
		IntentID: intent.IntentID,
		Outcome:  "succeeded",
	}
	require.NoError(t, f.service.HandleProviderCallback(context.Background(), callback))
	require.NoError(t, f.service.HandleProviderCallback(context.Background(), callback))

	assert.Len(t, f.bookingRepo.bookings(), 1)
	assert.Len(t, f.publisher.published("hold.confirmed"), 1)
}
