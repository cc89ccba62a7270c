package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-reservation/internal/data/cache"
	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/internal/queue"
	"cinema-reservation/internal/reservation"
	"cinema-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Client-facing lifecycle operations
	HoldSeats(ctx context.Context, req *request.HoldSeatsRequest) (*response.HoldSeatsResponse, error)
	CancelHold(ctx context.Context, holdID string) error
	CreatePaymentIntent(ctx context.Context, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error)
	CancelPayment(ctx context.Context, req *request.CancelPaymentRequest) error
	GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)

	// Provider webhook entry point
	HandleProviderCallback(ctx context.Context, req *request.PaymentWebhookRequest) error
}

type bookingService struct {
	repo        *repository.Repository
	inv         *reservation.Inventory
	registry    *reservation.Registry
	coordinator *reservation.Coordinator
	cache       *cache.SeatMapCache
	publisher   queue.Publisher
	loader      *inventoryLoader
	log         *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	inv *reservation.Inventory,
	registry *reservation.Registry,
	coordinator *reservation.Coordinator,
	seatCache *cache.SeatMapCache,
	publisher queue.Publisher,
	loader *inventoryLoader,
	log *zap.Logger,
) BookingService {
	s := &bookingService{
		repo:        repo,
		inv:         inv,
		registry:    registry,
		coordinator: coordinator,
		cache:       seatCache,
		publisher:   publisher,
		loader:      loader,
		log:         log.With(zap.String("service", "booking")),
	}

	// Expiry and cancellation funnel through one cleanup path.
	registry.SetReleaseHook(s.onHoldReleased)

	return s
}

func (s *bookingService) HoldSeats(ctx context.Context, req *request.HoldSeatsRequest) (*response.HoldSeatsResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Hold seats validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	showtimeID, err := uuid.Parse(req.ShowtimeID)
	if err != nil {
		return nil, fmt.Errorf("invalid showtime ID format %s: %w", req.ShowtimeID, err)
	}

	seatIDs := make([]uuid.UUID, len(req.SeatIDs))
	for i, seatIDStr := range req.SeatIDs {
		seatID, err := uuid.Parse(seatIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid seat ID format %s: %w", seatIDStr, err)
		}
		seatIDs[i] = seatID
	}

	// Validate showtime
	showtime, err := s.repo.Showtime.FindByID(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("find showtime: %w", err)
	}
	if showtime == nil {
		return nil, fmt.Errorf("showtime %s: %w", req.ShowtimeID, reservation.ErrNotFound)
	}
	if showtime.StartsAt.Before(time.Now()) {
		return nil, fmt.Errorf("showtime already started: %w", reservation.ErrInvalidState)
	}

	// Validate seats belong to the showtime's room
	roomSeats, err := s.repo.Seat.FindByRoomID(ctx, showtime.RoomID)
	if err != nil {
		return nil, fmt.Errorf("find room seats: %w", err)
	}
	seatByID := make(map[uuid.UUID]*entity.Seat, len(roomSeats))
	for _, seat := range roomSeats {
		seatByID[seat.ID] = seat
	}
	for _, seatID := range seatIDs {
		if _, ok := seatByID[seatID]; !ok {
			return nil, fmt.Errorf("seat %s not in showtime room: %w", seatID, reservation.ErrNotFound)
		}
	}

	// Price the order
	subtotal, err := s.priceSeats(ctx, showtime, seatIDs, seatByID)
	if err != nil {
		return nil, err
	}

	lines, err := s.priceRefreshments(ctx, req.RefreshmentsOption)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}

	total := subtotal
	if req.VoucherCode != "" {
		total, err = s.applyVoucher(ctx, req.VoucherCode, subtotal)
		if err != nil {
			return nil, err
		}
	}

	// Reserve seats and open the hold
	if err := s.loader.ensure(ctx, showtime, roomSeats); err != nil {
		return nil, err
	}

	hold, err := s.registry.Create(reservation.CreateHold{
		ShowtimeID:   showtime.ID,
		SeatIDs:      seatIDs,
		VoucherCode:  req.VoucherCode,
		Refreshments: lines,
		TotalPrice:   total,
	})
	if err != nil {
		var conflict *reservation.ConflictError
		if errors.As(err, &conflict) {
			return nil, s.labelConflict(conflict, seatByID)
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, showtime.ID)

	s.log.Info("Seats held",
		zap.String("hold_id", hold.ID.String()),
		zap.String("showtime_id", showtime.ID.String()),
		zap.Int("seat_count", len(seatIDs)),
		zap.Float64("total_price", total),
	)

	return &response.HoldSeatsResponse{
		BookingID:  hold.ID.String(),
		TotalPrice: hold.TotalPrice,
		ExpiresAt:  hold.ExpiresAt,
		Message:    fmt.Sprintf("Seats held for %d minutes", int(s.registry.TTL().Minutes())),
	}, nil
}

func (s *bookingService) CancelHold(ctx context.Context, holdID string) error {
	id, err := uuid.Parse(holdID)
	if err != nil {
		return fmt.Errorf("invalid hold ID format %s: %w", holdID, err)
	}

	// Seat release, intent cancellation and cache invalidation run in
	// the release hook.
	return s.registry.Cancel(id)
}

func (s *bookingService) CreatePaymentIntent(ctx context.Context, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create payment intent validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	holdID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", req.BookingID, err)
	}

	intent, err := s.coordinator.CreateIntent(ctx, holdID)
	if err != nil {
		return nil, err
	}

	return &response.PaymentIntentResponse{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
	}, nil
}

// CancelPayment cancels the payment intent behind the client secret.
// It does NOT release the seat hold: the user may pick another payment
// method within the TTL window. Hold release is a separate explicit
// action or automatic expiry.
func (s *bookingService) CancelPayment(ctx context.Context, req *request.CancelPaymentRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	return s.coordinator.CancelIntentBySecret(ctx, req.ClientSecret)
}

// GetBooking looks up a persisted booking, the confirmation page data.
func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", bookingID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, reservation.ErrNotFound)
	}

	seatIDs, err := s.repo.Booking.FindSeatIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking seats: %w", err)
	}
	seats, err := s.repo.Seat.FindByIDs(ctx, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("find seats: %w", err)
	}
	labels := make([]string, len(seats))
	for i, seat := range seats {
		labels[i] = seat.Label
	}

	return &response.BookingResponse{
		ID:         booking.ID.String(),
		Code:       booking.Code,
		ShowtimeID: booking.ShowtimeID.String(),
		SeatLabels: labels,
		TotalPrice: booking.TotalPrice,
		CreatedAt:  booking.CreatedAt,
	}, nil
}

func (s *bookingService) HandleProviderCallback(ctx context.Context, req *request.PaymentWebhookRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	hold, err := s.coordinator.HandleCallback(ctx, req.IntentID, req.Outcome)
	if err != nil {
		if errors.Is(err, reservation.ErrReconciliationRequired) {
			s.escalateReconciliation(ctx, req.IntentID, err)
			// Acknowledged towards the provider; operators take over.
			return nil
		}
		return err
	}

	// Zero hold means the callback settled nothing new (failure or
	// duplicate delivery).
	if hold.ID == uuid.Nil {
		return nil
	}

	return s.createBooking(ctx, hold)
}

// ==================== INTERNAL ====================

func (s *bookingService) createBooking(ctx context.Context, hold entity.Hold) error {
	existing, err := s.repo.Booking.FindByHoldID(ctx, hold.ID)
	if err != nil {
		return fmt.Errorf("find booking for hold: %w", err)
	}
	if existing != nil {
		// Redelivered callback; the booking already landed.
		s.log.Info("Booking already persisted for hold",
			zap.String("hold_id", hold.ID.String()),
			zap.String("booking_id", existing.ID.String()),
		)
		return nil
	}

	now := time.Now()
	booking := &entity.Booking{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		Code:       utils.GenerateBookingCode(),
		HoldID:     hold.ID,
		ShowtimeID: hold.ShowtimeID,
		TotalSeats: len(hold.SeatIDs),
		TotalPrice: hold.TotalPrice,
	}

	if err := s.repo.Booking.Create(ctx, booking, hold.SeatIDs); err != nil {
		s.log.Error("Failed to persist booking for confirmed hold",
			zap.Error(err),
			zap.String("hold_id", hold.ID.String()),
		)
		return fmt.Errorf("create booking: %w", err)
	}

	s.cache.Invalidate(ctx, hold.ShowtimeID)

	event := queue.HoldConfirmedEvent{
		BookingID:   booking.ID.String(),
		BookingCode: booking.Code,
		HoldID:      hold.ID.String(),
		ShowtimeID:  hold.ShowtimeID.String(),
		SeatIDs:     seatIDStrings(hold.SeatIDs),
		TotalPrice:  hold.TotalPrice,
		ConfirmedAt: now,
	}
	// Enrich best-effort so the confirmation e-mail consumer does not
	// need catalog access. The event goes out either way.
	if showtime, err := s.repo.Showtime.FindByID(ctx, hold.ShowtimeID); err == nil && showtime != nil {
		event.StartsAt = showtime.StartsAt
		if movie, err := s.repo.Movie.FindByID(ctx, showtime.MovieID); err == nil && movie != nil {
			event.MovieTitle = movie.Title
		}
	}
	if err := s.publisher.Publish(ctx, queue.QueueHoldConfirmed, event); err != nil {
		s.log.Warn("Failed to publish hold confirmed event", zap.Error(err))
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_code", booking.Code),
		zap.String("hold_id", hold.ID.String()),
		zap.Int("seat_count", booking.TotalSeats),
		zap.Float64("total_price", booking.TotalPrice),
	)
	return nil
}

// onHoldReleased runs whenever a hold leaves the active state without
// confirmation, from the expiry timer or an explicit cancel.
func (s *bookingService) onHoldReleased(hold entity.Hold, reason entity.HoldStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.coordinator.CancelPendingForHold(ctx, hold.ID)
	s.cache.Invalidate(ctx, hold.ShowtimeID)

	if reason == entity.HoldStatusExpired {
		event := queue.HoldExpiredEvent{
			HoldID:     hold.ID.String(),
			ShowtimeID: hold.ShowtimeID.String(),
			SeatIDs:    seatIDStrings(hold.SeatIDs),
			ExpiredAt:  hold.ExpiresAt,
		}
		if err := s.publisher.Publish(ctx, queue.QueueHoldExpired, event); err != nil {
			s.log.Warn("Failed to publish hold expired event", zap.Error(err))
		}
	}
}

// escalateReconciliation makes sure a payment success that arrived
// after its hold was released reaches an operator.
func (s *bookingService) escalateReconciliation(ctx context.Context, intentID string, cause error) {
	var holdID, showtimeID string
	var amount float64
	if intent, err := s.coordinator.Intent(intentID); err == nil {
		holdID = intent.HoldID.String()
		amount = intent.Amount
		if hold, err := s.registry.Get(intent.HoldID); err == nil {
			showtimeID = hold.ShowtimeID.String()
		}
	}

	s.log.Error("Payment reconciliation required",
		zap.String("intent_id", intentID),
		zap.String("hold_id", holdID),
		zap.Float64("amount", amount),
		zap.Error(cause),
	)

	event := queue.ReconciliationEvent{
		IntentID:   intentID,
		HoldID:     holdID,
		ShowtimeID: showtimeID,
		Amount:     amount,
		Reason:     cause.Error(),
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, queue.QueueReconciliation, event); err != nil {
		// The log line above is then the only trace; loud on purpose.
		s.log.Error("Failed to publish reconciliation event", zap.Error(err))
	}
}

func (s *bookingService) priceSeats(ctx context.Context, showtime *entity.Showtime, seatIDs []uuid.UUID, seatByID map[uuid.UUID]*entity.Seat) (float64, error) {
	typeIDs := make([]uuid.UUID, 0, len(seatIDs))
	seen := make(map[uuid.UUID]struct{})
	for _, seatID := range seatIDs {
		typeID := seatByID[seatID].SeatTypeID
		if _, ok := seen[typeID]; !ok {
			seen[typeID] = struct{}{}
			typeIDs = append(typeIDs, typeID)
		}
	}

	types, err := s.repo.SeatType.FindByIDs(ctx, typeIDs)
	if err != nil {
		return 0, fmt.Errorf("find seat types: %w", err)
	}
	priceByType := make(map[uuid.UUID]float64, len(types))
	for _, st := range types {
		priceByType[st.ID] = st.Price
	}

	var subtotal float64
	for _, seatID := range seatIDs {
		typePrice, ok := priceByType[seatByID[seatID].SeatTypeID]
		if !ok {
			return 0, fmt.Errorf("seat type for seat %s: %w", seatID, reservation.ErrNotFound)
		}
		// Seat price = showtime base + seat type premium
		subtotal += showtime.BasePrice + typePrice
	}
	return subtotal, nil
}

func (s *bookingService) priceRefreshments(ctx context.Context, options []request.RefreshmentOption) ([]entity.RefreshmentLine, error) {
	if len(options) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(options))
	for i, option := range options {
		id, err := uuid.Parse(option.RefreshmentID)
		if err != nil {
			return nil, fmt.Errorf("invalid refreshment ID format %s: %w", option.RefreshmentID, err)
		}
		ids[i] = id
	}

	refreshments, err := s.repo.Refreshment.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find refreshments: %w", err)
	}
	byID := make(map[uuid.UUID]*entity.Refreshment, len(refreshments))
	for _, r := range refreshments {
		byID[r.ID] = r
	}

	lines := make([]entity.RefreshmentLine, 0, len(options))
	for i, option := range options {
		refreshment, ok := byID[ids[i]]
		if !ok {
			return nil, fmt.Errorf("refreshment %s: %w", option.RefreshmentID, reservation.ErrNotFound)
		}
		if !refreshment.IsCurrent {
			return nil, fmt.Errorf("refreshment %s no longer offered: %w", refreshment.Name, reservation.ErrInvalidState)
		}
		lines = append(lines, entity.RefreshmentLine{
			RefreshmentID: refreshment.ID,
			Name:          refreshment.Name,
			Quantity:      option.Quantity,
			UnitPrice:     refreshment.Price,
		})
	}
	return lines, nil
}

func (s *bookingService) applyVoucher(ctx context.Context, code string, subtotal float64) (float64, error) {
	voucher, err := s.repo.Voucher.FindByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("find voucher: %w", err)
	}
	if voucher == nil || !voucher.IsActive {
		return 0, fmt.Errorf("voucher %s: %w", code, reservation.ErrNotFound)
	}
	if voucher.MinimumOrderValue != nil && subtotal < *voucher.MinimumOrderValue {
		return 0, fmt.Errorf("order total below voucher minimum %.2f: %w",
			*voucher.MinimumOrderValue, reservation.ErrInvalidState)
	}

	var discount float64
	switch {
	case voucher.DiscountPercent != nil:
		discount = subtotal * *voucher.DiscountPercent / 100
		if voucher.MaxDiscountValue != nil && discount > *voucher.MaxDiscountValue {
			discount = *voucher.MaxDiscountValue
		}
	case voucher.DiscountValue != nil:
		discount = *voucher.DiscountValue
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}
	return total, nil
}

// labelConflict rewrites seat UUIDs in a conflict to the labels the
// frontend shows (A1, B2, ...).
func (s *bookingService) labelConflict(conflict *reservation.ConflictError, seatByID map[uuid.UUID]*entity.Seat) error {
	labels := make([]string, len(conflict.Seats))
	for i, raw := range conflict.Seats {
		labels[i] = raw
		if id, err := uuid.Parse(raw); err == nil {
			if seat, ok := seatByID[id]; ok {
				labels[i] = seat.Label
			}
		}
	}
	return &reservation.ConflictError{ShowtimeID: conflict.ShowtimeID, Seats: labels}
}

func seatIDStrings(seatIDs []uuid.UUID) []string {
	out := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		out[i] = id.String()
	}
	return out
}
