package repository

import (
	"context"
	"fmt"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	// Create persists the booking and its seats in one transaction.
	Create(ctx context.Context, booking *entity.Booking, seatIDs []uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// FindByHoldID returns the booking written for a hold, if any.
	// Holds map to at most one booking, which makes the provider
	// callback safe to replay.
	FindByHoldID(ctx context.Context, holdID uuid.UUID) (*entity.Booking, error)
	FindSeatIDs(ctx context.Context, bookingID uuid.UUID) ([]uuid.UUID, error)
	// FindBookedSeatIDs returns the seat IDs already sold for a
	// showtime, used to seed the in-process inventory on first touch.
	FindBookedSeatIDs(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking, seatIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertBooking := `
		INSERT INTO bookings (id, code, hold_id, showtime_id, total_seats, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.Exec(ctx, insertBooking,
		booking.ID,
		booking.Code,
		booking.HoldID,
		booking.ShowtimeID,
		booking.TotalSeats,
		booking.TotalPrice,
		booking.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("failed to create booking: %w", err)
	}

	insertSeat := `
		INSERT INTO booking_seats (id, booking_id, seat_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	for _, seatID := range seatIDs {
		_, err = tx.Exec(ctx, insertSeat, uuid.New(), booking.ID, seatID, booking.CreatedAt)
		if err != nil {
			r.log.Error("Failed to insert booking seat",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
				zap.String("seat_id", seatID.String()),
			)
			return fmt.Errorf("failed to create booking seats: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking transaction: %w", err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `
		SELECT id, code, hold_id, showtime_id, total_seats, total_price, created_at
		FROM bookings
		WHERE id = $1
	`

	var booking entity.Booking
	err := r.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.Code,
		&booking.HoldID,
		&booking.ShowtimeID,
		&booking.TotalSeats,
		&booking.TotalPrice,
		&booking.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindByHoldID(ctx context.Context, holdID uuid.UUID) (*entity.Booking, error) {
	query := `
		SELECT id, code, hold_id, showtime_id, total_seats, total_price, created_at
		FROM bookings
		WHERE hold_id = $1
	`

	var booking entity.Booking
	err := r.db.QueryRow(ctx, query, holdID).Scan(
		&booking.ID,
		&booking.Code,
		&booking.HoldID,
		&booking.ShowtimeID,
		&booking.TotalSeats,
		&booking.TotalPrice,
		&booking.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by hold ID",
			zap.Error(err),
			zap.String("hold_id", holdID.String()),
		)
		return nil, fmt.Errorf("failed to find booking by hold: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindSeatIDs(ctx context.Context, bookingID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT seat_id
		FROM booking_seats
		WHERE booking_id = $1
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking seats",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("failed to find booking seats: %w", err)
	}
	defer rows.Close()

	var seatIDs []uuid.UUID
	for rows.Next() {
		var seatID uuid.UUID
		if err := rows.Scan(&seatID); err != nil {
			r.log.Error("Failed to scan booking seat row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan booking seat: %w", err)
		}
		seatIDs = append(seatIDs, seatID)
	}

	return seatIDs, nil
}

func (r *bookingRepository) FindBookedSeatIDs(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT bs.seat_id
		FROM booking_seats bs
		JOIN bookings b ON b.id = bs.booking_id
		WHERE b.showtime_id = $1
	`

	rows, err := r.db.Query(ctx, query, showtimeID)
	if err != nil {
		r.log.Error("Failed to find booked seats",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return nil, fmt.Errorf("failed to find booked seats: %w", err)
	}
	defer rows.Close()

	var seatIDs []uuid.UUID
	for rows.Next() {
		var seatID uuid.UUID
		if err := rows.Scan(&seatID); err != nil {
			r.log.Error("Failed to scan booked seat row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan booked seat: %w", err)
		}
		seatIDs = append(seatIDs, seatID)
	}

	return seatIDs, nil
}
