package entity

import "github.com/google/uuid"

// Booking is the terminal artifact produced when a hold is confirmed.
// Immutable thereafter.
type Booking struct {
	BaseSimple
	Code       string    `db:"code"`
	HoldID     uuid.UUID `db:"hold_id"`
	ShowtimeID uuid.UUID `db:"showtime_id"`
	TotalSeats int       `db:"total_seats"`
	TotalPrice float64   `db:"total_price"`
}

type BookingSeat struct {
	BaseSimple
	BookingID uuid.UUID `db:"booking_id"`
	SeatID    uuid.UUID `db:"seat_id"`
}
