package entity

import (
	"time"

	"github.com/google/uuid"
)

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusConfirmed HoldStatus = "confirmed"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusCancelled HoldStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed out of the status.
func (s HoldStatus) Terminal() bool {
	return s != HoldStatusActive
}

// RefreshmentLine is one refreshment order line attached to a hold,
// priced at the catalog price current when the hold was created.
type RefreshmentLine struct {
	RefreshmentID uuid.UUID
	Name          string
	Quantity      int
	UnitPrice     float64
}

// Hold is a time-bounded reservation of specific seats for a showtime.
// Holds live in the reservation engine, not in the database; only the
// terminal Booking artifact is persisted.
type Hold struct {
	ID           uuid.UUID
	ShowtimeID   uuid.UUID
	SeatIDs      []uuid.UUID
	VoucherCode  string
	Refreshments []RefreshmentLine
	TotalPrice   float64
	Status       HoldStatus
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
