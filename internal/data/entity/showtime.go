package entity

import (
	"time"

	"github.com/google/uuid"
)

// Showtime is immutable once scheduled; scheduling itself is handled
// by a separate back-office system.
type Showtime struct {
	Base
	MovieID   uuid.UUID `db:"movie_id"`
	RoomID    uuid.UUID `db:"room_id"`
	StartsAt  time.Time `db:"starts_at"`
	BasePrice float64   `db:"base_price"`
}
