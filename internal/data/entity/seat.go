package entity

import "github.com/google/uuid"

type SeatType struct {
	Base
	Name  string  `db:"name"`  // Standard, VIP, Couple, etc.
	Price float64 `db:"price"` // price per seat of this type
	Color string  `db:"color"` // hex color used by the seat picker
}

type Seat struct {
	Base
	RoomID     uuid.UUID `db:"room_id"`
	SeatTypeID uuid.UUID `db:"seat_type_id"`
	Label      string    `db:"label"`      // A1, A2, B1, etc.
	SeatRow    string    `db:"seat_row"`   // A, B, C, etc.
	SeatColumn int       `db:"seat_column"` // 1, 2, 3, etc.
}
