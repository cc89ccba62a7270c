package repository

import (
	"cinema-reservation/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Movie       MovieRepository
	Room        RoomRepository
	Seat        SeatRepository
	SeatType    SeatTypeRepository
	Showtime    ShowtimeRepository
	Voucher     VoucherRepository
	Refreshment RefreshmentRepository
	Booking     BookingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Movie:       NewMovieRepository(db, log),
		Room:        NewRoomRepository(db, log),
		Seat:        NewSeatRepository(db, log),
		SeatType:    NewSeatTypeRepository(db, log),
		Showtime:    NewShowtimeRepository(db, log),
		Voucher:     NewVoucherRepository(db, log),
		Refreshment: NewRefreshmentRepository(db, log),
		Booking:     NewBookingRepository(db, log),
	}
}
