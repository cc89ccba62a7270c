package usecase

import (
	"context"
	"fmt"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/reservation"

	"github.com/google/uuid"
)

// inventoryLoader seeds the in-process seat inventory of a showtime on
// first touch: all room seats free except the ones already sold in
// persisted bookings.
type inventoryLoader struct {
	repo *repository.Repository
	inv  *reservation.Inventory
}

func (l *inventoryLoader) ensure(ctx context.Context, showtime *entity.Showtime, seats []*entity.Seat) error {
	if l.inv.Loaded(showtime.ID) {
		return nil
	}

	booked, err := l.repo.Booking.FindBookedSeatIDs(ctx, showtime.ID)
	if err != nil {
		return fmt.Errorf("load booked seats: %w", err)
	}

	seatIDs := make([]uuid.UUID, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.ID
	}

	l.inv.Load(showtime.ID, seatIDs, booked)
	return nil
}
