package reservation_test

import (
	"errors"
	"sync"
	"testing"

	"cinema-reservation/internal/reservation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newInventory(t *testing.T, showtimeID uuid.UUID, seatIDs, bookedIDs []uuid.UUID) *reservation.Inventory {
	t.Helper()
	inv := reservation.NewInventory(zap.NewNop())
	inv.Load(showtimeID, seatIDs, bookedIDs)
	return inv
}

func newSeatIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestReserve_Success(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(4)
	inv := newInventory(t, showtimeID, seats, nil)

	holdID := uuid.New()
	err := inv.Reserve(showtimeID, holdID, seats[:2])
	require.NoError(t, err)

	states, err := inv.States(showtimeID)
	require.NoError(t, err)
	assert.Equal(t, reservation.SeatHeld, states[seats[0]])
	assert.Equal(t, reservation.SeatHeld, states[seats[1]])
	assert.Equal(t, reservation.SeatFree, states[seats[2]])
}

func TestReserve_AllOrNothing(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(3)
	inv := newInventory(t, showtimeID, seats, nil)

	firstHold := uuid.New()
	require.NoError(t, inv.Reserve(showtimeID, firstHold, seats[:1]))

	// Overlaps with the first hold on seats[0]; seats[1] and seats[2]
	// must stay free even though they were available.
	err := inv.Reserve(showtimeID, uuid.New(), seats)
	require.Error(t, err)

	var conflict *reservation.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{seats[0].String()}, conflict.Seats)

	states, err := inv.States(showtimeID)
	require.NoError(t, err)
	assert.Equal(t, reservation.SeatFree, states[seats[1]])
	assert.Equal(t, reservation.SeatFree, states[seats[2]])
}

func TestReserve_ConflictNamesEveryUnavailableSeat(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(3)
	inv := newInventory(t, showtimeID, seats, []uuid.UUID{seats[1]})

	require.NoError(t, inv.Reserve(showtimeID, uuid.New(), seats[:1]))

	err := inv.Reserve(showtimeID, uuid.New(), seats)
	var conflict *reservation.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Len(t, conflict.Seats, 2)
	assert.Contains(t, conflict.Seats, seats[0].String())
	assert.Contains(t, conflict.Seats, seats[1].String())
}

func TestReserve_UnknownSeat(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(2)
	inv := newInventory(t, showtimeID, seats, nil)

	err := inv.Reserve(showtimeID, uuid.New(), []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestReserve_UnknownShowtime(t *testing.T) {
	inv := reservation.NewInventory(zap.NewNop())

	err := inv.Reserve(uuid.New(), uuid.New(), newSeatIDs(1))
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestRelease_Idempotent(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(2)
	inv := newInventory(t, showtimeID, seats, nil)

	holdID := uuid.New()
	require.NoError(t, inv.Reserve(showtimeID, holdID, seats))

	inv.Release(showtimeID, holdID, seats)
	inv.Release(showtimeID, holdID, seats)

	states, err := inv.States(showtimeID)
	require.NoError(t, err)
	assert.Equal(t, reservation.SeatFree, states[seats[0]])
	assert.Equal(t, reservation.SeatFree, states[seats[1]])
}

func TestRelease_DoesNotFreeOtherHoldsSeats(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(1)
	inv := newInventory(t, showtimeID, seats, nil)

	firstHold := uuid.New()
	require.NoError(t, inv.Reserve(showtimeID, firstHold, seats))
	inv.Release(showtimeID, firstHold, seats)

	// The seat is re-reserved by another hold; a duplicate release of
	// the first hold must not free it.
	secondHold := uuid.New()
	require.NoError(t, inv.Reserve(showtimeID, secondHold, seats))
	inv.Release(showtimeID, firstHold, seats)

	states, err := inv.States(showtimeID)
	require.NoError(t, err)
	assert.Equal(t, reservation.SeatHeld, states[seats[0]])
}

func TestConfirm_TransitionsToBooked(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(2)
	inv := newInventory(t, showtimeID, seats, nil)

	holdID := uuid.New()
	require.NoError(t, inv.Reserve(showtimeID, holdID, seats))
	require.NoError(t, inv.Confirm(showtimeID, holdID, seats))

	states, err := inv.States(showtimeID)
	require.NoError(t, err)
	assert.Equal(t, reservation.SeatBooked, states[seats[0]])
	assert.Equal(t, reservation.SeatBooked, states[seats[1]])

	// Booked seats never go back to free through a release.
	inv.Release(showtimeID, holdID, seats)
	states, _ = inv.States(showtimeID)
	assert.Equal(t, reservation.SeatBooked, states[seats[0]])
}

func TestConfirm_FailsWhenNotHeldByHold(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(2)
	inv := newInventory(t, showtimeID, seats, nil)

	holdID := uuid.New()
	require.NoError(t, inv.Reserve(showtimeID, holdID, seats[:1]))

	// seats[1] is free, not held by holdID.
	err := inv.Confirm(showtimeID, holdID, seats)
	assert.ErrorIs(t, err, reservation.ErrInvalidState)

	// Nothing transitioned.
	states, _ := inv.States(showtimeID)
	assert.Equal(t, reservation.SeatHeld, states[seats[0]])
	assert.Equal(t, reservation.SeatFree, states[seats[1]])
}

func TestReserve_ConcurrentOverlap_ExactlyOneWins(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(3)

	const attempts = 50
	for i := 0; i < attempts; i++ {
		inv := newInventory(t, showtimeID, seats, nil)

		var wg sync.WaitGroup
		results := make([]error, 2)
		// Both holds want seats[1]; reversed orders exercise the
		// canonical lock ordering.
		requests := [][]uuid.UUID{
			{seats[0], seats[1]},
			{seats[2], seats[1]},
		}
		for j := range requests {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				results[j] = inv.Reserve(showtimeID, uuid.New(), requests[j])
			}(j)
		}
		wg.Wait()

		winners := 0
		for _, err := range results {
			if err == nil {
				winners++
			} else {
				var conflict *reservation.ConflictError
				require.True(t, errors.As(err, &conflict))
			}
		}
		require.Equal(t, 1, winners)
	}
}

func TestLoad_SeedsBookedSeats(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(3)
	inv := newInventory(t, showtimeID, seats, []uuid.UUID{seats[2]})

	states, err := inv.States(showtimeID)
	require.NoError(t, err)
	assert.Equal(t, reservation.SeatFree, states[seats[0]])
	assert.Equal(t, reservation.SeatBooked, states[seats[2]])

	err = inv.Reserve(showtimeID, uuid.New(), []uuid.UUID{seats[2]})
	var conflict *reservation.ConflictError
	require.True(t, errors.As(err, &conflict))
}

func TestLoad_SecondLoadIsNoOp(t *testing.T) {
	showtimeID := uuid.New()
	seats := newSeatIDs(2)
	inv := newInventory(t, showtimeID, seats, nil)

	holdID := uuid.New()
	require.NoError(t, inv.Reserve(showtimeID, holdID, seats))

	// A concurrent first touch racing an existing table must not reset
	// held seats.
	inv.Load(showtimeID, seats, nil)

	states, _ := inv.States(showtimeID)
	assert.Equal(t, reservation.SeatHeld, states[seats[0]])
}
