package reservation

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeatState is the occupancy state of one seat for one showtime.
// A seat is in exactly one state at a time.
type SeatState int

const (
	SeatFree SeatState = iota
	SeatHeld
	SeatBooked
)

func (s SeatState) String() string {
	switch s {
	case SeatFree:
		return "free"
	case SeatHeld:
		return "held"
	case SeatBooked:
		return "booked"
	default:
		return "unknown"
	}
}

// seatSlot carries the state of a single seat. Each slot has its own
// lock so reservations touching unrelated seats on the same showtime
// do not serialize against each other.
type seatSlot struct {
	mu     sync.Mutex
	state  SeatState
	holdID uuid.UUID // owning hold while state == SeatHeld
}

type showtimeTable struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*seatSlot
}

// Inventory is the authoritative in-process record of seat occupancy
// per showtime. It is the only component that transitions seat states;
// every change is immediately visible to subsequent Reserve calls.
type Inventory struct {
	mu        sync.RWMutex
	showtimes map[uuid.UUID]*showtimeTable
	log       *zap.Logger
}

func NewInventory(log *zap.Logger) *Inventory {
	return &Inventory{
		showtimes: make(map[uuid.UUID]*showtimeTable),
		log:       log.With(zap.String("component", "inventory")),
	}
}

// Load registers the seat set of a showtime. Seats in bookedIDs start
// out booked (persisted bookings from earlier runs), everything else
// free. Loading an already-loaded showtime is a no-op so concurrent
// first touches are safe.
func (inv *Inventory) Load(showtimeID uuid.UUID, seatIDs, bookedIDs []uuid.UUID) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, ok := inv.showtimes[showtimeID]; ok {
		return
	}

	booked := make(map[uuid.UUID]struct{}, len(bookedIDs))
	for _, id := range bookedIDs {
		booked[id] = struct{}{}
	}

	table := &showtimeTable{slots: make(map[uuid.UUID]*seatSlot, len(seatIDs))}
	for _, id := range seatIDs {
		slot := &seatSlot{state: SeatFree}
		if _, ok := booked[id]; ok {
			slot.state = SeatBooked
		}
		table.slots[id] = slot
	}
	inv.showtimes[showtimeID] = table

	inv.log.Info("Showtime inventory loaded",
		zap.String("showtime_id", showtimeID.String()),
		zap.Int("seats", len(seatIDs)),
		zap.Int("booked", len(bookedIDs)),
	)
}

// Loaded reports whether the showtime's seat table is registered.
func (inv *Inventory) Loaded(showtimeID uuid.UUID) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	_, ok := inv.showtimes[showtimeID]
	return ok
}

func (inv *Inventory) table(showtimeID uuid.UUID) (*showtimeTable, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	table, ok := inv.showtimes[showtimeID]
	if !ok {
		return nil, fmt.Errorf("showtime %s inventory: %w", showtimeID, ErrNotFound)
	}
	return table, nil
}

// lockSlots looks up and locks the slots for seatIDs in a canonical
// order, so two overlapping reservations can never deadlock. The
// returned unlock function releases them all.
func (t *showtimeTable) lockSlots(seatIDs []uuid.UUID) ([]*seatSlot, func(), error) {
	ordered := dedupeSorted(seatIDs)

	t.mu.RLock()
	slots := make([]*seatSlot, 0, len(ordered))
	for _, id := range ordered {
		slot, ok := t.slots[id]
		if !ok {
			t.mu.RUnlock()
			return nil, nil, fmt.Errorf("seat %s: %w", id, ErrNotFound)
		}
		slots = append(slots, slot)
	}
	t.mu.RUnlock()

	for _, slot := range slots {
		slot.mu.Lock()
	}
	unlock := func() {
		for _, slot := range slots {
			slot.mu.Unlock()
		}
	}
	return slots, unlock, nil
}

// Reserve atomically transitions every seat in seatIDs from free to
// held for holdID. All-or-nothing: if any seat is not free, no seat is
// transitioned and the returned ConflictError names every unavailable
// seat.
func (inv *Inventory) Reserve(showtimeID, holdID uuid.UUID, seatIDs []uuid.UUID) error {
	table, err := inv.table(showtimeID)
	if err != nil {
		return err
	}

	slots, unlock, err := table.lockSlots(seatIDs)
	if err != nil {
		return err
	}
	defer unlock()

	ordered := dedupeSorted(seatIDs)
	var conflicts []uuid.UUID
	for i, slot := range slots {
		if slot.state != SeatFree {
			conflicts = append(conflicts, ordered[i])
		}
	}
	if len(conflicts) > 0 {
		return NewConflictError(showtimeID, conflicts)
	}

	for _, slot := range slots {
		slot.state = SeatHeld
		slot.holdID = holdID
	}
	return nil
}

// Release transitions seats held by holdID back to free. Idempotent:
// seats that are already free, booked, or held by a different hold are
// left untouched, so a duplicate release racing a re-reservation can
// never free someone else's seats.
func (inv *Inventory) Release(showtimeID, holdID uuid.UUID, seatIDs []uuid.UUID) {
	table, err := inv.table(showtimeID)
	if err != nil {
		return
	}

	slots, unlock, err := table.lockSlots(seatIDs)
	if err != nil {
		return
	}
	defer unlock()

	for _, slot := range slots {
		if slot.state == SeatHeld && slot.holdID == holdID {
			slot.state = SeatFree
			slot.holdID = uuid.Nil
		}
	}
}

// Confirm transitions seats from held to booked. Fails with
// ErrInvalidState unless every seat is currently held by holdID.
func (inv *Inventory) Confirm(showtimeID, holdID uuid.UUID, seatIDs []uuid.UUID) error {
	table, err := inv.table(showtimeID)
	if err != nil {
		return err
	}

	slots, unlock, err := table.lockSlots(seatIDs)
	if err != nil {
		return err
	}
	defer unlock()

	for _, slot := range slots {
		if slot.state != SeatHeld || slot.holdID != holdID {
			return fmt.Errorf("seat not held by confirming hold: %w", ErrInvalidState)
		}
	}

	for _, slot := range slots {
		slot.state = SeatBooked
		slot.holdID = uuid.Nil
	}
	return nil
}

// States returns a snapshot of the seat states of a showtime, used to
// render live seat maps.
func (inv *Inventory) States(showtimeID uuid.UUID) (map[uuid.UUID]SeatState, error) {
	table, err := inv.table(showtimeID)
	if err != nil {
		return nil, err
	}

	table.mu.RLock()
	defer table.mu.RUnlock()

	snapshot := make(map[uuid.UUID]SeatState, len(table.slots))
	for id, slot := range table.slots {
		slot.mu.Lock()
		snapshot[id] = slot.state
		slot.mu.Unlock()
	}
	return snapshot, nil
}

// dedupeSorted returns the seat ids sorted by byte order with
// duplicates removed. The canonical order is what makes multi-seat
// locking deadlock-free.
func dedupeSorted(seatIDs []uuid.UUID) []uuid.UUID {
	ordered := make([]uuid.UUID, len(seatIDs))
	copy(ordered, seatIDs)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	out := make([]uuid.UUID, 0, len(ordered))
	for _, id := range ordered {
		if len(out) == 0 || id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
