package reservation

import (
	"fmt"
	"sync"
	"time"

	"cinema-reservation/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReleaseHook is invoked after a hold leaves the active state without
// being confirmed (expired or cancelled) and its seats have been
// returned to the inventory. The booking service uses it to cancel any
// pending payment intent, invalidate the cached seat map and publish
// lifecycle events.
type ReleaseHook func(hold entity.Hold, reason entity.HoldStatus)

// CreateHold carries everything the registry needs to open a hold.
// Pricing and catalog validation happen before this point.
type CreateHold struct {
	ShowtimeID   uuid.UUID
	SeatIDs      []uuid.UUID
	VoucherCode  string
	Refreshments []entity.RefreshmentLine
	TotalPrice   float64
}

// holdState pairs a hold with its expiry timer. The per-hold mutex
// serializes status transitions; the terminal-state check behind it is
// what makes a double expiry a safe no-op.
type holdState struct {
	mu    sync.Mutex
	hold  entity.Hold
	timer Timer
}

// Registry owns the hold lifecycle: active → confirmed | expired |
// cancelled, all terminal. It is the only writer of the free↔held
// seat transitions.
type Registry struct {
	mu    sync.RWMutex
	holds map[uuid.UUID]*holdState

	inv       *Inventory
	clock     Clock
	ttl       time.Duration
	onRelease ReleaseHook
	log       *zap.Logger
}

func NewRegistry(inv *Inventory, clock Clock, ttl time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		holds: make(map[uuid.UUID]*holdState),
		inv:   inv,
		clock: clock,
		ttl:   ttl,
		log:   log.With(zap.String("component", "hold_registry")),
	}
}

// SetReleaseHook installs the release callback. Must be called during
// wiring, before the first hold is created.
func (r *Registry) SetReleaseHook(hook ReleaseHook) {
	r.onRelease = hook
}

// TTL returns the fixed hold time-to-live.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create reserves the seats and opens an active hold expiring at
// now + TTL. A seat conflict from the inventory is propagated
// untouched.
func (r *Registry) Create(params CreateHold) (entity.Hold, error) {
	holdID := uuid.New()

	if err := r.inv.Reserve(params.ShowtimeID, holdID, params.SeatIDs); err != nil {
		return entity.Hold{}, err
	}

	now := r.clock.Now()
	state := &holdState{
		hold: entity.Hold{
			ID:           holdID,
			ShowtimeID:   params.ShowtimeID,
			SeatIDs:      append([]uuid.UUID(nil), params.SeatIDs...),
			VoucherCode:  params.VoucherCode,
			Refreshments: params.Refreshments,
			TotalPrice:   params.TotalPrice,
			Status:       entity.HoldStatusActive,
			CreatedAt:    now,
			ExpiresAt:    now.Add(r.ttl),
		},
	}

	r.mu.Lock()
	r.holds[holdID] = state
	r.mu.Unlock()

	// One timer per active hold; deregistered on confirm/cancel.
	state.mu.Lock()
	state.timer = r.clock.AfterFunc(r.ttl, func() { r.Expire(holdID) })
	state.mu.Unlock()

	r.log.Info("Hold created",
		zap.String("hold_id", holdID.String()),
		zap.String("showtime_id", params.ShowtimeID.String()),
		zap.Int("seats", len(params.SeatIDs)),
		zap.Time("expires_at", state.hold.ExpiresAt),
	)

	return state.snapshot(), nil
}

// Get returns a copy of the hold.
func (r *Registry) Get(holdID uuid.UUID) (entity.Hold, error) {
	state, err := r.state(holdID)
	if err != nil {
		return entity.Hold{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.snapshotLocked(), nil
}

// Expire transitions an active hold to expired, releases its seats and
// fires the release hook. Driven by the expiry timer but safe to call
// any number of times; only the first call on an active hold does
// anything.
func (r *Registry) Expire(holdID uuid.UUID) {
	state, err := r.state(holdID)
	if err != nil {
		return
	}

	state.mu.Lock()
	if state.hold.Status != entity.HoldStatusActive {
		state.mu.Unlock()
		return
	}
	state.hold.Status = entity.HoldStatusExpired
	state.stopTimerLocked()
	hold := state.snapshotLocked()
	state.mu.Unlock()

	r.inv.Release(hold.ShowtimeID, hold.ID, hold.SeatIDs)

	r.log.Info("Hold expired",
		zap.String("hold_id", hold.ID.String()),
		zap.String("showtime_id", hold.ShowtimeID.String()),
		zap.Int("seats_released", len(hold.SeatIDs)),
	)

	if r.onRelease != nil {
		r.onRelease(hold, entity.HoldStatusExpired)
	}
}

// Cancel is the client- or operator-initiated early release. Same
// release semantics as expiry.
func (r *Registry) Cancel(holdID uuid.UUID) error {
	state, err := r.state(holdID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	if state.hold.Status.Terminal() {
		status := state.hold.Status
		state.mu.Unlock()
		return fmt.Errorf("hold is %s: %w", status, ErrAlreadyTerminal)
	}
	state.hold.Status = entity.HoldStatusCancelled
	state.stopTimerLocked()
	hold := state.snapshotLocked()
	state.mu.Unlock()

	r.inv.Release(hold.ShowtimeID, hold.ID, hold.SeatIDs)

	r.log.Info("Hold cancelled",
		zap.String("hold_id", hold.ID.String()),
		zap.String("showtime_id", hold.ShowtimeID.String()),
	)

	if r.onRelease != nil {
		r.onRelease(hold, entity.HoldStatusCancelled)
	}
	return nil
}

// Confirm is the only valid transition out of active besides release.
// Expiry is re-checked against the wall clock here: a hold whose
// expiry timestamp has passed fails with ErrExpired even if the timer
// has not fired yet. That wall-clock check, not the timer, is the
// authoritative guard against the confirm/expire race.
func (r *Registry) Confirm(holdID uuid.UUID) (entity.Hold, error) {
	state, err := r.state(holdID)
	if err != nil {
		return entity.Hold{}, err
	}

	state.mu.Lock()
	switch state.hold.Status {
	case entity.HoldStatusExpired:
		state.mu.Unlock()
		return entity.Hold{}, ErrExpired
	case entity.HoldStatusConfirmed, entity.HoldStatusCancelled:
		status := state.hold.Status
		state.mu.Unlock()
		return entity.Hold{}, fmt.Errorf("hold is %s: %w", status, ErrAlreadyTerminal)
	}

	if !r.clock.Now().Before(state.hold.ExpiresAt) {
		// Timer has not run yet but the TTL is over. Expire inline
		// rather than waiting for the scheduler.
		state.hold.Status = entity.HoldStatusExpired
		state.stopTimerLocked()
		hold := state.snapshotLocked()
		state.mu.Unlock()

		r.inv.Release(hold.ShowtimeID, hold.ID, hold.SeatIDs)

		r.log.Warn("Confirm rejected, hold past expiry",
			zap.String("hold_id", hold.ID.String()),
			zap.Time("expired_at", hold.ExpiresAt),
		)

		if r.onRelease != nil {
			r.onRelease(hold, entity.HoldStatusExpired)
		}
		return entity.Hold{}, ErrExpired
	}

	if err := r.inv.Confirm(state.hold.ShowtimeID, state.hold.ID, state.hold.SeatIDs); err != nil {
		state.mu.Unlock()
		return entity.Hold{}, err
	}

	state.hold.Status = entity.HoldStatusConfirmed
	state.stopTimerLocked()
	hold := state.snapshotLocked()
	state.mu.Unlock()

	r.log.Info("Hold confirmed",
		zap.String("hold_id", hold.ID.String()),
		zap.String("showtime_id", hold.ShowtimeID.String()),
		zap.Int("seats", len(hold.SeatIDs)),
		zap.Float64("total_price", hold.TotalPrice),
	)

	return hold, nil
}

func (r *Registry) state(holdID uuid.UUID) (*holdState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.holds[holdID]
	if !ok {
		return nil, fmt.Errorf("hold %s: %w", holdID, ErrNotFound)
	}
	return state, nil
}

func (s *holdState) snapshot() entity.Hold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *holdState) snapshotLocked() entity.Hold {
	hold := s.hold
	hold.SeatIDs = append([]uuid.UUID(nil), s.hold.SeatIDs...)
	hold.Refreshments = append([]entity.RefreshmentLine(nil), s.hold.Refreshments...)
	return hold
}

func (s *holdState) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
