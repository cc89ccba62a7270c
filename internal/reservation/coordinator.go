package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cinema-reservation/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Callback outcomes delivered by the provider webhook.
const (
	CallbackSucceeded = "succeeded"
	CallbackFailed    = "failed"
)

// Coordinator owns payment intents and their 1:1 correlation with
// holds: a hold has at most one non-cancelled intent at a time, and
// creating a new one cancels any prior pending intent with the
// provider first.
type Coordinator struct {
	mu           sync.Mutex
	intents      map[string]*entity.PaymentIntent
	bySecret     map[string]string    // client secret → intent id
	activeByHold map[uuid.UUID]string // hold id → pending intent id

	provider PaymentProvider
	registry *Registry
	timeout  time.Duration
	clock    Clock
	log      *zap.Logger
}

func NewCoordinator(provider PaymentProvider, registry *Registry, timeout time.Duration, clock Clock, log *zap.Logger) *Coordinator {
	return &Coordinator{
		intents:      make(map[string]*entity.PaymentIntent),
		bySecret:     make(map[string]string),
		activeByHold: make(map[uuid.UUID]string),
		provider:     provider,
		registry:     registry,
		timeout:      timeout,
		clock:        clock,
		log:          log.With(zap.String("component", "payment_coordinator")),
	}
}

// CreateIntent opens a payment intent for an active hold. Fails with
// ErrInvalidState when the hold is not active and ErrProviderTimeout
// when the provider does not answer within the configured timeout.
func (c *Coordinator) CreateIntent(ctx context.Context, holdID uuid.UUID) (entity.PaymentIntent, error) {
	hold, err := c.registry.Get(holdID)
	if err != nil {
		return entity.PaymentIntent{}, err
	}
	if hold.Status != entity.HoldStatusActive {
		return entity.PaymentIntent{}, fmt.Errorf("hold is %s: %w", hold.Status, ErrInvalidState)
	}

	// Cancel any prior pending intent before opening the new one, so
	// the hold never carries two live intents.
	if prior := c.takePending(holdID); prior != "" {
		c.cancelWithProvider(ctx, prior)
	}

	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.provider.CreateIntent(pctx, holdID, hold.TotalPrice)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return entity.PaymentIntent{}, fmt.Errorf("create intent for hold %s: %w", holdID, ErrProviderTimeout)
		}
		return entity.PaymentIntent{}, fmt.Errorf("create intent for hold %s: %w", holdID, err)
	}

	now := c.clock.Now()
	intent := &entity.PaymentIntent{
		ID:           created.ID,
		HoldID:       holdID,
		Amount:       hold.TotalPrice,
		Status:       entity.PaymentIntentPending,
		ClientSecret: created.ClientSecret,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	c.mu.Lock()
	// A concurrent CreateIntent for the same hold may have won the
	// registration race; the loser's intent is cancelled to keep the
	// one-live-intent invariant.
	if racer, ok := c.activeByHold[holdID]; ok {
		if prior := c.intents[racer]; prior != nil && prior.Status == entity.PaymentIntentPending {
			prior.Status = entity.PaymentIntentCancelled
			prior.UpdatedAt = now
		}
	}
	c.intents[intent.ID] = intent
	c.bySecret[intent.ClientSecret] = intent.ID
	c.activeByHold[holdID] = intent.ID
	c.mu.Unlock()

	// The hold may have left the active state while the provider call
	// was in flight. Its release cleanup ran before this intent was
	// registered and could not see it, so the check repeats here.
	if current, err := c.registry.Get(holdID); err != nil || current.Status != entity.HoldStatusActive {
		if pending := c.takePending(holdID); pending != "" {
			c.cancelWithProvider(ctx, pending)
		}
		return entity.PaymentIntent{}, fmt.Errorf("hold %s left active state during intent creation: %w", holdID, ErrInvalidState)
	}

	c.log.Info("Payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("hold_id", holdID.String()),
		zap.Float64("amount", intent.Amount),
	)

	return *intent, nil
}

// CancelIntent cancels a payment intent. Idempotent: cancelling an
// intent that is already cancelled, succeeded or failed reports
// success without touching anything, so hold-expiry cleanup racing a
// client cancel can never fail.
func (c *Coordinator) CancelIntent(ctx context.Context, intentID string) error {
	c.mu.Lock()
	intent, ok := c.intents[intentID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("payment intent %s: %w", intentID, ErrNotFound)
	}
	if intent.Status.Terminal() {
		c.mu.Unlock()
		return nil
	}
	intent.Status = entity.PaymentIntentCancelled
	intent.UpdatedAt = c.clock.Now()
	if c.activeByHold[intent.HoldID] == intentID {
		delete(c.activeByHold, intent.HoldID)
	}
	holdID := intent.HoldID
	c.mu.Unlock()

	// The local record is cancelled first; the provider call is a
	// best-effort follow-up. If it times out the provider state is
	// unknown, which is why this whole operation has to stay
	// retry-safe.
	c.cancelWithProvider(ctx, intentID)

	c.log.Info("Payment intent cancelled",
		zap.String("intent_id", intentID),
		zap.String("hold_id", holdID.String()),
	)
	return nil
}

// CancelIntentBySecret resolves the client secret the frontend holds
// and cancels the intent behind it.
func (c *Coordinator) CancelIntentBySecret(ctx context.Context, clientSecret string) error {
	c.mu.Lock()
	intentID, ok := c.bySecret[clientSecret]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("client secret: %w", ErrNotFound)
	}
	return c.CancelIntent(ctx, intentID)
}

// CancelPendingForHold cancels the pending intent of a hold, if any.
// Used by the hold release path; absent intent is a no-op.
func (c *Coordinator) CancelPendingForHold(ctx context.Context, holdID uuid.UUID) {
	if pending := c.takePending(holdID); pending != "" {
		c.cancelWithProvider(ctx, pending)
		c.log.Info("Pending intent cancelled with its hold",
			zap.String("intent_id", pending),
			zap.String("hold_id", holdID.String()),
		)
	}
}

// HandleCallback processes an asynchronous provider notification.
// On success it confirms the hold and returns it so the caller can
// produce the Booking. A success that arrives after the hold already
// expired returns ErrReconciliationRequired: the seats are gone but
// funds may have moved, so it must be escalated, never dropped.
// A failure leaves the hold active for a retry with a fresh intent.
func (c *Coordinator) HandleCallback(ctx context.Context, intentID, outcome string) (entity.Hold, error) {
	c.mu.Lock()
	intent, ok := c.intents[intentID]
	if !ok {
		c.mu.Unlock()
		return entity.Hold{}, fmt.Errorf("payment intent %s: %w", intentID, ErrNotFound)
	}
	if intent.Status.Terminal() {
		status := intent.Status
		holdID := intent.HoldID
		c.mu.Unlock()
		if outcome == CallbackSucceeded {
			switch status {
			case entity.PaymentIntentCancelled:
				// The provider charged an intent we had cancelled,
				// typically because its hold expired first. Funds moved
				// without a seat reservation.
				return entity.Hold{}, fmt.Errorf(
					"intent %s succeeded after local cancellation for hold %s: %w",
					intentID, holdID, ErrReconciliationRequired)
			case entity.PaymentIntentSucceeded:
				// Redelivered success, usually because the caller
				// answered non-2xx the first time. Hand the confirmed
				// hold back again so the caller can make sure the
				// booking exists; acking with nothing would lose a
				// paid booking whose persist failed.
				hold, err := c.registry.Get(holdID)
				if err == nil && hold.Status == entity.HoldStatusConfirmed {
					return hold, nil
				}
				return entity.Hold{}, fmt.Errorf(
					"redelivered success for intent %s but hold %s is not confirmed: %w",
					intentID, holdID, ErrReconciliationRequired)
			}
		}
		// Duplicate or out-of-order delivery; the first one won.
		c.log.Warn("Callback for settled intent ignored",
			zap.String("intent_id", intentID),
			zap.String("status", string(status)),
			zap.String("outcome", outcome),
		)
		return entity.Hold{}, nil
	}
	holdID := intent.HoldID
	c.mu.Unlock()

	switch outcome {
	case CallbackSucceeded:
		hold, err := c.registry.Confirm(holdID)
		if err != nil {
			if errors.Is(err, ErrExpired) || errors.Is(err, ErrAlreadyTerminal) {
				// Funds may have moved without a seat reservation.
				c.settle(intentID, entity.PaymentIntentSucceeded)
				return entity.Hold{}, fmt.Errorf(
					"intent %s succeeded after hold %s left active state: %w",
					intentID, holdID, ErrReconciliationRequired)
			}
			return entity.Hold{}, err
		}
		c.settle(intentID, entity.PaymentIntentSucceeded)
		return hold, nil

	case CallbackFailed:
		c.settle(intentID, entity.PaymentIntentFailed)
		c.log.Info("Payment failed, hold stays active for retry",
			zap.String("intent_id", intentID),
			zap.String("hold_id", holdID.String()),
		)
		return entity.Hold{}, nil

	default:
		return entity.Hold{}, fmt.Errorf("unknown callback outcome %q", outcome)
	}
}

// Intent returns a copy of the intent.
func (c *Coordinator) Intent(intentID string) (entity.PaymentIntent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	intent, ok := c.intents[intentID]
	if !ok {
		return entity.PaymentIntent{}, fmt.Errorf("payment intent %s: %w", intentID, ErrNotFound)
	}
	return *intent, nil
}

// takePending atomically detaches and cancels-locally the pending
// intent of a hold, returning its id ("" when none).
func (c *Coordinator) takePending(holdID uuid.UUID) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	intentID, ok := c.activeByHold[holdID]
	if !ok {
		return ""
	}
	delete(c.activeByHold, holdID)

	intent := c.intents[intentID]
	if intent == nil || intent.Status.Terminal() {
		return ""
	}
	intent.Status = entity.PaymentIntentCancelled
	intent.UpdatedAt = c.clock.Now()
	return intentID
}

// settle marks an intent with a terminal status and drops it from the
// active index.
func (c *Coordinator) settle(intentID string, status entity.PaymentIntentStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	intent, ok := c.intents[intentID]
	if !ok || intent.Status.Terminal() {
		return
	}
	intent.Status = status
	intent.UpdatedAt = c.clock.Now()
	if c.activeByHold[intent.HoldID] == intentID {
		delete(c.activeByHold, intent.HoldID)
	}
}

// cancelWithProvider tells the provider to cancel, tolerating both
// timeouts and errors; the local record is authoritative.
func (c *Coordinator) cancelWithProvider(ctx context.Context, intentID string) {
	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.provider.CancelIntent(pctx, intentID); err != nil {
		c.log.Warn("Provider cancel failed, state unknown",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
	}
}
