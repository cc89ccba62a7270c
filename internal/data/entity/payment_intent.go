package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentIntentStatus string

const (
	PaymentIntentPending   PaymentIntentStatus = "pending"
	PaymentIntentSucceeded PaymentIntentStatus = "succeeded"
	PaymentIntentFailed    PaymentIntentStatus = "failed"
	PaymentIntentCancelled PaymentIntentStatus = "cancelled"
)

// Terminal reports whether the intent can no longer change state.
// A failed intent is terminal for the intent itself; the hold stays
// active and the client may retry with a fresh intent.
func (s PaymentIntentStatus) Terminal() bool {
	return s != PaymentIntentPending
}

// PaymentIntent tracks a provider-side request to collect payment,
// correlated 1:1 with an active hold.
type PaymentIntent struct {
	ID           string // provider identifier, e.g. pi_...
	HoldID       uuid.UUID
	Amount       float64
	Status       PaymentIntentStatus
	ClientSecret string // opaque, handed to the frontend
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
