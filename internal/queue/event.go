// Package queue defines the lifecycle events published to the message
// broker and the broker plumbing around them.
package queue

import "time"

// Queue names. Durable queues on the default exchange.
const (
	QueueHoldConfirmed  = "hold.confirmed"
	QueueHoldExpired    = "hold.expired"
	QueueReconciliation = "payment.reconciliation"
)

// HoldConfirmedEvent is published when a hold is confirmed and its
// booking is created. It carries enough for downstream consumers
// (e-mail, analytics) without querying the primary database.
type HoldConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	HoldID      string    `json:"hold_id"`
	ShowtimeID  string    `json:"showtime_id"`
	MovieTitle  string    `json:"movie_title,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	SeatIDs     []string  `json:"seat_ids"`
	TotalPrice  float64   `json:"total_price"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// HoldExpiredEvent is published when a hold times out and its seats
// return to inventory.
type HoldExpiredEvent struct {
	HoldID     string    `json:"hold_id"`
	ShowtimeID string    `json:"showtime_id"`
	SeatIDs    []string  `json:"seat_ids"`
	ExpiredAt  time.Time `json:"expired_at"`
}

// ReconciliationEvent is published when a payment succeeded after its
// hold had already left the active state. Funds may have moved without
// a seat reservation; an operator must resolve it manually.
type ReconciliationEvent struct {
	IntentID   string    `json:"intent_id"`
	HoldID     string    `json:"hold_id"`
	ShowtimeID string    `json:"showtime_id"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
