package reservation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error taxonomy of the reservation lifecycle. Handlers map these to
// HTTP status codes with errors.Is / errors.As.
var (
	// ErrNotFound: unknown hold, intent, seat or showtime identifier.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState: operation attempted on a hold or intent that is
	// not in the required state.
	ErrInvalidState = errors.New("invalid state")

	// ErrAlreadyTerminal: transition attempted out of a terminal state.
	ErrAlreadyTerminal = errors.New("already in terminal state")

	// ErrExpired: the hold's expiry timestamp has passed. Checked by
	// wall clock at confirm time, not only by the expiry timer.
	ErrExpired = errors.New("hold expired")

	// ErrProviderTimeout: the payment provider did not answer within
	// the configured timeout.
	ErrProviderTimeout = errors.New("payment provider timeout")

	// ErrReconciliationRequired: a success callback arrived after the
	// hold had already expired. Funds may have moved without a seat
	// reservation; an operator has to resolve it.
	ErrReconciliationRequired = errors.New("payment reconciliation required")
)

// ConflictError reports which seats blocked an all-or-nothing
// reservation. Seats carries seat identifiers as produced by the
// inventory; the booking service rewrites them to seat labels before
// they reach the client.
type ConflictError struct {
	ShowtimeID uuid.UUID
	Seats      []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

// NewConflictError builds a ConflictError from seat UUIDs.
func NewConflictError(showtimeID uuid.UUID, seatIDs []uuid.UUID) *ConflictError {
	seats := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		seats[i] = id.String()
	}
	return &ConflictError{ShowtimeID: showtimeID, Seats: seats}
}
