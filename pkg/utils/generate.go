package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ==================== BOOKING CODE ====================

// GenerateBookingCode creates a unique booking code with timestamp
func GenerateBookingCode() string {
	now := time.Now()

	// Format: BOOK-YYYYMMDD-HHMMSS-RANDOM
	datePart := now.Format("20060102")
	timePart := now.Format("150405")

	return fmt.Sprintf("BOOK-%s-%s-%s", datePart, timePart, RandomHex(2))
}

// ==================== TOKENS ====================

// RandomHex returns a cryptographically random hex string of n bytes
// (2*n characters).
func RandomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform RNG is broken;
		// nothing sensible to fall back to
		panic(err)
	}
	return hex.EncodeToString(b)
}

// GenerateIntentID creates a provider-style payment intent identifier.
func GenerateIntentID() string {
	return "pi_" + RandomHex(12)
}

// GenerateClientSecret creates the opaque secret handed to the frontend
// for a payment intent.
func GenerateClientSecret(intentID string) string {
	return fmt.Sprintf("%s_secret_%s", intentID, RandomHex(16))
}
