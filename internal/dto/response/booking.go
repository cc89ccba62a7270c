package response

import "time"

type HoldSeatsResponse struct {
	BookingID  string    `json:"bookingId"`
	TotalPrice float64   `json:"totalPrice"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Message    string    `json:"message"`
}

type PaymentIntentResponse struct {
	IntentID     string  `json:"intentId"`
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
}

type BookingResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	ShowtimeID string    `json:"showtimeId"`
	SeatLabels []string  `json:"seatLabels"`
	TotalPrice float64   `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}
