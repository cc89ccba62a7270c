package request

// Field names mirror the frontend payloads.

type RefreshmentOption struct {
	RefreshmentID string `json:"refreshmentId" validate:"required,uuid"`
	Quantity      int    `json:"quantity" validate:"required,min=1"`
}

type HoldSeatsRequest struct {
	ShowtimeID         string              `json:"showTimeId" validate:"required,uuid"`
	SeatIDs            []string            `json:"seatIds" validate:"required,min=1,dive,uuid"`
	VoucherCode        string              `json:"voucherCode"`
	RefreshmentsOption []RefreshmentOption `json:"refreshmentsOption" validate:"omitempty,dive"`
}

type CreatePaymentIntentRequest struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
}

type CancelPaymentRequest struct {
	ClientSecret string `json:"clientSecret" validate:"required"`
}

type PaymentWebhookRequest struct {
	IntentID string `json:"intentId" validate:"required"`
	Outcome  string `json:"outcome" validate:"required,oneof=succeeded failed"`
}
