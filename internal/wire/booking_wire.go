package wire

import (
	"cinema-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, webhookHandler *adaptor.WebhookHandler) {
	// POST /api/bookings/hold - Hold seats for a showtime
	r.Post("/api/bookings/hold", bookingHandler.Hold)

	// POST /api/bookings/create-payment-intent - Open payment for a hold
	r.Post("/api/bookings/create-payment-intent", bookingHandler.CreatePaymentIntent)

	// POST /api/bookings/cancel-payment - Cancel a pending payment intent
	r.Post("/api/bookings/cancel-payment", bookingHandler.CancelPayment)

	// POST /api/bookings/{id}/cancel - Cancel a hold and free its seats
	r.Post("/api/bookings/{id}/cancel", bookingHandler.CancelHold)

	// GET /api/bookings/{id} - Confirmed booking details
	r.Get("/api/bookings/{id}", bookingHandler.GetBooking)

	// POST /api/webhooks/payment - Provider outcome callback (signed)
	r.Post("/api/webhooks/payment", webhookHandler.PaymentCallback)
}
