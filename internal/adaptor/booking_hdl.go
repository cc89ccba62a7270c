package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/reservation"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// Hold handles POST /api/bookings/hold
func (h *BookingHandler) Hold(w http.ResponseWriter, r *http.Request) {
	var req request.HoldSeatsRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	response, err := h.service.HoldSeats(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "hold seats")
		return
	}

	utils.ResponseCreated(w, response.Message, response)
}

// CreatePaymentIntent handles POST /api/bookings/create-payment-intent
func (h *BookingHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePaymentIntentRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	response, err := h.service.CreatePaymentIntent(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "create payment intent")
		return
	}

	utils.ResponseCreated(w, "Payment intent created", response)
}

// CancelPayment handles POST /api/bookings/cancel-payment
func (h *BookingHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	var req request.CancelPaymentRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.CancelPayment(r.Context(), &req); err != nil {
		h.handleServiceError(w, err, "cancel payment")
		return
	}

	utils.ResponseSuccess(w, "Payment cancelled", nil)
}

// CancelHold handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelHold(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "id")

	if err := h.service.CancelHold(r.Context(), holdID); err != nil {
		h.handleServiceError(w, err, "cancel hold")
		return
	}

	utils.ResponseSuccess(w, "Hold cancelled", nil)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")

	response, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.handleServiceError(w, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "Booking retrieved", response)
}

func (h *BookingHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	var conflict *reservation.ConflictError

	switch {
	case errors.As(err, &conflict):
		h.log.Warn(operation+" failed - seats taken",
			zap.Error(err),
			zap.Strings("seats", conflict.Seats))
		utils.ResponseConflict(w, err.Error(), map[string]any{"seats": conflict.Seats})

	case errors.Is(err, reservation.ErrNotFound):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, reservation.ErrExpired):
		h.log.Warn(operation+" failed - hold expired", zap.Error(err))
		utils.ResponseConflict(w, "Booking session expired, please select your seats again", nil)

	case errors.Is(err, reservation.ErrAlreadyTerminal),
		errors.Is(err, reservation.ErrInvalidState):
		h.log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, reservation.ErrProviderTimeout):
		h.log.Error(operation+" failed - payment provider unreachable", zap.Error(err))
		utils.ResponseBadGateway(w, "Payment provider did not respond, please try again")

	case strings.Contains(err.Error(), "validation failed"),
		strings.Contains(err.Error(), "invalid"):
		h.log.Warn(operation+" failed - bad input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		h.log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
