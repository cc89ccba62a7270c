package adaptor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/utils"

	"go.uber.org/zap"
)

const signatureHeader = "X-Payment-Signature"

// WebhookHandler receives payment outcome callbacks from the provider.
type WebhookHandler struct {
	service usecase.BookingService
	secret  string
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.BookingService, secret string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		secret:  secret,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// PaymentCallback handles POST /api/webhooks/payment
func (h *WebhookHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if h.secret != "" && !h.verifySignature(body, r.Header.Get(signatureHeader)) {
		h.log.Warn("Webhook signature mismatch",
			zap.String("remote_addr", r.RemoteAddr))
		utils.ResponseUnauthorized(w, "Invalid signature")
		return
	}

	var req request.PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.HandleProviderCallback(r.Context(), &req); err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			utils.ResponseBadRequest(w, err.Error(), nil)
			return
		}
		// Non-2xx makes the provider redeliver; callback handling is
		// idempotent so that is safe.
		h.log.Error("Payment callback failed",
			zap.Error(err),
			zap.String("intent_id", req.IntentID))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "Callback processed", nil)
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
