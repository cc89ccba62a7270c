package adaptor

import (
	"errors"
	"net/http"
	"strings"

	"cinema-reservation/internal/reservation"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(service usecase.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log.With(zap.String("handler", "catalog")),
	}
}

// GetSeatMap handles GET /api/showtimes/{id}/seats
func (h *CatalogHandler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")

	response, err := h.service.GetSeatMap(r.Context(), showtimeID)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrNotFound):
			utils.ResponseNotFound(w, err.Error())
		case strings.Contains(err.Error(), "invalid"):
			utils.ResponseBadRequest(w, err.Error(), nil)
		default:
			h.log.Error("Get seat map failed", zap.Error(err))
			utils.ResponseInternalError(w, "Internal server error")
		}
		return
	}

	utils.ResponseSuccess(w, "Seat map retrieved", response)
}

// ListVouchers handles GET /api/vouchers
func (h *CatalogHandler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	response, err := h.service.ListVouchers(r.Context())
	if err != nil {
		h.log.Error("List vouchers failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "Vouchers retrieved", response)
}

// ListRefreshments handles GET /api/refreshments
func (h *CatalogHandler) ListRefreshments(w http.ResponseWriter, r *http.Request) {
	response, err := h.service.ListRefreshments(r.Context())
	if err != nil {
		h.log.Error("List refreshments failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "Refreshments retrieved", response)
}
