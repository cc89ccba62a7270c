package wire

import (
	"cinema-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, catalogHandler *adaptor.CatalogHandler) {
	// GET /api/showtimes/{id}/seats - Live seat map for a showtime
	r.Get("/api/showtimes/{id}/seats", catalogHandler.GetSeatMap)

	// GET /api/vouchers - Active discount vouchers
	r.Get("/api/vouchers", catalogHandler.ListVouchers)

	// GET /api/refreshments - Current refreshment menu
	r.Get("/api/refreshments", catalogHandler.ListRefreshments)
}
