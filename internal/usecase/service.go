package usecase

import (
	"cinema-reservation/internal/data/cache"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/queue"
	"cinema-reservation/internal/reservation"

	"go.uber.org/zap"
)

type Service struct {
	Booking BookingService
	Catalog CatalogService
}

func NewService(
	repo *repository.Repository,
	inv *reservation.Inventory,
	registry *reservation.Registry,
	coordinator *reservation.Coordinator,
	seatCache *cache.SeatMapCache,
	publisher queue.Publisher,
	log *zap.Logger,
) *Service {
	loader := &inventoryLoader{repo: repo, inv: inv}

	return &Service{
		Booking: NewBookingService(repo, inv, registry, coordinator, seatCache, publisher, loader, log),
		Catalog: NewCatalogService(repo, inv, seatCache, loader, log),
	}
}
