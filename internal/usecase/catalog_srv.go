package usecase

import (
	"context"
	"fmt"
	"sort"

	"cinema-reservation/internal/data/cache"
	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/internal/reservation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService interface {
	GetSeatMap(ctx context.Context, showtimeID string) (*response.SeatMapResponse, error)
	ListVouchers(ctx context.Context) ([]*response.VoucherResponse, error)
	ListRefreshments(ctx context.Context) ([]*response.RefreshmentResponse, error)
}

type catalogService struct {
	repo   *repository.Repository
	inv    *reservation.Inventory
	cache  *cache.SeatMapCache
	loader *inventoryLoader
	log    *zap.Logger
}

func NewCatalogService(
	repo *repository.Repository,
	inv *reservation.Inventory,
	seatCache *cache.SeatMapCache,
	loader *inventoryLoader,
	log *zap.Logger,
) CatalogService {
	return &catalogService{
		repo:   repo,
		inv:    inv,
		cache:  seatCache,
		loader: loader,
		log:    log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) GetSeatMap(ctx context.Context, showtimeIDStr string) (*response.SeatMapResponse, error) {
	showtimeID, err := uuid.Parse(showtimeIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid showtime ID format %s: %w", showtimeIDStr, err)
	}

	var cached response.SeatMapResponse
	if hit, _ := s.cache.Get(ctx, showtimeID, &cached); hit {
		return &cached, nil
	}

	showtime, err := s.repo.Showtime.FindByID(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("find showtime: %w", err)
	}
	if showtime == nil {
		return nil, fmt.Errorf("showtime %s: %w", showtimeIDStr, reservation.ErrNotFound)
	}

	room, err := s.repo.Room.FindByID(ctx, showtime.RoomID)
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", showtime.RoomID, reservation.ErrNotFound)
	}

	seats, err := s.repo.Seat.FindByRoomID(ctx, showtime.RoomID)
	if err != nil {
		return nil, fmt.Errorf("find seats: %w", err)
	}

	seatTypes, err := s.repo.SeatType.FindByRoomID(ctx, showtime.RoomID)
	if err != nil {
		return nil, fmt.Errorf("find seat types: %w", err)
	}

	if err := s.loader.ensure(ctx, showtime, seats); err != nil {
		return nil, err
	}

	states, err := s.inv.States(showtimeID)
	if err != nil {
		return nil, err
	}

	result := buildSeatMap(showtime, room, seats, seatTypes, states)

	if err := s.cache.Set(ctx, showtimeID, result); err == nil {
		s.log.Debug("Seat map cached", zap.String("showtime_id", showtimeIDStr))
	}

	return result, nil
}

func (s *catalogService) ListVouchers(ctx context.Context) ([]*response.VoucherResponse, error) {
	vouchers, err := s.repo.Voucher.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("find vouchers: %w", err)
	}

	result := make([]*response.VoucherResponse, len(vouchers))
	for i, v := range vouchers {
		result[i] = &response.VoucherResponse{
			ID:                v.ID.String(),
			Name:              v.Name,
			Code:              v.Code,
			DiscountPercent:   v.DiscountPercent,
			MaxDiscountValue:  v.MaxDiscountValue,
			DiscountValue:     v.DiscountValue,
			MinimumOrderValue: v.MinimumOrderValue,
		}
	}
	return result, nil
}

func (s *catalogService) ListRefreshments(ctx context.Context) ([]*response.RefreshmentResponse, error) {
	refreshments, err := s.repo.Refreshment.FindAllCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("find refreshments: %w", err)
	}

	result := make([]*response.RefreshmentResponse, len(refreshments))
	for i, r := range refreshments {
		result[i] = &response.RefreshmentResponse{
			ID:      r.ID.String(),
			Name:    r.Name,
			Picture: r.Picture,
			Price:   r.Price,
		}
	}
	return result, nil
}

// buildSeatMap renders the picker payload. Seat prices shown to the
// client are showtime base plus seat type premium.
func buildSeatMap(
	showtime *entity.Showtime,
	room *entity.Room,
	seats []*entity.Seat,
	seatTypes []*entity.SeatType,
	states map[uuid.UUID]reservation.SeatState,
) *response.SeatMapResponse {
	typeByID := make(map[uuid.UUID]*entity.SeatType, len(seatTypes))
	typeList := make([]response.SeatTypeResponse, len(seatTypes))
	for i, st := range seatTypes {
		typeByID[st.ID] = st
		typeList[i] = response.SeatTypeResponse{
			ID:    st.ID.String(),
			Name:  st.Name,
			Price: showtime.BasePrice + st.Price,
			Color: st.Color,
		}
	}

	sorted := make([]*entity.Seat, len(seats))
	copy(sorted, seats)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SeatRow != sorted[j].SeatRow {
			return sorted[i].SeatRow < sorted[j].SeatRow
		}
		return sorted[i].SeatColumn < sorted[j].SeatColumn
	})

	rowSet := make(map[string]struct{})
	rows := make([]string, 0)
	cols := 0
	available := 0
	occupied := 0
	seatList := make([]response.SeatResponse, len(sorted))
	for i, seat := range sorted {
		if _, ok := rowSet[seat.SeatRow]; !ok {
			rowSet[seat.SeatRow] = struct{}{}
			rows = append(rows, seat.SeatRow)
		}
		if seat.SeatColumn > cols {
			cols = seat.SeatColumn
		}

		state := states[seat.ID]
		if state == reservation.SeatFree {
			available++
		} else {
			occupied++
		}

		var seatType response.SeatTypeResponse
		if st, ok := typeByID[seat.SeatTypeID]; ok {
			seatType = response.SeatTypeResponse{
				ID:    st.ID.String(),
				Name:  st.Name,
				Price: showtime.BasePrice + st.Price,
				Color: st.Color,
			}
		}

		seatList[i] = response.SeatResponse{
			ID:    seat.ID.String(),
			Name:  seat.Label,
			State: state.String(),
			Type:  seatType,
		}
	}

	return &response.SeatMapResponse{
		ShowtimeID:     showtime.ID.String(),
		RoomID:         room.ID.String(),
		RoomName:       room.Name,
		Rows:           rows,
		Cols:           cols,
		Seats:          seatList,
		TotalSeats:     len(sorted),
		AvailableSeats: available,
		OccupiedSeats:  occupied,
		TypeSeatList:   typeList,
	}
}
