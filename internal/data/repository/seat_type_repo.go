package repository

import (
	"context"
	"fmt"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SeatTypeRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.SeatType, error)
	FindByRoomID(ctx context.Context, roomID uuid.UUID) ([]*entity.SeatType, error)
}

type seatTypeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatTypeRepository(db database.PgxIface, log *zap.Logger) SeatTypeRepository {
	return &seatTypeRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat_type")),
	}
}

func (r *seatTypeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.SeatType, error) {
	if len(ids) == 0 {
		return []*entity.SeatType{}, nil
	}

	query := `
		SELECT id, name, price, color, created_at, updated_at
		FROM seat_types
		WHERE id = ANY($1)
	`

	return r.queryTypes(ctx, query, ids)
}

func (r *seatTypeRepository) FindByRoomID(ctx context.Context, roomID uuid.UUID) ([]*entity.SeatType, error) {
	// Distinct seat types present in the room, for the seat picker legend
	query := `
		SELECT DISTINCT st.id, st.name, st.price, st.color, st.created_at, st.updated_at
		FROM seat_types st
		JOIN seats s ON s.seat_type_id = st.id
		WHERE s.room_id = $1
	`

	return r.queryTypes(ctx, query, roomID)
}

func (r *seatTypeRepository) queryTypes(ctx context.Context, query string, arg any) ([]*entity.SeatType, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		r.log.Error("Failed to query seat types", zap.Error(err))
		return nil, fmt.Errorf("failed to find seat types: %w", err)
	}
	defer rows.Close()

	var types []*entity.SeatType
	for rows.Next() {
		var st entity.SeatType
		err := rows.Scan(
			&st.ID,
			&st.Name,
			&st.Price,
			&st.Color,
			&st.CreatedAt,
			&st.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat type row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan seat type: %w", err)
		}
		types = append(types, &st)
	}

	return types, nil
}
