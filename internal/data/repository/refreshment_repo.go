package repository

import (
	"context"
	"fmt"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RefreshmentRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Refreshment, error)
	FindAllCurrent(ctx context.Context) ([]*entity.Refreshment, error)
}

type refreshmentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRefreshmentRepository(db database.PgxIface, log *zap.Logger) RefreshmentRepository {
	return &refreshmentRepository{
		db:  db,
		log: log.With(zap.String("repository", "refreshment")),
	}
}

func (r *refreshmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Refreshment, error) {
	if len(ids) == 0 {
		return []*entity.Refreshment{}, nil
	}

	query := `
		SELECT id, name, picture, price, is_current, created_at, updated_at
		FROM refreshments
		WHERE id = ANY($1)
	`

	return r.queryRefreshments(ctx, query, ids)
}

func (r *refreshmentRepository) FindAllCurrent(ctx context.Context) ([]*entity.Refreshment, error) {
	query := `
		SELECT id, name, picture, price, is_current, created_at, updated_at
		FROM refreshments
		WHERE is_current = true
		ORDER BY name
	`

	return r.queryRefreshments(ctx, query)
}

func (r *refreshmentRepository) queryRefreshments(ctx context.Context, query string, args ...any) ([]*entity.Refreshment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query refreshments", zap.Error(err))
		return nil, fmt.Errorf("failed to find refreshments: %w", err)
	}
	defer rows.Close()

	var refreshments []*entity.Refreshment
	for rows.Next() {
		var refreshment entity.Refreshment
		err := rows.Scan(
			&refreshment.ID,
			&refreshment.Name,
			&refreshment.Picture,
			&refreshment.Price,
			&refreshment.IsCurrent,
			&refreshment.CreatedAt,
			&refreshment.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan refreshment row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan refreshment: %w", err)
		}
		refreshments = append(refreshments, &refreshment)
	}

	return refreshments, nil
}
