package repository

import (
	"context"
	"fmt"
	"strings"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type VoucherRepository interface {
	FindByCode(ctx context.Context, code string) (*entity.Voucher, error)
	FindAllActive(ctx context.Context) ([]*entity.Voucher, error)
}

type voucherRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewVoucherRepository(db database.PgxIface, log *zap.Logger) VoucherRepository {
	return &voucherRepository{
		db:  db,
		log: log.With(zap.String("repository", "voucher")),
	}
}

func (r *voucherRepository) FindByCode(ctx context.Context, code string) (*entity.Voucher, error) {
	query := `
		SELECT id, name, code, discount_percent, max_discount_value, discount_value, minimum_order_value, is_active, created_at, updated_at
		FROM vouchers
		WHERE code = $1
	`

	var voucher entity.Voucher
	err := r.db.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&voucher.ID,
		&voucher.Name,
		&voucher.Code,
		&voucher.DiscountPercent,
		&voucher.MaxDiscountValue,
		&voucher.DiscountValue,
		&voucher.MinimumOrderValue,
		&voucher.IsActive,
		&voucher.CreatedAt,
		&voucher.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find voucher by code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("failed to find voucher: %w", err)
	}

	return &voucher, nil
}

func (r *voucherRepository) FindAllActive(ctx context.Context) ([]*entity.Voucher, error) {
	query := `
		SELECT id, name, code, discount_percent, max_discount_value, discount_value, minimum_order_value, is_active, created_at, updated_at
		FROM vouchers
		WHERE is_active = true
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find active vouchers", zap.Error(err))
		return nil, fmt.Errorf("failed to find vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []*entity.Voucher
	for rows.Next() {
		var voucher entity.Voucher
		err := rows.Scan(
			&voucher.ID,
			&voucher.Name,
			&voucher.Code,
			&voucher.DiscountPercent,
			&voucher.MaxDiscountValue,
			&voucher.DiscountValue,
			&voucher.MinimumOrderValue,
			&voucher.IsActive,
			&voucher.CreatedAt,
			&voucher.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan voucher row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, &voucher)
	}

	return vouchers, nil
}
