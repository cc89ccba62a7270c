package entity

// Voucher gives either a percentage discount (optionally capped) or a
// flat discount. Exactly one of DiscountPercent / DiscountValue is set.
type Voucher struct {
	Base
	Name              string   `db:"name"`
	Code              string   `db:"code"`
	DiscountPercent   *float64 `db:"discount_percent"`
	MaxDiscountValue  *float64 `db:"max_discount_value"`
	DiscountValue     *float64 `db:"discount_value"`
	MinimumOrderValue *float64 `db:"minimum_order_value"`
	IsActive          bool     `db:"is_active"`
}
