package entity

type Refreshment struct {
	Base
	Name      string  `db:"name"`
	Picture   string  `db:"picture"`
	Price     float64 `db:"price"`
	IsCurrent bool    `db:"is_current"`
}
