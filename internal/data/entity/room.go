package entity

type Room struct {
	Base
	Name string `db:"name"`
}
