package entity

type Movie struct {
	Base
	Title           string `db:"title"`
	DurationMinutes int    `db:"duration_minutes"`
}
