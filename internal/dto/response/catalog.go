package response

type SeatTypeResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Color string  `json:"color"`
}

type SeatResponse struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	State string           `json:"state"` // free, held, booked
	Type  SeatTypeResponse `json:"type"`
}

// SeatMapResponse is the live seat picker payload for a showtime.
type SeatMapResponse struct {
	ShowtimeID     string             `json:"showtimeId"`
	RoomID         string             `json:"roomId"`
	RoomName       string             `json:"roomName"`
	Rows           []string           `json:"rows"`
	Cols           int                `json:"cols"`
	Seats          []SeatResponse     `json:"seats"`
	TotalSeats     int                `json:"totalSeats"`
	AvailableSeats int                `json:"availableSeats"`
	OccupiedSeats  int                `json:"occupiedSeats"`
	TypeSeatList   []SeatTypeResponse `json:"typeSeatList"`
}

type VoucherResponse struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Code              string   `json:"code"`
	DiscountPercent   *float64 `json:"discountPercent"`
	MaxDiscountValue  *float64 `json:"maxDiscountValue"`
	DiscountValue     *float64 `json:"discountValue"`
	MinimumOrderValue *float64 `json:"minimumOrderValue"`
}

type RefreshmentResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Picture string  `json:"picture"`
	Price   float64 `json:"price"`
}
