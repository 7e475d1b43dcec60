package domain

type Aircraft struct {
	ID         int64  `json:"id"`
	AirlineID  int64  `json:"airline_id"`
	Model      string `json:"model"`
	TotalSeats int    `json:"total_seats"`
}

type Airline struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Airport struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}
