package models

// Direction is a strategy's recommendation for a symbol.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
	Hold Direction = "HOLD"
)

// IsActionable reports whether the direction would move a position.
func (d Direction) IsActionable() bool {
	return d == Buy || d == Sell
}

// Valid reports whether d is one of the three known directions.
func (d Direction) Valid() bool {
	switch d {
	case Buy, Sell, Hold:
		return true
	default:
		return false
	}
}

// Vote is one strategy's recommendation for one symbol at one point in time.
// Votes are produced fresh each evaluation cycle and never mutated afterwards.
type Vote struct {
	Strategy   string    `json:"strategy"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"` // [0,1]
	Rationale  string    `json:"rationale"`
	Weight     float64   `json:"weight"` // >= 0
}
