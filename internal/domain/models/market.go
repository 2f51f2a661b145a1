package models

import "time"

// Tick is one market-data event from the stream (trade print or quote).
type Tick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"` // unix seconds
}

// MarketContext is everything strategies may consume for one symbol at one
// logical time. Any field may be missing or empty; strategies degrade to a
// HOLD/0.0 vote instead of failing.
type MarketContext struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Volume        float64   `json:"volume"`
	PriceHistory  []float64 `json:"price_history"`  // oldest first
	VolumeHistory []float64 `json:"volume_history"` // oldest first
	Headlines     []string  `json:"headlines"`
	ObservedAt    time.Time `json:"observed_at"`
}

// HasPrice reports whether a usable observed price is present.
func (m *MarketContext) HasPrice() bool { return m != nil && m.Price > 0 }
