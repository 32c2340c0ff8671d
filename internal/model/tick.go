package model

import "time"

// Tick is a single raw price observation for one symbol.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Qty    float64   `json:"qty"` // traded quantity, 0 if the source has none
	TS     time.Time `json:"ts"`  // UTC observation time
}
