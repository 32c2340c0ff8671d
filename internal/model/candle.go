package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Candle is a fixed-bucket OHLCV bar for one (symbol, interval).
// Once sealed by the aggregator it is treated as immutable; only the
// aggregator mutates the live (unsealed) candle for a key.
type Candle struct {
	Symbol   string    `json:"symbol"`
	Interval Interval  `json:"interval"`
	Start    time.Time `json:"start"` // bucket start (UTC, interval-aligned)
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Ticks    int       `json:"ticks"` // number of ticks aggregated
}

// Key returns the store key for this candle's (symbol, interval).
func (c *Candle) Key() string {
	return c.Symbol + ":" + c.Interval.String()
}

// Validate checks the OHLC ordering invariant and bucket alignment.
// A candle failing validation is rejected at construction, never coerced.
func (c *Candle) Validate() error {
	lo, hi := c.Open, c.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	if c.Low > lo || hi > c.High {
		return fmt.Errorf("candle %s @%d: OHLC invariant violated o=%g h=%g l=%g c=%g",
			c.Key(), c.Start.Unix(), c.Open, c.High, c.Low, c.Close)
	}
	if c.Interval > 0 && c.Start.Unix()%int64(c.Interval) != 0 {
		return fmt.Errorf("candle %s: start %d not aligned to %s",
			c.Key(), c.Start.Unix(), c.Interval)
	}
	return nil
}

// Bullish reports close > open.
func (c *Candle) Bullish() bool { return c.Close > c.Open }

// Range returns high - low.
func (c *Candle) Range() float64 { return c.High - c.Low }

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
