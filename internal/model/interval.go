package model

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a candle timeframe in seconds (e.g. 300 = 5m).
// Stored as seconds so bucket alignment is a plain modulo on Unix time.
type Interval int64

// Common intervals.
const (
	M1  Interval = 60
	M5  Interval = 300
	M15 Interval = 900
	M30 Interval = 1800
	H1  Interval = 3600
	D1  Interval = 86400
)

var intervalNames = map[Interval]string{
	M1: "1m", M5: "5m", M15: "15m", M30: "30m", H1: "1h", D1: "1d",
}

// ParseInterval parses labels like "5m", "1h", "1d" or plain seconds ("300").
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for iv, name := range intervalNames {
		if s == name {
			return iv, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid interval %q", s)
	}
	return Interval(d / time.Second), nil
}

// String returns the canonical label, falling back to "<n>s".
func (iv Interval) String() string {
	if name, ok := intervalNames[iv]; ok {
		return name
	}
	return fmt.Sprintf("%ds", int64(iv))
}

// Duration returns the interval as a time.Duration.
func (iv Interval) Duration() time.Duration {
	return time.Duration(iv) * time.Second
}

// Bucket returns the bucket start (Unix seconds) containing ts,
// aligned to the interval's canonical epoch (5m bars land on :00/:05/...).
func (iv Interval) Bucket(ts time.Time) int64 {
	u := ts.Unix()
	return u - (u % int64(iv))
}

// BucketStart returns the aligned bucket start as a UTC time.
func (iv Interval) BucketStart(ts time.Time) time.Time {
	return time.Unix(iv.Bucket(ts), 0).UTC()
}
