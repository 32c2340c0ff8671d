package feed

import (
	"sync"
	"time"
)

// Watchdog tracks tick arrival times and flags the feed stale when no
// tick has landed for Stale duration. Observe is called from the tick
// path; Healthy from the liveness checker.
type Watchdog struct {
	mu       sync.Mutex
	lastTick time.Time

	// Stale is the silence threshold. Default: 30 seconds.
	Stale time.Duration
}

// NewWatchdog creates a Watchdog with the default threshold.
func NewWatchdog() *Watchdog {
	return &Watchdog{Stale: 30 * time.Second}
}

// Observe records one tick arrival.
func (w *Watchdog) Observe(ts time.Time) {
	w.mu.Lock()
	if ts.After(w.lastTick) {
		w.lastTick = ts
	}
	w.mu.Unlock()
}

// Healthy reports whether a tick arrived within the staleness window.
// Before the first tick it reports false.
func (w *Watchdog) Healthy(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastTick.IsZero() {
		return false
	}
	return now.Sub(w.lastTick) < w.Stale
}

// LastTick returns the most recent observed tick time.
func (w *Watchdog) LastTick() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastTick
}
