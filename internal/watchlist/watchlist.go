// Package watchlist maintains the ordered set of watched symbols.
// Membership changes take effect on the next scan cycle: scans iterate a
// snapshot, so adds/removes during a scan never corrupt iteration.
package watchlist

import (
	"strings"
	"sync"
)

// Watchlist is an ordered, de-duplicated set of symbols.
type Watchlist struct {
	mu      sync.RWMutex
	order   []string
	present map[string]bool
}

// New creates a Watchlist seeded with symbols (duplicates skipped).
func New(symbols ...string) *Watchlist {
	w := &Watchlist{present: make(map[string]bool)}
	for _, s := range symbols {
		w.Add(s)
	}
	return w
}

// Parse builds a Watchlist from a comma-separated symbol list.
func Parse(csv string) *Watchlist {
	w := New()
	for _, part := range strings.Split(csv, ",") {
		if s := strings.TrimSpace(part); s != "" {
			w.Add(s)
		}
	}
	return w
}

// Add appends symbol to the watchlist. Already-present symbols keep
// their position. Returns true if the symbol was added.
func (w *Watchlist) Add(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.present[symbol] {
		return false
	}
	w.present[symbol] = true
	w.order = append(w.order, symbol)
	return true
}

// Remove deletes symbol from the watchlist. Returns true if it was present.
func (w *Watchlist) Remove(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.present[symbol] {
		return false
	}
	delete(w.present, symbol)
	for i, s := range w.order {
		if s == symbol {
			w.order = append(w.order[:i:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports membership.
func (w *Watchlist) Contains(symbol string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.present[strings.ToUpper(strings.TrimSpace(symbol))]
}

// Symbols returns an ordered snapshot of the current membership.
func (w *Watchlist) Symbols() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// Len returns the number of watched symbols.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.order)
}
