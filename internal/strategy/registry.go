package strategy

import (
	"fmt"
	"sync"
)

// ErrUnknownStrategy is returned by Lookup for keys never registered.
// A configuration error, not fatal: the caller skips the key and continues.
type ErrUnknownStrategy struct{ Key string }

func (e *ErrUnknownStrategy) Error() string {
	return fmt.Sprintf("strategy %q not registered", e.Key)
}

// Registry maps strategy keys to instances. Populated once at startup;
// adding a strategy means implementing Strategy and calling Register —
// no reflection, no discovery.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Strategy)}
}

// Register adds a strategy under its Key. Re-registering a key replaces
// the previous instance but keeps its position in the listing order.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := s.Key()
	if _, exists := r.byKey[k]; !exists {
		r.order = append(r.order, k)
	}
	r.byKey[k] = s
}

// Lookup resolves a strategy by key.
func (r *Registry) Lookup(key string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byKey[key]
	if !ok {
		return nil, &ErrUnknownStrategy{Key: key}
	}
	return s, nil
}

// Keys returns all registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Metas returns metadata for all registered strategies keyed alongside
// their registry keys, in registration order.
func (r *Registry) Metas() map[string]Meta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Meta, len(r.byKey))
	for k, s := range r.byKey {
		out[k] = s.Meta()
	}
	return out
}

// DefaultRegistry returns a registry populated with the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ProMTF{})
	r.Register(&VWAPEMA{})
	r.Register(&RSIReversal{})
	r.Register(&BollingerBreakout{})
	r.Register(&MACDCrossover{})
	r.Register(&SupertrendScalper{})
	return r
}
