package strategy

import (
	"fmt"
	"log"
	"sync"

	"trading-terminal/internal/candles"
	"trading-terminal/internal/indicator"
	"trading-terminal/internal/model"
)

// defaultLookback is how many sealed bars a scan pulls per symbol —
// enough for the EMA 200 to be live on the newest bars.
const defaultLookback = 300

// Engine resolves strategies from the registry and evaluates them over
// candle windows pulled from the store. One broken strategy never aborts
// a scan: evaluation failures are reported through OnError and skipped.
type Engine struct {
	reg      *Registry
	store    *candles.Store
	lookback int

	// OnError is called for per-strategy-per-symbol evaluation failures
	// (lookup errors, panics). Optional.
	OnError func(key, symbol string, err error)
}

// NewEngine creates an Engine over the given registry and candle store.
// lookback <= 0 uses the default scan window.
func NewEngine(reg *Registry, store *candles.Store, lookback int) *Engine {
	if lookback <= 0 {
		lookback = defaultLookback
	}
	return &Engine{reg: reg, store: store, lookback: lookback}
}

// Registry exposes the engine's registry for listing/registration.
func (e *Engine) Registry() *Registry { return e.reg }

// Snapshot pulls the sealed-bar window for a symbol and computes the
// standard indicator set over it.
func (e *Engine) Snapshot(symbol string, iv model.Interval) Snapshot {
	cs := e.store.Tail(symbol, iv, e.lookback)
	return Snapshot{
		Symbol:   symbol,
		Interval: iv,
		Candles:  cs,
		Ind:      indicator.Apply(cs),
	}
}

// RunStrategy resolves key and evaluates it against the snapshot.
// Panics inside Evaluate are recovered and returned as errors.
func (e *Engine) RunStrategy(key string, snap Snapshot) (sigs []model.Signal, err error) {
	s, err := e.reg.Lookup(key)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			sigs = nil
			err = fmt.Errorf("strategy %s panicked on %s: %v", key, snap.Symbol, r)
		}
	}()
	return s.Evaluate(snap), nil
}

// ScanWatchlist evaluates strategies for every symbol and returns the
// concatenation of all produced signals, each tagged with its issuing
// strategy by BuildSignal. keys == nil runs every registered strategy.
// Symbols are scanned in parallel; the scan is read-only w.r.t. the store.
func (e *Engine) ScanWatchlist(symbols []string, iv model.Interval, keys []string) []model.Signal {
	if keys == nil {
		keys = e.reg.Keys()
	}

	var (
		mu  sync.Mutex
		out []model.Signal
		wg  sync.WaitGroup
	)
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			snap := e.Snapshot(symbol, iv)
			if len(snap.Candles) == 0 {
				return
			}
			var collected []model.Signal
			for _, key := range keys {
				sigs, err := e.RunStrategy(key, snap)
				if err != nil {
					e.reportError(key, symbol, err)
					continue
				}
				collected = append(collected, sigs...)
			}
			if len(collected) > 0 {
				mu.Lock()
				out = append(out, collected...)
				mu.Unlock()
			}
		}(symbol)
	}
	wg.Wait()
	return out
}

func (e *Engine) reportError(key, symbol string, err error) {
	if e.OnError != nil {
		e.OnError(key, symbol, err)
		return
	}
	log.Printf("[strategy] %s on %s: %v", key, symbol, err)
}
