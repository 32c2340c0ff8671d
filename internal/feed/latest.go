package feed

import (
	"sync"

	"trading-terminal/internal/model"
)

// latestCache keeps the most recent tick per symbol.
type latestCache struct {
	mu    sync.RWMutex
	ticks map[string]model.Tick
}

func newLatestCache() *latestCache {
	return &latestCache{ticks: make(map[string]model.Tick)}
}

func (c *latestCache) set(t model.Tick) {
	c.mu.Lock()
	// Never regress: out-of-order frames keep the newest observation.
	if prev, ok := c.ticks[t.Symbol]; !ok || !t.TS.Before(prev.TS) {
		c.ticks[t.Symbol] = t
	}
	c.mu.Unlock()
}

func (c *latestCache) get(symbol string) (model.Tick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.ticks[symbol]
	return t, ok
}
