// Package trade owns the trade lifecycle: NONE → ACTIVE → CLOSED per
// (symbol, interval) key.
//
// The manager is the sole writer of trade state. Exit evaluation is atomic
// per trade — the stop/target/time/session priority runs to completion
// under the key's shard lock, so a concurrent close can never interleave
// with a partial exit decision. Keys hash to independent shards; exits for
// unrelated symbols never contend.
package trade

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"trading-terminal/internal/markethours"
	"trading-terminal/internal/model"
)

// ErrDuplicate reports an OpenTrade against a key that already holds an
// ACTIVE trade. First writer wins; the caller drops the signal.
var ErrDuplicate = errors.New("active trade already exists")

// ErrNoActive reports an operation against a key with no ACTIVE trade.
var ErrNoActive = errors.New("no active trade")

const numShards = 16

// defaultMaxHold is the time-based exit: trades older than this close
// with reason "time".
const defaultMaxHold = 4 * time.Hour

type tmShard struct {
	mu     sync.Mutex
	active map[string]*model.Trade
}

// Manager tracks all ACTIVE trades and applies exit rules against the
// live price stream.
type Manager struct {
	shards      [numShards]tmShard
	maxHold     time.Duration
	sessionExit bool

	closedMu sync.Mutex
	closed   []model.Trade

	// OnClose is called (outside any lock) for every closed trade. Optional.
	OnClose func(model.Trade)
}

// NewManager creates a Manager. maxHold <= 0 uses the default; set
// sessionExit false to disable end-of-day force closes.
func NewManager(maxHold time.Duration, sessionExit bool) *Manager {
	if maxHold <= 0 {
		maxHold = defaultMaxHold
	}
	m := &Manager{maxHold: maxHold, sessionExit: sessionExit}
	for i := range m.shards {
		m.shards[i].active = make(map[string]*model.Trade, 16)
	}
	return m
}

func (m *Manager) shardFor(k string) *tmShard {
	h := fnv.New32a()
	h.Write([]byte(k))
	return &m.shards[h.Sum32()%numShards]
}

// OpenTrade opens an ACTIVE trade from a signal. Returns ErrDuplicate
// (wrapped with the key) if the key is occupied — the prior trade is
// untouched and the signal is dropped.
func (m *Manager) OpenTrade(sig model.Signal, now time.Time) (model.Trade, error) {
	t, err := model.NewTrade(sig, now)
	if err != nil {
		return model.Trade{}, err
	}
	k := t.Key()
	sh := m.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.active[k]; exists {
		return model.Trade{}, fmt.Errorf("%s: %w", k, ErrDuplicate)
	}
	sh.active[k] = t
	return *t, nil
}

// CheckExits evaluates the ACTIVE trade for (symbol, iv) against price in
// strict priority order: stop, target, time, session end. The first match
// closes the trade with that reason. A gap-through tick breaching both
// stop and target closes as stop — the conservative reading of a whip.
// Returns the closed trade and true when an exit fired.
func (m *Manager) CheckExits(symbol string, iv model.Interval, price float64, now time.Time) (model.Trade, bool) {
	k := symbol + ":" + iv.String()
	sh := m.shardFor(k)
	sh.mu.Lock()

	t, ok := sh.active[k]
	if !ok {
		sh.mu.Unlock()
		return model.Trade{}, false
	}

	reason, hit := m.exitReason(t, price, now)
	if !hit {
		sh.mu.Unlock()
		return model.Trade{}, false
	}

	closeTrade(t, price, reason, now)
	delete(sh.active, k)
	done := *t
	sh.mu.Unlock()

	m.recordClose(done)
	return done, true
}

// exitReason applies the priority order. Caller holds the shard lock.
func (m *Manager) exitReason(t *model.Trade, price float64, now time.Time) (model.ExitReason, bool) {
	switch t.Side {
	case model.SideBuy:
		if price <= t.StopLoss {
			return model.ExitStop, true
		}
		if price >= t.TakeProfit {
			return model.ExitTarget, true
		}
	case model.SideSell:
		if price >= t.StopLoss {
			return model.ExitStop, true
		}
		if price <= t.TakeProfit {
			return model.ExitTarget, true
		}
	}
	if m.maxHold > 0 && t.Age(now) >= m.maxHold {
		return model.ExitTime, true
	}
	if m.sessionExit && markethours.PastSessionEnd(t.Symbol, now) {
		return model.ExitSession, true
	}
	return "", false
}

// CloseTrade force-closes the ACTIVE trade for (symbol, iv) at price with
// the given reason. Returns ErrNoActive if the key holds no trade.
func (m *Manager) CloseTrade(symbol string, iv model.Interval, price float64, reason model.ExitReason, now time.Time) (model.Trade, error) {
	k := symbol + ":" + iv.String()
	sh := m.shardFor(k)
	sh.mu.Lock()

	t, ok := sh.active[k]
	if !ok {
		sh.mu.Unlock()
		return model.Trade{}, fmt.Errorf("%s: %w", k, ErrNoActive)
	}
	closeTrade(t, price, reason, now)
	delete(sh.active, k)
	done := *t
	sh.mu.Unlock()

	m.recordClose(done)
	return done, nil
}

// closeTrade performs the single terminal CLOSED transition.
func closeTrade(t *model.Trade, price float64, reason model.ExitReason, now time.Time) {
	t.Status = model.TradeClosed
	t.ExitPrice = price
	t.ExitReason = reason
	t.ClosedAt = now.UTC()
	t.PnL = (price - t.EntryPrice) * t.Side.Sign()
	if t.EntryPrice != 0 {
		t.PnLPct = t.PnL / t.EntryPrice * 100
	}
}

func (m *Manager) recordClose(done model.Trade) {
	m.closedMu.Lock()
	m.closed = append(m.closed, done)
	m.closedMu.Unlock()
	if m.OnClose != nil {
		m.OnClose(done)
	}
}

// Active returns a copy of the ACTIVE trade for (symbol, iv), if any.
func (m *Manager) Active(symbol string, iv model.Interval) (model.Trade, bool) {
	k := symbol + ":" + iv.String()
	sh := m.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	t, ok := sh.active[k]
	if !ok {
		return model.Trade{}, false
	}
	return *t, true
}

// ActiveTrades returns copies of every ACTIVE trade.
func (m *Manager) ActiveTrades() []model.Trade {
	var out []model.Trade
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		for _, t := range sh.active {
			out = append(out, *t)
		}
		sh.mu.Unlock()
	}
	return out
}

// ActiveCount returns the number of ACTIVE trades.
func (m *Manager) ActiveCount() int {
	n := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		n += len(sh.active)
		sh.mu.Unlock()
	}
	return n
}

// ClosedTrades returns copies of all closed trades, oldest first.
func (m *Manager) ClosedTrades() []model.Trade {
	m.closedMu.Lock()
	defer m.closedMu.Unlock()
	out := make([]model.Trade, len(m.closed))
	copy(out, m.closed)
	return out
}
