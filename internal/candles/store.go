// Package candles provides the in-memory candle store: per (symbol, interval)
// an append-only sequence of sealed bars plus one mutable live bar.
//
// The store is sharded by key so updates for unrelated symbols never contend.
// Only the bar aggregator writes; strategy scans read through snapshot
// copies.
package candles

import (
	"fmt"
	"hash/fnv"
	"sync"

	"trading-terminal/internal/model"
)

const numShards = 16

// defaultMaxBars caps retained sealed bars per key (oldest trimmed first).
const defaultMaxBars = 5000

type series struct {
	closed  []model.Candle
	live    model.Candle
	hasLive bool
}

type shard struct {
	mu     sync.RWMutex
	series map[string]*series
}

// Store holds candle history for all watched (symbol, interval) keys.
type Store struct {
	shards  [numShards]shard
	maxBars int
}

// New creates an empty Store. maxBars <= 0 uses the default retention cap.
func New(maxBars int) *Store {
	if maxBars <= 0 {
		maxBars = defaultMaxBars
	}
	s := &Store{maxBars: maxBars}
	for i := range s.shards {
		s.shards[i].series = make(map[string]*series, 64)
	}
	return s
}

func key(symbol string, iv model.Interval) string {
	return symbol + ":" + iv.String()
}

func (s *Store) shardFor(k string) *shard {
	h := fnv.New32a()
	h.Write([]byte(k))
	return &s.shards[h.Sum32()%numShards]
}

func (sh *shard) get(k string) *series {
	ser, ok := sh.series[k]
	if !ok {
		ser = &series{}
		sh.series[k] = ser
	}
	return ser
}

// Append adds a sealed candle to the key's history. The candle must be
// valid and strictly newer than the last sealed bar; gaps are allowed
// (the store is sparse, consumers tolerate non-contiguous starts).
func (s *Store) Append(c model.Candle) error {
	if err := c.Validate(); err != nil {
		return err
	}
	k := c.Key()
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	ser := sh.get(k)
	if n := len(ser.closed); n > 0 && !c.Start.After(ser.closed[n-1].Start) {
		return fmt.Errorf("store: %s out-of-order append @%d (last @%d)",
			k, c.Start.Unix(), ser.closed[n-1].Start.Unix())
	}
	ser.closed = append(ser.closed, c)
	if len(ser.closed) > s.maxBars {
		// Trim oldest, keeping the backing array from growing unbounded.
		keep := ser.closed[len(ser.closed)-s.maxBars:]
		trimmed := make([]model.Candle, len(keep))
		copy(trimmed, keep)
		ser.closed = trimmed
	}
	return nil
}

// SetLive replaces the live bar snapshot for the candle's key.
func (s *Store) SetLive(c model.Candle) {
	k := c.Key()
	sh := s.shardFor(k)
	sh.mu.Lock()
	ser := sh.get(k)
	ser.live = c
	ser.hasLive = true
	sh.mu.Unlock()
}

// Live returns a copy of the live bar for the key, if one exists.
func (s *Store) Live(symbol string, iv model.Interval) (model.Candle, bool) {
	k := key(symbol, iv)
	sh := s.shardFor(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	ser, ok := sh.series[k]
	if !ok || !ser.hasLive {
		return model.Candle{}, false
	}
	return ser.live, true
}

// Tail returns a copy of the most recent n sealed bars (all bars if n <= 0
// or n exceeds history). Safe to hand to concurrent strategy scans.
func (s *Store) Tail(symbol string, iv model.Interval, n int) []model.Candle {
	k := key(symbol, iv)
	sh := s.shardFor(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	ser, ok := sh.series[k]
	if !ok {
		return nil
	}
	bars := ser.closed
	if n > 0 && n < len(bars) {
		bars = bars[len(bars)-n:]
	}
	out := make([]model.Candle, len(bars))
	copy(out, bars)
	return out
}

// Len returns the number of sealed bars for the key.
func (s *Store) Len(symbol string, iv model.Interval) int {
	k := key(symbol, iv)
	sh := s.shardFor(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	ser, ok := sh.series[k]
	if !ok {
		return 0
	}
	return len(ser.closed)
}

// LastSealed returns a copy of the newest sealed bar for the key.
func (s *Store) LastSealed(symbol string, iv model.Interval) (model.Candle, bool) {
	k := key(symbol, iv)
	sh := s.shardFor(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	ser, ok := sh.series[k]
	if !ok || len(ser.closed) == 0 {
		return model.Candle{}, false
	}
	return ser.closed[len(ser.closed)-1], true
}

// SeedHistory backfills sealed bars for a key that has no history yet.
// Bars must be ordered and valid; invalid bars abort the seed.
// A second seed for an already-populated key is a no-op.
func (s *Store) SeedHistory(symbol string, iv model.Interval, bars []model.Candle) error {
	k := key(symbol, iv)
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	ser := sh.get(k)
	if len(ser.closed) > 0 {
		return nil
	}
	var last int64
	for i := range bars {
		if err := bars[i].Validate(); err != nil {
			return fmt.Errorf("store: seed %s: %w", k, err)
		}
		if u := bars[i].Start.Unix(); u <= last && i > 0 {
			return fmt.Errorf("store: seed %s: unordered bar @%d", k, u)
		} else {
			last = u
		}
	}
	ser.closed = make([]model.Candle, len(bars))
	copy(ser.closed, bars)
	if len(ser.closed) > s.maxBars {
		ser.closed = ser.closed[len(ser.closed)-s.maxBars:]
	}
	return nil
}
