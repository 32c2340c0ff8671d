// Package agg folds irregular price ticks into fixed-width OHLCV bars.
//
// The aggregator owns the live bar for each (symbol, interval) key. When a
// tick lands in a later bucket than the live bar, the live bar is sealed —
// appended to the candle store, immutable from then on — and a new live bar
// opens at the new bucket boundary seeded from the crossing tick's price.
// Buckets with no ticks produce no bars: the store stays sparse.
package agg

import (
	"hash/fnv"
	"log"
	"sync"
	"time"

	"trading-terminal/internal/candles"
	"trading-terminal/internal/model"
)

const numShards = 16

// Result reports the outcome of one Update call.
type Result struct {
	Live      model.Candle  // live bar snapshot after the update
	Sealed    *model.Candle // the bar sealed by this call, if any
	SealedNow bool          // true when a bucket boundary was crossed
}

type liveState struct {
	bucket int64 // Unix second of the live bucket start
	candle model.Candle
}

type aggShard struct {
	mu     sync.Mutex
	states map[string]*liveState
}

// Aggregator builds interval candles from a stream of ticks and writes
// sealed bars into the candle store. Updates for the same key are
// serialized per shard; unrelated keys proceed concurrently.
type Aggregator struct {
	store  *candles.Store
	shards [numShards]aggShard

	// Metrics hooks (optional, set before first Update)
	OnSeal        func(model.Candle)
	OnDroppedTick func()
}

// New creates an Aggregator writing sealed bars to store.
func New(store *candles.Store) *Aggregator {
	a := &Aggregator{store: store}
	for i := range a.shards {
		a.shards[i].states = make(map[string]*liveState, 64)
	}
	return a
}

func (a *Aggregator) shardFor(k string) *aggShard {
	h := fnv.New32a()
	h.Write([]byte(k))
	return &a.shards[h.Sum32()%numShards]
}

// Update incorporates one tick into the live bar for (symbol, iv).
// qty may be 0 for sources without volume. Late ticks (older bucket than
// the live bar) are dropped and counted.
func (a *Aggregator) Update(symbol string, iv model.Interval, price, qty float64, ts time.Time) Result {
	bucket := iv.Bucket(ts)
	k := symbol + ":" + iv.String()

	sh := a.shardFor(k)
	sh.mu.Lock()

	state, exists := sh.states[k]

	if exists && bucket < state.bucket {
		// Late tick — belongs to an already-sealed bucket, drop it.
		snap := state.candle
		sh.mu.Unlock()
		if a.OnDroppedTick != nil {
			a.OnDroppedTick()
		}
		return Result{Live: snap}
	}

	var sealed *model.Candle
	if exists && bucket > state.bucket {
		// Boundary crossed — seal the live bar first.
		done := state.candle
		if err := a.store.Append(done); err != nil {
			log.Printf("[agg] seal append failed: %v", err)
		}
		sealed = &done
		delete(sh.states, k)
		exists = false
	}

	if !exists {
		state = &liveState{
			bucket: bucket,
			candle: model.Candle{
				Symbol:   symbol,
				Interval: iv,
				Start:    time.Unix(bucket, 0).UTC(),
				Open:     price,
				High:     price,
				Low:      price,
				Close:    price,
				Volume:   qty,
				Ticks:    1,
			},
		}
		sh.states[k] = state
	} else {
		c := &state.candle
		if price > c.High {
			c.High = price
		}
		if price < c.Low {
			c.Low = price
		}
		c.Close = price
		c.Volume += qty
		c.Ticks++
	}

	snap := state.candle
	// Publish the live snapshot before releasing the shard lock so
	// concurrent updates for the same key cannot reorder store writes.
	a.store.SetLive(snap)
	sh.mu.Unlock()

	if sealed != nil && a.OnSeal != nil {
		a.OnSeal(*sealed)
	}
	return Result{Live: snap, Sealed: sealed, SealedNow: sealed != nil}
}

// Flush seals every live bar regardless of bucket. Called on shutdown so
// in-flight bars are not lost; the sealed bars are appended to the store.
func (a *Aggregator) Flush() []model.Candle {
	var out []model.Candle
	for i := range a.shards {
		sh := &a.shards[i]
		sh.mu.Lock()
		for k, state := range sh.states {
			done := state.candle
			if err := a.store.Append(done); err != nil {
				log.Printf("[agg] flush append failed: %v", err)
			}
			out = append(out, done)
			delete(sh.states, k)
		}
		sh.mu.Unlock()
	}
	return out
}
