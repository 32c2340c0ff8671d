package feed

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"trading-terminal/internal/model"
)

// SimSource is a deterministic random-walk price source for paper runs
// and offline testing. Each symbol gets its own seeded walk, so the same
// symbol always produces the same price path.
type SimSource struct {
	mu     sync.Mutex
	walks  map[string]*walk
	vol    float64 // per-step volatility fraction
	basePx float64
}

type walk struct {
	rng   *rand.Rand
	price float64
}

// NewSimSource creates a SimSource. basePx is the starting price for every
// symbol's walk; vol is the per-step move fraction (e.g. 0.002 = 0.2%).
func NewSimSource(basePx, vol float64) *SimSource {
	if basePx <= 0 {
		basePx = 100
	}
	if vol <= 0 {
		vol = 0.002
	}
	return &SimSource{
		walks:  make(map[string]*walk),
		vol:    vol,
		basePx: basePx,
	}
}

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}

func (s *SimSource) walkFor(symbol string) *walk {
	w, ok := s.walks[symbol]
	if !ok {
		w = &walk{
			rng:   rand.New(rand.NewSource(symbolSeed(symbol))),
			price: s.basePx,
		}
		s.walks[symbol] = w
	}
	return w
}

// FetchPrice advances the symbol's walk one step and returns the price.
func (s *SimSource) FetchPrice(_ context.Context, symbol string) (model.Tick, error) {
	s.mu.Lock()
	w := s.walkFor(symbol)
	step := (w.rng.Float64()*2 - 1) * s.vol
	w.price *= 1 + step
	price := w.price
	qty := float64(w.rng.Intn(100) + 1)
	s.mu.Unlock()

	return model.Tick{
		Symbol: symbol,
		Price:  price,
		Qty:    qty,
		TS:     time.Now().UTC(),
	}, nil
}

// FetchHistory generates lookback sealed bars ending at the last complete
// bucket before now, walked with the symbol's seed so repeated calls for
// one symbol agree.
func (s *SimSource) FetchHistory(_ context.Context, symbol string, iv model.Interval, lookback int) ([]model.Candle, error) {
	if lookback <= 0 {
		return nil, nil
	}
	rng := rand.New(rand.NewSource(symbolSeed(symbol) ^ int64(iv)))
	price := s.basePx

	end := iv.Bucket(time.Now().UTC()) // current (live) bucket start
	start := end - int64(lookback)*int64(iv)

	out := make([]model.Candle, 0, lookback)
	for b := start; b < end; b += int64(iv) {
		open := price
		hi, lo := open, open
		for t := 0; t < 4; t++ {
			step := (rng.Float64()*2 - 1) * s.vol
			price *= 1 + step
			hi = math.Max(hi, price)
			lo = math.Min(lo, price)
		}
		out = append(out, model.Candle{
			Symbol:   symbol,
			Interval: iv,
			Start:    time.Unix(b, 0).UTC(),
			Open:     open,
			High:     hi,
			Low:      lo,
			Close:    price,
			Volume:   float64(rng.Intn(1000) + 100),
			Ticks:    4,
		})
	}
	return out, nil
}
