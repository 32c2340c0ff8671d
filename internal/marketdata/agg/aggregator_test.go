package agg

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"trading-terminal/internal/candles"
	"trading-terminal/internal/model"
)

func TestAggregator_LiveBar(t *testing.T) {
	store := candles.New(0)
	a := New(store)

	start := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	prices := []float64{100, 101, 99, 102}
	var res Result
	for i, p := range prices {
		res = a.Update("AAPL", model.M5, p, 1, start.Add(time.Duration(i)*10*time.Second))
		if res.SealedNow {
			t.Fatalf("tick %d sealed inside one bucket", i)
		}
	}

	live := res.Live
	if live.Open != 100 || live.High != 102 || live.Low != 99 || live.Close != 102 {
		t.Errorf("live bar = o=%g h=%g l=%g c=%g, want o=100 h=102 l=99 c=102",
			live.Open, live.High, live.Low, live.Close)
	}
	if live.Ticks != 4 || live.Volume != 4 {
		t.Errorf("ticks=%d volume=%g, want 4/4", live.Ticks, live.Volume)
	}
	if !live.Start.Equal(start) {
		t.Errorf("live start = %s, want %s", live.Start, start)
	}

	// Store sees the same snapshot.
	got, ok := store.Live("AAPL", model.M5)
	if !ok || got.Close != 102 {
		t.Errorf("store live = %+v ok=%v", got, ok)
	}
}

func TestAggregator_SealOnBoundary(t *testing.T) {
	store := candles.New(0)
	a := New(store)

	var sealed []model.Candle
	a.OnSeal = func(c model.Candle) { sealed = append(sealed, c) }

	start := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	a.Update("AAPL", model.M5, 100, 1, start)
	a.Update("AAPL", model.M5, 103, 1, start.Add(time.Minute))

	// Crossing tick seals the old bar and opens the next bucket.
	res := a.Update("AAPL", model.M5, 104, 1, start.Add(5*time.Minute))
	if !res.SealedNow || res.Sealed == nil {
		t.Fatal("boundary tick did not seal")
	}
	if res.Sealed.Close != 103 {
		t.Errorf("sealed close = %g, want 103", res.Sealed.Close)
	}
	if res.Live.Open != 104 || res.Live.Ticks != 1 {
		t.Errorf("new live bar = %+v, want open=104 ticks=1", res.Live)
	}
	if !res.Live.Start.Equal(start.Add(5 * time.Minute)) {
		t.Errorf("new live start = %s", res.Live.Start)
	}

	if len(sealed) != 1 {
		t.Fatalf("OnSeal fired %d times", len(sealed))
	}
	last, ok := store.LastSealed("AAPL", model.M5)
	if !ok || last.Close != 103 {
		t.Errorf("store last sealed = %+v ok=%v", last, ok)
	}
}

func TestAggregator_DropsLateTicks(t *testing.T) {
	store := candles.New(0)
	a := New(store)

	var dropped int
	a.OnDroppedTick = func() { dropped++ }

	start := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	a.Update("AAPL", model.M5, 100, 1, start.Add(5*time.Minute))

	// Tick from the previous (already passed) bucket.
	res := a.Update("AAPL", model.M5, 98, 1, start)
	if res.SealedNow {
		t.Error("late tick must not seal")
	}
	if res.Live.Close != 100 {
		t.Errorf("late tick mutated live bar: close = %g", res.Live.Close)
	}
	if dropped != 1 {
		t.Errorf("dropped counter = %d, want 1", dropped)
	}
}

func TestAggregator_Flush(t *testing.T) {
	store := candles.New(0)
	a := New(store)

	start := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	a.Update("AAPL", model.M5, 100, 1, start)
	a.Update("MSFT", model.M5, 410, 1, start)

	out := a.Flush()
	if len(out) != 2 {
		t.Fatalf("Flush sealed %d bars, want 2", len(out))
	}
	if store.Len("AAPL", model.M5) != 1 || store.Len("MSFT", model.M5) != 1 {
		t.Error("flushed bars not appended to store")
	}

	// Flushing twice seals nothing new.
	if again := a.Flush(); len(again) != 0 {
		t.Errorf("second Flush sealed %d bars", len(again))
	}
}

// A seeded random walk across many buckets: every live bar must bound all
// prices seen in its bucket, and every sealed bar must carry the exact
// open/high/low/tick count accumulated before the boundary.
func TestAggregator_RandomWalkBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	store := candles.New(0)
	a := New(store)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	price := 100.0

	var hi, lo, open float64
	var ticks int

	for i := 0; i < 600; i++ {
		price += rng.Float64()*2 - 1
		ts := base.Add(time.Duration(i) * 3 * time.Second)
		res := a.Update("AAPL", model.M1, price, 1, ts)

		if res.SealedNow {
			s := res.Sealed
			if s.Open != open || s.High != hi || s.Low != lo || s.Ticks != ticks {
				t.Fatalf("tick %d sealed o=%g h=%g l=%g n=%d, want o=%g h=%g l=%g n=%d",
					i, s.Open, s.High, s.Low, s.Ticks, open, hi, lo, ticks)
			}
			ticks = 0
		}
		if ticks == 0 {
			hi, lo, open = price, price, price
		}
		if price > hi {
			hi = price
		}
		if price < lo {
			lo = price
		}
		ticks++

		live := res.Live
		if live.High != hi || live.Low != lo || live.Close != price || live.Ticks != ticks {
			t.Fatalf("tick %d live h=%g l=%g c=%g n=%d, want h=%g l=%g c=%g n=%d",
				i, live.High, live.Low, live.Close, live.Ticks, hi, lo, price, ticks)
		}
		if live.Open > live.High || live.Open < live.Low || live.Close > live.High || live.Close < live.Low {
			t.Fatalf("tick %d live bar violates OHLC bounds: %+v", i, live)
		}
	}
}

// Concurrent updates on one key: the store's live snapshot must reflect the
// final state once all writers finish, which requires the snapshot publish
// to happen under the same lock that orders the updates.
func TestAggregator_ConcurrentUpdatesPublishInOrder(t *testing.T) {
	store := candles.New(0)
	a := New(store)

	start := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	const writers = 4
	const perWriter = 250

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				a.Update("BTC-USD", model.M5, 64000+float64(w), 1, start)
			}
		}(w)
	}
	wg.Wait()

	live, ok := store.Live("BTC-USD", model.M5)
	if !ok {
		t.Fatal("no live bar after updates")
	}
	if live.Ticks != writers*perWriter {
		t.Errorf("store live ticks = %d, want %d (stale snapshot published last)",
			live.Ticks, writers*perWriter)
	}
	if live.High != 64003 || live.Low != 64000 {
		t.Errorf("live h=%g l=%g, want 64003/64000", live.High, live.Low)
	}
}
