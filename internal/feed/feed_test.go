package feed

import (
	"context"
	"testing"
	"time"

	"trading-terminal/internal/model"
)

func TestSimSource_FetchPrice(t *testing.T) {
	ctx := context.Background()

	// Two fresh sources walk the same symbol identically.
	a := NewSimSource(100, 0.002)
	b := NewSimSource(100, 0.002)
	for i := 0; i < 10; i++ {
		ta, err := a.FetchPrice(ctx, "AAPL")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		tb, _ := b.FetchPrice(ctx, "AAPL")
		if ta.Price != tb.Price {
			t.Fatalf("step %d diverged: %g vs %g", i, ta.Price, tb.Price)
		}
		if ta.Price <= 0 || ta.Qty <= 0 {
			t.Fatalf("bad tick: %+v", ta)
		}
	}

	// Different symbols walk different paths.
	t1, _ := a.FetchPrice(ctx, "MSFT")
	t2, _ := a.FetchPrice(ctx, "GOOGL")
	if t1.Price == t2.Price {
		t.Error("distinct symbols should not share a walk")
	}
}

func TestSimSource_FetchHistory(t *testing.T) {
	ctx := context.Background()
	s := NewSimSource(100, 0.002)

	bars, err := s.FetchHistory(ctx, "AAPL", model.M5, 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(bars) != 50 {
		t.Fatalf("got %d bars, want 50", len(bars))
	}

	now := time.Now().UTC()
	for i, c := range bars {
		if err := c.Validate(); err != nil {
			t.Fatalf("bar %d invalid: %v", i, err)
		}
		if i > 0 && !c.Start.Equal(bars[i-1].Start.Add(5*time.Minute)) {
			t.Fatalf("bar %d not contiguous: %s after %s", i, c.Start, bars[i-1].Start)
		}
	}
	// History ends before the current (live) bucket.
	liveStart := time.Unix(model.M5.Bucket(now), 0).UTC()
	if !bars[len(bars)-1].Start.Before(liveStart) {
		t.Errorf("newest bar %s overlaps the live bucket %s", bars[len(bars)-1].Start, liveStart)
	}

	// Repeated calls agree bar for bar (same window: the walk reseeds).
	again, _ := s.FetchHistory(ctx, "AAPL", model.M5, 50)
	if len(again) == len(bars) && again[0].Start.Equal(bars[0].Start) && again[0].Close != bars[0].Close {
		t.Error("history walk is not deterministic")
	}

	if none, _ := s.FetchHistory(ctx, "AAPL", model.M5, 0); none != nil {
		t.Error("zero lookback should return nothing")
	}
}

func TestWatchdog(t *testing.T) {
	w := NewWatchdog()
	now := time.Now().UTC()

	if w.Healthy(now) {
		t.Error("watchdog should be unhealthy before the first tick")
	}

	w.Observe(now)
	if !w.Healthy(now.Add(10 * time.Second)) {
		t.Error("fresh tick should be healthy")
	}
	if w.Healthy(now.Add(31 * time.Second)) {
		t.Error("30s of silence should flag stale")
	}

	// Out-of-order observation never regresses the timestamp.
	w.Observe(now.Add(-time.Minute))
	if !w.LastTick().Equal(now) {
		t.Errorf("LastTick = %s, want %s", w.LastTick(), now)
	}
}

func TestStream_DrainDeliversInOrder(t *testing.T) {
	s, err := NewStream(StreamConfig{URL: "ws://localhost:9001/ws", BufferSize: 64})
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	got := make(chan model.Tick, 32)
	s.OnTick = func(tick model.Tick) { got <- tick }

	base := time.Now().UTC()
	for i := 0; i < 20; i++ {
		s.ingest(model.Tick{
			Symbol: "AAPL",
			Price:  100 + float64(i),
			Qty:    1,
			TS:     base.Add(time.Duration(i) * time.Millisecond),
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.drain(ctx)

	for i := 0; i < 20; i++ {
		select {
		case tick := <-got:
			if tick.Price != 100+float64(i) {
				t.Fatalf("tick %d out of order: price %g", i, tick.Price)
			}
		case <-time.After(time.Second):
			t.Fatalf("drain stalled after %d ticks", i)
		}
	}

	last, err := s.FetchPrice(ctx, "aapl")
	if err != nil || last.Price != 119 {
		t.Errorf("FetchPrice = %+v err=%v, want freshest price 119", last, err)
	}
	if s.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0", s.Dropped())
	}
}

func TestStream_FullRingDropsAndCounts(t *testing.T) {
	s, err := NewStream(StreamConfig{URL: "ws://localhost:9001/ws", BufferSize: 8})
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	var dropped []model.Tick
	s.OnDropped = func(tick model.Tick) { dropped = append(dropped, tick) }

	base := time.Now().UTC()
	for i := 0; i < 20; i++ {
		s.ingest(model.Tick{
			Symbol: "AAPL",
			Price:  100 + float64(i),
			Qty:    1,
			TS:     base.Add(time.Duration(i) * time.Millisecond),
		})
	}

	// 8 fit, 12 overflow. The oldest ticks are kept, the newest dropped.
	if len(dropped) != 12 || s.Dropped() != 12 {
		t.Fatalf("dropped %d, counter %d, want 12/12", len(dropped), s.Dropped())
	}
	if dropped[0].Price != 108 {
		t.Errorf("first drop price = %g, want 108", dropped[0].Price)
	}

	// The drain still surfaces everything that made it into the ring.
	got := make(chan model.Tick, 8)
	s.OnTick = func(tick model.Tick) { got <- tick }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.drain(ctx)

	for i := 0; i < 8; i++ {
		select {
		case <-got:
		case <-time.After(time.Second):
			t.Fatalf("drain stalled after %d ticks", i)
		}
	}
	last, err := s.FetchPrice(ctx, "AAPL")
	if err != nil || last.Price != 107 {
		t.Errorf("FetchPrice = %+v err=%v, want last kept price 107", last, err)
	}
}

func TestLatestCache(t *testing.T) {
	c := newLatestCache()
	if _, ok := c.get("AAPL"); ok {
		t.Error("empty cache should miss")
	}

	now := time.Now().UTC()
	c.set(model.Tick{Symbol: "AAPL", Price: 100, TS: now})
	c.set(model.Tick{Symbol: "AAPL", Price: 99, TS: now.Add(-time.Second)}) // stale frame

	got, ok := c.get("AAPL")
	if !ok || got.Price != 100 {
		t.Errorf("cache = %+v ok=%v, want price 100", got, ok)
	}

	c.set(model.Tick{Symbol: "AAPL", Price: 101, TS: now.Add(time.Second)})
	if got, _ := c.get("AAPL"); got.Price != 101 {
		t.Errorf("newer tick not kept: %+v", got)
	}
}
