package candles

import (
	"testing"
	"time"

	"trading-terminal/internal/model"
)

func bar(t *testing.T, symbol string, iv model.Interval, start time.Time, close float64) model.Candle {
	t.Helper()
	c := model.Candle{
		Symbol: symbol, Interval: iv, Start: start,
		Open: close, High: close, Low: close, Close: close,
		Volume: 10, Ticks: 3,
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("test bar invalid: %v", err)
	}
	return c
}

func TestStore_AppendAndTail(t *testing.T) {
	s := New(0)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		c := bar(t, "AAPL", model.M5, base.Add(time.Duration(i)*5*time.Minute), 100+float64(i))
		if err := s.Append(c); err != nil {
			t.Fatalf("append bar %d: %v", i, err)
		}
	}
	if n := s.Len("AAPL", model.M5); n != 5 {
		t.Fatalf("Len = %d, want 5", n)
	}

	tail := s.Tail("AAPL", model.M5, 3)
	if len(tail) != 3 {
		t.Fatalf("Tail(3) returned %d bars", len(tail))
	}
	if tail[2].Close != 104 {
		t.Errorf("newest tail close = %g, want 104", tail[2].Close)
	}

	// Tail is a snapshot: mutating it must not touch the store.
	tail[2].Close = -1
	last, ok := s.LastSealed("AAPL", model.M5)
	if !ok || last.Close != 104 {
		t.Errorf("store mutated through Tail snapshot: %+v", last)
	}

	// n <= 0 returns everything.
	if all := s.Tail("AAPL", model.M5, 0); len(all) != 5 {
		t.Errorf("Tail(0) = %d bars, want 5", len(all))
	}
}

func TestStore_AppendRejectsOutOfOrder(t *testing.T) {
	s := New(0)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := s.Append(bar(t, "MSFT", model.M5, base.Add(5*time.Minute), 410)); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Same start
	if err := s.Append(bar(t, "MSFT", model.M5, base.Add(5*time.Minute), 411)); err == nil {
		t.Error("duplicate start should be rejected")
	}
	// Older start
	if err := s.Append(bar(t, "MSFT", model.M5, base, 409)); err == nil {
		t.Error("older start should be rejected")
	}
	// Gap is fine
	if err := s.Append(bar(t, "MSFT", model.M5, base.Add(20*time.Minute), 412)); err != nil {
		t.Errorf("gapped append should succeed: %v", err)
	}
}

func TestStore_Live(t *testing.T) {
	s := New(0)
	if _, ok := s.Live("AAPL", model.M5); ok {
		t.Fatal("Live on empty store should report false")
	}

	start := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	c := bar(t, "AAPL", model.M5, start, 101)
	s.SetLive(c)

	got, ok := s.Live("AAPL", model.M5)
	if !ok || got.Close != 101 {
		t.Fatalf("Live = %+v ok=%v", got, ok)
	}

	// Live bars do not count as sealed history.
	if n := s.Len("AAPL", model.M5); n != 0 {
		t.Errorf("SetLive leaked into sealed history: Len = %d", n)
	}
}

func TestStore_MaxBarsTrim(t *testing.T) {
	s := New(3)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		if err := s.Append(bar(t, "BTC-USD", model.M1, base.Add(time.Duration(i)*time.Minute), float64(i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	tail := s.Tail("BTC-USD", model.M1, 0)
	if len(tail) != 3 {
		t.Fatalf("retained %d bars, want 3", len(tail))
	}
	if tail[0].Close != 3 || tail[2].Close != 5 {
		t.Errorf("wrong bars survived trim: first=%g last=%g", tail[0].Close, tail[2].Close)
	}
}

func TestStore_SeedHistory(t *testing.T) {
	s := New(0)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	bars := []model.Candle{
		bar(t, "AAPL", model.M5, base, 100),
		bar(t, "AAPL", model.M5, base.Add(5*time.Minute), 101),
		bar(t, "AAPL", model.M5, base.Add(10*time.Minute), 102),
	}
	if err := s.SeedHistory("AAPL", model.M5, bars); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n := s.Len("AAPL", model.M5); n != 3 {
		t.Fatalf("Len after seed = %d", n)
	}

	// Second seed on a populated key is a no-op.
	other := []model.Candle{bar(t, "AAPL", model.M5, base.Add(time.Hour), 200)}
	if err := s.SeedHistory("AAPL", model.M5, other); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	last, _ := s.LastSealed("AAPL", model.M5)
	if last.Close != 102 {
		t.Errorf("re-seed overwrote history: last close %g", last.Close)
	}

	// Unordered seed aborts.
	unordered := []model.Candle{
		bar(t, "MSFT", model.M5, base.Add(5*time.Minute), 410),
		bar(t, "MSFT", model.M5, base, 409),
	}
	if err := s.SeedHistory("MSFT", model.M5, unordered); err == nil {
		t.Error("unordered seed should fail")
	}
}
