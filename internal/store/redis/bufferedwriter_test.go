package redis

import (
	"testing"
	"time"

	"trading-terminal/internal/model"
)

func TestReplayBuffer_NotifiesAndCaps(t *testing.T) {
	rb := newReplayBuffer(nil, 3)

	var buffered int
	rb.OnBuffer = func() { buffered++ }

	for i := 0; i < 5; i++ {
		rb.add(kindCandle, model.Candle{
			Symbol: "AAPL", Interval: model.M5,
			Start: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(i) * 5 * time.Minute),
			Open:  100, High: 100, Low: 100, Close: 100,
		})
	}

	if buffered != 5 {
		t.Errorf("OnBuffer fired %d times, want 5", buffered)
	}
	// Cap of 3: the two oldest writes were evicted.
	if rb.pending() != 3 {
		t.Errorf("pending = %d, want 3", rb.pending())
	}
}
