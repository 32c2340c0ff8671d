package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"trading-terminal/internal/model"
)

type writeKind string

const (
	kindCandle writeKind = "candle"
	kindSignal writeKind = "signal"
	kindTrade  writeKind = "trade"
)

// pendingWrite is a publish that was buffered during circuit-open state.
type pendingWrite struct {
	Kind writeKind
	Data []byte // JSON-encoded payload
}

// replayBuffer holds writes rejected by an open circuit and replays them
// in order once the breaker closes. When full, the oldest write is dropped.
type replayBuffer struct {
	pub *Publisher

	mu     sync.Mutex
	buffer []pendingWrite
	maxBuf int

	// OnBuffer is called when a write is buffered (for metrics). Optional.
	OnBuffer func()
}

func newReplayBuffer(pub *Publisher, maxBuf int) *replayBuffer {
	if maxBuf <= 0 {
		maxBuf = 10000
	}
	return &replayBuffer{
		pub:    pub,
		buffer: make([]pendingWrite, 0, 256),
		maxBuf: maxBuf,
	}
}

func (rb *replayBuffer) add(kind writeKind, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[redis] buffer marshal error: %v", err)
		return
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(rb.buffer) >= rb.maxBuf {
		rb.buffer = rb.buffer[1:]
	}
	rb.buffer = append(rb.buffer, pendingWrite{Kind: kind, Data: data})

	if rb.OnBuffer != nil {
		rb.OnBuffer()
	}
}

// flush replays all buffered writes through the publisher. Writes that
// fail again go back through the breaker and re-buffer.
func (rb *replayBuffer) flush(ctx context.Context) {
	rb.mu.Lock()
	if len(rb.buffer) == 0 {
		rb.mu.Unlock()
		return
	}
	toFlush := rb.buffer
	rb.buffer = make([]pendingWrite, 0, 256)
	rb.mu.Unlock()

	for _, pw := range toFlush {
		switch pw.Kind {
		case kindCandle:
			var c model.Candle
			if json.Unmarshal(pw.Data, &c) == nil {
				rb.pub.PublishCandle(ctx, c)
			}
		case kindSignal:
			var s model.Signal
			if json.Unmarshal(pw.Data, &s) == nil {
				rb.pub.PublishSignal(ctx, s)
			}
		case kindTrade:
			var t model.Trade
			if json.Unmarshal(pw.Data, &t) == nil {
				rb.pub.PublishTrade(ctx, t)
			}
		}
	}

	log.Printf("[redis] flushed %d buffered writes", len(toFlush))
}

func (rb *replayBuffer) pending() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buffer)
}
