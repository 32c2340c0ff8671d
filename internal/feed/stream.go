package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"trading-terminal/internal/model"
	"trading-terminal/internal/ringbuf"
)

// StreamConfig holds configuration for the WebSocket tick stream.
type StreamConfig struct {
	// URL of the tick WebSocket server, e.g. "ws://localhost:9001/ws"
	URL string

	// ReconnectDelay is the initial delay before reconnection attempts.
	// Defaults to 2 seconds if zero.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration

	// BufferSize is the capacity of the internal tick ring. Defaults to 4096.
	BufferSize int
}

func (c *StreamConfig) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
	if c.BufferSize == 0 {
		c.BufferSize = 4096
	}
}

// Stream connects to a plain-JSON WebSocket tick server. The wire format
// is model.Tick:
//
//	{"symbol":"AAPL","price":185.05,"qty":10,"ts":"..."}
//
// The network read loop only parses and pushes into an SPSC ring; a drain
// goroutine pops the ring, refreshes the per-symbol latest cache, and
// invokes OnTick. A slow consumer therefore backs up into the ring (and
// eventually drops ticks) instead of stalling the socket read.
//
// Stream doubles as a PriceSource: FetchPrice returns the freshest drained
// tick for the symbol, so the poll-driven scheduler can sit on top of a
// push feed without caring which it is.
type Stream struct {
	cfg  StreamConfig
	ring *ringbuf.Ring

	latest *latestCache

	// Optional hook — called each time a reconnection happens.
	OnReconnect func()

	// Optional hook — called when the ring is full and a tick is dropped.
	OnDropped func(model.Tick)

	// Optional hook — called from the drain goroutine for every tick that
	// clears the ring, in arrival order.
	OnTick func(model.Tick)
}

// NewStream creates a Stream. Returns an error if the URL is unparseable.
func NewStream(cfg StreamConfig) (*Stream, error) {
	cfg.defaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, err
	}
	return &Stream{
		cfg:    cfg,
		ring:   ringbuf.New(cfg.BufferSize),
		latest: newLatestCache(),
	}, nil
}

// Start connects to the WebSocket and streams ticks into the internal ring.
// Blocks until ctx is cancelled. Reconnects automatically on disconnect.
func (s *Stream) Start(ctx context.Context) error {
	go s.drain(ctx)

	delay := s.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := s.runOnce(ctx)
		if err == nil {
			// Context cancelled cleanly
			return nil
		}

		log.Printf("[feed] disconnected (%v), reconnecting in %s...", err, delay)
		if s.OnReconnect != nil {
			s.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.cfg.MaxReconnectDelay {
			delay = s.cfg.MaxReconnectDelay
		}
	}
}

// runOnce makes a single connection attempt and reads until disconnect or ctx cancel.
func (s *Stream) runOnce(ctx context.Context) error {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[feed] connected to %s", s.cfg.URL)

	// Async context watcher — closes the connection when ctx is cancelled.
	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		var tick model.Tick
		if err := json.Unmarshal(raw, &tick); err != nil {
			log.Printf("[feed] parse error: %v (raw: %s)", err, raw)
			continue
		}

		if tick.Symbol == "" || tick.Price <= 0 {
			log.Printf("[feed] skipping malformed tick: %s", raw)
			continue
		}
		tick.Symbol = strings.ToUpper(tick.Symbol)
		if tick.TS.IsZero() {
			tick.TS = time.Now().UTC()
		}

		s.ingest(tick)
	}
}

// ingest hands one parsed tick from the read loop to the ring. The read
// loop is the ring's single producer.
func (s *Stream) ingest(t model.Tick) {
	if !s.ring.Push(t) {
		if s.OnDropped != nil {
			s.OnDropped(t)
		}
	}
}

// drain is the ring's single consumer: it pops ticks in arrival order,
// refreshes the latest cache, and fans out to OnTick. Runs until ctx ends.
func (s *Stream) drain(ctx context.Context) {
	idle := time.NewTicker(time.Millisecond)
	defer idle.Stop()

	for {
		tick, ok := s.ring.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-idle.C:
			}
			continue
		}
		s.latest.set(tick)
		if s.OnTick != nil {
			s.OnTick(tick)
		}
	}
}

// FetchPrice returns the freshest drained tick for symbol. Errors if no
// tick has arrived for the symbol yet.
func (s *Stream) FetchPrice(_ context.Context, symbol string) (model.Tick, error) {
	tick, ok := s.latest.get(strings.ToUpper(symbol))
	if !ok {
		return model.Tick{}, &NoTickError{Symbol: symbol}
	}
	return tick, nil
}

// Dropped returns the total ticks discarded because the ring was full.
func (s *Stream) Dropped() uint64 {
	return s.ring.Overflow()
}

// NoTickError reports that a symbol has produced no tick on the stream yet.
type NoTickError struct {
	Symbol string
}

func (e *NoTickError) Error() string {
	return "feed: no tick received yet for " + e.Symbol
}
