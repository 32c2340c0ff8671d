// Package redis fans terminal events out to Redis: sealed candles go to
// capped streams plus a latest-value key, and every event is mirrored on
// a Pub/Sub channel for dashboards.
//
// Writes run through a circuit breaker. While the breaker is open,
// payloads are buffered locally and replayed once Redis recovers, so a
// Redis outage degrades delivery latency but loses nothing (up to the
// buffer cap).
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"trading-terminal/internal/bus"
	"trading-terminal/internal/model"
)

const (
	defaultLatestTTL = 30 * time.Minute
	tickTTL          = time.Minute
	eventStreamLen   = 1000

	// Circuit breaker tuning
	cbMaxFailures  = 5
	cbResetTimeout = 10 * time.Second
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes candles, signals, and trade events to Redis.
type Publisher struct {
	client *goredis.Client
	cb     *CircuitBreaker
	buf    *replayBuffer

	// Metrics hooks (optional, set before Attach).
	OnCircuitChange func(State) // fired with the new state on every transition
	OnBuffered      func()      // fired per write buffered during an outage
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// NewPublisher creates a Publisher and pings the server.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	p := &Publisher{
		client: client,
		cb:     NewCircuitBreaker(cbMaxFailures, cbResetTimeout),
	}
	p.buf = newReplayBuffer(p, 0)
	p.buf.OnBuffer = func() {
		if p.OnBuffered != nil {
			p.OnBuffered()
		}
	}
	p.cb.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit %s -> %s", from, to)
		if p.OnCircuitChange != nil {
			p.OnCircuitChange(to)
		}
		if to == StateClosed {
			go p.buf.flush(context.Background())
		}
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return p, nil
}

// Attach subscribes the publisher to the terminal event bus. Ticks,
// sealed candles, signals, and trade transitions are forwarded as they
// happen. Returns the subscriptions so callers can detach on shutdown.
func (p *Publisher) Attach(ctx context.Context, b *bus.Bus) []bus.Subscription {
	return []bus.Subscription{
		b.Subscribe(bus.EventPriceTick, func(payload any) {
			if e, ok := payload.(bus.PriceTick); ok {
				p.PublishTick(ctx, e)
			}
		}),
		b.Subscribe(bus.EventCandleSealed, func(payload any) {
			if e, ok := payload.(bus.CandleSealed); ok {
				p.PublishCandle(ctx, e.Candle)
			}
		}),
		b.Subscribe(bus.EventSignal, func(payload any) {
			if e, ok := payload.(bus.SignalGenerated); ok {
				p.PublishSignal(ctx, e.Signal)
			}
		}),
		b.Subscribe(bus.EventTradeOpened, func(payload any) {
			if e, ok := payload.(bus.TradeOpened); ok {
				p.PublishTrade(ctx, e.Trade)
			}
		}),
		b.Subscribe(bus.EventTradeClosed, func(payload any) {
			if e, ok := payload.(bus.TradeClosed); ok {
				p.PublishTrade(ctx, e.Trade)
			}
		}),
	}
}

// candleStreamLen keeps roughly a day of bars per stream, floor 200.
func candleStreamLen(iv model.Interval) int64 {
	n := int64(86400 / int64(iv))
	if n < 200 {
		n = 200
	}
	return n
}

// PublishCandle performs the pipelined write for one sealed candle:
// SET latest + XADD to the capped stream + PUBLISH.
func (p *Publisher) PublishCandle(ctx context.Context, c model.Candle) {
	err := p.cb.Execute(func() error {
		return p.writeCandle(ctx, c)
	})
	if err == ErrCircuitOpen {
		p.buf.add(kindCandle, c)
		return
	}
	if err != nil {
		log.Printf("[redis] candle pipeline error for %s: %v", c.Key(), err)
	}
}

func (p *Publisher) writeCandle(ctx context.Context, c model.Candle) error {
	iv := c.Interval.String()
	latestKey := fmt.Sprintf("candle:%s:latest:%s", iv, c.Symbol)
	streamKey := fmt.Sprintf("candle:%s:%s", iv, c.Symbol)
	pubsubCh := fmt.Sprintf("pub:candle:%s:%s", iv, c.Symbol)
	jsonData := string(c.JSON())

	pipe := p.client.Pipeline()
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey,
		MaxLen: candleStreamLen(c.Interval),
		Approx: true,
		Values: map[string]interface{}{"data": jsonData},
	})
	pipe.Publish(ctx, pubsubCh, jsonData)

	_, err := pipe.Exec(ctx)
	return err
}

// PublishTick refreshes the latest-price key and announces the tick.
// Ticks are never buffered: a tick that missed its moment is worthless,
// so during an open circuit they are simply dropped.
func (p *Publisher) PublishTick(ctx context.Context, e bus.PriceTick) {
	err := p.cb.Execute(func() error {
		return p.writeTick(ctx, e)
	})
	if err != nil && err != ErrCircuitOpen {
		log.Printf("[redis] tick pipeline error for %s: %v", e.Symbol, err)
	}
}

func (p *Publisher) writeTick(ctx context.Context, e bus.PriceTick) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	jsonData := string(data)

	pipe := p.client.Pipeline()
	pipe.Set(ctx, "tick:latest:"+e.Symbol, jsonData, tickTTL)
	pipe.Publish(ctx, "pub:tick:"+e.Symbol, jsonData)

	_, err = pipe.Exec(ctx)
	return err
}

// PublishSignal appends a signal to the signals stream and announces it.
func (p *Publisher) PublishSignal(ctx context.Context, sig model.Signal) {
	err := p.cb.Execute(func() error {
		return p.writeSignal(ctx, sig)
	})
	if err == ErrCircuitOpen {
		p.buf.add(kindSignal, sig)
		return
	}
	if err != nil {
		log.Printf("[redis] signal pipeline error for %s: %v", sig.Symbol, err)
	}
}

func (p *Publisher) writeSignal(ctx context.Context, sig model.Signal) error {
	jsonData := string(sig.JSON())

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "signals",
		MaxLen: eventStreamLen,
		Approx: true,
		Values: map[string]interface{}{"data": jsonData},
	})
	pipe.Publish(ctx, "pub:signal", jsonData)

	_, err := pipe.Exec(ctx)
	return err
}

// PublishTrade appends a trade snapshot (opened or closed) to the trades
// stream, refreshes the latest-trade key, and announces it.
func (p *Publisher) PublishTrade(ctx context.Context, t model.Trade) {
	err := p.cb.Execute(func() error {
		return p.writeTrade(ctx, t)
	})
	if err == ErrCircuitOpen {
		p.buf.add(kindTrade, t)
		return
	}
	if err != nil {
		log.Printf("[redis] trade pipeline error for %s: %v", t.Key(), err)
	}
}

func (p *Publisher) writeTrade(ctx context.Context, t model.Trade) error {
	jsonData := string(t.JSON())
	latestKey := "trade:latest:" + t.Key()

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "trades",
		MaxLen: eventStreamLen,
		Approx: true,
		Values: map[string]interface{}{"data": jsonData},
	})
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)
	pipe.Publish(ctx, "pub:trade", jsonData)

	_, err := pipe.Exec(ctx)
	return err
}

// PendingCount returns the number of writes buffered during an outage.
func (p *Publisher) PendingCount() int { return p.buf.pending() }

// Breaker exposes the circuit breaker state for health checks.
func (p *Publisher) Breaker() State { return p.cb.CurrentState() }

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
