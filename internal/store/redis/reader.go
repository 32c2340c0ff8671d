package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"trading-terminal/internal/model"
)

// Reader loads candles back out of the Redis streams the Publisher
// writes. It implements the history-source contract, so a restarted
// terminal can reseed its in-memory candle store from Redis instead of
// warming up from live ticks.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a Reader and pings the server.
func NewReader(cfg PublisherConfig) (*Reader, error) {
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

	log.Printf("[redis-reader] connected to %s", cfg.Addr)
	return &Reader{client: client}, nil
}

// FetchHistory reads up to lookback sealed candles for (symbol, iv) from
// the candle stream, oldest first. An absent stream yields an empty slice,
// not an error: a fresh deployment simply has no history yet.
func (r *Reader) FetchHistory(ctx context.Context, symbol string, iv model.Interval, lookback int) ([]model.Candle, error) {
	streamKey := fmt.Sprintf("candle:%s:%s", iv, symbol)

	msgs, err := r.client.XRevRangeN(ctx, streamKey, "+", "-", int64(lookback)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("xrevrange %s: %w", streamKey, err)
	}

	out := make([]model.Candle, 0, len(msgs))
	for _, msg := range msgs {
		data, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var c model.Candle
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			log.Printf("[redis-reader] unmarshal candle error: %v", err)
			continue
		}
		out = append(out, c)
	}

	// XRevRange returns newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// LatestCandle reads the latest-value key for (symbol, iv). Returns false
// when the key is absent or expired.
func (r *Reader) LatestCandle(ctx context.Context, symbol string, iv model.Interval) (model.Candle, bool, error) {
	key := fmt.Sprintf("candle:%s:latest:%s", iv, symbol)
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return model.Candle{}, false, nil
		}
		return model.Candle{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var c model.Candle
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return model.Candle{}, false, fmt.Errorf("unmarshal candle: %w", err)
	}
	return c, true, nil
}

// SubscribeTrades subscribes to the trade Pub/Sub channel and forwards
// trade snapshots to out until ctx is cancelled. Slow consumers drop.
func (r *Reader) SubscribeTrades(ctx context.Context, out chan<- model.Trade) error {
	pubsub := r.client.Subscribe(ctx, "pub:trade")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var t model.Trade
			if err := json.Unmarshal([]byte(msg.Payload), &t); err != nil {
				continue
			}
			select {
			case out <- t:
			default:
			}
		}
	}
}

// Close closes the Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}
