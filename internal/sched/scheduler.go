// Package sched drives the terminal's two periodic loops: the fast tick
// cycle (fetch a price per symbol, fold it into the live bar, run exit
// checks) and the slow scan cycle (evaluate every strategy over the
// watchlist and open trades from fresh signals).
//
// The cycles share no locks with each other; all coordination happens
// through the candle store, the trade manager, and the event bus.
package sched

import (
	"context"
	"log"
	"sync"
	"time"

	"trading-terminal/internal/bus"
	"trading-terminal/internal/candles"
	"trading-terminal/internal/feed"
	"trading-terminal/internal/markethours"
	"trading-terminal/internal/marketdata/agg"
	"trading-terminal/internal/model"
	"trading-terminal/internal/strategy"
	"trading-terminal/internal/trade"
	"trading-terminal/internal/watchlist"
)

const (
	defaultTickEvery = 5 * time.Second
	defaultScanEvery = 60 * time.Second
	defaultLookback  = 300
	fetchTimeout     = 4 * time.Second
)

// Config holds scheduler timing and behavior knobs.
type Config struct {
	// TickEvery is the price poll period. Defaults to 5s.
	TickEvery time.Duration

	// ScanEvery is the strategy scan period. Defaults to 60s.
	ScanEvery time.Duration

	// Interval is the bar interval the terminal trades on.
	Interval model.Interval

	// Lookback is the seed depth requested from the history source.
	// Defaults to 300 bars.
	Lookback int

	// SkipClosed skips price polls for symbols whose market is closed.
	// Crypto symbols are never skipped.
	SkipClosed bool

	// Strategies restricts scans to these strategy keys. nil runs all.
	Strategies []string
}

func (c *Config) defaults() {
	if c.TickEvery <= 0 {
		c.TickEvery = defaultTickEvery
	}
	if c.ScanEvery <= 0 {
		c.ScanEvery = defaultScanEvery
	}
	if c.Lookback <= 0 {
		c.Lookback = defaultLookback
	}
}

// Scheduler runs the tick and scan cycles until its context is cancelled.
type Scheduler struct {
	cfg     Config
	wl      *watchlist.Watchlist
	prices  feed.PriceSource
	history feed.HistorySource // optional
	store   *candles.Store
	agg     *agg.Aggregator
	trades  *trade.Manager
	engine  *strategy.Engine
	events  *bus.Bus

	seedMu sync.Mutex
	seeded map[string]bool

	// Metrics hooks (optional, set before Run)
	OnFetchError   func(symbol string)
	OnScanDuration func(time.Duration)
	OnSignal       func(model.Signal)
}

// New wires a Scheduler over the core components. history may be nil when
// no seed source exists; the store then warms up from live ticks alone.
func New(cfg Config, wl *watchlist.Watchlist, prices feed.PriceSource, history feed.HistorySource,
	store *candles.Store, aggregator *agg.Aggregator, trades *trade.Manager,
	engine *strategy.Engine, events *bus.Bus) *Scheduler {
	cfg.defaults()
	return &Scheduler{
		cfg:     cfg,
		wl:      wl,
		prices:  prices,
		history: history,
		store:   store,
		agg:     aggregator,
		trades:  trades,
		engine:  engine,
		events:  events,
		seeded:  make(map[string]bool),
	}
}

// Run blocks until ctx is cancelled, driving both cycles. A scan fires
// immediately on start so the terminal does not sit idle for a full scan
// period; tick cycles begin on the first tick boundary. On shutdown the
// aggregator is flushed so in-flight bars are sealed.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("[sched] started: tick=%s scan=%s interval=%s symbols=%d",
		s.cfg.TickEvery, s.cfg.ScanEvery, s.cfg.Interval, s.wl.Len())

	tickT := time.NewTicker(s.cfg.TickEvery)
	defer tickT.Stop()
	scanT := time.NewTicker(s.cfg.ScanEvery)
	defer scanT.Stop()

	s.scanCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			flushed := s.agg.Flush()
			log.Printf("[sched] stopped, flushed %d live bars", len(flushed))
			return ctx.Err()
		case <-tickT.C:
			s.tickCycle(ctx)
		case <-scanT.C:
			s.scanCycle(ctx)
		}
	}
}

// tickCycle polls one price per watched symbol, in parallel. Each symbol's
// work is independent: a fetch failure skips that symbol for the cycle.
func (s *Scheduler) tickCycle(ctx context.Context) {
	now := time.Now().UTC()
	var wg sync.WaitGroup
	for _, symbol := range s.wl.Symbols() {
		if s.cfg.SkipClosed && !markethours.IsOpen(symbol, now) {
			continue
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			s.tickSymbol(ctx, symbol)
		}(symbol)
	}
	wg.Wait()
}

func (s *Scheduler) tickSymbol(ctx context.Context, symbol string) {
	s.seedIfNeeded(ctx, symbol)

	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	tick, err := s.prices.FetchPrice(fctx, symbol)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[sched] fetch %s: %v", symbol, err)
		}
		if s.OnFetchError != nil {
			s.OnFetchError(symbol)
		}
		return
	}

	res := s.agg.Update(symbol, s.cfg.Interval, tick.Price, tick.Qty, tick.TS)
	if res.SealedNow {
		s.events.Publish(bus.EventCandleSealed, bus.CandleSealed{Candle: *res.Sealed})
	}

	if closed, ok := s.trades.CheckExits(symbol, s.cfg.Interval, tick.Price, tick.TS); ok {
		s.events.Publish(bus.EventTradeClosed, bus.TradeClosed{
			Symbol:    symbol,
			ExitPrice: closed.ExitPrice,
			Reason:    closed.ExitReason,
			PnL:       closed.PnL,
			Trade:     closed,
		})
	}

	pt := bus.PriceTick{Symbol: symbol, Price: tick.Price, Bar: res.Live}
	if t, ok := s.trades.Active(symbol, s.cfg.Interval); ok {
		pnl := t.LivePnL(tick.Price)
		pt.ActiveTrade = &t
		pt.LivePnL = &pnl
	}
	s.events.Publish(bus.EventPriceTick, pt)
}

// seedIfNeeded backfills the candle store from the history source the
// first time a symbol is ticked. Seeding is attempted once per key; a
// failed seed falls through to live warm-up rather than retrying forever.
func (s *Scheduler) seedIfNeeded(ctx context.Context, symbol string) {
	if s.history == nil {
		return
	}
	k := symbol + ":" + s.cfg.Interval.String()
	s.seedMu.Lock()
	if s.seeded[k] {
		s.seedMu.Unlock()
		return
	}
	s.seeded[k] = true
	s.seedMu.Unlock()

	bars, err := s.history.FetchHistory(ctx, symbol, s.cfg.Interval, s.cfg.Lookback)
	if err != nil {
		log.Printf("[sched] history seed %s: %v", symbol, err)
		return
	}
	if err := s.store.SeedHistory(symbol, s.cfg.Interval, bars); err != nil {
		log.Printf("[sched] history seed %s: %v", symbol, err)
		return
	}
	log.Printf("[sched] seeded %s with %d bars", k, len(bars))
}

// scanCycle runs every registered strategy over the watchlist, publishes
// the fresh signals, and opens trades from them. Strategies evaluate the
// whole window; only signals on each symbol's newest sealed bar act —
// older signals are history, already traded or expired.
func (s *Scheduler) scanCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	symbols := s.wl.Symbols()
	sigs := s.engine.ScanWatchlist(symbols, s.cfg.Interval, s.cfg.Strategies)
	fresh := s.filterFresh(sigs)

	now := time.Now().UTC()
	for _, sig := range fresh {
		if s.OnSignal != nil {
			s.OnSignal(sig)
		}
		s.events.Publish(bus.EventSignal, bus.SignalGenerated{Signal: sig})

		opened, err := s.trades.OpenTrade(sig, now)
		if err != nil {
			// Duplicate keys are routine: one trade per key at a time.
			log.Printf("[sched] open %s:%s (%s): %v", sig.Symbol, sig.Interval, sig.Strategy, err)
			continue
		}
		log.Printf("[sched] opened %s %s @ %.4f sl=%.4f tp=%.4f (%s, conf=%.0f)",
			opened.Side, opened.Symbol, opened.EntryPrice, opened.StopLoss,
			opened.TakeProfit, opened.Strategy, opened.Confidence)
		s.events.Publish(bus.EventTradeOpened, bus.TradeOpened{Trade: opened})
	}

	dur := time.Since(started)
	if s.OnScanDuration != nil {
		s.OnScanDuration(dur)
	}
	log.Printf("[sched] scan done: symbols=%d signals=%d fresh=%d took=%s",
		len(symbols), len(sigs), len(fresh), dur)

	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if c, ok := s.store.Live(symbol, s.cfg.Interval); ok {
			prices[symbol] = c.Close
		}
	}
	book := s.trades.Summary(prices)
	log.Printf("[sched] book: open=%d closed=%d winrate=%.1f%% realized=%+.2f unrealized=%+.2f",
		book.OpenPositions, book.TotalTrades, book.WinRatePct, book.RealizedPnL, book.UnrealizedPnL)
}

// filterFresh keeps only signals stamped on their symbol's newest sealed
// bar. At most one signal per (symbol, interval) survives: the first in
// scan order, matching the one-trade-per-key rule downstream.
func (s *Scheduler) filterFresh(sigs []model.Signal) []model.Signal {
	taken := make(map[string]bool, len(sigs))
	var out []model.Signal
	for _, sig := range sigs {
		last, ok := s.store.LastSealed(sig.Symbol, sig.Interval)
		if !ok || !sig.BarTime.Equal(last.Start) {
			continue
		}
		k := sig.Symbol + ":" + sig.Interval.String()
		if taken[k] {
			continue
		}
		taken[k] = true
		out = append(out, sig)
	}
	return out
}
