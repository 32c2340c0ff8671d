package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trading-terminal/config"
	"trading-terminal/internal/bus"
	"trading-terminal/internal/candles"
	"trading-terminal/internal/feed"
	"trading-terminal/internal/logger"
	"trading-terminal/internal/marketdata/agg"
	"trading-terminal/internal/metrics"
	"trading-terminal/internal/model"
	"trading-terminal/internal/notification"
	"trading-terminal/internal/sched"
	redisstore "trading-terminal/internal/store/redis"
	sqlitestore "trading-terminal/internal/store/sqlite"
	"trading-terminal/internal/strategy"
	"trading-terminal/internal/trade"
	"trading-terminal/internal/watchlist"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[terminal] starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[terminal] %v", err)
	}
	logger.Init("terminal", cfg.SlogLevel())

	iv := cfg.BarInterval()
	wl := watchlist.Parse(cfg.Watchlist)
	log.Printf("[terminal] watching %d symbols on %s bars", wl.Len(), iv)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetWatching(wl.Len())
	prom.WatchlistSize.Set(float64(wl.Len()))
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Core pipeline ----
	events := bus.New()
	store := candles.New(0)
	aggregator := agg.New(store)
	aggregator.OnSeal = func(model.Candle) { prom.CandlesSealed.Inc() }
	aggregator.OnDroppedTick = func() { prom.DroppedTicks.Inc() }

	trades := trade.NewManager(cfg.MaxHold, cfg.SessionExit)
	engine := strategy.NewEngine(strategy.DefaultRegistry(), store, cfg.Lookback)
	engine.OnError = func(key, symbol string, err error) {
		slog.Warn("strategy evaluation failed", "strategy", key, "symbol", symbol, "err", err)
		prom.StrategyErrors.WithLabelValues(key).Inc()
	}

	// ---- Bus-driven metrics & feed watchdog ----
	watchdog := feed.NewWatchdog()
	events.Subscribe(bus.EventPriceTick, func(payload any) {
		prom.TicksTotal.Inc()
		now := time.Now()
		watchdog.Observe(now)
		health.SetLastTickTime(now)
	})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				health.SetFeedOK(watchdog.Healthy(now))
			}
		}
	}()
	events.Subscribe(bus.EventSignal, func(payload any) {
		if e, ok := payload.(bus.SignalGenerated); ok {
			prom.SignalsTotal.WithLabelValues(e.Signal.Strategy, string(e.Signal.Side)).Inc()
		}
	})
	events.Subscribe(bus.EventTradeOpened, func(payload any) {
		prom.TradesOpened.Inc()
		prom.ActiveTrades.Set(float64(trades.ActiveCount()))
		health.SetActiveTrades(trades.ActiveCount())
	})
	events.Subscribe(bus.EventTradeClosed, func(payload any) {
		if e, ok := payload.(bus.TradeClosed); ok {
			prom.TradesClosed.WithLabelValues(string(e.Reason)).Inc()
			prom.RealizedPnL.Add(e.PnL)
		}
		prom.ActiveTrades.Set(float64(trades.ActiveCount()))
		health.SetActiveTrades(trades.ActiveCount())
	})

	// ---- SQLite journal (off hot path) ----
	var sqlWriter *sqlitestore.Writer
	if cfg.SQLiteEnabled {
		os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
		sqlWriter, err = sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Fatalf("[terminal] sqlite init failed: %v", err)
		}
		defer sqlWriter.Close()

		candleCh := make(chan model.Candle, 5000)
		sqlWriter.Attach(events, candleCh)
		go sqlWriter.Run(ctx, candleCh)
		log.Println("[terminal] sqlite journal ready")
	}

	// ---- Redis publisher ----
	var redisPub *redisstore.Publisher
	if cfg.RedisEnabled {
		redisPub, err = redisstore.NewPublisher(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Printf("[terminal] WARNING: redis init failed: %v (continuing without redis)", err)
		} else {
			defer redisPub.Close()
			redisPub.OnCircuitChange = func(s redisstore.State) {
				prom.RedisCircuitState.Set(s.GaugeValue())
			}
			redisPub.OnBuffered = func() { prom.RedisBufferedWrites.Inc() }
			redisPub.Attach(ctx, events)
			log.Println("[terminal] redis publisher ready")
		}
	}
	health.SetBackends(redisPub != nil, sqlWriter != nil)

	// ---- Periodic liveness checks ----
	switch {
	case redisPub != nil && sqlWriter != nil:
		health.StartLivenessChecker(ctx, redisPub.Client(), sqlWriter.DB(), 10*time.Second)
	case redisPub != nil:
		health.StartLivenessChecker(ctx, redisPub.Client(), nil, 10*time.Second)
	case sqlWriter != nil:
		health.StartLivenessChecker(ctx, nil, sqlWriter.DB(), 10*time.Second)
	}

	// ---- Alerts ----
	if cfg.AlertsEnabled {
		notifiers := []notification.Notifier{notification.NewLogNotifier()}
		if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
			notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		}
		if cfg.AlertWebhookURL != "" {
			notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.AlertWebhookURL))
		}
		alerts := notification.NewAlertBridge(notifiers...)
		alerts.Attach(events)
		go alerts.Run(ctx)
	}

	// ---- Price feed ----
	var (
		prices  feed.PriceSource
		history feed.HistorySource
	)
	switch cfg.Feed {
	case "ws":
		stream, err := feed.NewStream(feed.StreamConfig{URL: cfg.FeedURL})
		if err != nil {
			log.Fatalf("[terminal] feed init failed: %v", err)
		}
		stream.OnReconnect = func() {
			prom.WSReconnects.Inc()
			health.SetFeedOK(false)
		}
		stream.OnDropped = func(model.Tick) { prom.RingBufOverflow.Inc() }
		go func() {
			health.SetFeedOK(true)
			if err := stream.Start(ctx); err != nil {
				log.Printf("[terminal] feed error: %v", err)
				health.SetFeedOK(false)
			}
		}()
		prices = stream

		// A restarted terminal reseeds history from the journal when
		// available, falling back to the Redis candle streams.
		if sqlWriter != nil {
			reader, err := sqlitestore.NewReader(cfg.SQLitePath)
			if err == nil {
				history = reader
				defer reader.Close()
			}
		} else if redisPub != nil {
			reader, err := redisstore.NewReader(redisstore.PublisherConfig{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err == nil {
				history = reader
				defer reader.Close()
			}
		}
	default:
		sim := feed.NewSimSource(cfg.SimBasePrice, cfg.SimVol)
		prices = sim
		history = sim
		health.SetFeedOK(true)
		log.Println("[terminal] using simulated price feed")
	}

	// ---- Scheduler ----
	scheduler := sched.New(sched.Config{
		TickEvery:  cfg.TickEvery,
		ScanEvery:  cfg.ScanEvery,
		Interval:   iv,
		Lookback:   cfg.Lookback,
		SkipClosed: cfg.SkipClosed,
		Strategies: cfg.StrategyKeys(),
	}, wl, prices, history, store, aggregator, trades, engine, events)

	scheduler.OnFetchError = func(symbol string) {
		prom.FetchErrors.WithLabelValues(symbol).Inc()
	}
	scheduler.OnScanDuration = func(d time.Duration) {
		prom.ScanDuration.Observe(d.Seconds())
	}

	go func() {
		if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("[terminal] scheduler stopped: %v", err)
		}
	}()

	log.Printf("[terminal] pipeline ready: feed=%s tick=%s scan=%s", cfg.Feed, cfg.TickEvery, cfg.ScanEvery)

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[terminal] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	log.Println("[terminal] shutdown complete.")
}
