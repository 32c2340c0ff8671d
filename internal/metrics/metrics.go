// Package metrics exposes the terminal's Prometheus instrumentation and
// the /metrics + /healthz HTTP endpoints.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the terminal pipeline.
type Metrics struct {
	TicksTotal    prometheus.Counter
	CandlesSealed prometheus.Counter
	DroppedTicks  prometheus.Counter
	FetchErrors   *prometheus.CounterVec // labels: symbol
	WSReconnects  prometheus.Counter

	SignalsTotal   *prometheus.CounterVec // labels: strategy, side
	StrategyErrors *prometheus.CounterVec // labels: strategy

	TradesOpened  prometheus.Counter
	TradesClosed  *prometheus.CounterVec // labels: reason
	ActiveTrades  prometheus.Gauge
	WatchlistSize prometheus.Gauge
	ScanDuration  prometheus.Histogram

	// Redis delivery
	RedisCircuitState   prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisBufferedWrites prometheus.Counter

	// Ring buffer overflow (streaming feed)
	RingBufOverflow prometheus.Counter

	// RealizedPnL tracks cumulative realized P&L (can go negative).
	RealizedPnL prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terminal_ticks_total",
			Help: "Total price ticks processed",
		}),
		CandlesSealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terminal_candles_sealed_total",
			Help: "Total bars sealed by the aggregator",
		}),
		DroppedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terminal_dropped_ticks_total",
			Help: "Ticks dropped (late bucket)",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terminal_fetch_errors_total",
			Help: "Price fetch failures per symbol",
		}, []string{"symbol"}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terminal_ws_reconnects_total",
			Help: "WebSocket feed reconnection attempts",
		}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terminal_signals_total",
			Help: "Signals generated (by strategy and side)",
		}, []string{"strategy", "side"}),
		StrategyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terminal_strategy_errors_total",
			Help: "Strategy evaluation failures (by strategy)",
		}, []string{"strategy"}),

		TradesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terminal_trades_opened_total",
			Help: "Paper trades opened",
		}),
		TradesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terminal_trades_closed_total",
			Help: "Paper trades closed (by exit reason)",
		}, []string{"reason"}),
		ActiveTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terminal_active_trades",
			Help: "Currently open paper trades",
		}),
		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terminal_watchlist_size",
			Help: "Symbols currently watched",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "terminal_scan_duration_seconds",
			Help:    "Watchlist scan latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),

		RedisCircuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terminal_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisBufferedWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terminal_redis_buffered_writes_total",
			Help: "Writes buffered locally while the Redis circuit was open",
		}),

		RingBufOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terminal_ringbuf_overflow_total",
			Help: "Streamed ticks dropped by a full ring buffer",
		}),

		RealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terminal_realized_pnl",
			Help: "Cumulative realized P&L across closed trades",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.CandlesSealed,
		m.DroppedTicks,
		m.FetchErrors,
		m.WSReconnects,
		m.SignalsTotal,
		m.StrategyErrors,
		m.TradesOpened,
		m.TradesClosed,
		m.ActiveTrades,
		m.WatchlistSize,
		m.ScanDuration,
		m.RedisCircuitState,
		m.RedisBufferedWrites,
		m.RingBufOverflow,
		m.RealizedPnL,
	)

	return m
}

// HealthStatus represents terminal health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	FeedOK         bool      `json:"feed_ok"`
	LastTickTime   time.Time `json:"last_tick_time"`
	RedisEnabled   bool      `json:"redis_enabled"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteEnabled  bool      `json:"sqlite_enabled"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	Watching       int       `json:"watching"`
	ActiveTrades   int       `json:"active_trades"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedOK(v bool) {
	h.mu.Lock()
	h.FeedOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

// SetBackends records which persistence backends are configured. A backend
// that was never enabled does not count against health.
func (h *HealthStatus) SetBackends(redis, sqlite bool) {
	h.mu.Lock()
	h.RedisEnabled = redis
	h.SQLiteEnabled = sqlite
	h.mu.Unlock()
}

func (h *HealthStatus) SetWatching(n int) {
	h.mu.Lock()
	h.Watching = n
	h.mu.Unlock()
}

func (h *HealthStatus) SetActiveTrades(n int) {
	h.mu.Lock()
	h.ActiveTrades = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx ends.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	redisOK := h.RedisConnected || !h.RedisEnabled
	sqliteOK := h.SQLiteOK || !h.SQLiteEnabled
	if !h.FeedOK || !redisOK || !sqliteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !redisOK && !sqliteOK {
		overallStatus = "unhealthy"
	}

	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		FeedOK          bool    `json:"feed_ok"`
		LastTickTime    string  `json:"last_tick_time"`
		TickAge         string  `json:"tick_age"`
		RedisEnabled    bool    `json:"redis_enabled"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteEnabled   bool    `json:"sqlite_enabled"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		Watching        int     `json:"watching"`
		ActiveTrades    int     `json:"active_trades"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		FeedOK:          h.FeedOK,
		LastTickTime:    h.LastTickTime.Format(time.RFC3339),
		TickAge:         tickAge,
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteEnabled:   h.SQLiteEnabled,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		Watching:        h.Watching,
		ActiveTrades:    h.ActiveTrades,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
