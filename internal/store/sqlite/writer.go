// Package sqlite persists the terminal's durable record: sealed candles,
// generated signals, and the trade journal. Candles arrive in bursts and
// go through a batching writer; signals and trades are low-rate and write
// synchronously.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trading-terminal/internal/bus"
	"trading-terminal/internal/model"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/terminal.db"
}

// Writer is a single-writer SQLite journal with transaction batching for
// candles.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a Writer and initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer discipline
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol     TEXT    NOT NULL,
			interval   TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			volume     REAL,
			ticks      INTEGER,
			PRIMARY KEY (symbol, interval, ts)
		);

		CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT    NOT NULL,
			interval    TEXT    NOT NULL,
			side        TEXT    NOT NULL,
			price       REAL    NOT NULL,
			stop_loss   REAL    NOT NULL,
			take_profit REAL    NOT NULL,
			confidence  REAL    NOT NULL,
			strategy    TEXT    NOT NULL,
			bar_ts      INTEGER NOT NULL,
			rsi         REAL,
			atr         REAL,
			created_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT    NOT NULL,
			interval    TEXT    NOT NULL,
			side        TEXT    NOT NULL,
			entry_price REAL    NOT NULL,
			stop_loss   REAL    NOT NULL,
			take_profit REAL    NOT NULL,
			confidence  REAL    NOT NULL,
			strategy    TEXT    NOT NULL,
			opened_at   INTEGER NOT NULL,
			status      TEXT    NOT NULL,
			exit_price  REAL,
			exit_reason TEXT,
			closed_at   INTEGER,
			pnl         REAL,
			pnl_pct     REAL
		);

		CREATE INDEX IF NOT EXISTS idx_trades_open
			ON trades (symbol, interval, opened_at);
	`)
	return err
}

// Run reads sealed candles from candleCh and inserts them in batched
// transactions. Flushes every batchSize candles OR every flushDelay,
// whichever comes first. Blocks until ctx is cancelled or candleCh closes.
func (w *Writer) Run(ctx context.Context, candleCh <-chan model.Candle) {
	batch := make([]model.Candle, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := w.insertBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		} else {
			log.Printf("[sqlite] committed %d candles in %v", len(batch), time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case candle, ok := <-candleCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, candle)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// insertBatch inserts a batch of candles in a single transaction.
func (w *Writer) insertBatch(candles []model.Candle) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, interval, ts, open, high, low, close, volume, ticks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.Exec(c.Symbol, c.Interval.String(), c.Start.Unix(),
			c.Open, c.High, c.Low, c.Close, c.Volume, c.Ticks)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// InsertSignal journals one generated signal.
func (w *Writer) InsertSignal(sig model.Signal) error {
	_, err := w.db.Exec(`
		INSERT INTO signals (symbol, interval, side, price, stop_loss, take_profit, confidence, strategy, bar_ts, rsi, atr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.Symbol, sig.Interval.String(), string(sig.Side), sig.Price, sig.StopLoss,
		sig.TakeProfit, sig.Confidence, sig.Strategy, sig.BarTime.Unix(), sig.RSI, sig.ATR)
	if err != nil {
		return fmt.Errorf("sqlite insert signal: %w", err)
	}
	return nil
}

// InsertTrade journals a freshly opened trade.
func (w *Writer) InsertTrade(t model.Trade) error {
	_, err := w.db.Exec(`
		INSERT INTO trades (symbol, interval, side, entry_price, stop_loss, take_profit, confidence, strategy, opened_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Symbol, t.Interval.String(), string(t.Side), t.EntryPrice, t.StopLoss,
		t.TakeProfit, t.Confidence, t.Strategy, t.OpenedAt.Unix(), string(t.Status))
	if err != nil {
		return fmt.Errorf("sqlite insert trade: %w", err)
	}
	return nil
}

// CloseTrade records the terminal CLOSED state for the open trade row
// matching (symbol, interval, opened_at).
func (w *Writer) CloseTrade(t model.Trade) error {
	res, err := w.db.Exec(`
		UPDATE trades
		SET status = ?, exit_price = ?, exit_reason = ?, closed_at = ?, pnl = ?, pnl_pct = ?
		WHERE symbol = ? AND interval = ? AND opened_at = ? AND status = ?
	`, string(model.TradeClosed), t.ExitPrice, string(t.ExitReason), t.ClosedAt.Unix(),
		t.PnL, t.PnLPct,
		t.Symbol, t.Interval.String(), t.OpenedAt.Unix(), string(model.TradeActive))
	if err != nil {
		return fmt.Errorf("sqlite close trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Close without a journaled open (e.g. fresh DB): insert the full row.
		_, err = w.db.Exec(`
			INSERT INTO trades (symbol, interval, side, entry_price, stop_loss, take_profit, confidence, strategy, opened_at, status, exit_price, exit_reason, closed_at, pnl, pnl_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.Symbol, t.Interval.String(), string(t.Side), t.EntryPrice, t.StopLoss,
			t.TakeProfit, t.Confidence, t.Strategy, t.OpenedAt.Unix(), string(t.Status),
			t.ExitPrice, string(t.ExitReason), t.ClosedAt.Unix(), t.PnL, t.PnLPct)
		if err != nil {
			return fmt.Errorf("sqlite insert closed trade: %w", err)
		}
	}
	return nil
}

// Attach subscribes the journal to the event bus. Sealed candles flow
// into candleCh for the batching Run loop; signals and trade transitions
// write synchronously. Returns the subscriptions for detachment.
func (w *Writer) Attach(b *bus.Bus, candleCh chan<- model.Candle) []bus.Subscription {
	return []bus.Subscription{
		b.Subscribe(bus.EventCandleSealed, func(payload any) {
			e, ok := payload.(bus.CandleSealed)
			if !ok {
				return
			}
			select {
			case candleCh <- e.Candle:
			default:
				log.Printf("[sqlite] candle channel full, dropping %s", e.Candle.Key())
			}
		}),
		b.Subscribe(bus.EventSignal, func(payload any) {
			if e, ok := payload.(bus.SignalGenerated); ok {
				if err := w.InsertSignal(e.Signal); err != nil {
					log.Printf("[sqlite] %v", err)
				}
			}
		}),
		b.Subscribe(bus.EventTradeOpened, func(payload any) {
			if e, ok := payload.(bus.TradeOpened); ok {
				if err := w.InsertTrade(e.Trade); err != nil {
					log.Printf("[sqlite] %v", err)
				}
			}
		}),
		b.Subscribe(bus.EventTradeClosed, func(payload any) {
			if e, ok := payload.(bus.TradeClosed); ok {
				if err := w.CloseTrade(e.Trade); err != nil {
					log.Printf("[sqlite] %v", err)
				}
			}
		}),
	}
}

// GetLastTimestamp returns the newest stored candle timestamp for a key.
// Returns 0 if no candles exist.
func (w *Writer) GetLastTimestamp(symbol string, iv model.Interval) (int64, error) {
	var ts sql.NullInt64
	err := w.db.QueryRow(
		`SELECT MAX(ts) FROM candles WHERE symbol = ? AND interval = ?`,
		symbol, iv.String(),
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
