package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trading-terminal/internal/model"
)

// Reader provides read-only access to the journal: candle backfill on
// restart and trade history queries.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// FetchHistory reads up to lookback sealed candles for (symbol, iv),
// oldest first. Implements the history-source contract so the candle
// store can reseed from the journal on restart.
func (r *Reader) FetchHistory(ctx context.Context, symbol string, iv model.Interval, lookback int) ([]model.Candle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, ts, open, high, low, close, volume, ticks
		FROM (
			SELECT * FROM candles
			WHERE symbol = ? AND interval = ?
			ORDER BY ts DESC
			LIMIT ?
		)
		ORDER BY ts ASC
	`, symbol, iv.String(), lookback)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		var tsUnix int64
		var volume sql.NullFloat64
		var ticks sql.NullInt64
		if err := rows.Scan(&c.Symbol, &tsUnix, &c.Open, &c.High, &c.Low, &c.Close, &volume, &ticks); err != nil {
			return nil, fmt.Errorf("sqlite scan candle: %w", err)
		}
		c.Interval = iv
		c.Start = time.Unix(tsUnix, 0).UTC()
		c.Volume = volume.Float64
		c.Ticks = int(ticks.Int64)
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// ClosedTrades reads the most recent closed trades, newest first.
func (r *Reader) ClosedTrades(ctx context.Context, limit int) ([]model.Trade, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, interval, side, entry_price, stop_loss, take_profit, confidence, strategy,
		       opened_at, exit_price, exit_reason, closed_at, pnl, pnl_pct
		FROM trades
		WHERE status = ?
		ORDER BY closed_at DESC
		LIMIT ?
	`, string(model.TradeClosed), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		var ivStr, sideStr, reasonStr string
		var openedUnix, closedUnix int64
		if err := rows.Scan(&t.Symbol, &ivStr, &sideStr, &t.EntryPrice, &t.StopLoss,
			&t.TakeProfit, &t.Confidence, &t.Strategy,
			&openedUnix, &t.ExitPrice, &reasonStr, &closedUnix, &t.PnL, &t.PnLPct); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		iv, err := model.ParseInterval(ivStr)
		if err != nil {
			return nil, fmt.Errorf("sqlite trade interval: %w", err)
		}
		t.Interval = iv
		t.Side = model.Side(sideStr)
		t.Status = model.TradeClosed
		t.ExitReason = model.ExitReason(reasonStr)
		t.OpenedAt = time.Unix(openedUnix, 0).UTC()
		t.ClosedAt = time.Unix(closedUnix, 0).UTC()
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// PnLSummary aggregates realized P&L per strategy over the whole journal.
func (r *Reader) PnLSummary(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strategy, SUM(pnl)
		FROM trades
		WHERE status = ?
		GROUP BY strategy
	`, string(model.TradeClosed))
	if err != nil {
		return nil, fmt.Errorf("sqlite pnl summary: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var strat string
		var pnl sql.NullFloat64
		if err := rows.Scan(&strat, &pnl); err != nil {
			return nil, fmt.Errorf("sqlite scan summary: %w", err)
		}
		out[strat] = pnl.Float64
	}
	return out, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
