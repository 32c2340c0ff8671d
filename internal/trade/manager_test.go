package trade

import (
	"errors"
	"testing"
	"time"

	"trading-terminal/internal/model"
)

func cryptoBuy(symbol string) model.Signal {
	return model.Signal{
		Symbol:     symbol,
		Interval:   model.M5,
		Side:       model.SideBuy,
		Price:      100,
		StopLoss:   95,
		TakeProfit: 110,
		Confidence: 70,
		Strategy:   "pro_mtf",
		BarTime:    time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
		ATR:        5,
	}
}

func cryptoSell(symbol string) model.Signal {
	sig := cryptoBuy(symbol)
	sig.Side = model.SideSell
	sig.StopLoss = 105
	sig.TakeProfit = 90
	return sig
}

func TestManager_OpenTrade(t *testing.T) {
	m := NewManager(0, false)
	now := time.Now().UTC()

	opened, err := m.OpenTrade(cryptoBuy("BTC-USD"), now)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened.Status != model.TradeActive {
		t.Errorf("status = %s", opened.Status)
	}
	if m.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d", m.ActiveCount())
	}

	// Second open on the same key: first writer wins.
	if _, err := m.OpenTrade(cryptoBuy("BTC-USD"), now); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate open error = %v, want ErrDuplicate", err)
	}

	// A different interval is a different key.
	other := cryptoBuy("BTC-USD")
	other.Interval = model.M15
	if _, err := m.OpenTrade(other, now); err != nil {
		t.Errorf("different interval should open: %v", err)
	}

	// Invalid signals never reach the book.
	bad := cryptoBuy("ETH-USD")
	bad.StopLoss = 120
	if _, err := m.OpenTrade(bad, now); err == nil {
		t.Error("invalid signal should not open")
	}
}

func TestManager_StopAndTargetExits(t *testing.T) {
	m := NewManager(0, false)
	now := time.Now().UTC()

	// BUY: stop fires at or below SL.
	m.OpenTrade(cryptoBuy("BTC-USD"), now)
	if _, hit := m.CheckExits("BTC-USD", model.M5, 96, now); hit {
		t.Error("in-range price should not exit")
	}
	done, hit := m.CheckExits("BTC-USD", model.M5, 95, now)
	if !hit || done.ExitReason != model.ExitStop {
		t.Fatalf("exit = %+v hit=%v, want stop", done, hit)
	}
	if done.PnL != -5 {
		t.Errorf("stop PnL = %g, want -5", done.PnL)
	}

	// BUY: target fires at or above TP.
	m.OpenTrade(cryptoBuy("ETH-USD"), now)
	done, hit = m.CheckExits("ETH-USD", model.M5, 111, now)
	if !hit || done.ExitReason != model.ExitTarget {
		t.Fatalf("exit = %+v hit=%v, want target", done, hit)
	}
	if done.PnL != 11 {
		t.Errorf("target PnL = %g, want 11", done.PnL)
	}

	// SELL: levels invert.
	m.OpenTrade(cryptoSell("SOL-USD"), now)
	done, hit = m.CheckExits("SOL-USD", model.M5, 106, now)
	if !hit || done.ExitReason != model.ExitStop {
		t.Fatalf("SELL exit = %+v hit=%v, want stop", done, hit)
	}
	if done.PnL != -6 {
		t.Errorf("SELL stop PnL = %g, want -6", done.PnL)
	}

	m.OpenTrade(cryptoSell("ADA-USD"), now)
	done, hit = m.CheckExits("ADA-USD", model.M5, 89, now)
	if !hit || done.ExitReason != model.ExitTarget {
		t.Fatalf("SELL exit = %+v hit=%v, want target", done, hit)
	}

	// The closed key is free for the next signal.
	if _, err := m.OpenTrade(cryptoBuy("BTC-USD"), now); err != nil {
		t.Errorf("re-open after close: %v", err)
	}
}

func TestManager_TimeExit(t *testing.T) {
	m := NewManager(2*time.Hour, false)
	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m.OpenTrade(cryptoBuy("BTC-USD"), opened)

	// In range and young: stays open.
	if _, hit := m.CheckExits("BTC-USD", model.M5, 100, opened.Add(time.Hour)); hit {
		t.Error("young trade should stay open")
	}
	done, hit := m.CheckExits("BTC-USD", model.M5, 101, opened.Add(2*time.Hour))
	if !hit || done.ExitReason != model.ExitTime {
		t.Fatalf("exit = %+v hit=%v, want time", done, hit)
	}
}

func TestManager_SessionEndExit(t *testing.T) {
	m := NewManager(24*time.Hour, true)

	// Friday 2024-03-01, 16:30 EST is past the 15:55 equity cutoff.
	pastCutoff := time.Date(2024, 3, 1, 21, 30, 0, 0, time.UTC)
	m.OpenTrade(cryptoBuy("AAPL"), pastCutoff.Add(-30*time.Minute))

	done, hit := m.CheckExits("AAPL", model.M5, 100, pastCutoff)
	if !hit || done.ExitReason != model.ExitSession {
		t.Fatalf("exit = %+v hit=%v, want session_end", done, hit)
	}

	// Crypto never session-exits.
	m.OpenTrade(cryptoBuy("BTC-USD"), pastCutoff.Add(-30*time.Minute))
	if _, hit := m.CheckExits("BTC-USD", model.M5, 100, pastCutoff); hit {
		t.Error("crypto trade should survive the equity cutoff")
	}
}

func TestManager_CloseTrade(t *testing.T) {
	m := NewManager(0, false)
	now := time.Now().UTC()

	if _, err := m.CloseTrade("BTC-USD", model.M5, 100, model.ExitManual, now); !errors.Is(err, ErrNoActive) {
		t.Errorf("close on empty key = %v, want ErrNoActive", err)
	}

	var notified []model.Trade
	m.OnClose = func(tr model.Trade) { notified = append(notified, tr) }

	m.OpenTrade(cryptoBuy("BTC-USD"), now)
	done, err := m.CloseTrade("BTC-USD", model.M5, 103, model.ExitManual, now)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if done.ExitReason != model.ExitManual || done.PnL != 3 {
		t.Errorf("closed = %+v", done)
	}
	if done.PnLPct != 3 {
		t.Errorf("PnLPct = %g, want 3", done.PnLPct)
	}
	if len(notified) != 1 {
		t.Errorf("OnClose fired %d times", len(notified))
	}
	if m.ActiveCount() != 0 {
		t.Errorf("ActiveCount after close = %d", m.ActiveCount())
	}
	if got := m.ClosedTrades(); len(got) != 1 || got[0].Symbol != "BTC-USD" {
		t.Errorf("ClosedTrades = %v", got)
	}
}

func TestManager_Summary(t *testing.T) {
	m := NewManager(0, false)
	now := time.Now().UTC()

	m.OpenTrade(cryptoBuy("BTC-USD"), now)
	m.CheckExits("BTC-USD", model.M5, 110, now) // target, +10

	m.OpenTrade(cryptoBuy("ETH-USD"), now)
	m.CheckExits("ETH-USD", model.M5, 95, now) // stop, -5

	m.OpenTrade(cryptoBuy("SOL-USD"), now) // stays open

	s := m.Summary(map[string]float64{"SOL-USD": 104})
	if s.TotalTrades != 2 || s.OpenPositions != 1 {
		t.Fatalf("counts = %d closed / %d open", s.TotalTrades, s.OpenPositions)
	}
	if s.Wins != 1 || s.Losses != 1 || s.WinRatePct != 50 {
		t.Errorf("wins=%d losses=%d rate=%g", s.Wins, s.Losses, s.WinRatePct)
	}
	if s.RealizedPnL != 5 || s.UnrealizedPnL != 4 || s.TotalPnL != 9 {
		t.Errorf("pnl = %g/%g/%g, want 5/4/9", s.RealizedPnL, s.UnrealizedPnL, s.TotalPnL)
	}
	if s.ByReason[string(model.ExitTarget)] != 1 || s.ByReason[string(model.ExitStop)] != 1 {
		t.Errorf("ByReason = %v", s.ByReason)
	}
	st := s.ByStrategy["pro_mtf"]
	if st.Trades != 2 || st.Wins != 1 || st.PnL != 5 {
		t.Errorf("ByStrategy = %+v", st)
	}
}
