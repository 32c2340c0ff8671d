package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"trading-terminal/internal/bus"
)

// AlertBridge turns terminal events into alerts and fans them out to the
// configured notifiers. Delivery happens on a worker goroutine so slow
// backends never stall the publisher; a full queue drops the alert.
type AlertBridge struct {
	notifiers []Notifier
	queue     chan Alert
}

// NewAlertBridge creates a bridge over the given notifiers.
func NewAlertBridge(notifiers ...Notifier) *AlertBridge {
	return &AlertBridge{
		notifiers: notifiers,
		queue:     make(chan Alert, 256),
	}
}

// Run delivers queued alerts until ctx is cancelled.
func (a *AlertBridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-a.queue:
			for _, n := range a.notifiers {
				if err := n.Send(ctx, alert); err != nil {
					log.Printf("[notify] delivery failed: %v", err)
				}
			}
		}
	}
}

func (a *AlertBridge) enqueue(alert Alert) {
	select {
	case a.queue <- alert:
	default:
		log.Printf("[notify] queue full, dropping alert %q", alert.Title)
	}
}

// Attach subscribes the bridge to trade and signal events. Returns the
// subscriptions for detachment on shutdown.
func (a *AlertBridge) Attach(b *bus.Bus) []bus.Subscription {
	return []bus.Subscription{
		b.Subscribe(bus.EventSignal, func(payload any) {
			e, ok := payload.(bus.SignalGenerated)
			if !ok {
				return
			}
			sig := e.Signal
			a.enqueue(Alert{
				Level: AlertInfo,
				Title: fmt.Sprintf("%s signal: %s %s", sig.Strategy, sig.Side, sig.Symbol),
				Message: fmt.Sprintf("price %.4f, stop %.4f, target %.4f, confidence %.0f%%",
					sig.Price, sig.StopLoss, sig.TakeProfit, sig.Confidence),
				Symbol:   sig.Symbol,
				Strategy: sig.Strategy,
				At:       time.Now().UTC(),
			})
		}),
		b.Subscribe(bus.EventTradeOpened, func(payload any) {
			e, ok := payload.(bus.TradeOpened)
			if !ok {
				return
			}
			t := e.Trade
			a.enqueue(Alert{
				Level: AlertInfo,
				Title: fmt.Sprintf("Opened %s %s", t.Side, t.Symbol),
				Message: fmt.Sprintf("entry %.4f, stop %.4f, target %.4f (%s)",
					t.EntryPrice, t.StopLoss, t.TakeProfit, t.Strategy),
				Symbol:   t.Symbol,
				Strategy: t.Strategy,
				At:       time.Now().UTC(),
			})
		}),
		b.Subscribe(bus.EventTradeClosed, func(payload any) {
			e, ok := payload.(bus.TradeClosed)
			if !ok {
				return
			}
			level := AlertInfo
			if e.PnL < 0 {
				level = AlertWarning
			}
			a.enqueue(Alert{
				Level: level,
				Title: fmt.Sprintf("Closed %s (%s)", e.Symbol, e.Reason),
				Message: fmt.Sprintf("exit %.4f, P&L %+.4f (%s)",
					e.ExitPrice, e.PnL, e.Trade.Strategy),
				Symbol:   e.Symbol,
				Strategy: e.Trade.Strategy,
				At:       time.Now().UTC(),
			})
		}),
	}
}
