package strategy

import (
	"fmt"
	"math"

	"trading-terminal/internal/model"
)

// Stop/target offsets as ATR multiples, and the confidence ramp applied
// to the RSI's directional distance from neutral.
const (
	stopATRMult   = 1.0
	targetATRMult = 2.0

	confidenceBase  = 50.0
	confidenceSlope = 1.8
	confidenceCap   = 95.0
	rsiNeutral      = 50.0
)

// BuildSignal constructs a validated signal for bar i of the snapshot.
// All strategies share this arithmetic: stop = close ∓ ATR, target =
// close ± 2·ATR, confidence from the RSI's distance past neutral in the
// signal's direction. This helper — not the strategies — owns the Signal
// invariants; it fails rather than emit a malformed signal.
func BuildSignal(snap Snapshot, i int, side model.Side, strategyKey string) (model.Signal, error) {
	if i < 0 || i >= len(snap.Candles) {
		return model.Signal{}, fmt.Errorf("build signal %s: bar index %d out of range", strategyKey, i)
	}
	closePx := snap.Ind.Close[i]
	atr := snap.Ind.ATR14[i]
	rsi := snap.Ind.RSI14[i]
	if math.IsNaN(atr) || atr <= 0 {
		return model.Signal{}, fmt.Errorf("build signal %s %s: ATR not ready at bar %d", strategyKey, snap.Symbol, i)
	}
	if math.IsNaN(rsi) {
		rsi = rsiNeutral
	}

	dist := rsi - rsiNeutral
	if side == model.SideSell {
		dist = -dist
	}
	if dist < 0 {
		dist = 0
	}
	conf := confidenceBase + dist*confidenceSlope
	if conf > confidenceCap {
		conf = confidenceCap
	}

	var sl, tp float64
	if side == model.SideBuy {
		sl = closePx - atr*stopATRMult
		tp = closePx + atr*targetATRMult
	} else {
		sl = closePx + atr*stopATRMult
		tp = closePx - atr*targetATRMult
	}

	sig := model.Signal{
		Symbol:     snap.Symbol,
		Interval:   snap.Interval,
		Side:       side,
		Price:      closePx,
		StopLoss:   sl,
		TakeProfit: tp,
		Confidence: conf,
		Strategy:   strategyKey,
		BarTime:    snap.Candles[i].Start,
		RSI:        rsi,
		ATR:        atr,
	}
	if err := sig.Validate(); err != nil {
		return model.Signal{}, fmt.Errorf("build signal %s: %w", strategyKey, err)
	}
	return sig, nil
}
