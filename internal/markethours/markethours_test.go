package markethours

import (
	"testing"
	"time"
)

func TestMarketFor(t *testing.T) {
	cases := []struct {
		symbol string
		want   Market
	}{
		{"AAPL", NYSE},
		{"BTC-USD", Crypto},
		{"ETH-USDT", Crypto},
		{"SOL-USDC", Crypto},
		{"ETH-BTC", Crypto},
		{"GC=F", Crypto}, // futures trade around the clock too
		{"RELIANCE.NS", NSE},
		{"VOD.L", LSE},
		{"btc-usd", Crypto}, // case-insensitive
	}
	for _, tc := range cases {
		if got := MarketFor(tc.symbol); got != tc.want {
			t.Errorf("MarketFor(%q) = %s, want %s", tc.symbol, got, tc.want)
		}
	}
}

func TestIsOpen(t *testing.T) {
	// Friday 2024-03-01.
	midSession := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)  // 10:00 EST
	preOpen := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)     // 08:00 EST
	postClose := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)   // 17:00 EST
	saturday := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

	if !IsOpen("AAPL", midSession) {
		t.Error("NYSE should be open mid-session")
	}
	if IsOpen("AAPL", preOpen) || IsOpen("AAPL", postClose) {
		t.Error("NYSE should be closed outside session hours")
	}
	if IsOpen("AAPL", saturday) {
		t.Error("NYSE should be closed on Saturday")
	}

	// Crypto never closes.
	for _, ts := range []time.Time{midSession, preOpen, postClose, saturday} {
		if !IsOpen("BTC-USD", ts) {
			t.Errorf("crypto should be open at %s", ts)
		}
	}
}

func TestPastSessionEnd(t *testing.T) {
	beforeCutoff := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC) // 15:00 EST
	afterCutoff := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)  // 16:00 EST

	if PastSessionEnd("AAPL", beforeCutoff) {
		t.Error("15:00 EST is before the 15:55 cutoff")
	}
	if !PastSessionEnd("AAPL", afterCutoff) {
		t.Error("16:00 EST is past the 15:55 cutoff")
	}
	if PastSessionEnd("BTC-USD", afterCutoff) {
		t.Error("crypto has no session end")
	}

	end, ok := SessionEnd("AAPL", beforeCutoff)
	if !ok {
		t.Fatal("equities should have a session end")
	}
	if end.Hour() != 15 || end.Minute() != 55 {
		t.Errorf("cutoff = %02d:%02d, want 15:55", end.Hour(), end.Minute())
	}
}
