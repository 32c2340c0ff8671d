// Package markethours models per-market trading sessions. It resolves a
// symbol to its market, answers whether the market is open at a given
// instant, and supplies the end-of-day cutoff the trade manager uses for
// session-end exits. Crypto and futures symbols trade around the clock.
package markethours

import (
	"strings"
	"time"
)

// Market identifies an exchange session table entry.
type Market string

const (
	NSE    Market = "NSE"
	NYSE   Market = "NYSE"
	NASDAQ Market = "NASDAQ"
	LSE    Market = "LSE"
	Crypto Market = "CRYPTO" // 24/7, never closes
)

type session struct {
	loc                    *time.Location
	openHour, openMinute   int
	closeHour, closeMinute int
	// cutoff is when open intraday trades are force-closed,
	// a few minutes before the actual close.
	cutoffHour, cutoffMinute int
}

// Fixed-offset fallbacks keep session math working without tzdata.
var (
	ist = time.FixedZone("IST", 5*3600+30*60)
	est = time.FixedZone("EST", -5*3600)
	gmt = time.FixedZone("GMT", 0)
)

var sessions = map[Market]session{
	NSE:    {loc: ist, openHour: 9, openMinute: 15, closeHour: 15, closeMinute: 30, cutoffHour: 15, cutoffMinute: 20},
	NYSE:   {loc: est, openHour: 9, openMinute: 30, closeHour: 16, closeMinute: 0, cutoffHour: 15, cutoffMinute: 55},
	NASDAQ: {loc: est, openHour: 9, openMinute: 30, closeHour: 16, closeMinute: 0, cutoffHour: 15, cutoffMinute: 55},
	LSE:    {loc: gmt, openHour: 8, openMinute: 0, closeHour: 16, closeMinute: 30, cutoffHour: 16, cutoffMinute: 20},
}

// cryptoSuffixes marks symbols quoted against crypto/stable pairs.
var cryptoSuffixes = []string{"-USD", "-USDT", "-USDC", "-BTC", "-EUR"}

const futuresSuffix = "=F"

// MarketFor resolves a symbol to its market. Crypto pairs (BTC-USD) and
// futures (GC=F) are 24/7; everything else defaults to NYSE.
func MarketFor(symbol string) Market {
	s := strings.ToUpper(symbol)
	if strings.HasSuffix(s, futuresSuffix) {
		return Crypto
	}
	for _, suf := range cryptoSuffixes {
		if strings.HasSuffix(s, suf) {
			return Crypto
		}
	}
	if strings.HasSuffix(s, ".NS") {
		return NSE
	}
	if strings.HasSuffix(s, ".L") {
		return LSE
	}
	return NYSE
}

// IsOpen reports whether the symbol's market is trading at t.
func IsOpen(symbol string, t time.Time) bool {
	m := MarketFor(symbol)
	if m == Crypto {
		return true
	}
	ses := sessions[m]
	lt := t.In(ses.loc)
	if wd := lt.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	hm := lt.Hour()*60 + lt.Minute()
	return hm >= ses.openHour*60+ses.openMinute && hm < ses.closeHour*60+ses.closeMinute
}

// SessionEnd returns the end-of-day cutoff for the symbol on t's trading
// day, and true if the symbol has one. Crypto has no session end.
func SessionEnd(symbol string, t time.Time) (time.Time, bool) {
	m := MarketFor(symbol)
	if m == Crypto {
		return time.Time{}, false
	}
	ses := sessions[m]
	lt := t.In(ses.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(),
		ses.cutoffHour, ses.cutoffMinute, 0, 0, ses.loc), true
}

// PastSessionEnd reports whether t is at or past the symbol's cutoff for
// the day. Always false for 24/7 symbols.
func PastSessionEnd(symbol string, t time.Time) bool {
	end, ok := SessionEnd(symbol, t)
	if !ok {
		return false
	}
	return !t.Before(end)
}
