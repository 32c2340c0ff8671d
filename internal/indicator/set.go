package indicator

import "trading-terminal/internal/model"

// Default parameters for the standard indicator set.
const (
	EMAFastPeriod   = 9
	EMAMediumPeriod = 21
	EMASlowPeriod   = 50
	EMATrendPeriod  = 200

	RSIPeriod = 14
	ATRPeriod = 14

	BollingerPeriod = 20
	BollingerStd    = 2.0

	SupertrendPeriod = 10
	SupertrendMult   = 3.0

	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// Set is the standard indicator bundle computed over one candle sequence.
// All slices share the candle sequence's length and indexing.
type Set struct {
	Close  []float64
	High   []float64
	Low    []float64
	Volume []float64

	EMA9   []float64
	EMA21  []float64
	EMA50  []float64
	EMA200 []float64

	RSI14 []float64
	ATR14 []float64

	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	BBUpper  []float64
	BBMiddle []float64
	BBLower  []float64

	Supertrend []int

	CrossOver921  []bool
	CrossUnder921 []bool
}

// Apply computes the standard indicator set over candles. Short input is
// fine: warm-up positions are simply NaN and strategies see no triggers.
func Apply(cs []model.Candle) *Set {
	n := len(cs)
	s := &Set{
		Close:  make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Volume: make([]float64, n),
	}
	for i := range cs {
		s.Close[i] = cs[i].Close
		s.High[i] = cs[i].High
		s.Low[i] = cs[i].Low
		s.Volume[i] = cs[i].Volume
	}

	s.EMA9 = EMA(s.Close, EMAFastPeriod)
	s.EMA21 = EMA(s.Close, EMAMediumPeriod)
	s.EMA50 = EMA(s.Close, EMASlowPeriod)
	s.EMA200 = EMA(s.Close, EMATrendPeriod)

	s.RSI14 = RSI(s.Close, RSIPeriod)
	s.ATR14 = ATR(s.High, s.Low, s.Close, ATRPeriod)

	s.MACD, s.MACDSignal, s.MACDHist = MACD(s.Close, MACDFast, MACDSlow, MACDSignal)
	s.BBUpper, s.BBMiddle, s.BBLower = Bollinger(s.Close, BollingerPeriod, BollingerStd)
	s.Supertrend = Supertrend(s.High, s.Low, s.Close, SupertrendPeriod, SupertrendMult)

	s.CrossOver921 = Crossover(s.EMA9, s.EMA21)
	s.CrossUnder921 = Crossunder(s.EMA9, s.EMA21)
	return s
}
