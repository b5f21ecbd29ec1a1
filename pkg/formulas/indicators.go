package formulas

import (
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
)

// BollingerBands represents Bollinger Bands values
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// CalculateSMA returns the latest simple moving average over length periods,
// or nil if there are not enough closes.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}
	return lastValid(talib.Sma(closes, length))
}

// CalculateEMA returns the latest exponential moving average over length periods.
func CalculateEMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}
	return lastValid(talib.Ema(closes, length))
}

// CalculateRSI calculates the Relative Strength Index
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
//
// Returns the current RSI value (0-100) or nil if insufficient data.
func CalculateRSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}
	return lastValid(talib.Rsi(closes, length))
}

// CalculateBollingerBands calculates Bollinger Bands
//
//	Middle Band = length-period SMA
//	Upper Band = Middle + (k × std deviation)
//	Lower Band = Middle - (k × std deviation)
func CalculateBollingerBands(closes []float64, length int, stdDevMultiplier float64) *BollingerBands {
	if length <= 0 || len(closes) < length {
		return nil
	}

	// MAType 0 = SMA
	upper, middle, lower := talib.BBands(closes, length, stdDevMultiplier, stdDevMultiplier, 0)
	u := lastValid(upper)
	if u == nil {
		return nil
	}

	return &BollingerBands{
		Upper:  *u,
		Middle: middle[len(middle)-1],
		Lower:  lower[len(lower)-1],
	}
}

// HighLow returns the highest and lowest values of a series.
func HighLow(values []float64) (high, low float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	return floats.Max(values), floats.Min(values), true
}

func lastValid(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if !IsFinite(v) {
		return nil
	}
	return &v
}
