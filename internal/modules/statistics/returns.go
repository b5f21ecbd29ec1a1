// Package statistics turns price and return history into the expected
// returns and covariance inputs consumed by the portfolio optimizer.
package statistics

import (
	"math"

	"github.com/stockdash/stockdash/pkg/formulas"
)

const (
	// DefaultExpectedReturn is used for assets with no return history (8% annual).
	DefaultExpectedReturn = 0.08
	// ExpectedReturnMin and ExpectedReturnMax bound annualized expected returns.
	ExpectedReturnMin = -0.5
	ExpectedReturnMax = 0.5
)

// CalculateReturns converts a chronological price series into simple periodic
// returns. Non-finite returns (zero or missing prices) are dropped.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		r := (prices[i] - prices[i-1]) / prices[i-1]
		if formulas.IsFinite(r) {
			returns = append(returns, r)
		}
	}
	return returns
}

// CalculateExpectedReturns annualizes the mean periodic return of each symbol's
// series, in the order given by symbols. Symbols without history get
// DefaultExpectedReturn.
func CalculateExpectedReturns(symbols []string, returnsBySymbol map[string][]float64) []float64 {
	expected := make([]float64, len(symbols))
	for i, symbol := range symbols {
		expected[i] = ExpectedReturn(returnsBySymbol[symbol])
	}
	return expected
}

// ExpectedReturn annualizes a single return series, clamped to
// [ExpectedReturnMin, ExpectedReturnMax].
func ExpectedReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return DefaultExpectedReturn
	}
	annualized := formulas.Mean(returns) * formulas.TradingDaysPerYear
	return math.Max(ExpectedReturnMin, math.Min(ExpectedReturnMax, annualized))
}
