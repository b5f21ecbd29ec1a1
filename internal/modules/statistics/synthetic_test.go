package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdash/stockdash/pkg/formulas"
)

func TestGenerateSyntheticReturns_Deterministic(t *testing.T) {
	a := GenerateSyntheticReturns(SyntheticPeriods, "AAPL", NewSymbolRand("AAPL"))
	b := GenerateSyntheticReturns(SyntheticPeriods, "AAPL", NewSymbolRand("aapl"))

	require.Len(t, a, SyntheticPeriods)
	assert.Equal(t, a, b)

	c := GenerateSyntheticReturns(SyntheticPeriods, "AAPL", NewSymbolRand("MSFT"))
	assert.NotEqual(t, a, c)
}

func TestGenerateSyntheticReturns_Shape(t *testing.T) {
	returns := GenerateSyntheticReturns(2000, "KO", NewSymbolRand("KO"))

	for _, r := range returns {
		require.True(t, formulas.IsFinite(r))
	}

	// KO: 0.8% daily volatility. Allow generous sampling slack.
	assert.InDelta(t, 0.008, formulas.StdDev(returns), 0.002)
	assert.InDelta(t, 0.0002, formulas.Mean(returns), 0.001)
}

func TestGenerateSyntheticReturns_NonPositiveDays(t *testing.T) {
	assert.Empty(t, GenerateSyntheticReturns(0, "AAPL", NewSymbolRand("AAPL")))
}

func TestParametersFor(t *testing.T) {
	assert.Equal(t, 0.040, ParametersFor("nvda").Volatility)
	assert.Equal(t, defaultStockParameters, ParametersFor("UNKNOWN"))
}

func TestSymbolSeed(t *testing.T) {
	assert.Equal(t, SymbolSeed("msft"), SymbolSeed(" MSFT "))
	assert.NotEqual(t, SymbolSeed("MSFT"), SymbolSeed("AAPL"))
}

func TestSyntheticPrices(t *testing.T) {
	prices := SyntheticPrices(100, []float64{0.1, -0.5})

	assert.InDeltaSlice(t, []float64{100, 110, 55}, prices, 1e-9)
	assert.InDeltaSlice(t, []float64{0.1, -0.5}, CalculateReturns(prices), 1e-12)
}
