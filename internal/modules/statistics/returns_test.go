package statistics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})

	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
}

func TestCalculateReturns_DropsNonFinite(t *testing.T) {
	returns := CalculateReturns([]float64{0, 10, 11, math.NaN(), 12})

	// 0 -> 10 is +Inf, anything touching NaN is NaN
	require.Len(t, returns, 1)
	assert.InDelta(t, 0.1, returns[0], 1e-12)
}

func TestCalculateReturns_TooShort(t *testing.T) {
	assert.Empty(t, CalculateReturns(nil))
	assert.Empty(t, CalculateReturns([]float64{42}))
}

func TestCalculateExpectedReturns(t *testing.T) {
	symbols := []string{"AAPL", "EMPTY", "HOT", "COLD"}
	data := map[string][]float64{
		"AAPL":  {0.001, 0.002, 0.0},
		"EMPTY": {},
		"HOT":   {0.05, 0.05},
		"COLD":  {-0.05, -0.05},
	}

	expected := CalculateExpectedReturns(symbols, data)

	require.Len(t, expected, 4)
	assert.InDelta(t, 0.001*252, expected[0], 1e-12)
	assert.Equal(t, DefaultExpectedReturn, expected[1])
	assert.Equal(t, ExpectedReturnMax, expected[2])
	assert.Equal(t, ExpectedReturnMin, expected[3])
}

func TestCalculateExpectedReturns_MissingSymbolUsesDefault(t *testing.T) {
	expected := CalculateExpectedReturns([]string{"NOPE"}, map[string][]float64{})
	assert.Equal(t, []float64{DefaultExpectedReturn}, expected)
}
