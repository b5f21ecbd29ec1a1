package optimization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPortfolioMetrics(t *testing.T) {
	cov := mat.NewDense(2, 2, []float64{0.04, 0.01, 0.01, 0.03})
	w := []float64{0.6, 0.4}

	assert.InDelta(t, 0.138, PortfolioReturn(w, []float64{0.15, 0.12}), 1e-12)

	variance := 0.36*0.04 + 2*0.24*0.01 + 0.16*0.03
	assert.InDelta(t, variance, PortfolioVariance(w, cov), 1e-12)
	assert.InDelta(t, math.Sqrt(variance), PortfolioVolatility(w, cov), 1e-12)
}

func TestPortfolioVolatility_Floor(t *testing.T) {
	cov := mat.NewDense(1, 1, []float64{0})
	assert.InDelta(t, 1e-4, PortfolioVolatility([]float64{1}, cov), 1e-15)
}

func TestVarianceGradient(t *testing.T) {
	cov := mat.NewDense(2, 2, []float64{0.04, 0.01, 0.01, 0.03})
	grad := VarianceGradient([]float64{0.5, 0.5}, cov)

	assert.InDeltaSlice(t, []float64{0.05, 0.04}, grad, 1e-12)
}

func TestSharpeGradient_MatchesFiniteDifference(t *testing.T) {
	cov := mat.NewDense(3, 3, []float64{
		0.04, 0.01, 0.005,
		0.01, 0.03, 0.008,
		0.005, 0.008, 0.025,
	})
	excess := []float64{0.10, 0.06, 0.08}
	w := []float64{0.5, 0.2, 0.3}

	sharpe := func(w []float64) float64 {
		return PortfolioReturn(w, excess) / math.Sqrt(PortfolioVariance(w, cov))
	}

	grad := SharpeGradient(w, excess, cov)
	require.Len(t, grad, 3)

	const h = 1e-6
	for i := range w {
		up := append([]float64(nil), w...)
		down := append([]float64(nil), w...)
		up[i] += h
		down[i] -= h
		numeric := (sharpe(up) - sharpe(down)) / (2 * h)
		assert.InDelta(t, numeric, grad[i], 1e-4, "component %d", i)
	}
}

func TestHistoricalPortfolioReturns_TailAligned(t *testing.T) {
	historical := [][]float64{
		{0.5, 0.01, 0.02},
		{0.03, 0.04},
	}

	out := HistoricalPortfolioReturns([]float64{0.5, 0.5}, historical)

	assert.InDeltaSlice(t, []float64{0.25, 0.02, 0.03}, out, 1e-12)
	assert.Nil(t, HistoricalPortfolioReturns([]float64{1}, nil))
	assert.Nil(t, HistoricalPortfolioReturns([]float64{0.5, 0.5}, [][]float64{{}, {}}))
}

func TestHistoricalPortfolioReturns_EmptySeriesSkipped(t *testing.T) {
	historical := [][]float64{
		{-0.05, 0.01, -0.03, 0.02},
		{},
	}

	out := HistoricalPortfolioReturns([]float64{0.5, 0.5}, historical)
	assert.InDeltaSlice(t, []float64{-0.025, 0.005, -0.015, 0.01}, out, 1e-12)

	dev := DownsideDeviation([]float64{0.5, 0.5}, historical, 0)
	assert.InDelta(t, math.Sqrt((0.025*0.025+0.015*0.015)/2), dev, 1e-12)
}

func TestDownsideDeviation(t *testing.T) {
	historical := [][]float64{{0.03, -0.01, 0.05, -0.03}}

	dev := DownsideDeviation([]float64{1}, historical, 0.01)
	assert.InDelta(t, math.Sqrt((0.0004+0.0016)/2), dev, 1e-12)

	assert.Equal(t, downsideDeviationFloor, DownsideDeviation([]float64{1}, [][]float64{{0.05, 0.06}}, 0.01))
	assert.Equal(t, downsideDeviationFloor, DownsideDeviation([]float64{1}, nil, 0.01))
}

func TestRatios(t *testing.T) {
	assert.InDelta(t, 0.65, SharpeRatio(0.15, 0.2, 0.02), 1e-12)
	assert.InDelta(t, 1.3, SortinoRatio(0.15, 0.1, 0.02), 1e-12)
}
