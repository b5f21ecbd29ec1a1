package optimization

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/stockdash/stockdash/pkg/formulas"
)

const (
	// varianceFloor keeps volatility and gradient denominators away from zero.
	varianceFloor = 1e-8
	// downsideDeviationFloor is used when no period falls below the target.
	downsideDeviationFloor = 0.01
)

// PortfolioReturn is wᵀμ.
func PortfolioReturn(weights, expectedReturns []float64) float64 {
	return floats.Dot(weights, expectedReturns)
}

// PortfolioVariance is wᵀΣw.
func PortfolioVariance(weights []float64, cov mat.Matrix) float64 {
	w := mat.NewVecDense(len(weights), weights)
	return mat.Inner(w, cov, w)
}

// PortfolioVolatility is sqrt(max(wᵀΣw, 1e-8)).
func PortfolioVolatility(weights []float64, cov mat.Matrix) float64 {
	return math.Sqrt(math.Max(PortfolioVariance(weights, cov), varianceFloor))
}

// SharpeRatio is (return - riskFreeRate) / volatility.
func SharpeRatio(portfolioReturn, volatility, riskFreeRate float64) float64 {
	return (portfolioReturn - riskFreeRate) / volatility
}

// VarianceGradient is ∂(wᵀΣw)/∂w = 2Σw.
func VarianceGradient(weights []float64, cov mat.Matrix) []float64 {
	var g mat.VecDense
	g.MulVec(cov, mat.NewVecDense(len(weights), weights))
	grad := g.RawVector().Data
	floats.Scale(2, grad)
	return grad
}

// SharpeGradient is the quotient-rule gradient of wᵀe / sqrt(wᵀΣw) where e
// is the vector of excess returns. Variance is floored at 1e-8.
func SharpeGradient(weights, excessReturns []float64, cov mat.Matrix) []float64 {
	excess := floats.Dot(weights, excessReturns)
	variance := math.Max(PortfolioVariance(weights, cov), varianceFloor)
	volatility := math.Sqrt(variance)

	grad := VarianceGradient(weights, cov)
	for i := range grad {
		grad[i] = (excessReturns[i]*volatility - excess*grad[i]/(2*volatility)) / variance
	}
	return grad
}

// HistoricalPortfolioReturns replays per-asset periodic returns against
// weights over the longest series. Shorter series are tail-aligned and only
// contribute to the periods they cover, so an empty series contributes nothing.
func HistoricalPortfolioReturns(weights []float64, historical [][]float64) []float64 {
	periods := 0
	for _, series := range historical {
		periods = max(periods, len(series))
	}
	if periods == 0 {
		return nil
	}

	out := make([]float64, periods)
	for i, series := range historical {
		if i >= len(weights) {
			break
		}
		floats.AddScaled(out[periods-len(series):], weights[i], series)
	}
	return out
}

// DownsideDeviation is the root-mean-square shortfall of the historical
// portfolio returns below target, over the below-target periods only. It is
// 0.01 when there is no history or no period falls below target.
func DownsideDeviation(weights []float64, historical [][]float64, target float64) float64 {
	dev, ok := formulas.DownsideDeviation(HistoricalPortfolioReturns(weights, historical), target)
	if !ok || dev == 0 {
		return downsideDeviationFloor
	}
	return dev
}

// SortinoRatio is (return - riskFreeRate) / downsideDeviation.
func SortinoRatio(portfolioReturn, downsideDeviation, riskFreeRate float64) float64 {
	return (portfolioReturn - riskFreeRate) / downsideDeviation
}
