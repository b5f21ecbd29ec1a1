package statistics

import (
	"math"

	"github.com/stockdash/stockdash/pkg/formulas"
)

const (
	// FallbackVariance assumes 20% annual volatility when history is missing.
	FallbackVariance = 0.04
	// FallbackCovariance assumes a weak positive co-movement when history is missing.
	FallbackCovariance = 0.004
	// DiagonalRepairEpsilon is added on top of |min diagonal| during repair.
	DiagonalRepairEpsilon = 0.001
)

// CalculateCovariance returns the unbiased sample covariance of the overlapping
// tails of two series. The longer series is truncated to its last
// min(len1, len2) observations; no calendar alignment is attempted.
// Returns 0 when fewer than two observations overlap.
func CalculateCovariance(returns1, returns2 []float64) float64 {
	n := min(len(returns1), len(returns2))
	if n < 2 {
		return 0
	}
	return formulas.Covariance(returns1[len(returns1)-n:], returns2[len(returns2)-n:])
}

// CalculateCovarianceMatrix builds the annualized covariance matrix of the
// given symbols, in symbol order. Pairs involving an empty series use the
// fallback constants. The result is symmetric and has a strictly positive
// diagonal.
func CalculateCovarianceMatrix(symbols []string, returnsBySymbol map[string][]float64) [][]float64 {
	n := len(symbols)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r1 := returnsBySymbol[symbols[i]]
			r2 := returnsBySymbol[symbols[j]]

			var value float64
			switch {
			case len(r1) == 0 || len(r2) == 0:
				if i == j {
					value = FallbackVariance
				} else {
					value = FallbackCovariance
				}
			default:
				value = CalculateCovariance(r1, r2) * formulas.TradingDaysPerYear
			}

			matrix[i][j] = value
			matrix[j][i] = value
		}
	}

	return EnsurePositiveDefinite(matrix)
}

// EnsurePositiveDefinite shifts the whole diagonal by |min diagonal| + 0.001
// when the smallest diagonal entry is not positive. This is a diagonal
// heuristic, not an eigenvalue correction. The input is not modified.
func EnsurePositiveDefinite(matrix [][]float64) [][]float64 {
	result := make([][]float64, len(matrix))
	for i, row := range matrix {
		result[i] = append([]float64(nil), row...)
	}
	if len(result) == 0 {
		return result
	}

	minDiagonal := math.Inf(1)
	for i := range result {
		minDiagonal = math.Min(minDiagonal, result[i][i])
	}

	if minDiagonal <= 0 {
		adjustment := math.Abs(minDiagonal) + DiagonalRepairEpsilon
		for i := range result {
			result[i][i] += adjustment
		}
	}

	return result
}

// CalculateCorrelationMatrix derives Pearson correlations from a covariance
// matrix. Entries whose variances are not positive fall back to the identity.
func CalculateCorrelationMatrix(covariance [][]float64) [][]float64 {
	n := len(covariance)
	correlation := make([][]float64, n)
	for i := 0; i < n; i++ {
		correlation[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			varI, varJ := covariance[i][i], covariance[j][j]
			if varI > 0 && varJ > 0 {
				correlation[i][j] = covariance[i][j] / (math.Sqrt(varI) * math.Sqrt(varJ))
			} else if i == j {
				correlation[i][j] = 1
			}
		}
	}
	return correlation
}
