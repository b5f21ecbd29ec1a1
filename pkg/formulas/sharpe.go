package formulas

import "math"

// CalculateSharpeRatio calculates the annualized Sharpe Ratio of a periodic return series.
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Mean Return - Periodic Risk-free Rate) / Standard Deviation of Returns
//	Annualized: Sharpe × sqrt(periodsPerYear)
//
// Returns nil if there is insufficient data or the series has no dispersion.
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev * math.Sqrt(float64(periodsPerYear))

	return &sharpe
}

// DownsideDeviation is the root-mean-square shortfall of returns below target,
// counting only the below-target observations. ok is false when no observation
// falls below target.
func DownsideDeviation(returns []float64, target float64) (deviation float64, ok bool) {
	var squaredSum float64
	count := 0
	for _, r := range returns {
		if r < target {
			d := r - target
			squaredSum += d * d
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return math.Sqrt(squaredSum / float64(count)), true
}

// CalculateSortinoRatio calculates the annualized Sortino Ratio of a periodic return series.
// Only returns below the periodic minimum acceptable return count as risk.
//
// Sortino Formula:
//
//	Sortino = (Mean Return - Periodic Risk-free Rate) / Downside Deviation
//
// Returns nil when there is insufficient data or no downside observations.
func CalculateSortinoRatio(returns []float64, riskFreeRate, targetReturn float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	periodicMAR := targetReturn / float64(periodsPerYear)
	downside, ok := DownsideDeviation(returns, periodicMAR)
	if !ok || downside == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sortino := (Mean(returns) - periodicRiskFree) / downside * math.Sqrt(float64(periodsPerYear))

	return &sortino
}
