package statistics

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"
)

// SyntheticPeriods is the length of a generated fallback series (one trading year).
const SyntheticPeriods = 252

// StockParameters shape a synthetic daily return series.
type StockParameters struct {
	MeanReturn float64
	Volatility float64
	Momentum   float64
}

var defaultStockParameters = StockParameters{MeanReturn: 0.0003, Volatility: 0.015, Momentum: 0.1}

var stockParameters = map[string]StockParameters{
	"AAPL":  {MeanReturn: 0.0005, Volatility: 0.018, Momentum: 0.15},
	"TSLA":  {MeanReturn: 0.0008, Volatility: 0.035, Momentum: 0.25},
	"MSFT":  {MeanReturn: 0.0004, Volatility: 0.016, Momentum: 0.12},
	"GOOGL": {MeanReturn: 0.0004, Volatility: 0.017, Momentum: 0.13},
	"AMZN":  {MeanReturn: 0.0005, Volatility: 0.020, Momentum: 0.18},
	"META":  {MeanReturn: 0.0006, Volatility: 0.025, Momentum: 0.20},
	"NVDA":  {MeanReturn: 0.0010, Volatility: 0.040, Momentum: 0.30},
	"JPM":   {MeanReturn: 0.0003, Volatility: 0.012, Momentum: 0.08},
	"JNJ":   {MeanReturn: 0.0002, Volatility: 0.010, Momentum: 0.05},
	"V":     {MeanReturn: 0.0004, Volatility: 0.014, Momentum: 0.10},
	"KO":    {MeanReturn: 0.0002, Volatility: 0.008, Momentum: 0.04},
	"PEP":   {MeanReturn: 0.0002, Volatility: 0.009, Momentum: 0.04},
}

// ParametersFor returns the synthetic series parameters for a symbol.
func ParametersFor(symbol string) StockParameters {
	if p, ok := stockParameters[strings.ToUpper(symbol)]; ok {
		return p
	}
	return defaultStockParameters
}

// SymbolSeed derives a stable RNG seed from a symbol.
func SymbolSeed(symbol string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToUpper(strings.TrimSpace(symbol))))
	return h.Sum64()
}

// NewSymbolRand returns a generator seeded by SymbolSeed(symbol).
func NewSymbolRand(symbol string) *rand.Rand {
	seed := SymbolSeed(symbol)
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// GenerateSyntheticReturns produces days daily returns for symbol: the
// symbol's mean return plus normal noise plus a slowly decaying random trend
// scaled by the symbol's momentum. Output is fully determined by rng.
func GenerateSyntheticReturns(days int, symbol string, rng *rand.Rand) []float64 {
	if days <= 0 {
		return []float64{}
	}

	params := ParametersFor(symbol)
	returns := make([]float64, days)

	trend := 0.0
	for i := range returns {
		trend += (rng.Float64() - 0.5) * 0.001
		trend *= 0.95

		returns[i] = params.MeanReturn + rng.NormFloat64()*params.Volatility + trend*params.Momentum
	}
	return returns
}

// SyntheticPrices compounds synthetic returns into a price path starting at start.
func SyntheticPrices(start float64, returns []float64) []float64 {
	prices := make([]float64, len(returns)+1)
	prices[0] = start
	for i, r := range returns {
		prices[i+1] = prices[i] * (1 + r)
	}
	return prices
}
