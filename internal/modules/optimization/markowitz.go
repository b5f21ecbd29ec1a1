package optimization

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/stockdash/stockdash/pkg/formulas"
)

// DefaultRiskFreeRate is the annual risk-free rate used when none is configured.
const DefaultRiskFreeRate = 0.02

// Iteration schedules for the gradient-based objectives.
const (
	ratioIterations        = 2000
	ratioLearningRate      = 0.005
	learningRateDecay      = 0.95
	learningRateDecayEvery = 500

	targetIterations      = 1000
	targetLearningRate    = 0.01
	targetReturnTolerance = 0.001
	returnTrackingScale   = 0.1
)

// MarkowitzOptimizer computes long-only, fully-invested mean-variance
// portfolios. It holds no mutable state and is safe for concurrent use.
type MarkowitzOptimizer struct {
	riskFreeRate float64
	log          zerolog.Logger
}

// NewMarkowitzOptimizer creates an optimizer with a fixed annual risk-free rate.
func NewMarkowitzOptimizer(riskFreeRate float64, log zerolog.Logger) *MarkowitzOptimizer {
	return &MarkowitzOptimizer{
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "markowitz_optimizer").Logger(),
	}
}

// RiskFreeRate returns the rate the optimizer was built with.
func (o *MarkowitzOptimizer) RiskFreeRate() float64 {
	return o.riskFreeRate
}

// problem is a validated optimization request.
type problem struct {
	n      int
	mu     []float64
	excess []float64
	sigma  *mat.Dense
}

func (o *MarkowitzOptimizer) newProblem(in Inputs) (*problem, error) {
	n := len(in.ExpectedReturns)
	if n == 0 {
		return nil, ErrNoAssets
	}
	if len(in.Symbols) != n {
		return nil, fmt.Errorf("%w: %d symbols, %d expected returns", ErrDimensionMismatch, len(in.Symbols), n)
	}
	if len(in.CovarianceMatrix) != n {
		return nil, fmt.Errorf("%w: covariance matrix has %d rows, expected %d", ErrDimensionMismatch, len(in.CovarianceMatrix), n)
	}
	for i, row := range in.CovarianceMatrix {
		if len(row) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d columns, expected %d", ErrDimensionMismatch, i, len(row), n)
		}
		for j, v := range row {
			if !formulas.IsFinite(v) {
				return nil, fmt.Errorf("%w: covariance[%d][%d]", ErrNonFiniteInput, i, j)
			}
		}
	}
	for i, r := range in.ExpectedReturns {
		if !formulas.IsFinite(r) {
			return nil, fmt.Errorf("%w: expected return for %s", ErrNonFiniteInput, in.Symbols[i])
		}
	}
	if !formulas.IsFinite(o.riskFreeRate) {
		return nil, fmt.Errorf("%w: risk-free rate", ErrNonFiniteInput)
	}

	mu := append([]float64(nil), in.ExpectedReturns...)
	excess := make([]float64, n)
	for i, r := range mu {
		excess[i] = r - o.riskFreeRate
	}

	return &problem{n: n, mu: mu, excess: excess, sigma: denseFromRows(in.CovarianceMatrix)}, nil
}

func validateHistorical(historical [][]float64, n int) error {
	if len(historical) == 0 {
		return nil
	}
	if len(historical) != n {
		return fmt.Errorf("%w: %d historical series for %d assets", ErrDimensionMismatch, len(historical), n)
	}
	for i, series := range historical {
		for t, v := range series {
			if !formulas.IsFinite(v) {
				return fmt.Errorf("%w: historical return %d of asset %d", ErrNonFiniteInput, t, i)
			}
		}
	}
	return nil
}

// Optimize dispatches to the algorithm selected by objective.
func (o *MarkowitzOptimizer) Optimize(in Inputs, objective Objective, opts Options) (Result, error) {
	switch objective {
	case ObjectiveMaxSharpe:
		return o.OptimizeMaxSharpe(in)
	case ObjectiveMaxSortino:
		return o.OptimizeMaxSortino(in, opts.HistoricalReturns)
	case ObjectiveMinVariance:
		return o.OptimizeMinVariance(in)
	case ObjectiveTargetReturn:
		if opts.TargetReturn == nil {
			return Result{}, ErrMissingTargetReturn
		}
		return o.OptimizeForTargetReturn(in, *opts.TargetReturn)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownObjective, objective)
	}
}

// OptimizeMaxSharpe maximizes (wᵀμ - rf) / sqrt(wᵀΣw) by projected gradient
// ascent from equal weights and returns the best iterate seen.
func (o *MarkowitzOptimizer) OptimizeMaxSharpe(in Inputs) (Result, error) {
	p, err := o.newProblem(in)
	if err != nil {
		return Result{}, err
	}

	best := o.ratioAscent(p, func(w []float64) float64 {
		return SharpeRatio(PortfolioReturn(w, p.mu), PortfolioVolatility(w, p.sigma), o.riskFreeRate)
	})

	res := o.result(p, best, nil)
	o.log.Debug().
		Int("assets", p.n).
		Float64("sharpe", res.SharpeRatio).
		Msg("Max Sharpe optimization complete")
	return res, nil
}

// OptimizeMaxSortino runs the max-Sharpe ascent but checkpoints iterates by
// Sortino ratio, measured against the risk-free rate on the replayed
// historical portfolio returns. The weights move along the Sharpe gradient.
// historical may be empty, in which case the downside deviation floor applies.
func (o *MarkowitzOptimizer) OptimizeMaxSortino(in Inputs, historical [][]float64) (Result, error) {
	p, err := o.newProblem(in)
	if err != nil {
		return Result{}, err
	}
	if err := validateHistorical(historical, p.n); err != nil {
		return Result{}, err
	}

	sortino := func(w []float64) float64 {
		return SortinoRatio(PortfolioReturn(w, p.mu), DownsideDeviation(w, historical, o.riskFreeRate), o.riskFreeRate)
	}
	best := o.ratioAscent(p, sortino)

	s := sortino(best)
	res := o.result(p, best, &s)
	o.log.Debug().
		Int("assets", p.n).
		Int("periods", len(HistoricalPortfolioReturns(best, historical))).
		Float64("sortino", res.SortinoRatio).
		Msg("Max Sortino optimization complete")
	return res, nil
}

// ratioAscent steps along the Sharpe gradient with a decaying learning rate,
// projecting after every step, and returns the weights that scored highest.
func (o *MarkowitzOptimizer) ratioAscent(p *problem, score func([]float64) float64) []float64 {
	weights := EqualWeights(p.n)
	best := append([]float64(nil), weights...)
	bestScore := math.Inf(-1)
	lr := ratioLearningRate

	for iter := 0; iter < ratioIterations; iter++ {
		if s := score(weights); s > bestScore {
			bestScore = s
			copy(best, weights)
		}

		grad := SharpeGradient(weights, p.excess, p.sigma)
		floats.AddScaled(weights, lr, grad)
		NormalizeWeights(weights)

		if iter > 0 && iter%learningRateDecayEvery == 0 {
			lr *= learningRateDecay
		}
	}

	return best
}

// OptimizeMinVariance solves w = Σ⁻¹1 / 1ᵀΣ⁻¹1 and projects the result onto
// the long-only simplex. A singular covariance matrix degrades to equal
// weights with FallbackSingularCovariance set instead of failing.
func (o *MarkowitzOptimizer) OptimizeMinVariance(in Inputs) (Result, error) {
	p, err := o.newProblem(in)
	if err != nil {
		return Result{}, err
	}

	weights, err := minVarianceWeights(p)
	if err != nil {
		if !errors.Is(err, ErrSingularMatrix) {
			return Result{}, err
		}
		o.log.Warn().
			Err(err).
			Int("assets", p.n).
			Msg("Covariance inversion failed, falling back to equal weights")

		res := o.result(p, EqualWeights(p.n), nil)
		res.FallbackReason = FallbackSingularCovariance
		return res, nil
	}

	return o.result(p, weights, nil), nil
}

func minVarianceWeights(p *problem) ([]float64, error) {
	inv, err := InvertMatrix(p.sigma)
	if err != nil {
		return nil, err
	}

	ones := make([]float64, p.n)
	for i := range ones {
		ones[i] = 1
	}
	invOnes, err := MultiplyMatrixVector(inv, ones)
	if err != nil {
		return nil, err
	}

	denominator := floats.Sum(invOnes)
	if !formulas.IsFinite(denominator) || math.Abs(denominator) < singularPivotTolerance {
		return nil, fmt.Errorf("%w: 1ᵀΣ⁻¹1 = %g", ErrSingularMatrix, denominator)
	}

	for i := range invOnes {
		invOnes[i] /= denominator
	}
	NormalizeWeights(invOnes)
	return invOnes, nil
}

// OptimizeForTargetReturn runs penalized gradient descent on variance while
// pulling the portfolio return toward target. It returns the lowest-volatility
// iterate within 0.001 of target; when no iterate qualifies the equal-weight
// start is returned with FallbackTargetNotReached set.
func (o *MarkowitzOptimizer) OptimizeForTargetReturn(in Inputs, target float64) (Result, error) {
	p, err := o.newProblem(in)
	if err != nil {
		return Result{}, err
	}
	if !formulas.IsFinite(target) {
		return Result{}, fmt.Errorf("%w: target return", ErrNonFiniteInput)
	}

	weights := EqualWeights(p.n)
	best := append([]float64(nil), weights...)
	bestVolatility := math.Inf(1)

	for iter := 0; iter < targetIterations; iter++ {
		ret := PortfolioReturn(weights, p.mu)
		if math.Abs(ret-target) <= targetReturnTolerance {
			if vol := PortfolioVolatility(weights, p.sigma); vol < bestVolatility {
				bestVolatility = vol
				copy(best, weights)
			}
		}

		grad := VarianceGradient(weights, p.sigma)
		returnError := target - ret
		for i := range weights {
			weights[i] += -targetLearningRate*grad[i] + targetLearningRate*returnError*p.mu[i]*returnTrackingScale
		}
		NormalizeWeights(weights)
	}

	res := o.result(p, best, nil)
	if math.IsInf(bestVolatility, 1) {
		res.FallbackReason = FallbackTargetNotReached
		o.log.Debug().
			Float64("target_return", target).
			Float64("achieved_return", res.ExpectedReturn).
			Msg("Target return not reached, returning equal weights")
	}
	return res, nil
}

// result computes the reported metrics for weights. sortino overrides the
// Sharpe-as-Sortino approximation when non-nil.
func (o *MarkowitzOptimizer) result(p *problem, weights []float64, sortino *float64) Result {
	ret := PortfolioReturn(weights, p.mu)
	vol := PortfolioVolatility(weights, p.sigma)
	sharpe := SharpeRatio(ret, vol, o.riskFreeRate)

	res := Result{
		Weights:        weights,
		ExpectedReturn: ret,
		Volatility:     vol,
		SharpeRatio:    sharpe,
		SortinoRatio:   sharpe,
	}
	if sortino != nil {
		res.SortinoRatio = *sortino
	}
	return res
}
