package optimization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/modules/marketdata"
	"github.com/stockdash/stockdash/internal/modules/statistics"
	"github.com/stockdash/stockdash/pkg/formulas"
)

const (
	// MaxSymbols caps the assets in one service request.
	MaxSymbols = 50
	// DefaultFrontierPoints and MaxFrontierPoints bound FrontierRequest.Points.
	DefaultFrontierPoints = 20
	MaxFrontierPoints     = 100
)

var (
	// ErrTooManySymbols is returned when a request exceeds MaxSymbols.
	ErrTooManySymbols = errors.New("too many symbols")
	// ErrInvalidPoints is returned for frontier point counts outside 0..MaxFrontierPoints.
	ErrInvalidPoints = errors.New("invalid frontier point count")
)

// IsRequestError reports whether err was caused by invalid caller input.
func IsRequestError(err error) bool {
	for _, target := range []error{
		ErrNoAssets, ErrTooManySymbols, ErrInvalidPoints, ErrUnknownObjective,
		ErrMissingTargetReturn, ErrNonFiniteInput, ErrDimensionMismatch,
		marketdata.ErrUnknownPeriod, marketdata.ErrEmptySymbol,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ReturnSeriesProvider supplies periodic return series per symbol.
type ReturnSeriesProvider interface {
	GetReturnSeries(ctx context.Context, symbols []string, period marketdata.Period) (map[string]marketdata.ReturnSeries, error)
}

// RunObserver is notified after every optimization run (metrics).
type RunObserver interface {
	ObserveRun(objective Objective, elapsed time.Duration, fallbackReason string, err error)
}

type noopRunObserver struct{}

func (noopRunObserver) ObserveRun(Objective, time.Duration, string, error) {}

// RunRequest is an optimization over market data.
type RunRequest struct {
	Symbols      []string `json:"symbols" yaml:"symbols"`
	Objective    string   `json:"objective" yaml:"objective"`
	Period       string   `json:"period" yaml:"period"`
	RiskFreeRate *float64 `json:"risk_free_rate,omitempty" yaml:"risk_free_rate,omitempty"`
	TargetReturn *float64 `json:"target_return,omitempty" yaml:"target_return,omitempty"`
}

// Allocation is one symbol's optimal weight.
type Allocation struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
}

// AssetStats are the per-asset inputs the optimizer saw.
type AssetStats struct {
	Symbol         string            `json:"symbol"`
	ExpectedReturn float64           `json:"expected_return"`
	Volatility     float64           `json:"volatility"`
	SharpeRatio    float64           `json:"sharpe_ratio"`
	Observations   int               `json:"observations"`
	Source         marketdata.Source `json:"source"`
}

// RunResult is the response of Service.Run.
type RunResult struct {
	RunID        string            `json:"run_id"`
	Objective    Objective         `json:"objective"`
	Period       marketdata.Period `json:"period"`
	RiskFreeRate float64           `json:"risk_free_rate"`
	Allocations  []Allocation      `json:"allocations"`
	Portfolio    Result            `json:"portfolio"`
	Assets       []AssetStats      `json:"assets"`
	Correlation  [][]float64       `json:"correlation"`
	Warnings     []string          `json:"warnings"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// FrontierRequest samples the efficient frontier over market data.
type FrontierRequest struct {
	Symbols      []string `json:"symbols" yaml:"symbols"`
	Period       string   `json:"period" yaml:"period"`
	RiskFreeRate *float64 `json:"risk_free_rate,omitempty" yaml:"risk_free_rate,omitempty"`
	Points       int      `json:"points" yaml:"points"`
}

// FrontierResult is the response of Service.Frontier.
type FrontierResult struct {
	RunID        string            `json:"run_id"`
	Symbols      []string          `json:"symbols"`
	Period       marketdata.Period `json:"period"`
	RiskFreeRate float64           `json:"risk_free_rate"`
	Points       []FrontierPoint   `json:"points"`
	Warnings     []string          `json:"warnings"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// Service runs optimizations on statistics derived from market data.
type Service struct {
	provider      ReturnSeriesProvider
	optimizer     *MarkowitzOptimizer
	observer      RunObserver
	defaultPeriod marketdata.Period
	now           func() time.Time
	log           zerolog.Logger
}

// NewService creates an optimizer service.
func NewService(provider ReturnSeriesProvider, optimizer *MarkowitzOptimizer, log zerolog.Logger) *Service {
	return &Service{
		provider:      provider,
		optimizer:     optimizer,
		observer:      noopRunObserver{},
		defaultPeriod: marketdata.DefaultPeriod,
		now:           time.Now,
		log:           log.With().Str("service", "optimizer").Logger(),
	}
}

// SetDefaultPeriod sets the period used when a request names none.
func (s *Service) SetDefaultPeriod(p marketdata.Period) {
	s.defaultPeriod = p
}

// SetObserver installs a run observer.
func (s *Service) SetObserver(o RunObserver) {
	if o == nil {
		o = noopRunObserver{}
	}
	s.observer = o
}

// marketInputs are optimizer inputs derived from fetched return series.
type marketInputs struct {
	inputs     Inputs
	period     marketdata.Period
	historical [][]float64
	series     map[string]marketdata.ReturnSeries
	warnings   []string
}

func (s *Service) prepare(ctx context.Context, symbols []string, period string) (*marketInputs, error) {
	symbols = marketdata.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}
	if len(symbols) > MaxSymbols {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManySymbols, len(symbols), MaxSymbols)
	}

	p := s.defaultPeriod
	if strings.TrimSpace(period) != "" {
		parsed, err := marketdata.ParsePeriod(period)
		if err != nil {
			return nil, err
		}
		p = parsed
	}

	series, err := s.provider.GetReturnSeries(ctx, symbols, p)
	if err != nil {
		return nil, fmt.Errorf("failed to get return series: %w", err)
	}

	returnsBySymbol := make(map[string][]float64, len(symbols))
	historical := make([][]float64, len(symbols))
	var warnings []string
	for i, symbol := range symbols {
		rs := series[symbol]
		returnsBySymbol[symbol] = rs.Returns
		historical[i] = rs.Returns
		if rs.Source == marketdata.SourceSynthetic {
			warnings = append(warnings, fmt.Sprintf("%s: using synthetic data", symbol))
		}
	}

	return &marketInputs{
		inputs: Inputs{
			Symbols:          symbols,
			ExpectedReturns:  statistics.CalculateExpectedReturns(symbols, returnsBySymbol),
			CovarianceMatrix: statistics.CalculateCovarianceMatrix(symbols, returnsBySymbol),
		},
		period:     p,
		historical: historical,
		series:     series,
		warnings:   warnings,
	}, nil
}

// optimizerFor returns the configured optimizer, or a new one when the
// request overrides the risk-free rate.
func (s *Service) optimizerFor(riskFreeRate *float64) (*MarkowitzOptimizer, error) {
	if riskFreeRate == nil {
		return s.optimizer, nil
	}
	if !formulas.IsFinite(*riskFreeRate) {
		return nil, fmt.Errorf("%w: risk-free rate", ErrNonFiniteInput)
	}
	return NewMarkowitzOptimizer(*riskFreeRate, s.log), nil
}

// Run fetches returns for the requested symbols and optimizes them for the
// requested objective.
func (s *Service) Run(ctx context.Context, req RunRequest) (result *RunResult, err error) {
	started := s.now()
	objective, err := ParseObjective(req.Objective)
	if err != nil {
		return nil, err
	}
	defer func() {
		var reason string
		if result != nil {
			reason = result.Portfolio.FallbackReason
		}
		s.observer.ObserveRun(objective, s.now().Sub(started), reason, err)
	}()

	if objective == ObjectiveTargetReturn {
		if req.TargetReturn == nil {
			return nil, ErrMissingTargetReturn
		}
		if !formulas.IsFinite(*req.TargetReturn) {
			return nil, fmt.Errorf("%w: target return", ErrNonFiniteInput)
		}
	}

	optimizer, err := s.optimizerFor(req.RiskFreeRate)
	if err != nil {
		return nil, err
	}

	m, err := s.prepare(ctx, req.Symbols, req.Period)
	if err != nil {
		return nil, err
	}

	portfolio, err := optimizer.Optimize(m.inputs, objective, Options{
		TargetReturn:      req.TargetReturn,
		HistoricalReturns: m.historical,
	})
	if err != nil {
		return nil, err
	}
	if err := ValidateWeights(portfolio.Weights); err != nil {
		return nil, fmt.Errorf("optimizer produced invalid weights: %w", err)
	}

	warnings := m.warnings
	switch portfolio.FallbackReason {
	case FallbackSingularCovariance:
		warnings = append(warnings, "covariance matrix is singular, using equal weights")
	case FallbackTargetNotReached:
		warnings = append(warnings, fmt.Sprintf("target return %.4f not reachable, using equal weights", *req.TargetReturn))
	}

	allocations := make([]Allocation, len(m.inputs.Symbols))
	for i, symbol := range m.inputs.Symbols {
		allocations[i] = Allocation{Symbol: symbol, Weight: portfolio.Weights[i]}
	}

	result = &RunResult{
		RunID:        uuid.New().String(),
		Objective:    objective,
		Period:       m.period,
		RiskFreeRate: optimizer.RiskFreeRate(),
		Allocations:  allocations,
		Portfolio:    portfolio,
		Assets:       assetStats(m, optimizer.RiskFreeRate()),
		Correlation:  statistics.CalculateCorrelationMatrix(m.inputs.CovarianceMatrix),
		Warnings:     nonNil(warnings),
		ComputedAt:   s.now().UTC(),
	}

	s.log.Info().
		Str("run_id", result.RunID).
		Str("objective", string(objective)).
		Strs("symbols", m.inputs.Symbols).
		Float64("sharpe", portfolio.SharpeRatio).
		Str("fallback", portfolio.FallbackReason).
		Dur("elapsed", s.now().Sub(started)).
		Msg("Optimization completed")

	return result, nil
}

// FrontierRun is the objective label frontier requests are reported under.
const FrontierRun Objective = "frontier"

// Frontier samples the efficient frontier for the requested symbols.
func (s *Service) Frontier(ctx context.Context, req FrontierRequest) (result *FrontierResult, err error) {
	started := s.now()
	defer func() {
		s.observer.ObserveRun(FrontierRun, s.now().Sub(started), "", err)
	}()

	points := req.Points
	if points == 0 {
		points = DefaultFrontierPoints
	}
	if points < 0 || points > MaxFrontierPoints {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrInvalidPoints, req.Points, MaxFrontierPoints)
	}

	optimizer, err := s.optimizerFor(req.RiskFreeRate)
	if err != nil {
		return nil, err
	}

	m, err := s.prepare(ctx, req.Symbols, req.Period)
	if err != nil {
		return nil, err
	}

	frontier, err := optimizer.EfficientFrontier(ctx, m.inputs, points)
	if err != nil {
		return nil, err
	}

	result = &FrontierResult{
		RunID:        uuid.New().String(),
		Symbols:      m.inputs.Symbols,
		Period:       m.period,
		RiskFreeRate: optimizer.RiskFreeRate(),
		Points:       frontier,
		Warnings:     nonNil(m.warnings),
		ComputedAt:   s.now().UTC(),
	}

	s.log.Info().
		Str("run_id", result.RunID).
		Strs("symbols", result.Symbols).
		Int("points", len(frontier)).
		Dur("elapsed", s.now().Sub(started)).
		Msg("Frontier computed")

	return result, nil
}

func assetStats(m *marketInputs, riskFreeRate float64) []AssetStats {
	stats := make([]AssetStats, len(m.inputs.Symbols))
	for i, symbol := range m.inputs.Symbols {
		vol := math.Sqrt(m.inputs.CovarianceMatrix[i][i])
		er := m.inputs.ExpectedReturns[i]
		var sharpe float64
		if vol > 0 {
			sharpe = (er - riskFreeRate) / vol
		}
		stats[i] = AssetStats{
			Symbol:         symbol,
			ExpectedReturn: er,
			Volatility:     vol,
			SharpeRatio:    sharpe,
			Observations:   len(m.series[symbol].Returns),
			Source:         m.series[symbol].Source,
		}
	}
	return stats
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
