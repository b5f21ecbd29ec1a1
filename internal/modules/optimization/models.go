package optimization

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSingularMatrix is returned by InvertMatrix when a pivot is numerically zero.
	ErrSingularMatrix = errors.New("matrix is singular or nearly singular")
	// ErrDimensionMismatch is returned when vector and matrix sizes disagree.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNoAssets is returned when an optimization request has no assets.
	ErrNoAssets = errors.New("no assets provided")
	// ErrNonFiniteInput is returned when an input contains NaN or Inf.
	ErrNonFiniteInput = errors.New("non-finite input")
	// ErrInvalidWeights is returned by ValidateWeights.
	ErrInvalidWeights = errors.New("invalid portfolio weights")
	// ErrMissingTargetReturn is returned when the target_return objective has no target.
	ErrMissingTargetReturn = errors.New("target return required for target_return objective")
	// ErrUnknownObjective is returned for unsupported objective names.
	ErrUnknownObjective = errors.New("unknown objective")
)

// Objective selects the optimization algorithm.
type Objective string

const (
	ObjectiveMaxSharpe    Objective = "max_sharpe"
	ObjectiveMaxSortino   Objective = "max_sortino"
	ObjectiveMinVariance  Objective = "min_variance"
	ObjectiveTargetReturn Objective = "target_return"
)

// ObjectiveInfo describes an objective for API consumers.
type ObjectiveInfo struct {
	Name        Objective `json:"name"`
	Description string    `json:"description"`
	NeedsTarget bool      `json:"needs_target_return"`
}

// Objectives lists the supported objectives.
func Objectives() []ObjectiveInfo {
	return []ObjectiveInfo{
		{Name: ObjectiveMaxSharpe, Description: "Maximize excess return per unit of volatility"},
		{Name: ObjectiveMaxSortino, Description: "Maximize excess return per unit of downside deviation"},
		{Name: ObjectiveMinVariance, Description: "Minimize portfolio variance"},
		{Name: ObjectiveTargetReturn, Description: "Minimize volatility at a target expected return", NeedsTarget: true},
	}
}

// ParseObjective accepts the canonical names plus a few dashed/short aliases.
func ParseObjective(name string) (Objective, error) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "-", "_"))) {
	case "max_sharpe", "sharpe", "":
		return ObjectiveMaxSharpe, nil
	case "max_sortino", "sortino":
		return ObjectiveMaxSortino, nil
	case "min_variance", "min_volatility", "minvar":
		return ObjectiveMinVariance, nil
	case "target_return", "efficient_return":
		return ObjectiveTargetReturn, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownObjective, name)
	}
}

// Inputs are the optimizer's per-call inputs. ExpectedReturns and the rows and
// columns of CovarianceMatrix are indexed in Symbols order.
type Inputs struct {
	Symbols          []string    `json:"symbols" yaml:"symbols"`
	ExpectedReturns  []float64   `json:"expected_returns" yaml:"expected_returns"`
	CovarianceMatrix [][]float64 `json:"covariance_matrix" yaml:"covariance_matrix"`
}

// Options carry the objective-specific extras for Optimize.
type Options struct {
	TargetReturn *float64
	// HistoricalReturns holds one periodic return series per asset, used by max_sortino.
	HistoricalReturns [][]float64
}

// Fallback reasons reported on a Result when the optimizer degraded.
const (
	FallbackSingularCovariance = "singular_covariance"
	FallbackTargetNotReached   = "target_return_not_reached"
)

// Result is the output of one optimization call.
type Result struct {
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	Volatility     float64   `json:"volatility"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	// SortinoRatio equals SharpeRatio unless the max_sortino objective ran.
	SortinoRatio   float64 `json:"sortino_ratio"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
}

// Degraded reports whether the optimizer fell back to a default allocation.
func (r Result) Degraded() bool {
	return r.FallbackReason != ""
}
