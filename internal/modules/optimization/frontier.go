package optimization

import (
	"context"
	"runtime"
	"sort"

	"gonum.org/v1/gonum/floats"
	"golang.org/x/sync/errgroup"
)

// Frontier point kinds.
const (
	PointMinVariance  = "min_variance"
	PointMaxSharpe    = "max_sharpe"
	PointTargetReturn = "target_return"
)

// FrontierPoint is one sampled portfolio on the risk/return curve.
type FrontierPoint struct {
	Kind         string  `json:"kind"`
	TargetReturn float64 `json:"target_return"`
	Result
}

// EfficientFrontier samples the risk/return curve: the minimum-variance and
// maximum-Sharpe portfolios plus up to targets target-return portfolios spaced
// evenly above the minimum-variance return up to the largest expected return.
// Targets the descent does not reach are skipped. Points are ordered by
// expected return. Target solves run concurrently.
func (o *MarkowitzOptimizer) EfficientFrontier(ctx context.Context, in Inputs, targets int) ([]FrontierPoint, error) {
	minVar, err := o.OptimizeMinVariance(in)
	if err != nil {
		return nil, err
	}
	maxSharpe, err := o.OptimizeMaxSharpe(in)
	if err != nil {
		return nil, err
	}

	frontier := []FrontierPoint{
		{Kind: PointMinVariance, TargetReturn: minVar.ExpectedReturn, Result: minVar},
		{Kind: PointMaxSharpe, TargetReturn: maxSharpe.ExpectedReturn, Result: maxSharpe},
	}

	lo, hi := minVar.ExpectedReturn, floats.Max(in.ExpectedReturns)
	if targets > 0 && hi > lo {
		goals := make([]float64, targets)
		step := (hi - lo) / float64(targets)
		for k := range goals {
			goals[k] = lo + step*float64(k+1)
		}

		results := make([]Result, len(goals))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for k, goal := range goals {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := o.OptimizeForTargetReturn(in, goal)
				if err != nil {
					return err
				}
				results[k] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for k, res := range results {
			if res.Degraded() {
				continue
			}
			frontier = append(frontier, FrontierPoint{Kind: PointTargetReturn, TargetReturn: goals[k], Result: res})
		}
	}

	sort.SliceStable(frontier, func(i, j int) bool {
		return frontier[i].ExpectedReturn < frontier[j].ExpectedReturn
	})
	return frontier, nil
}
