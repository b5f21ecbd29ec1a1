package optimization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEfficientFrontier(t *testing.T) {
	opt := newTestOptimizer()
	in := threeAssetInputs()

	points, err := opt.EfficientFrontier(context.Background(), in, 8)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(points), 2)

	kinds := map[string]int{}
	for i, p := range points {
		kinds[p.Kind]++
		assertValidWeights(t, p.Weights)
		assert.False(t, p.Degraded())
		if i > 0 {
			assert.GreaterOrEqual(t, p.ExpectedReturn, points[i-1].ExpectedReturn)
		}
	}
	assert.Equal(t, 1, kinds[PointMinVariance])
	assert.Equal(t, 1, kinds[PointMaxSharpe])

	minVar, err := opt.OptimizeMinVariance(in)
	require.NoError(t, err)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Volatility, minVar.Volatility-1e-9, "nothing is less risky than the min-variance portfolio")
	}
}

func TestEfficientFrontier_NoTargets(t *testing.T) {
	points, err := newTestOptimizer().EfficientFrontier(context.Background(), threeAssetInputs(), 0)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestEfficientFrontier_InvalidInputs(t *testing.T) {
	_, err := newTestOptimizer().EfficientFrontier(context.Background(), Inputs{}, 5)
	assert.ErrorIs(t, err, ErrNoAssets)
}

func TestEfficientFrontier_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestOptimizer().EfficientFrontier(ctx, threeAssetInputs(), 4)
	assert.ErrorIs(t, err, context.Canceled)
}
