package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdash/stockdash/internal/modules/marketdata"
	"github.com/stockdash/stockdash/internal/modules/optimization"
)

func TestRegistry_ObserveSeries(t *testing.T) {
	r := New(nil, nil)

	r.ObserveSeries(marketdata.SourceYahoo, false)
	r.ObserveSeries(marketdata.SourceYahoo, true)
	r.ObserveSeries(marketdata.SourceYahoo, true)
	r.ObserveUpstreamError()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.SeriesServed.WithLabelValues("yahoo", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SeriesServed.WithLabelValues("yahoo", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.UpstreamErrors))
}

func TestRegistry_ObserveRun(t *testing.T) {
	r := New(nil, nil)

	r.ObserveRun(optimization.ObjectiveMaxSharpe, 10*time.Millisecond, "", nil)
	r.ObserveRun(optimization.ObjectiveMinVariance, time.Millisecond, optimization.FallbackSingularCovariance, nil)
	r.ObserveRun(optimization.ObjectiveMaxSharpe, time.Millisecond, "", optimization.ErrNoAssets)
	r.ObserveRun(optimization.ObjectiveMaxSharpe, time.Millisecond, "", errors.New("upstream"))
	r.ObserveRun(optimization.FrontierRun, time.Millisecond, "", optimization.ErrInvalidPoints)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.OptimizerRuns.WithLabelValues("max_sharpe", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.OptimizerRuns.WithLabelValues("min_variance", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.OptimizerRuns.WithLabelValues("max_sharpe", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.OptimizerRuns.WithLabelValues("max_sharpe", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.OptimizerRuns.WithLabelValues("frontier", "invalid")))
}

func TestRegistry_Gauges(t *testing.T) {
	size := 3
	open := true
	r := New(func() int { return size }, func() bool { return open })

	assert.Equal(t, 3.0, testutil.ToFloat64(r.CachedSeries))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.BreakerOpen))

	open = false
	size = 5
	assert.Equal(t, 5.0, testutil.ToFloat64(r.CachedSeries))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.BreakerOpen))
}

func TestRegistry_Handler(t *testing.T) {
	r := New(nil, nil)
	r.ObserveJob("warm_cache", time.Second, nil)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `stockdash_job_runs_total{job="warm_cache",status="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
