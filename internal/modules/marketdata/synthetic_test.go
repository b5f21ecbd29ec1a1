package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticSeries_Deterministic(t *testing.T) {
	end := time.Date(2024, 6, 8, 15, 0, 0, 0, time.UTC) // Saturday

	a := SyntheticSeries("AAPL", Period1M, end)
	b := SyntheticSeries("AAPL", Period1M, end)
	require.Equal(t, a, b)

	assert.Equal(t, SourceSynthetic, a.Source)
	assert.False(t, a.IsReal())
	assert.Len(t, a.Points, Period1M.TradingDays()+1)

	last := a.Points[len(a.Points)-1].Date
	assert.Equal(t, time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC), last)

	for i, p := range a.Points {
		assert.Positive(t, p.Close)
		assert.GreaterOrEqual(t, p.High, p.Low)
		wd := p.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		if i > 0 {
			assert.True(t, p.Date.After(a.Points[i-1].Date))
		}
	}
}

func TestSyntheticSeries_DiffersBySymbol(t *testing.T) {
	end := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	assert.NotEqual(t, SyntheticSeries("AAPL", Period3M, end).Closes(), SyntheticSeries("MSFT", Period3M, end).Closes())
}

func TestSyntheticReturns(t *testing.T) {
	r := SyntheticReturns("TSLA")
	assert.Equal(t, "TSLA", r.Symbol)
	assert.Equal(t, SourceSynthetic, r.Source)
	assert.Len(t, r.Returns, 252)
	assert.Equal(t, r.Returns, SyntheticReturns("TSLA").Returns)
}
