package marketdata

import (
	"math"
	"time"

	"github.com/stockdash/stockdash/internal/modules/statistics"
)

// SyntheticSeries builds a deterministic daily price series for symbol that
// ends on the last weekday at or before end. The same symbol and period always
// produce the same prices.
func SyntheticSeries(symbol string, period Period, end time.Time) Series {
	rng := statistics.NewSymbolRand(symbol)
	base := rng.Float64()*200 + 50
	returns := statistics.GenerateSyntheticReturns(period.TradingDays(), symbol, rng)
	closes := statistics.SyntheticPrices(base, returns)
	dates := tradingDates(end, len(closes))

	points := make([]PricePoint, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		points[i] = PricePoint{
			Date:  dates[i],
			Open:  round2(open),
			High:  round2(math.Max(open, c)),
			Low:   round2(math.Min(open, c)),
			Close: round2(c),
		}
	}

	return Series{
		Symbol:    symbol,
		Period:    period,
		Points:    points,
		Source:    SourceSynthetic,
		FetchedAt: end,
	}
}

// SyntheticReturns is the fallback return series used when a symbol has too
// little price history.
func SyntheticReturns(symbol string) ReturnSeries {
	return ReturnSeries{
		Symbol:  symbol,
		Returns: statistics.GenerateSyntheticReturns(statistics.SyntheticPeriods, symbol, statistics.NewSymbolRand(symbol)),
		Source:  SourceSynthetic,
	}
}

// tradingDates returns n ascending weekday dates ending at or before end.
func tradingDates(end time.Time, n int) []time.Time {
	day := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	for i := n - 1; i >= 0; i-- {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, -1)
		}
		dates[i] = day
		day = day.AddDate(0, 0, -1)
	}
	return dates
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
