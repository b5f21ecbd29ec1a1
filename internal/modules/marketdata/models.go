// Package marketdata supplies price history and return series to the
// analytics modules, falling back from Yahoo Finance to the local SQLite
// cache and finally to deterministic synthetic data.
package marketdata

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownPeriod is returned for period codes outside 1D..1Y.
	ErrUnknownPeriod = errors.New("unknown period")
	// ErrNoData is returned by the repository when nothing is stored.
	ErrNoData = errors.New("no data")
	// ErrEmptySymbol is returned when a symbol is blank.
	ErrEmptySymbol = errors.New("symbol is required")
)

// Period is a chart range code as used by the dashboard.
type Period string

const (
	Period1D Period = "1D"
	Period1W Period = "1W"
	Period1M Period = "1M"
	Period3M Period = "3M"
	Period6M Period = "6M"
	Period1Y Period = "1Y"

	// DefaultPeriod is used when no period is requested.
	DefaultPeriod = Period6M
)

type periodSpec struct {
	yahooRange  string
	tradingDays int
}

var periodSpecs = map[Period]periodSpec{
	Period1D: {yahooRange: "5d", tradingDays: 5},
	Period1W: {yahooRange: "5d", tradingDays: 5},
	Period1M: {yahooRange: "1mo", tradingDays: 21},
	Period3M: {yahooRange: "3mo", tradingDays: 63},
	Period6M: {yahooRange: "6mo", tradingDays: 126},
	Period1Y: {yahooRange: "1y", tradingDays: 252},
}

// Periods lists the supported periods, shortest first.
func Periods() []Period {
	return []Period{Period1D, Period1W, Period1M, Period3M, Period6M, Period1Y}
}

// ParsePeriod validates a period code. Empty means DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	p := Period(s)
	if _, ok := periodSpecs[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
	return p, nil
}

// YahooRange is the upstream range parameter for the period.
func (p Period) YahooRange() string {
	return periodSpecs[p].yahooRange
}

// TradingDays is the approximate number of daily bars in the period.
func (p Period) TradingDays() int {
	return periodSpecs[p].tradingDays
}

// Source records where a series came from.
type Source string

const (
	SourceYahoo     Source = "yahoo"
	SourceDatabase  Source = "database"
	SourceSynthetic Source = "synthetic"
)

// PricePoint is one daily bar.
type PricePoint struct {
	Date   time.Time `json:"date" msgpack:"d"`
	Open   float64   `json:"open" msgpack:"o"`
	High   float64   `json:"high" msgpack:"h"`
	Low    float64   `json:"low" msgpack:"l"`
	Close  float64   `json:"close" msgpack:"c"`
	Volume int64     `json:"volume" msgpack:"v"`
}

// Series is a symbol's price history for one period.
type Series struct {
	Symbol    string       `json:"symbol"`
	Period    Period       `json:"period"`
	Points    []PricePoint `json:"points"`
	Source    Source       `json:"source"`
	FetchedAt time.Time    `json:"fetched_at"`
	// Cached is set when the series was served from the in-memory cache.
	Cached bool `json:"cached"`
	// Stale is set when an expired cache entry was served.
	Stale bool `json:"stale,omitempty"`
}

// IsReal reports whether the series came from market data rather than the generator.
func (s Series) IsReal() bool {
	return s.Source != SourceSynthetic
}

// Closes extracts the close prices.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// ReturnSeries is a symbol's periodic simple returns.
type ReturnSeries struct {
	Symbol  string    `json:"symbol"`
	Returns []float64 `json:"returns"`
	Source  Source    `json:"source"`
}

// StockInfo summarizes a symbol for the sidebar.
type StockInfo struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Price  float64   `json:"price"`
	IsReal bool      `json:"is_real"`
	Source Source    `json:"source"`
	AsOf   time.Time `json:"as_of"`
}
