// Package indicators computes technical indicators over market data price
// history for the dashboard chart.
package indicators

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/modules/marketdata"
	"github.com/stockdash/stockdash/pkg/formulas"
)

// Indicator parameters.
const (
	ShortSMALength  = 20
	LongSMALength   = 50
	RSILength       = 14
	BollingerLength = 20
	BollingerStdDev = 2.0

	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// RSI signals.
const (
	SignalOversold   = "oversold"
	SignalOverbought = "overbought"
	SignalNeutral    = "neutral"
)

// PriceHistorySource supplies price history.
type PriceHistorySource interface {
	GetPriceHistory(ctx context.Context, symbol string, period marketdata.Period) (marketdata.Series, error)
}

// Snapshot holds the latest indicator values for a symbol. Indicators that
// need more history than the period provides are nil.
type Snapshot struct {
	Symbol    string                   `json:"symbol"`
	Period    marketdata.Period        `json:"period"`
	Source    marketdata.Source        `json:"source"`
	IsReal    bool                     `json:"is_real"`
	AsOf      time.Time                `json:"as_of"`
	LastClose float64                  `json:"last_close"`
	Change    float64                  `json:"change"`
	SMA20     *float64                 `json:"sma_20"`
	SMA50     *float64                 `json:"sma_50"`
	RSI14     *float64                 `json:"rsi_14"`
	RSISignal string                   `json:"rsi_signal"`
	Bollinger *formulas.BollingerBands `json:"bollinger"`
	// BollingerPosition is the close's position within the bands, 0 at the
	// lower band and 1 at the upper band.
	BollingerPosition *float64 `json:"bollinger_position"`
	PeriodHigh        float64  `json:"period_high"`
	PeriodLow         float64  `json:"period_low"`
	Volatility        float64  `json:"volatility"`
	Observations      int      `json:"observations"`
}

// Service computes indicator snapshots.
type Service struct {
	source PriceHistorySource
	log    zerolog.Logger
}

// NewService creates an indicators service.
func NewService(source PriceHistorySource, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		log:    log.With().Str("service", "indicators").Logger(),
	}
}

// Snapshot fetches the price history of symbol and computes its indicators.
func (s *Service) Snapshot(ctx context.Context, symbol string, period marketdata.Period) (*Snapshot, error) {
	series, err := s.source.GetPriceHistory(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	snap := Compute(series.Closes())
	snap.Symbol = series.Symbol
	snap.Period = series.Period
	snap.Source = series.Source
	snap.IsReal = series.IsReal()
	if n := len(series.Points); n > 0 {
		snap.AsOf = series.Points[n-1].Date
	}

	s.log.Debug().
		Str("symbol", snap.Symbol).
		Str("period", string(period)).
		Int("observations", snap.Observations).
		Msg("Computed indicators")
	return snap, nil
}

// Compute derives indicators from a chronological close series.
func Compute(closes []float64) *Snapshot {
	snap := &Snapshot{
		Observations: len(closes),
		RSISignal:    SignalNeutral,
	}
	if len(closes) == 0 {
		return snap
	}

	last := closes[len(closes)-1]
	snap.LastClose = last
	if first := closes[0]; first > 0 {
		snap.Change = (last - first) / first
	}
	snap.PeriodHigh, snap.PeriodLow, _ = formulas.HighLow(closes)

	snap.SMA20 = formulas.CalculateSMA(closes, ShortSMALength)
	snap.SMA50 = formulas.CalculateSMA(closes, LongSMALength)

	snap.RSI14 = formulas.CalculateRSI(closes, RSILength)
	snap.RSISignal = rsiSignal(snap.RSI14)

	snap.Bollinger = formulas.CalculateBollingerBands(closes, BollingerLength, BollingerStdDev)
	snap.BollingerPosition = bollingerPosition(last, snap.Bollinger)

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if r := (closes[i] - closes[i-1]) / closes[i-1]; formulas.IsFinite(r) {
			returns = append(returns, r)
		}
	}
	snap.Volatility = formulas.AnnualizedVolatility(returns)

	return snap
}

func rsiSignal(rsi *float64) string {
	switch {
	case rsi == nil:
		return SignalNeutral
	case *rsi < RSIOversold:
		return SignalOversold
	case *rsi > RSIOverbought:
		return SignalOverbought
	default:
		return SignalNeutral
	}
}

func bollingerPosition(price float64, bands *formulas.BollingerBands) *float64 {
	if bands == nil {
		return nil
	}
	width := bands.Upper - bands.Lower
	if width <= 0 {
		return nil
	}
	pos := math.Max(0, math.Min(1, (price-bands.Lower)/width))
	return &pos
}
