package yahoo

import (
	"fmt"

	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// backend performs the raw upstream calls.
type backend interface {
	History(symbol, period string) ([]HistoricalPrice, error)
	Info(symbol string) (SymbolInfo, error)
}

// nativeBackend talks to Yahoo Finance through go-yfinance.
type nativeBackend struct{}

func (nativeBackend) History(symbol, period string) ([]HistoricalPrice, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}

	prices := make([]HistoricalPrice, 0, len(bars))
	for _, bar := range bars {
		prices = append(prices, HistoricalPrice{
			Date:     bar.Date,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			Volume:   int64(bar.Volume),
			AdjClose: bar.AdjClose,
		})
	}
	return prices, nil
}

func (nativeBackend) Info(symbol string) (SymbolInfo, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return SymbolInfo{}, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return SymbolInfo{}, fmt.Errorf("failed to get info: %w", err)
	}
	if info == nil {
		return SymbolInfo{Symbol: symbol}, nil
	}
	return SymbolInfo{Symbol: symbol, LongName: info.LongName, ShortName: info.ShortName}, nil
}
