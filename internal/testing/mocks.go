package testing

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stockdash/stockdash/internal/clients/yahoo"
)

// MockYahooClient is a testify mock of the market data upstream client.
type MockYahooClient struct {
	mock.Mock
}

// GetHistoricalPrices records the call and returns the configured bars.
func (m *MockYahooClient) GetHistoricalPrices(ctx context.Context, symbol, period string) ([]yahoo.HistoricalPrice, error) {
	args := m.Called(ctx, symbol, period)
	prices, _ := args.Get(0).([]yahoo.HistoricalPrice)
	return prices, args.Error(1)
}

// GetSymbolInfo records the call and returns the configured info.
func (m *MockYahooClient) GetSymbolInfo(ctx context.Context, symbol string) (yahoo.SymbolInfo, error) {
	args := m.Called(ctx, symbol)
	info, _ := args.Get(0).(yahoo.SymbolInfo)
	return info, args.Error(1)
}

// FakeClock is a manually advanced clock for TTL tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// DailyBars builds closes into consecutive daily bars starting at start.
func DailyBars(start time.Time, closes ...float64) []yahoo.HistoricalPrice {
	bars := make([]yahoo.HistoricalPrice, len(closes))
	for i, c := range closes {
		bars[i] = yahoo.HistoricalPrice{
			Date:     start.AddDate(0, 0, i),
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			AdjClose: c,
			Volume:   1000,
		}
	}
	return bars
}
