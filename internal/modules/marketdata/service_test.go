package marketdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stockdash/stockdash/internal/clients/yahoo"
	testutil "github.com/stockdash/stockdash/internal/testing"
)

var errUpstream = errors.New("upstream down")

type countingObserver struct {
	mu        sync.Mutex
	served    map[Source]int
	cachedHit int
	errors    int
}

func (o *countingObserver) ObserveSeries(source Source, cached bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.served == nil {
		o.served = make(map[Source]int)
	}
	o.served[source]++
	if cached {
		o.cachedHit++
	}
}

func (o *countingObserver) ObserveUpstreamError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors++
}

type serviceFixture struct {
	svc    *Service
	client *testutil.MockYahooClient
	repo   *HistoryRepository
	clock  *testutil.FakeClock
	obs    *countingObserver
}

func newServiceFixture(t *testing.T, offline bool) serviceFixture {
	t.Helper()
	clock := testutil.NewFakeClock(time.Date(2024, 6, 7, 21, 0, 0, 0, time.UTC))
	client := new(testutil.MockYahooClient)
	repo := newTestRepository(t)
	cache := NewSeriesCache(5*time.Minute, clock.Now)
	svc := NewService(client, repo, cache, ServiceConfig{Offline: offline}, zerolog.Nop())
	obs := &countingObserver{}
	svc.SetObserver(obs)
	return serviceFixture{svc: svc, client: client, repo: repo, clock: clock, obs: obs}
}

var barsStart = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func TestService_GetPriceHistory_UpstreamThenCache(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	f.client.On("GetHistoricalPrices", mock.Anything, "AAPL", "1mo").
		Return(testutil.DailyBars(barsStart, 100, 101, 102), nil).Once()

	series, err := f.svc.GetPriceHistory(ctx, "aapl", Period1M)
	require.NoError(t, err)
	assert.Equal(t, SourceYahoo, series.Source)
	assert.False(t, series.Cached)
	assert.Equal(t, []float64{100, 101, 102}, series.Closes())

	again, err := f.svc.GetPriceHistory(ctx, "AAPL", Period1M)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, series.Closes(), again.Closes())

	stored, err := f.repo.LoadSeries(ctx, "AAPL", Period1M)
	require.NoError(t, err)
	assert.Equal(t, series.Closes(), stored.Closes())

	f.client.AssertExpectations(t)
	assert.Equal(t, 1, f.obs.cachedHit)
}

func TestService_GetPriceHistory_FallsBackToDatabase(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.repo.SaveSeries(ctx, Series{
		Symbol:    "MSFT",
		Period:    Period3M,
		Points:    []PricePoint{{Date: barsStart, Close: 410}, {Date: barsStart.AddDate(0, 0, 1), Close: 412}},
		FetchedAt: barsStart,
	}))
	f.client.On("GetHistoricalPrices", mock.Anything, "MSFT", "3mo").Return(nil, errUpstream)

	series, err := f.svc.GetPriceHistory(ctx, "MSFT", Period3M)
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, series.Source)
	assert.True(t, series.IsReal())
	assert.Equal(t, []float64{410, 412}, series.Closes())
	assert.Equal(t, 1, f.obs.errors)
}

func TestService_GetPriceHistory_ServesStaleCache(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2024, 6, 7, 21, 0, 0, 0, time.UTC))
	client := new(testutil.MockYahooClient)
	cache := NewSeriesCache(time.Minute, clock.Now)
	svc := NewService(client, nil, cache, ServiceConfig{}, zerolog.Nop())

	client.On("GetHistoricalPrices", mock.Anything, "NVDA", "1mo").
		Return(testutil.DailyBars(barsStart, 120, 121), nil).Once()
	client.On("GetHistoricalPrices", mock.Anything, "NVDA", "1mo").Return(nil, errUpstream)

	_, err := svc.GetPriceHistory(context.Background(), "NVDA", Period1M)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	series, err := svc.GetPriceHistory(context.Background(), "NVDA", Period1M)
	require.NoError(t, err)
	assert.True(t, series.Stale)
	assert.Equal(t, SourceYahoo, series.Source)
	assert.Equal(t, []float64{120, 121}, series.Closes())
}

func TestService_GetPriceHistory_Synthetic(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	f.client.On("GetHistoricalPrices", mock.Anything, "ZZZZ", "6mo").Return(nil, errUpstream).Once()

	series, err := f.svc.GetPriceHistory(ctx, "ZZZZ", Period6M)
	require.NoError(t, err)
	assert.Equal(t, SourceSynthetic, series.Source)
	assert.Len(t, series.Points, Period6M.TradingDays()+1)

	// synthetic data is never persisted
	_, err = f.repo.LoadSeries(ctx, "ZZZZ", Period6M)
	assert.ErrorIs(t, err, ErrNoData)

	// but is cached
	again, err := f.svc.GetPriceHistory(ctx, "ZZZZ", Period6M)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	f.client.AssertExpectations(t)
}

func TestService_Offline(t *testing.T) {
	f := newServiceFixture(t, true)

	series, err := f.svc.GetPriceHistory(context.Background(), "AAPL", Period1M)
	require.NoError(t, err)
	assert.Equal(t, SourceSynthetic, series.Source)
	assert.True(t, f.svc.Offline())
	f.client.AssertNotCalled(t, "GetHistoricalPrices", mock.Anything, mock.Anything, mock.Anything)

	name := f.svc.CompanyName(context.Background(), "AAPL")
	assert.Equal(t, "Apple Inc.", name)
}

func TestService_GetPriceHistory_InvalidArgs(t *testing.T) {
	f := newServiceFixture(t, true)

	_, err := f.svc.GetPriceHistory(context.Background(), "  ", Period1M)
	assert.ErrorIs(t, err, ErrEmptySymbol)

	_, err = f.svc.GetPriceHistory(context.Background(), "AAPL", Period("10Y"))
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestService_GetPriceHistory_CancelledContext(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.client.On("GetHistoricalPrices", mock.Anything, "AAPL", "1mo").Return(nil, context.Canceled)

	_, err := f.svc.GetPriceHistory(ctx, "AAPL", Period1M)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_GetPriceHistory_SharedFetchSurvivesCancelledCaller(t *testing.T) {
	f := newServiceFixture(t, false)
	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once
	f.client.On("GetHistoricalPrices", mock.Anything, "AAPL", "1mo").
		Run(func(mock.Arguments) {
			startOnce.Do(func() { close(started) })
			<-release
		}).
		Return(testutil.DailyBars(barsStart, 100, 101, 102), nil)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.svc.GetPriceHistory(ctx, "AAPL", Period1M)
		firstErr <- err
	}()
	<-started

	type result struct {
		series Series
		err    error
	}
	second := make(chan result, 1)
	go func() {
		series, err := f.svc.GetPriceHistory(context.Background(), "AAPL", Period1M)
		second <- result{series, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, SourceYahoo, got.series.Source)
	assert.Equal(t, []float64{100, 101, 102}, got.series.Closes())
	assert.Equal(t, 1, f.svc.CacheSize())
}

func TestService_GetReturnSeries(t *testing.T) {
	f := newServiceFixture(t, false)
	f.client.On("GetHistoricalPrices", mock.Anything, "AAPL", "1mo").
		Return(testutil.DailyBars(barsStart, 100, 110, 99), nil)
	f.client.On("GetHistoricalPrices", mock.Anything, "MSFT", "1mo").
		Return(testutil.DailyBars(barsStart, 50, 51), nil)

	got, err := f.svc.GetReturnSeries(context.Background(), []string{"AAPL", "msft", "AAPL"}, Period1M)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, SourceYahoo, got["AAPL"].Source)
	require.Len(t, got["AAPL"].Returns, 2)
	assert.InDelta(t, 0.1, got["AAPL"].Returns[0], 1e-12)
	assert.InDelta(t, -0.1, got["AAPL"].Returns[1], 1e-12)

	// one return is too few
	assert.Equal(t, SourceSynthetic, got["MSFT"].Source)
	assert.Len(t, got["MSFT"].Returns, 252)
}

func TestService_ListStocks(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC))
	client := new(testutil.MockYahooClient)
	repo := newTestRepository(t)
	require.NoError(t, repo.SaveName(context.Background(), "MSFT", "Microsoft Corp (stored)", clock.Now()))

	client.On("GetSymbolInfo", mock.Anything, "AAPL").Return(yahoo.SymbolInfo{Symbol: "AAPL", LongName: "Apple Inc."}, nil)
	client.On("GetSymbolInfo", mock.Anything, "QQQQ").Return(yahoo.SymbolInfo{}, errUpstream)

	svc := NewService(client, repo, NewSeriesCache(time.Minute, clock.Now),
		ServiceConfig{Watchlist: []string{"aapl", "MSFT", "QQQQ"}}, zerolog.Nop())

	stocks, err := svc.ListStocks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Apple Inc. (AAPL)",
		"Microsoft Corp (stored) (MSFT)",
		"QQQQ Inc. (QQQQ)",
	}, stocks)

	// resolved upstream names are persisted
	name, err := repo.LoadName(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", name)
	client.AssertNotCalled(t, "GetSymbolInfo", mock.Anything, "MSFT")
}

func TestService_StockInfo(t *testing.T) {
	f := newServiceFixture(t, false)
	f.client.On("GetHistoricalPrices", mock.Anything, "AAPL", "3mo").
		Return(testutil.DailyBars(barsStart, 190, 195.5), nil)
	f.client.On("GetSymbolInfo", mock.Anything, "AAPL").Return(yahoo.SymbolInfo{Symbol: "AAPL", ShortName: "Apple"}, nil)

	info, err := f.svc.StockInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple", info.Name)
	assert.Equal(t, 195.5, info.Price)
	assert.True(t, info.IsReal)
	assert.Equal(t, barsStart.AddDate(0, 0, 1), info.AsOf)
}

func TestNewService_DefaultWatchlist(t *testing.T) {
	svc := NewService(nil, nil, nil, ServiceConfig{}, zerolog.Nop())
	assert.Equal(t, DefaultWatchlist, svc.Watchlist())
	assert.True(t, svc.Offline())
	assert.Equal(t, 0, svc.CacheSize())
}
