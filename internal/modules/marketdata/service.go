package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/stockdash/stockdash/internal/clients/yahoo"
	"github.com/stockdash/stockdash/internal/modules/statistics"
)

// maxConcurrentFetches bounds parallel upstream requests per call.
const maxConcurrentFetches = 4

// upstreamTimeout bounds a shared upstream fetch, which outlives the callers
// that started it.
const upstreamTimeout = 30 * time.Second

// HistoryClient is the upstream price source.
type HistoryClient interface {
	GetHistoricalPrices(ctx context.Context, symbol, period string) ([]yahoo.HistoricalPrice, error)
	GetSymbolInfo(ctx context.Context, symbol string) (yahoo.SymbolInfo, error)
}

// HistoryStore persists the last good upstream series.
type HistoryStore interface {
	SaveSeries(ctx context.Context, series Series) error
	LoadSeries(ctx context.Context, symbol string, period Period) (Series, error)
	SaveName(ctx context.Context, symbol, name string, at time.Time) error
	LoadName(ctx context.Context, symbol string) (string, error)
}

// FetchObserver is notified of every served series.
type FetchObserver interface {
	ObserveSeries(source Source, cached bool)
	ObserveUpstreamError()
}

type noopObserver struct{}

func (noopObserver) ObserveSeries(Source, bool) {}
func (noopObserver) ObserveUpstreamError()      {}

// ServiceConfig configures the market data service.
type ServiceConfig struct {
	Watchlist []string
	// Offline disables upstream requests entirely.
	Offline bool
}

// Service resolves price history with the lookup order: fresh cache,
// Yahoo, stored history, stale cache, synthetic.
type Service struct {
	client    HistoryClient
	store     HistoryStore
	cache     *SeriesCache
	now       func() time.Time
	watchlist []string
	offline   bool
	observer  FetchObserver
	group     singleflight.Group
	log       zerolog.Logger
}

// NewService creates a market data service. client and store may be nil.
func NewService(client HistoryClient, store HistoryStore, cache *SeriesCache, cfg ServiceConfig, log zerolog.Logger) *Service {
	if cache == nil {
		cache = NewSeriesCache(DefaultCacheTTL, nil)
	}
	watchlist := NormalizeSymbols(cfg.Watchlist)
	if len(watchlist) == 0 {
		watchlist = DefaultWatchlist
	}
	return &Service{
		client:    client,
		store:     store,
		cache:     cache,
		now:       cache.now,
		watchlist: watchlist,
		offline:   cfg.Offline || client == nil,
		observer:  noopObserver{},
		log:       log.With().Str("service", "marketdata").Logger(),
	}
}

// SetObserver installs a fetch observer (metrics).
func (s *Service) SetObserver(o FetchObserver) {
	if o == nil {
		o = noopObserver{}
	}
	s.observer = o
}

// Watchlist returns the configured symbols.
func (s *Service) Watchlist() []string {
	return append([]string(nil), s.watchlist...)
}

// CacheSize returns the number of in-memory cached series.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}

// Offline reports whether upstream requests are disabled.
func (s *Service) Offline() bool {
	return s.offline
}

// GetPriceHistory returns the price history of symbol over period. It only
// fails for invalid arguments or a cancelled context; upstream failures
// degrade to stored, stale or synthetic data.
func (s *Service) GetPriceHistory(ctx context.Context, symbol string, period Period) (Series, error) {
	symbol = yahoo.NormalizeSymbol(symbol)
	if symbol == "" {
		return Series{}, ErrEmptySymbol
	}
	if _, ok := periodSpecs[period]; !ok {
		return Series{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}

	if cached, fresh, ok := s.cache.Get(symbol, period); ok && fresh {
		cached.Cached = true
		s.observer.ObserveSeries(cached.Source, true)
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return Series{}, err
	}

	// Shared by every caller waiting on the key; detached from the caller
	// that starts it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(cacheKey(symbol, period), func() (interface{}, error) {
		return s.resolve(shared, symbol, period), nil
	})

	select {
	case <-ctx.Done():
		return Series{}, ctx.Err()
	case res := <-ch:
		series := res.Val.(Series)
		s.observer.ObserveSeries(series.Source, series.Cached)
		return series, nil
	}
}

// resolve walks the fallback chain and always produces a series.
func (s *Service) resolve(ctx context.Context, symbol string, period Period) Series {
	if !s.offline {
		upCtx, cancel := context.WithTimeout(ctx, upstreamTimeout)
		series, err := s.fetchUpstream(upCtx, symbol, period)
		cancel()
		if err == nil {
			return series
		}
		s.observer.ObserveUpstreamError()
		s.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Str("period", string(period)).
			Msg("Upstream fetch failed, using fallback data")
	}

	if s.store != nil {
		series, err := s.store.LoadSeries(ctx, symbol, period)
		if err == nil {
			s.cache.Set(series)
			return series
		}
		if !errors.Is(err, ErrNoData) {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load stored history")
		}
	}

	if stale, _, ok := s.cache.Get(symbol, period); ok {
		stale.Cached = true
		stale.Stale = true
		s.log.Info().Str("symbol", symbol).Msg("Serving stale cached series")
		return stale
	}

	series := SyntheticSeries(symbol, period, s.now())
	s.cache.Set(series)
	s.log.Info().
		Str("symbol", symbol).
		Str("period", string(period)).
		Int("points", len(series.Points)).
		Msg("Generated synthetic price series")
	return series
}

func (s *Service) fetchUpstream(ctx context.Context, symbol string, period Period) (Series, error) {
	bars, err := s.client.GetHistoricalPrices(ctx, symbol, period.YahooRange())
	if err != nil {
		return Series{}, err
	}

	points := make([]PricePoint, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		points = append(points, PricePoint{
			Date:   b.Date.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	if len(points) == 0 {
		return Series{}, fmt.Errorf("no usable bars for %s", symbol)
	}

	series := Series{
		Symbol:    symbol,
		Period:    period,
		Points:    points,
		Source:    SourceYahoo,
		FetchedAt: s.now(),
	}
	s.cache.Set(series)

	if s.store != nil {
		if err := s.store.SaveSeries(ctx, series); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist price history")
		}
	}
	return series, nil
}

// GetReturnSeries fetches every symbol concurrently and converts prices to
// simple returns. Symbols with fewer than two returns get a synthetic series.
func (s *Service) GetReturnSeries(ctx context.Context, symbols []string, period Period) (map[string]ReturnSeries, error) {
	symbols = NormalizeSymbols(symbols)
	results := make([]ReturnSeries, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, symbol := range symbols {
		g.Go(func() error {
			series, err := s.GetPriceHistory(gctx, symbol, period)
			if err != nil {
				return err
			}

			returns := statistics.CalculateReturns(series.Closes())
			if len(returns) < 2 {
				s.log.Debug().Str("symbol", symbol).Msg("Too few returns, using synthetic series")
				results[i] = SyntheticReturns(symbol)
				return nil
			}
			results[i] = ReturnSeries{Symbol: symbol, Returns: returns, Source: series.Source}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]ReturnSeries, len(results))
	for _, r := range results {
		out[r.Symbol] = r
	}
	return out, nil
}

// CompanyName resolves a display name: stored name, then upstream, then
// the built-in table.
func (s *Service) CompanyName(ctx context.Context, symbol string) string {
	symbol = yahoo.NormalizeSymbol(symbol)

	if s.store != nil {
		if name, err := s.store.LoadName(ctx, symbol); err == nil {
			return name
		}
	}

	if !s.offline {
		info, err := s.client.GetSymbolInfo(ctx, symbol)
		if err == nil && (info.LongName != "" || info.ShortName != "") {
			name := info.DisplayName()
			if s.store != nil {
				if err := s.store.SaveName(ctx, symbol, name, s.now()); err != nil {
					s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to store company name")
				}
			}
			return name
		}
		if err != nil {
			s.log.Debug().Err(err).Str("symbol", symbol).Msg("Company name lookup failed")
		}
	}

	return FallbackCompanyName(symbol)
}

// ListStocks returns the watchlist formatted as "<name> (<SYMBOL>)".
func (s *Service) ListStocks(ctx context.Context) ([]string, error) {
	stocks := make([]string, len(s.watchlist))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, symbol := range s.watchlist {
		g.Go(func() error {
			stocks[i] = fmt.Sprintf("%s (%s)", s.CompanyName(gctx, symbol), symbol)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stocks, nil
}

// StockInfo returns name and latest close for symbol, based on 3M history.
func (s *Service) StockInfo(ctx context.Context, symbol string) (StockInfo, error) {
	series, err := s.GetPriceHistory(ctx, symbol, Period3M)
	if err != nil {
		return StockInfo{}, err
	}

	info := StockInfo{
		Symbol: series.Symbol,
		Name:   s.CompanyName(ctx, series.Symbol),
		IsReal: series.IsReal(),
		Source: series.Source,
	}
	if n := len(series.Points); n > 0 {
		info.Price = series.Points[n-1].Close
		info.AsOf = series.Points[n-1].Date
	}
	return info, nil
}

// NormalizeSymbols upper-cases, trims and de-duplicates symbols, keeping
// first-seen order and dropping blanks.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		sym := yahoo.NormalizeSymbol(raw)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// ParseSymbolList splits a comma or whitespace separated symbol list.
func ParseSymbolList(s string) []string {
	return NormalizeSymbols(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}))
}
