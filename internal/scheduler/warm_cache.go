package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/modules/marketdata"
)

// HistoryWarmer loads price history into the market data cache.
type HistoryWarmer interface {
	Watchlist() []string
	GetPriceHistory(ctx context.Context, symbol string, period marketdata.Period) (marketdata.Series, error)
}

// WarmCacheJob fetches the watchlist's price history so that dashboard and
// optimizer requests are served from the cache.
type WarmCacheJob struct {
	warmer  HistoryWarmer
	periods []marketdata.Period
	timeout time.Duration
	log     zerolog.Logger
}

// NewWarmCacheJob creates a WarmCacheJob. periods defaults to the default period.
func NewWarmCacheJob(warmer HistoryWarmer, periods []marketdata.Period, timeout time.Duration, log zerolog.Logger) *WarmCacheJob {
	if len(periods) == 0 {
		periods = []marketdata.Period{marketdata.DefaultPeriod}
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &WarmCacheJob{
		warmer:  warmer,
		periods: periods,
		timeout: timeout,
		log:     log.With().Str("job", "warm_cache").Logger(),
	}
}

// Name returns the job name
func (j *WarmCacheJob) Name() string {
	return "warm_cache"
}

// Run fetches every watchlist symbol for every configured period.
func (j *WarmCacheJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	counts := make(map[marketdata.Source]int)
	for _, symbol := range j.warmer.Watchlist() {
		for _, period := range j.periods {
			series, err := j.warmer.GetPriceHistory(ctx, symbol, period)
			if err != nil {
				return fmt.Errorf("failed to warm %s %s: %w", symbol, period, err)
			}
			counts[series.Source]++
		}
	}

	j.log.Info().
		Int("yahoo", counts[marketdata.SourceYahoo]).
		Int("database", counts[marketdata.SourceDatabase]).
		Int("synthetic", counts[marketdata.SourceSynthetic]).
		Msg("Cache warmed")
	return nil
}
