package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/clients/yahoo"
	"github.com/stockdash/stockdash/internal/config"
	"github.com/stockdash/stockdash/internal/metrics"
	"github.com/stockdash/stockdash/internal/modules/indicators"
	"github.com/stockdash/stockdash/internal/modules/marketdata"
	"github.com/stockdash/stockdash/internal/modules/optimization"
)

// InitializeServices creates clients, repositories and services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.YahooClient = yahoo.NewClient(yahoo.Config{
		RequestsPerSecond: cfg.YahooRequestsPerSecond,
		FailureThreshold:  cfg.YahooFailureThreshold,
		OpenTimeout:       cfg.YahooOpenTimeout,
	}, log)

	container.HistoryRepo = marketdata.NewHistoryRepository(container.HistoryDB.Conn(), log)
	container.SeriesCache = marketdata.NewSeriesCache(cfg.PriceCacheTTL, nil)
	container.MarketDataService = marketdata.NewService(
		container.YahooClient,
		container.HistoryRepo,
		container.SeriesCache,
		marketdata.ServiceConfig{
			Watchlist: cfg.Watchlist,
			Offline:   cfg.Offline,
		},
		log,
	)

	container.Optimizer = optimization.NewMarkowitzOptimizer(cfg.RiskFreeRate, log)
	container.OptimizationService = optimization.NewService(container.MarketDataService, container.Optimizer, log)
	container.OptimizationService.SetDefaultPeriod(cfg.DefaultPeriod)

	container.IndicatorsService = indicators.NewService(container.MarketDataService, log)

	container.Metrics = metrics.New(container.SeriesCache.Len, func() bool {
		return container.YahooClient.BreakerState() == "open"
	})
	container.MarketDataService.SetObserver(container.Metrics)
	container.OptimizationService.SetObserver(container.Metrics)

	log.Info().
		Bool("offline", cfg.Offline).
		Float64("risk_free_rate", cfg.RiskFreeRate).
		Int("watchlist", len(cfg.Watchlist)).
		Msg("Services initialized")
	return nil
}
