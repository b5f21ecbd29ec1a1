package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/config"
	"github.com/stockdash/stockdash/internal/modules/marketdata"
	"github.com/stockdash/stockdash/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers the maintenance jobs.
// Jobs with an empty schedule are created but not scheduled.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)
	sched.SetObserver(container.Metrics)
	container.Scheduler = sched

	periods := []marketdata.Period{cfg.DefaultPeriod}
	if cfg.DefaultPeriod != marketdata.Period3M {
		// StockInfo reads 3M history
		periods = append(periods, marketdata.Period3M)
	}

	instances := &JobInstances{
		WarmCache:     scheduler.NewWarmCacheJob(container.MarketDataService, periods, 0, log),
		PurgeCache:    scheduler.NewPurgeCacheJob(container.SeriesCache, cfg.CacheMaxAge, log),
		CheckDatabase: scheduler.NewCheckDatabaseJob(container.HistoryDB, log),
	}

	for _, entry := range []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.WarmCacheSchedule, instances.WarmCache},
		{cfg.PurgeCacheSchedule, instances.PurgeCache},
		{cfg.CheckDatabaseSchedule, instances.CheckDatabase},
	} {
		if entry.schedule == "" {
			continue
		}
		if err := sched.AddJob(entry.schedule, entry.job); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", entry.job.Name(), err)
		}
	}

	return instances, nil
}
