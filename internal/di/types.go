// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/stockdash/stockdash/internal/clients/yahoo"
	"github.com/stockdash/stockdash/internal/database"
	"github.com/stockdash/stockdash/internal/metrics"
	"github.com/stockdash/stockdash/internal/modules/indicators"
	"github.com/stockdash/stockdash/internal/modules/marketdata"
	"github.com/stockdash/stockdash/internal/modules/optimization"
	"github.com/stockdash/stockdash/internal/scheduler"
)

// Container holds all dependencies for the application. It is created by
// Wire and passed to the server for access to services.
type Container struct {
	// Databases
	HistoryDB *database.DB

	// Clients
	YahooClient *yahoo.Client

	// Repositories
	HistoryRepo *marketdata.HistoryRepository

	// Services
	SeriesCache         *marketdata.SeriesCache
	MarketDataService   *marketdata.Service
	Optimizer           *optimization.MarkowitzOptimizer
	OptimizationService *optimization.Service
	IndicatorsService   *indicators.Service

	// Operations
	Metrics   *metrics.Registry
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the scheduled jobs for manual triggering via API
type JobInstances struct {
	WarmCache     scheduler.Job
	PurgeCache    scheduler.Job
	CheckDatabase scheduler.Job
}

// All returns the jobs keyed by name.
func (j *JobInstances) All() map[string]scheduler.Job {
	jobs := make(map[string]scheduler.Job)
	for _, job := range []scheduler.Job{j.WarmCache, j.PurgeCache, j.CheckDatabase} {
		if job != nil {
			jobs[job.Name()] = job
		}
	}
	return jobs
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.HistoryDB != nil {
		return c.HistoryDB.Close()
	}
	return nil
}
