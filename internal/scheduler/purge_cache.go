package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// CachePurger drops cached entries older than maxAge.
type CachePurger interface {
	Purge(maxAge time.Duration) int
}

// PurgeCacheJob bounds the in-memory series cache. Entries are kept past
// their TTL as a stale fallback, so without purging they live forever.
type PurgeCacheJob struct {
	cache  CachePurger
	maxAge time.Duration
	log    zerolog.Logger
}

// NewPurgeCacheJob creates a PurgeCacheJob.
func NewPurgeCacheJob(cache CachePurger, maxAge time.Duration, log zerolog.Logger) *PurgeCacheJob {
	return &PurgeCacheJob{
		cache:  cache,
		maxAge: maxAge,
		log:    log.With().Str("job", "purge_cache").Logger(),
	}
}

// Name returns the job name
func (j *PurgeCacheJob) Name() string {
	return "purge_cache"
}

// Run purges expired entries.
func (j *PurgeCacheJob) Run() error {
	if removed := j.cache.Purge(j.maxAge); removed > 0 {
		j.log.Info().Int("removed", removed).Dur("max_age", j.maxAge).Msg("Purged cached series")
	}
	return nil
}
