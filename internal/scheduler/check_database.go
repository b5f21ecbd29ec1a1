package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/database"
)

const checkDatabaseTimeout = 2 * time.Minute

// CheckDatabaseJob verifies the integrity of the history database and runs a
// passive WAL checkpoint.
type CheckDatabaseJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCheckDatabaseJob creates a new CheckDatabaseJob
func NewCheckDatabaseJob(db *database.DB, log zerolog.Logger) *CheckDatabaseJob {
	return &CheckDatabaseJob{
		db:  db,
		log: log.With().Str("job", "check_database").Logger(),
	}
}

// Name returns the job name
func (j *CheckDatabaseJob) Name() string {
	return "check_database"
}

// Run executes the integrity check and checkpoint
func (j *CheckDatabaseJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), checkDatabaseTimeout)
	defer cancel()

	if err := j.db.IntegrityCheck(ctx); err != nil {
		if errors.Is(err, database.ErrCorrupted) {
			// history.db only caches upstream data and can be deleted
			j.log.Error().Err(err).Str("path", j.db.Path()).Msg("History database is corrupted")
		}
		return err
	}

	res, err := j.db.Checkpoint(ctx)
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to checkpoint WAL")
		return nil
	}

	j.log.Debug().
		Str("database", j.db.Name()).
		Bool("busy", res.Busy).
		Int("wal_pages", res.WALPages).
		Int("checkpointed", res.Checkpointed).
		Msg("Database check passed")
	return nil
}
