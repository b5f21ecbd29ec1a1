package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stockdash/stockdash/internal/config"
	"github.com/stockdash/stockdash/internal/database"
)

// InitializeDatabases opens and migrates the history database
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// history.db - last good upstream price series and company names
	historyDB, err := database.New(database.Config{
		Path: cfg.HistoryDBPath(),
		Name: "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	if err := historyDB.Migrate(); err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	container.HistoryDB = historyDB

	log.Info().Str("path", historyDB.Path()).Msg("History database initialized")
	return container, nil
}
