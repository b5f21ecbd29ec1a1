package marketdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// HistoryRepository persists the last good upstream series per
// (symbol, period) and resolved company names in history.db.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a repository over a migrated history database.
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// SaveSeries upserts the bars of a series as a msgpack blob.
func (r *HistoryRepository) SaveSeries(ctx context.Context, series Series) error {
	blob, err := msgpack.Marshal(series.Points)
	if err != nil {
		return fmt.Errorf("failed to encode bars for %s: %w", series.Symbol, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO price_history (symbol, period, bars, bar_count, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, period) DO UPDATE SET
			bars = excluded.bars,
			bar_count = excluded.bar_count,
			fetched_at = excluded.fetched_at
	`, series.Symbol, string(series.Period), blob, len(series.Points), series.FetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save history for %s: %w", series.Symbol, err)
	}

	r.log.Debug().
		Str("symbol", series.Symbol).
		Str("period", string(series.Period)).
		Int("bars", len(series.Points)).
		Msg("Saved price history")
	return nil
}

// LoadSeries returns the stored series or ErrNoData.
func (r *HistoryRepository) LoadSeries(ctx context.Context, symbol string, period Period) (Series, error) {
	var blob []byte
	var fetchedAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT bars, fetched_at FROM price_history WHERE symbol = ? AND period = ?
	`, symbol, string(period)).Scan(&blob, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Series{}, ErrNoData
	}
	if err != nil {
		return Series{}, fmt.Errorf("failed to load history for %s: %w", symbol, err)
	}

	var points []PricePoint
	if err := msgpack.Unmarshal(blob, &points); err != nil {
		return Series{}, fmt.Errorf("failed to decode bars for %s: %w", symbol, err)
	}
	if len(points) == 0 {
		return Series{}, ErrNoData
	}
	for i := range points {
		points[i].Date = points[i].Date.UTC()
	}

	return Series{
		Symbol:    symbol,
		Period:    period,
		Points:    points,
		Source:    SourceDatabase,
		FetchedAt: time.Unix(fetchedAt, 0).UTC(),
	}, nil
}

// SaveName stores a resolved display name for symbol.
func (r *HistoryRepository) SaveName(ctx context.Context, symbol, name string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO symbol_names (symbol, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, symbol, name, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to save name for %s: %w", symbol, err)
	}
	return nil
}

// LoadName returns the stored display name or ErrNoData.
func (r *HistoryRepository) LoadName(ctx context.Context, symbol string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM symbol_names WHERE symbol = ?`, symbol).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoData
	}
	if err != nil {
		return "", fmt.Errorf("failed to load name for %s: %w", symbol, err)
	}
	return name, nil
}

// CountSeries returns the number of stored series.
func (r *HistoryRepository) CountSeries(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}
