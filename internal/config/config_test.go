package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdash/stockdash/internal/modules/marketdata"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STOCKDASH_DATA_DIR", filepath.Join(dir, "data"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 0.02, cfg.RiskFreeRate)
	assert.Equal(t, 5*time.Minute, cfg.PriceCacheTTL)
	assert.Equal(t, marketdata.Period1Y, cfg.DefaultPeriod)
	assert.Equal(t, marketdata.DefaultWatchlist, cfg.Watchlist)
	assert.False(t, cfg.Offline)
	assert.Equal(t, "0 */30 * * * *", cfg.WarmCacheSchedule)
	assert.Equal(t, filepath.Join(dir, "data", "history.db"), cfg.HistoryDBPath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STOCKDASH_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "8080")
	t.Setenv("RISK_FREE_RATE", "0.035")
	t.Setenv("PRICE_CACHE_TTL", "90s")
	t.Setenv("DEFAULT_PERIOD", "3m")
	t.Setenv("WATCHLIST_SYMBOLS", "aapl, msft,brk.b")
	t.Setenv("OFFLINE_MODE", "true")
	t.Setenv("YAHOO_REQUESTS_PER_SECOND", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0.035, cfg.RiskFreeRate)
	assert.Equal(t, 90*time.Second, cfg.PriceCacheTTL)
	assert.Equal(t, marketdata.Period3M, cfg.DefaultPeriod)
	assert.Equal(t, []string{"AAPL", "MSFT", "BRK-B"}, cfg.Watchlist)
	assert.True(t, cfg.Offline)
	assert.Equal(t, 0.5, cfg.YahooRequestsPerSecond)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"period", "DEFAULT_PERIOD", "10Y"},
		{"port", "GO_PORT", "70000"},
		{"risk free", "RISK_FREE_RATE", "3"},
		{"schedule", "WARM_CACHE_SCHEDULE", "every now and then"},
		{"watchlist", "WATCHLIST_SYMBOLS", " , ,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STOCKDASH_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvHelpers_BadValuesUseDefault(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_FLOAT", "abc")
	t.Setenv("X_DUR", "abc")
	t.Setenv("X_BOOL", "abc")

	assert.Equal(t, 7, getEnvAsInt("X_INT", 7))
	assert.Equal(t, 1.5, getEnvAsFloat("X_FLOAT", 1.5))
	assert.Equal(t, time.Second, getEnvAsDuration("X_DUR", time.Second))
	assert.True(t, getEnvAsBool("X_BOOL", true))
}
