// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/stockdash/stockdash/internal/modules/marketdata"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the history database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	RiskFreeRate  float64
	PriceCacheTTL time.Duration
	// CacheMaxAge bounds how long stale series are kept for fallback.
	CacheMaxAge   time.Duration
	DefaultPeriod marketdata.Period
	Watchlist     []string
	Offline       bool

	YahooRequestsPerSecond float64
	YahooFailureThreshold  uint32
	YahooOpenTimeout       time.Duration

	WarmCacheSchedule     string
	PurgeCacheSchedule    string
	CheckDatabaseSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STOCKDASH_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	period, err := marketdata.ParsePeriod(getEnv("DEFAULT_PERIOD", "1Y"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_PERIOD: %w", err)
	}

	watchlist := marketdata.DefaultWatchlist
	if raw := getEnv("WATCHLIST_SYMBOLS", ""); raw != "" {
		watchlist = marketdata.ParseSymbolList(raw)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("GO_PORT", 4000),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		RiskFreeRate:  getEnvAsFloat("RISK_FREE_RATE", 0.02),
		PriceCacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", 5*time.Minute),
		CacheMaxAge:   getEnvAsDuration("CACHE_MAX_AGE", 24*time.Hour),
		DefaultPeriod: period,
		Watchlist:     watchlist,
		Offline:       getEnvAsBool("OFFLINE_MODE", false),

		YahooRequestsPerSecond: getEnvAsFloat("YAHOO_REQUESTS_PER_SECOND", 2),
		YahooFailureThreshold:  uint32(getEnvAsInt("YAHOO_FAILURE_THRESHOLD", 5)),
		YahooOpenTimeout:       getEnvAsDuration("YAHOO_OPEN_TIMEOUT", time.Minute),

		WarmCacheSchedule:     getEnv("WARM_CACHE_SCHEDULE", "0 */30 * * * *"),
		PurgeCacheSchedule:    getEnv("PURGE_CACHE_SCHEDULE", "0 0 * * * *"),
		CheckDatabaseSchedule: getEnv("CHECK_DATABASE_SCHEDULE", "0 0 3 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT: %d", c.Port)
	}
	if c.RiskFreeRate < -1 || c.RiskFreeRate > 1 {
		return fmt.Errorf("invalid RISK_FREE_RATE: %g", c.RiskFreeRate)
	}
	if c.PriceCacheTTL <= 0 {
		return fmt.Errorf("invalid PRICE_CACHE_TTL: %s", c.PriceCacheTTL)
	}
	if c.YahooRequestsPerSecond <= 0 {
		return fmt.Errorf("invalid YAHOO_REQUESTS_PER_SECOND: %g", c.YahooRequestsPerSecond)
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("WATCHLIST_SYMBOLS contains no symbols")
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for key, schedule := range map[string]string{
		"WARM_CACHE_SCHEDULE":     c.WarmCacheSchedule,
		"PURGE_CACHE_SCHEDULE":    c.PurgeCacheSchedule,
		"CHECK_DATABASE_SCHEDULE": c.CheckDatabaseSchedule,
	} {
		if schedule == "" {
			continue
		}
		if _, err := parser.Parse(schedule); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, schedule, err)
		}
	}

	return nil
}

// HistoryDBPath is the location of the price history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
