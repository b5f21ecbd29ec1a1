// Package yahoo fetches daily price history and symbol names from Yahoo Finance.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("yahoo finance temporarily unavailable")

// Config tunes the client's upstream protection.
type Config struct {
	RequestsPerSecond float64
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// DefaultConfig returns conservative limits for the public endpoints.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		FailureThreshold:  5,
		OpenTimeout:       60 * time.Second,
	}
}

// Client is a rate limited, circuit broken Yahoo Finance client.
type Client struct {
	backend backend
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient creates a client backed by go-yfinance.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	return newClient(nativeBackend{}, cfg, log)
}

func newClient(b backend, cfg Config, log zerolog.Logger) *Client {
	l := log.With().Str("client", "yahoo").Logger()

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultConfig().OpenTimeout
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &Client{
		backend: b,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker: breaker,
		log:     l,
	}
}

// GetHistoricalPrices returns daily bars for symbol over a Yahoo range
// string such as "5d", "1mo" or "1y".
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol, period string) ([]HistoricalPrice, error) {
	symbol = NormalizeSymbol(symbol)

	out, err := c.call(ctx, func() (interface{}, error) {
		prices, err := c.backend.History(symbol, period)
		if err != nil {
			return nil, err
		}
		if len(prices) == 0 {
			return nil, fmt.Errorf("no bars returned for %s", symbol)
		}
		return prices, nil
	})
	if err != nil {
		return nil, fmt.Errorf("history %s (%s): %w", symbol, period, err)
	}

	prices := out.([]HistoricalPrice)
	c.log.Debug().
		Str("symbol", symbol).
		Str("period", period).
		Int("bars", len(prices)).
		Msg("Fetched historical prices")
	return prices, nil
}

// GetSymbolInfo returns descriptive data for symbol.
func (c *Client) GetSymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error) {
	symbol = NormalizeSymbol(symbol)

	out, err := c.call(ctx, func() (interface{}, error) {
		return c.backend.Info(symbol)
	})
	if err != nil {
		return SymbolInfo{}, fmt.Errorf("info %s: %w", symbol, err)
	}
	return out.(SymbolInfo), nil
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) call(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if c.breaker.State() == gobreaker.StateOpen {
		return nil, ErrUnavailable
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	return out, err
}

// NormalizeSymbol upper-cases a ticker and maps share-class dots to Yahoo's
// dash form (BRK.B -> BRK-B).
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.LastIndex(s, "."); i > 0 && len(s)-i == 2 {
		s = s[:i] + "-" + s[i+1:]
	}
	return s
}
