// Package marketdata orchestrates provider fallback and caching. The Manager
// is the single entry point for "get current/historical data for symbol X".
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "stock-sentry/internal/errors"
	"stock-sentry/internal/models"
	"stock-sentry/internal/provider"
	"stock-sentry/pkg/utils"
)

// Config holds manager tuning knobs.
type Config struct {
	QuoteTTL   time.Duration
	HistoryTTL time.Duration
	// RetryAttempts bounds per-provider attempts for transient failures.
	// 1 means no retry; fallback to the next provider is separate.
	RetryAttempts int
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		QuoteTTL:      60 * time.Second,
		HistoryTTL:    15 * time.Minute,
		RetryAttempts: 1,
	}
}

// HistorySink receives fetched candle series for durable storage. The manager
// treats sink failures as non-fatal: history persistence is an enrichment, not
// part of the data path.
type HistorySink interface {
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
}

// Manager fetches market data through an ordered provider chain with a
// read-through TTL cache in front.
type Manager struct {
	providers []provider.Provider
	quotes    *ttlCache[*models.Quote]
	history   *ttlCache[[]models.Candle]
	retry     utils.RetryConfig
	sink      HistorySink
	logger    zerolog.Logger
}

// NewManager creates a Manager trying providers in the given priority order.
// The order reflects cost: cheap, generously limited sources first.
func NewManager(cfg Config, logger zerolog.Logger, providers ...provider.Provider) *Manager {
	retry := utils.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.RetryAttempts
	}
	return &Manager{
		providers: providers,
		quotes:    newTTLCache[*models.Quote](cfg.QuoteTTL),
		history:   newTTLCache[[]models.Candle](cfg.HistoryTTL),
		retry:     retry,
		logger:    logger.With().Str("component", "marketdata").Logger(),
	}
}

// SetHistorySink attaches a durable store that receives every fetched candle
// series.
func (m *Manager) SetHistorySink(sink HistorySink) {
	m.sink = sink
}

// Providers returns the names of the configured providers in priority order.
func (m *Manager) Providers() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// GetQuote returns the current quote for symbol. With useCache set, a
// non-expired cached quote is returned without any provider call. It fails
// with ErrSymbolNotFound when a provider gives a conclusive 404, and with
// ErrDataUnavailable only when every configured provider failed.
func (m *Manager) GetQuote(ctx context.Context, symbol string, useCache bool) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)

	if useCache {
		if q, ok := m.quotes.Get(symbol); ok {
			m.logger.Debug().Str("symbol", symbol).Msg("Quote cache hit")
			return q, nil
		}
	}

	quote, err := fetchChain(ctx, m, symbol, func(ctx context.Context, p provider.Provider) (*models.Quote, error) {
		return p.Quote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	m.quotes.Put(symbol, quote)
	return quote, nil
}

// GetHistory returns daily candles for symbol over the given range, cache
// first. Fetched series are handed to the history sink when one is attached.
func (m *Manager) GetHistory(ctx context.Context, symbol string, rng provider.Range) ([]models.Candle, error) {
	symbol = models.NormalizeSymbol(symbol)
	key := historyKey(symbol, rng)

	if candles, ok := m.history.Get(key); ok {
		m.logger.Debug().Str("symbol", symbol).Msg("History cache hit")
		return candles, nil
	}

	candles, err := fetchChain(ctx, m, symbol, func(ctx context.Context, p provider.Provider) ([]models.Candle, error) {
		return p.History(ctx, symbol, rng)
	})
	if err != nil {
		return nil, err
	}

	m.history.Put(key, candles)

	if m.sink != nil {
		if err := m.sink.SaveCandles(ctx, symbol, candles); err != nil {
			m.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist candle series")
		}
	}
	return candles, nil
}

// fetchChain walks the provider chain in priority order:
//   - success returns immediately,
//   - NotFound is a conclusive, provider-independent answer and short-circuits,
//   - RateLimited and Unavailable move on to the next provider,
//   - Malformed is logged and moves on.
//
// Transient Unavailable failures are retried per provider within the
// configured attempt budget before falling through.
func fetchChain[T any](ctx context.Context, m *Manager, symbol string, fetch func(context.Context, provider.Provider) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for _, p := range m.providers {
		start := time.Now()
		result, err := utils.RetryWithResult(ctx, m.retry, func() (T, error) {
			return fetch(ctx, p)
		}, func(err error) bool {
			return apperrors.Is(err, apperrors.ErrProviderUnavailable)
		})
		duration := time.Since(start)

		if err == nil {
			m.logger.Debug().
				Str("symbol", symbol).
				Str("provider", p.Name()).
				Dur("duration", duration).
				Msg("Fetch succeeded")
			return result, nil
		}

		switch {
		case apperrors.Is(err, apperrors.ErrSymbolNotFound):
			// A true 404 is not a transient fault; trying the fallback
			// wastes a call and risks a spuriously different answer.
			return zero, err
		case apperrors.Is(err, apperrors.ErrMalformedResponse):
			m.logger.Warn().Err(err).
				Str("symbol", symbol).
				Str("provider", p.Name()).
				Msg("Malformed provider response, trying next provider")
		default:
			m.logger.Debug().Err(err).
				Str("symbol", symbol).
				Str("provider", p.Name()).
				Msg("Provider failed, trying next provider")
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return zero, fmt.Errorf("%w: %w", apperrors.ErrDataUnavailable, lastErr)
}

func historyKey(symbol string, rng provider.Range) string {
	return fmt.Sprintf("%s:%s:%s", symbol, rng.From.Format("20060102"), rng.To.Format("20060102"))
}
