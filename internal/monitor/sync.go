package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"stock-sentry/internal/models"
	"stock-sentry/internal/provider"
)

// HistoryFetcher is the slice of the market data manager the sync job needs.
type HistoryFetcher interface {
	GetHistory(ctx context.Context, symbol string, rng provider.Range) ([]models.Candle, error)
}

// Lister enumerates tracked symbols.
type Lister interface {
	List() []models.TrackedStock
}

// historyDays is how far back the daily sync refreshes candles.
const historyDays = 30

// HistorySync refreshes daily candles for every tracked symbol once a day so
// the chart and advisor collaborators have local history to draw on. Unlike
// the alert loop, fixed-rate scheduling is fine here.
type HistorySync struct {
	fetcher   HistoryFetcher
	tracker   Lister
	scheduler *gocron.Scheduler
	logger    zerolog.Logger
}

// NewHistorySync creates a daily history sync job.
func NewHistorySync(fetcher HistoryFetcher, tracker Lister, logger zerolog.Logger) *HistorySync {
	return &HistorySync{
		fetcher:   fetcher,
		tracker:   tracker,
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger.With().Str("component", "history_sync").Logger(),
	}
}

// Start schedules the sync at the given hour of day (UTC) and returns
// immediately.
func (h *HistorySync) Start(hour int) error {
	_, err := h.scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", hour)).Do(func() {
		h.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("scheduling history sync: %w", err)
	}
	h.scheduler.StartAsync()
	h.logger.Info().Int("hour", hour).Msg("History sync scheduled")
	return nil
}

// Stop stops the scheduler. A running sync finishes naturally.
func (h *HistorySync) Stop() {
	h.scheduler.Stop()
}

// RunOnce refreshes history for all tracked symbols sequentially. Persistence
// happens through the manager's history sink; failures are per-symbol and
// non-fatal.
func (h *HistorySync) RunOnce(ctx context.Context) {
	rng := provider.LastDays(historyDays)

	for _, ts := range h.tracker.List() {
		if _, err := h.fetcher.GetHistory(ctx, ts.Symbol, rng); err != nil {
			h.logger.Warn().Err(err).Str("symbol", ts.Symbol).Msg("History refresh failed")
			continue
		}
		h.logger.Debug().Str("symbol", ts.Symbol).Msg("History refreshed")
	}
}
