// Package monitor implements the periodic tracking-alert loop. On a fixed
// interval it re-polls every tracked symbol with the cache bypassed, compares
// against the last-known price and emits alert events when the move exceeds
// the configured threshold.
package monitor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stock-sentry/internal/logging"
	"stock-sentry/internal/models"
	"stock-sentry/internal/notify"
)

// QuoteFetcher is the slice of the market data manager the monitor needs.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, symbol string, useCache bool) (*models.Quote, error)
}

// Tracker is the slice of the tracking store the monitor needs.
type Tracker interface {
	List() []models.TrackedStock
	RecordObservation(symbol string, price float64, checkedAt time.Time) error
}

// AlertJournal records fired alerts durably. Optional.
type AlertJournal interface {
	LogAlert(ctx context.Context, event models.AlertEvent) error
}

// Config holds monitor tuning knobs.
type Config struct {
	ThresholdPercent float64
	Interval         time.Duration
}

// CycleStats summarizes one completed poll cycle.
type CycleStats struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Symbols    int
	Alerts     int
	Skipped    int
}

// Monitor runs the poll loop. Symbols are evaluated strictly sequentially
// within a cycle to respect per-provider rate limits, and the next cycle is
// scheduled relative to the previous cycle's completion, so cycles never
// overlap even when one overruns the interval.
type Monitor struct {
	fetcher  QuoteFetcher
	tracker  Tracker
	notifier notify.Notifier
	journal  AlertJournal

	threshold float64
	interval  time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	mu        sync.RWMutex
	lastCycle CycleStats
	cycles    int64
}

// New creates a Monitor.
func New(cfg Config, fetcher QuoteFetcher, tracker Tracker, notifier notify.Notifier, logger zerolog.Logger) *Monitor {
	if notifier == nil {
		notifier = notify.NewNoOpNotifier()
	}
	return &Monitor{
		fetcher:   fetcher,
		tracker:   tracker,
		notifier:  notifier,
		threshold: cfg.ThresholdPercent,
		interval:  cfg.Interval,
		logger:    logger.With().Str("component", "monitor").Logger(),
		now:       time.Now,
	}
}

// SetJournal attaches a durable alert journal.
func (m *Monitor) SetJournal(j AlertJournal) {
	m.journal = j
}

// PercentChange returns the percentage move from old to new. A zero old price
// yields zero: that is the first-observation case, which never alerts.
func PercentChange(oldPrice, newPrice float64) float64 {
	if oldPrice == 0 {
		return 0
	}
	return (newPrice - oldPrice) / oldPrice * 100
}

// Run executes the poll loop until ctx is cancelled. Cancellation is honored
// only between cycles: an in-flight cycle completes naturally, so no symbol is
// ever left half-evaluated.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info().
		Dur("interval", m.interval).
		Float64("threshold_percent", m.threshold).
		Msg("Starting price monitor")

	// First cycle runs immediately; later cycles are spaced from the
	// previous cycle's completion.
	m.RunCycle(context.WithoutCancel(ctx))

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Price monitor stopped")
			return
		case <-timer.C:
			// Cycles run on a detached context so shutdown never aborts
			// an in-flight fetch mid-cycle.
			m.RunCycle(context.WithoutCancel(ctx))
			timer.Reset(m.interval)
		}
	}
}

// RunCycle polls every tracked symbol once. The tracked list is snapshotted
// at cycle start; mutations mid-cycle affect only the next cycle.
func (m *Monitor) RunCycle(ctx context.Context) CycleStats {
	stats := CycleStats{StartedAt: m.now()}

	snapshot := m.tracker.List()
	stats.Symbols = len(snapshot)

	for _, ts := range snapshot {
		fired, skipped := m.evaluate(ctx, ts)
		if fired {
			stats.Alerts++
		}
		if skipped {
			stats.Skipped++
		}
	}

	stats.FinishedAt = m.now()

	m.mu.Lock()
	m.lastCycle = stats
	m.cycles++
	m.mu.Unlock()

	logging.LogPollCycle(m.logger, stats.Symbols, stats.Alerts, stats.Skipped,
		stats.FinishedAt.Sub(stats.StartedAt))
	return stats
}

// evaluate fetches fresh data for one tracked symbol and decides whether to
// alert. Any fetch failure is non-fatal: the symbol is skipped this cycle and
// retried naturally on the next.
func (m *Monitor) evaluate(ctx context.Context, ts models.TrackedStock) (fired, skipped bool) {
	quote, err := m.fetcher.GetQuote(ctx, ts.Symbol, false)
	if err != nil {
		m.logger.Warn().Err(err).Str("symbol", ts.Symbol).Msg("Fetch failed, skipping this cycle")
		return false, true
	}

	// First observation: establish the baseline without alerting.
	if ts.LastPrice != 0 {
		pct := PercentChange(ts.LastPrice, quote.Price)
		if math.Abs(pct) >= m.threshold {
			event := models.NewAlertEvent(ts, *quote, pct, m.now())
			m.deliver(ctx, event)
			fired = true
		}
	}

	// Always advance the baseline so repeated sub-threshold moves don't
	// accumulate into a large move that never re-triggers.
	if err := m.tracker.RecordObservation(ts.Symbol, quote.Price, m.now()); err != nil {
		m.logger.Error().Err(err).Str("symbol", ts.Symbol).Msg("Failed to record observation")
	}
	return fired, skipped
}

func (m *Monitor) deliver(ctx context.Context, event models.AlertEvent) {
	logging.LogAlert(m.logger, event.Symbol, event.OldPrice, event.NewPrice, event.PercentChange)

	if err := m.notifier.SendAlert(ctx, event); err != nil {
		m.logger.Warn().Err(err).Str("symbol", event.Symbol).Msg("Alert delivery failed")
	}
	if m.journal != nil {
		if err := m.journal.LogAlert(ctx, event); err != nil {
			m.logger.Warn().Err(err).Str("symbol", event.Symbol).Msg("Failed to journal alert")
		}
	}
}

// LastCycle returns stats for the most recently completed cycle.
func (m *Monitor) LastCycle() CycleStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCycle
}

// Cycles returns the number of completed cycles.
func (m *Monitor) Cycles() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycles
}
