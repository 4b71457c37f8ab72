// Package store provides durable storage for fetched price history and the
// alert journal.
package store

import (
	"context"
	"time"

	"stock-sentry/internal/models"
)

// HistoryStore defines the interface for history and alert persistence.
type HistoryStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	GetCandleFreshness(ctx context.Context, symbol string) (time.Time, error)

	// Alert journal
	LogAlert(ctx context.Context, event models.AlertEvent) error
	GetRecentAlerts(ctx context.Context, limit int) ([]models.AlertEvent, error)

	// Lifecycle
	Close() error
}
