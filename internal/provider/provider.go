// Package provider defines the capability every external market-data source
// adapter implements. Each adapter wraps exactly one source and translates its
// failures into the closed provider error kind set; retry and fallback policy
// live in the market data manager, never here.
package provider

import (
	"context"
	"time"

	"stock-sentry/internal/models"
)

// Range bounds a historical data request.
type Range struct {
	From time.Time
	To   time.Time
}

// LastDays returns a Range covering the last n days up to now.
func LastDays(n int) Range {
	now := time.Now()
	return Range{From: now.AddDate(0, 0, -n), To: now}
}

// Provider is one external market-data source (primary or fallback).
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	History(ctx context.Context, symbol string, rng Range) ([]models.Candle, error)
}
