// Package models provides domain models for the stock tracking application.
package models

import (
	"strings"
	"time"
)

// NormalizeSymbol returns the canonical uppercase form of a ticker symbol.
// All lookups across the cache, tracking store and providers key on this form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Quote represents a point-in-time price observation for a symbol.
// A Quote is immutable once constructed; a new fetch produces a new Quote.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	Open          float64   `json:"open,omitempty"`
	High          float64   `json:"high,omitempty"`
	Low           float64   `json:"low,omitempty"`
	PreviousClose float64   `json:"previous_close,omitempty"`
	Volume        int64     `json:"volume,omitempty"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Source        string    `json:"source"`
	AsOf          time.Time `json:"as_of"`
}

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// TrackedStock is a symbol a watcher has registered for monitoring.
// The tracking store is its sole writer.
type TrackedStock struct {
	Symbol      string    `json:"symbol"`
	Target      string    `json:"target"`
	LastPrice   float64   `json:"last_price"`
	LastChecked time.Time `json:"last_checked"`
	AddedAt     time.Time `json:"added_at"`
}

// Direction indicates which way a price moved.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// AlertEvent is produced when a tracked symbol's price change exceeds the
// configured threshold. It is transient: handed to the delivery collaborator
// once and not persisted by the monitor itself.
type AlertEvent struct {
	Symbol        string    `json:"symbol"`
	OldPrice      float64   `json:"old_price"`
	NewPrice      float64   `json:"new_price"`
	PercentChange float64   `json:"percent_change"`
	Direction     Direction `json:"direction"`
	Target        string    `json:"target"`
	Volume        int64     `json:"volume,omitempty"`
	At            time.Time `json:"at"`
}

// NewAlertEvent computes the direction from the price delta and stamps the
// event with the given time.
func NewAlertEvent(ts TrackedStock, q Quote, percentChange float64, at time.Time) AlertEvent {
	dir := DirectionUp
	if q.Price < ts.LastPrice {
		dir = DirectionDown
	}
	return AlertEvent{
		Symbol:        ts.Symbol,
		OldPrice:      ts.LastPrice,
		NewPrice:      q.Price,
		PercentChange: percentChange,
		Direction:     dir,
		Target:        ts.Target,
		Volume:        q.Volume,
		At:            at,
	}
}
