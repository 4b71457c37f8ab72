package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-sentry/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sentry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestSaveAndGetCandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	candles := []models.Candle{
		{Timestamp: day(1), Open: 100, High: 105, Low: 99, Close: 104, Volume: 1000},
		{Timestamp: day(2), Open: 104, High: 108, Low: 103, Close: 107, Volume: 1200},
	}
	require.NoError(t, s.SaveCandles(ctx, "aapl", candles))

	got, err := s.GetCandles(ctx, "AAPL", day(1), day(3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 104.0, got[0].Close)
	assert.True(t, got[0].Timestamp.Before(got[1].Timestamp), "candles must come back oldest first")
}

func TestSaveCandlesUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCandles(ctx, "AAPL", []models.Candle{
		{Timestamp: day(1), Open: 100, High: 105, Low: 99, Close: 104, Volume: 1000},
	}))
	// Same day re-fetched at end of session with corrected figures.
	require.NoError(t, s.SaveCandles(ctx, "AAPL", []models.Candle{
		{Timestamp: day(1), Open: 100, High: 106, Low: 99, Close: 105, Volume: 1500},
	}))

	got, err := s.GetCandles(ctx, "AAPL", day(1), day(1))
	require.NoError(t, err)
	require.Len(t, got, 1, "upsert must not duplicate the day")
	assert.Equal(t, 105.0, got[0].Close)
	assert.Equal(t, int64(1500), got[0].Volume)
}

func TestGetCandlesRangeFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var candles []models.Candle
	for d := 1; d <= 10; d++ {
		candles = append(candles, models.Candle{
			Timestamp: day(d), Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10,
		})
	}
	require.NoError(t, s.SaveCandles(ctx, "AAPL", candles))

	got, err := s.GetCandles(ctx, "AAPL", day(3), day(6))
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestSaveCandlesEmptySeriesIsNoOp(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.SaveCandles(context.Background(), "AAPL", nil))
}

func TestGetCandleFreshness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts, err := s.GetCandleFreshness(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, ts.IsZero(), "freshness of an unknown symbol is the zero time")

	require.NoError(t, s.SaveCandles(ctx, "AAPL", []models.Candle{
		{Timestamp: day(1), Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10},
		{Timestamp: day(5), Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10},
	}))

	ts, err = s.GetCandleFreshness(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, ts.Equal(day(5)), "freshness = %v, want %v", ts, day(5))
}

func TestAlertJournal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.LogAlert(ctx, models.AlertEvent{
			Symbol:        "AAPL",
			OldPrice:      100,
			NewPrice:      100 + float64(i),
			PercentChange: float64(i),
			Direction:     models.DirectionUp,
			Target:        "note",
			At:            day(i),
		}))
	}

	events, err := s.GetRecentAlerts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, 103.0, events[0].NewPrice)
	assert.Equal(t, models.DirectionUp, events[0].Direction)
	assert.Equal(t, "note", events[0].Target)
}

func TestGetRecentAlertsDefaultLimit(t *testing.T) {
	s := newTestStore(t)
	events, err := s.GetRecentAlerts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}
