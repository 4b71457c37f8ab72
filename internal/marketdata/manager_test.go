package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "stock-sentry/internal/errors"
	"stock-sentry/internal/models"
	"stock-sentry/internal/provider"
)

// fakeProvider scripts per-call results and counts invocations.
type fakeProvider struct {
	name       string
	quote      *models.Quote
	candles    []models.Candle
	err        error
	quoteCalls int
	histCalls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	f.quoteCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func (f *fakeProvider) History(ctx context.Context, symbol string, rng provider.Range) ([]models.Candle, error) {
	f.histCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candles, nil
}

func quoteFor(symbol string, price float64, source string) *models.Quote {
	return &models.Quote{Symbol: symbol, Price: price, Source: source, AsOf: time.Now()}
}

func newTestManager(providers ...provider.Provider) *Manager {
	return NewManager(DefaultConfig(), zerolog.Nop(), providers...)
}

func TestGetQuotePrimarySuccess(t *testing.T) {
	primary := &fakeProvider{name: "yahoo", quote: quoteFor("AAPL", 190.5, "yahoo")}
	fallback := &fakeProvider{name: "alphavantage"}
	m := newTestManager(primary, fallback)

	q, err := m.GetQuote(context.Background(), "aapl", true)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if q.Price != 190.5 || q.Source != "yahoo" {
		t.Errorf("got %+v", q)
	}
	if fallback.quoteCalls != 0 {
		t.Errorf("fallback was called %d times", fallback.quoteCalls)
	}
}

func TestGetQuoteCacheHitSkipsProviders(t *testing.T) {
	primary := &fakeProvider{name: "yahoo", quote: quoteFor("AAPL", 190.5, "yahoo")}
	m := newTestManager(primary)

	if _, err := m.GetQuote(context.Background(), "AAPL", true); err != nil {
		t.Fatalf("first GetQuote: %v", err)
	}
	if _, err := m.GetQuote(context.Background(), "AAPL", true); err != nil {
		t.Fatalf("second GetQuote: %v", err)
	}
	if primary.quoteCalls != 1 {
		t.Errorf("provider called %d times, want 1 (cached)", primary.quoteCalls)
	}
}

func TestGetQuoteBypassCache(t *testing.T) {
	primary := &fakeProvider{name: "yahoo", quote: quoteFor("AAPL", 190.5, "yahoo")}
	m := newTestManager(primary)

	m.GetQuote(context.Background(), "AAPL", true)
	m.GetQuote(context.Background(), "AAPL", false)

	if primary.quoteCalls != 2 {
		t.Errorf("provider called %d times, want 2 (cache bypassed)", primary.quoteCalls)
	}
}

func TestGetQuoteFallbackOnRateLimit(t *testing.T) {
	primary := &fakeProvider{
		name: "yahoo",
		err:  apperrors.NewProviderError("yahoo", "AAPL", apperrors.ErrRateLimited, errors.New("429")),
	}
	fallback := &fakeProvider{name: "alphavantage", quote: quoteFor("AAPL", 189.9, "alphavantage")}
	m := newTestManager(primary, fallback)

	q, err := m.GetQuote(context.Background(), "AAPL", true)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if q.Source != "alphavantage" {
		t.Errorf("Source = %q, want alphavantage", q.Source)
	}
	if primary.quoteCalls != 1 || fallback.quoteCalls != 1 {
		t.Errorf("calls: primary=%d fallback=%d", primary.quoteCalls, fallback.quoteCalls)
	}

	// The fallback's quote was cached; the next call touches no provider.
	if _, err := m.GetQuote(context.Background(), "AAPL", true); err != nil {
		t.Fatalf("cached GetQuote: %v", err)
	}
	if primary.quoteCalls != 1 || fallback.quoteCalls != 1 {
		t.Errorf("cached call reached providers: primary=%d fallback=%d", primary.quoteCalls, fallback.quoteCalls)
	}
}

func TestGetQuoteNotFoundShortCircuits(t *testing.T) {
	primary := &fakeProvider{
		name: "yahoo",
		err:  apperrors.NewProviderError("yahoo", "NOPE", apperrors.ErrSymbolNotFound, errors.New("404")),
	}
	fallback := &fakeProvider{name: "alphavantage", quote: quoteFor("NOPE", 1, "alphavantage")}
	m := newTestManager(primary, fallback)

	_, err := m.GetQuote(context.Background(), "NOPE", true)
	if !errors.Is(err, apperrors.ErrSymbolNotFound) {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
	if fallback.quoteCalls != 0 {
		t.Error("fallback consulted after a conclusive 404")
	}
}

func TestGetQuoteAllProvidersFail(t *testing.T) {
	rateErr := apperrors.NewProviderError("yahoo", "AAPL", apperrors.ErrRateLimited, errors.New("429"))
	downErr := apperrors.NewProviderError("alphavantage", "AAPL", apperrors.ErrProviderUnavailable, errors.New("dial timeout"))
	m := newTestManager(
		&fakeProvider{name: "yahoo", err: rateErr},
		&fakeProvider{name: "alphavantage", err: downErr},
	)

	_, err := m.GetQuote(context.Background(), "AAPL", true)
	if !errors.Is(err, apperrors.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
	// The last provider failure stays inspectable through the wrap.
	if !errors.Is(err, apperrors.ErrProviderUnavailable) {
		t.Errorf("err = %v, want wrapped ErrProviderUnavailable", err)
	}
}

func TestGetQuoteMalformedFallsThrough(t *testing.T) {
	primary := &fakeProvider{
		name: "yahoo",
		err:  apperrors.NewProviderError("yahoo", "AAPL", apperrors.ErrMalformedResponse, errors.New("unexpected EOF")),
	}
	fallback := &fakeProvider{name: "alphavantage", quote: quoteFor("AAPL", 190.1, "alphavantage")}
	m := newTestManager(primary, fallback)

	q, err := m.GetQuote(context.Background(), "AAPL", true)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if q.Source != "alphavantage" {
		t.Errorf("Source = %q, want alphavantage", q.Source)
	}
}

func TestGetQuoteNoProviders(t *testing.T) {
	m := newTestManager()
	_, err := m.GetQuote(context.Background(), "AAPL", true)
	if !errors.Is(err, apperrors.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

type recordingSink struct {
	symbol  string
	candles []models.Candle
	err     error
}

func (r *recordingSink) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	r.symbol = symbol
	r.candles = candles
	return r.err
}

func TestGetHistoryWritesThroughSink(t *testing.T) {
	candles := []models.Candle{
		{Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Timestamp: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 200},
	}
	primary := &fakeProvider{name: "yahoo", candles: candles}
	sink := &recordingSink{}

	m := newTestManager(primary)
	m.SetHistorySink(sink)

	rng := provider.Range{From: candles[0].Timestamp, To: candles[1].Timestamp}
	got, err := m.GetHistory(context.Background(), "aapl", rng)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candles, want 2", len(got))
	}
	if sink.symbol != "AAPL" || len(sink.candles) != 2 {
		t.Errorf("sink received symbol=%q candles=%d", sink.symbol, len(sink.candles))
	}

	// Second call is a cache hit; no new provider or sink activity.
	m.GetHistory(context.Background(), "AAPL", rng)
	if primary.histCalls != 1 {
		t.Errorf("provider called %d times, want 1", primary.histCalls)
	}
}

func TestGetHistorySinkFailureIsNonFatal(t *testing.T) {
	primary := &fakeProvider{name: "yahoo", candles: []models.Candle{{Close: 1}}}
	m := newTestManager(primary)
	m.SetHistorySink(&recordingSink{err: errors.New("disk full")})

	if _, err := m.GetHistory(context.Background(), "AAPL", provider.LastDays(5)); err != nil {
		t.Fatalf("sink failure surfaced as fetch failure: %v", err)
	}
}
