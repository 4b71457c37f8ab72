package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "stock-sentry/internal/errors"
	"stock-sentry/internal/provider"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "USD",
        "symbol": "AAPL",
        "regularMarketPrice": 190.5,
        "chartPreviousClose": 188.0
      },
      "timestamp": [1717200000, 1717286400],
      "indicators": {
        "quote": [{
          "open":   [187.5, 189.0],
          "high":   [191.0, 192.5],
          "low":    [186.0, 188.5],
          "close":  [189.5, 190.5],
          "volume": [52000000, 48000000]
        }]
      }
    }],
    "error": null
  }
}`

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, New(srv.URL, nil)
}

func TestQuote(t *testing.T) {
	var gotPath string
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, chartBody)
	})

	q, err := c.Quote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if gotPath != "/v8/finance/chart/AAPL" {
		t.Errorf("path = %q", gotPath)
	}
	if q.Symbol != "AAPL" || q.Price != 190.5 || q.Currency != "USD" {
		t.Errorf("quote = %+v", q)
	}
	if q.PreviousClose != 188.0 {
		t.Errorf("PreviousClose = %v", q.PreviousClose)
	}
	if q.Change != 2.5 {
		t.Errorf("Change = %v, want 2.5", q.Change)
	}
	// OHLC comes from the last bar.
	if q.Open != 189.0 || q.Volume != 48000000 {
		t.Errorf("Open = %v Volume = %v", q.Open, q.Volume)
	}
	if q.Source != "yahoo" {
		t.Errorf("Source = %q", q.Source)
	}
}

func TestQuoteRateLimited(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Quote(context.Background(), "AAPL")
	if !errors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	var pe *apperrors.ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("err is not a ProviderError")
	}
	if pe.Provider != "yahoo" || pe.Symbol != "AAPL" {
		t.Errorf("ProviderError = %+v", pe)
	}
}

func TestQuoteSymbolNotFoundStatus(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Quote(context.Background(), "NOPE")
	if !errors.Is(err, apperrors.ErrSymbolNotFound) {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestQuoteSymbolNotFoundInBody(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	})

	_, err := c.Quote(context.Background(), "NOPE")
	if !errors.Is(err, apperrors.ErrSymbolNotFound) {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestQuoteServerError(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Quote(context.Background(), "AAPL")
	if !errors.Is(err, apperrors.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestQuoteMalformedBody(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": [this is not json`)
	})

	_, err := c.Quote(context.Background(), "AAPL")
	if !errors.Is(err, apperrors.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestQuoteRaggedIndicatorArrays(t *testing.T) {
	// Close carries two bars but the other indicator arrays are empty.
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "USD",
        "symbol": "AAPL",
        "regularMarketPrice": 190.5,
        "chartPreviousClose": 188.0
      },
      "timestamp": [1717200000, 1717286400],
      "indicators": {
        "quote": [{
          "open": [], "high": [], "low": [],
          "close": [100.0, 101.5],
          "volume": []
        }]
      }
    }],
    "error": null
  }
}`)
	})

	q, err := c.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Price != 190.5 {
		t.Errorf("Price = %v, want 190.5", q.Price)
	}
	if q.Open != 0 || q.High != 0 || q.Low != 0 || q.Volume != 0 {
		t.Errorf("expected zero OHLC/volume for ragged arrays, got %+v", q)
	}
}

func TestQuoteMissingPrice(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL"}}],"error":null}}`)
	})

	_, err := c.Quote(context.Background(), "AAPL")
	if !errors.Is(err, apperrors.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestHistory(t *testing.T) {
	var gotQuery string
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, chartBody)
	})

	rng := provider.Range{
		From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	candles, err := c.History(context.Background(), "AAPL", rng)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}
	first := candles[0]
	if first.Open != 187.5 || first.Close != 189.5 || first.Volume != 52000000 {
		t.Errorf("first candle = %+v", first)
	}
	if !first.Timestamp.Equal(time.Unix(1717200000, 0).UTC()) {
		t.Errorf("Timestamp = %v", first.Timestamp)
	}
	if gotQuery == "" {
		t.Error("no period query sent")
	}
}

func TestHistorySkipsNullBars(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "chart": {
    "result": [{
      "meta": {"currency":"USD","symbol":"AAPL","regularMarketPrice":190.5},
      "timestamp": [1717200000, 1717286400, 1717372800],
      "indicators": {"quote": [{
        "open":   [187.5, null, 190.0],
        "high":   [191.0, null, 193.0],
        "low":    [186.0, null, 189.0],
        "close":  [189.5, null, 192.0],
        "volume": [52000000, null, 41000000]
      }]}
    }],
    "error": null
  }
}`)
	})

	candles, err := c.History(context.Background(), "AAPL", provider.LastDays(3))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2 (null bar skipped)", len(candles))
	}
	if candles[1].Close != 192.0 {
		t.Errorf("second candle = %+v", candles[1])
	}
}

func TestHistoryEmptySeries(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"symbol":"AAPL"},"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`)
	})

	_, err := c.History(context.Background(), "AAPL", provider.LastDays(5))
	if !errors.Is(err, apperrors.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}
