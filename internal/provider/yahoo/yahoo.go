// Package yahoo implements the primary market-data provider against the
// Yahoo Finance chart API. It is free and generously rate-limited, so the
// manager tries it first.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "stock-sentry/internal/errors"
	"stock-sentry/internal/httpx"
	"stock-sentry/internal/models"
	"stock-sentry/internal/provider"
)

const providerName = "yahoo"

// Client is the Yahoo Finance provider adapter.
type Client struct {
	endpoint string
	http     *httpx.Client
}

// New creates a Yahoo adapter against the given endpoint
// (e.g. "https://query1.finance.yahoo.com").
func New(endpoint string, hc *httpx.Client) *Client {
	if hc == nil {
		hc = httpx.New(10 * time.Second)
	}
	return &Client{endpoint: endpoint, http: hc}
}

// Name implements provider.Provider.
func (c *Client) Name() string { return providerName }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the current quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	q := url.Values{}
	q.Set("range", "1d")
	q.Set("interval", "1d")

	body, err := c.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}

	res := body.Chart.Result[0]
	meta := res.Meta

	quote := &models.Quote{
		Symbol:        models.NormalizeSymbol(symbol),
		Price:         meta.RegularMarketPrice,
		Currency:      meta.Currency,
		PreviousClose: meta.ChartPreviousClose,
		Source:        providerName,
		AsOf:          time.Now(),
	}
	if meta.ChartPreviousClose != 0 {
		quote.Change = meta.RegularMarketPrice - meta.ChartPreviousClose
		quote.ChangePercent = quote.Change / meta.ChartPreviousClose * 100
	}

	// Fill OHLC and volume from the last non-null bar when present.
	if len(res.Indicators.Quote) > 0 && len(res.Timestamp) > 0 {
		bars := res.Indicators.Quote[0]
		for i := len(res.Timestamp) - 1; i >= 0; i-- {
			if i >= len(bars.Close) || bars.Close[i] == nil {
				continue
			}
			// The indicator arrays can be ragged; check each one.
			if i < len(bars.Open) && bars.Open[i] != nil {
				quote.Open = *bars.Open[i]
			}
			if i < len(bars.High) && bars.High[i] != nil {
				quote.High = *bars.High[i]
			}
			if i < len(bars.Low) && bars.Low[i] != nil {
				quote.Low = *bars.Low[i]
			}
			if i < len(bars.Volume) && bars.Volume[i] != nil {
				quote.Volume = *bars.Volume[i]
			}
			break
		}
	}

	if quote.Price == 0 {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse,
			fmt.Errorf("missing regular market price"))
	}
	return quote, nil
}

// History fetches daily candles for the given range.
func (c *Client) History(ctx context.Context, symbol string, rng provider.Range) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", rng.From.Unix()))
	q.Set("period2", fmt.Sprintf("%d", rng.To.Unix()))
	q.Set("interval", "1d")

	body, err := c.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}

	res := body.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse,
			fmt.Errorf("missing quote indicators"))
	}
	bars := res.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		// Yahoo emits nulls for halted or partial bars; skip them.
		if i >= len(bars.Close) || bars.Close[i] == nil {
			continue
		}
		candle := models.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *bars.Close[i],
		}
		if i < len(bars.Open) && bars.Open[i] != nil {
			candle.Open = *bars.Open[i]
		}
		if i < len(bars.High) && bars.High[i] != nil {
			candle.High = *bars.High[i]
		}
		if i < len(bars.Low) && bars.Low[i] != nil {
			candle.Low = *bars.Low[i]
		}
		if i < len(bars.Volume) && bars.Volume[i] != nil {
			candle.Volume = *bars.Volume[i]
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse,
			fmt.Errorf("empty candle series"))
	}
	return candles, nil
}

// chart issues the request and maps transport and API failures onto the
// provider error kinds.
func (c *Client) chart(ctx context.Context, symbol string, query url.Values) (*chartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		c.endpoint, url.PathEscape(models.NormalizeSymbol(symbol)), query.Encode())

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrProviderUnavailable, err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrRateLimited,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrSymbolNotFound,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrProviderUnavailable,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse, err)
	}

	if body.Chart.Error != nil {
		if body.Chart.Error.Code == "Not Found" {
			return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrSymbolNotFound,
				fmt.Errorf("%s", body.Chart.Error.Description))
		}
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrProviderUnavailable,
			fmt.Errorf("%s: %s", body.Chart.Error.Code, body.Chart.Error.Description))
	}
	if len(body.Chart.Result) == 0 {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse,
			fmt.Errorf("empty chart result"))
	}
	return &body, nil
}
