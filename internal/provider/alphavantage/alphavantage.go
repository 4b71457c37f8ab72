// Package alphavantage implements the fallback market-data provider against
// the Alpha Vantage REST API. The free tier is strictly rate-limited, so the
// manager only reaches for it after the primary provider fails.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "stock-sentry/internal/errors"
	"stock-sentry/internal/httpx"
	"stock-sentry/internal/models"
	"stock-sentry/internal/provider"
)

const (
	providerName    = "alpha_vantage"
	defaultEndpoint = "https://www.alphavantage.co"
)

// Client is the Alpha Vantage provider adapter.
type Client struct {
	endpoint string
	apiKey   string
	http     *httpx.Client
}

// New creates an Alpha Vantage adapter. The API key is required; callers
// should not construct the adapter without one.
func New(apiKey string, hc *httpx.Client) *Client {
	if hc == nil {
		hc = httpx.New(10 * time.Second)
	}
	return &Client{endpoint: defaultEndpoint, apiKey: apiKey, http: hc}
}

// WithEndpoint overrides the API endpoint, used by tests.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// Name implements provider.Provider.
func (c *Client) Name() string { return providerName }

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
	ErrMsg      string            `json:"Error Message"`
}

// Quote fetches the current quote via the GLOBAL_QUOTE function.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)

	var body globalQuoteResponse
	if err := c.call(ctx, symbol, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	}, &body); err != nil {
		return nil, err
	}

	if err := c.checkAPIError(symbol, body.Note, body.Information, body.ErrMsg); err != nil {
		return nil, err
	}
	// An unknown symbol comes back as an empty Global Quote object.
	if len(body.GlobalQuote) == 0 {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrSymbolNotFound,
			fmt.Errorf("empty global quote"))
	}

	price, err := quoteField(body.GlobalQuote, "05. price")
	if err != nil {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse, err)
	}
	prevClose, _ := quoteField(body.GlobalQuote, "08. previous close")
	open, _ := quoteField(body.GlobalQuote, "02. open")
	high, _ := quoteField(body.GlobalQuote, "03. high")
	low, _ := quoteField(body.GlobalQuote, "04. low")

	quote := &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Currency:      "USD",
		Open:          open,
		High:          high,
		Low:           low,
		PreviousClose: prevClose,
		Source:        providerName,
		AsOf:          time.Now(),
	}
	if v, err := quoteField(body.GlobalQuote, "06. volume"); err == nil {
		quote.Volume = int64(v)
	}
	if v, err := quoteField(body.GlobalQuote, "09. change"); err == nil {
		quote.Change = v
	}
	if raw, ok := body.GlobalQuote["10. change percent"]; ok {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64); err == nil {
			quote.ChangePercent = v
		}
	}
	return quote, nil
}

type dailySeriesResponse struct {
	Series      map[string]map[string]string `json:"Time Series (Daily)"`
	Note        string                       `json:"Note"`
	Information string                       `json:"Information"`
	ErrMsg      string                       `json:"Error Message"`
}

// History fetches daily candles via the TIME_SERIES_DAILY function and trims
// them to the requested range.
func (c *Client) History(ctx context.Context, symbol string, rng provider.Range) ([]models.Candle, error) {
	symbol = models.NormalizeSymbol(symbol)

	var body dailySeriesResponse
	if err := c.call(ctx, symbol, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {"compact"},
	}, &body); err != nil {
		return nil, err
	}

	if err := c.checkAPIError(symbol, body.Note, body.Information, body.ErrMsg); err != nil {
		return nil, err
	}
	if len(body.Series) == 0 {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrSymbolNotFound,
			fmt.Errorf("empty time series"))
	}

	candles := make([]models.Candle, 0, len(body.Series))
	for day, fields := range body.Series {
		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse, err)
		}
		if ts.Before(rng.From) || ts.After(rng.To) {
			continue
		}
		candle := models.Candle{Timestamp: ts.UTC()}
		if candle.Open, err = quoteField(fields, "1. open"); err != nil {
			return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse, err)
		}
		if candle.High, err = quoteField(fields, "2. high"); err != nil {
			return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse, err)
		}
		if candle.Low, err = quoteField(fields, "3. low"); err != nil {
			return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse, err)
		}
		if candle.Close, err = quoteField(fields, "4. close"); err != nil {
			return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse, err)
		}
		if v, err := quoteField(fields, "5. volume"); err == nil {
			candle.Volume = int64(v)
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse,
			fmt.Errorf("no candles in requested range"))
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

func (c *Client) call(ctx context.Context, symbol string, query url.Values, out interface{}) error {
	query.Set("apikey", c.apiKey)
	u := fmt.Sprintf("%s/query?%s", c.endpoint, query.Encode())

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return apperrors.NewProviderError(providerName, symbol, apperrors.ErrProviderUnavailable, err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.NewProviderError(providerName, symbol, apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.NewProviderError(providerName, symbol, apperrors.ErrRateLimited,
			fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.NewProviderError(providerName, symbol, apperrors.ErrProviderUnavailable,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewProviderError(providerName, symbol, apperrors.ErrMalformedResponse, err)
	}
	return nil
}

// checkAPIError maps Alpha Vantage's in-band error envelope onto provider
// error kinds. The API reports quota exhaustion inside a 200 response.
func (c *Client) checkAPIError(symbol, note, information, errMsg string) error {
	if note != "" || information != "" {
		detail := note
		if detail == "" {
			detail = information
		}
		return apperrors.NewProviderError(providerName, symbol, apperrors.ErrRateLimited,
			fmt.Errorf("%s", detail))
	}
	if errMsg != "" {
		return apperrors.NewProviderError(providerName, symbol, apperrors.ErrSymbolNotFound,
			fmt.Errorf("%s", errMsg))
	}
	return nil
}

func quoteField(fields map[string]string, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing field %q: %w", key, err)
	}
	return v, nil
}
