package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/akozyrev/stockcast/internal/models"
)

// EODHD serves end-of-day prices, dividends and splits per symbol.
// Symbols carry an exchange suffix, e.g. "AAPL.US".
// https://eodhd.com/financial-apis/
const defaultBaseURL = "https://eodhd.com/api"

// Client is an HTTP client for the EODHD API
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new EODHD client
func NewClient(apiToken string) *Client {
	return &Client{
		apiToken: apiToken,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL creates a new EODHD client with a custom base URL (for testing)
func NewClientWithBaseURL(apiToken, baseURL string) *Client {
	return &Client{
		apiToken: apiToken,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetEOD fetches daily bars for a symbol within [from, to]
func (c *Client) GetEOD(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	body, err := c.doRequest(ctx, "/eod/"+url.PathEscape(symbol), url.Values{
		"period": {"d"},
		"from":   {from.Format("2006-01-02")},
		"to":     {to.Format("2006-01-02")},
	})
	if err != nil {
		return nil, err
	}

	var raw []EODBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal EOD response: %w", err)
	}

	var bars []models.PriceBar
	for _, row := range raw {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		adj := row.AdjustedClose
		if adj == 0 {
			adj = row.Close
		}
		bars = append(bars, models.PriceBar{
			Ticker:   symbol,
			Date:     date,
			Open:     row.Open,
			High:     row.High,
			Low:      row.Low,
			Close:    row.Close,
			AdjClose: adj,
			Volume:   row.Volume,
		})
	}
	return bars, nil
}

// GetDividends fetches dividend events for a symbol since from
func (c *Client) GetDividends(ctx context.Context, symbol string, from time.Time) ([]models.Dividend, error) {
	body, err := c.doRequest(ctx, "/div/"+url.PathEscape(symbol), url.Values{
		"from": {from.Format("2006-01-02")},
	})
	if err != nil {
		return nil, err
	}

	var raw []DividendRow
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dividends response: %w", err)
	}

	var dividends []models.Dividend
	for _, row := range raw {
		exDate, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		var payDate *time.Time
		if pd, err := time.Parse("2006-01-02", row.PaymentDate); err == nil {
			payDate = &pd
		}
		currency := row.Currency
		if currency == "" {
			currency = "USD"
		}
		dividends = append(dividends, models.Dividend{
			Ticker:   symbol,
			ExDate:   exDate,
			PayDate:  payDate,
			Amount:   row.Value,
			Currency: currency,
		})
	}
	return dividends, nil
}

// GetSplits fetches split events for a symbol since from
func (c *Client) GetSplits(ctx context.Context, symbol string, from time.Time) ([]models.Split, error) {
	body, err := c.doRequest(ctx, "/splits/"+url.PathEscape(symbol), url.Values{
		"from": {from.Format("2006-01-02")},
	})
	if err != nil {
		return nil, err
	}

	var raw []SplitRow
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal splits response: %w", err)
	}

	var splits []models.Split
	for _, row := range raw {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		num, den, err := parseSplitRatio(row.Split)
		if err != nil {
			continue
		}
		splits = append(splits, models.Split{
			Ticker:      symbol,
			Date:        date,
			Numerator:   num,
			Denominator: den,
		})
	}
	return splits, nil
}

// parseSplitRatio parses EODHD's "new/old" ratio string, e.g. "4.000000/1.000000"
func parseSplitRatio(s string) (num, den float64, err error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed split ratio %q", s)
	}
	num, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed split numerator %q: %w", parts[0], err)
	}
	den, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed split denominator %q: %w", parts[1], err)
	}
	if num <= 0 || den <= 0 {
		return 0, 0, fmt.Errorf("non-positive split ratio %q", s)
	}
	return num, den, nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("api_token", c.apiToken)
	params.Set("fmt", "json")

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EODHD API returned status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
