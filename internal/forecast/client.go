package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to an external model server over HTTP. The server is a black
// box that accepts a historical close series plus a horizon and returns the
// projected closes.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a model client for the given server URL. name is the
// model name recorded in the run registry.
func NewClient(name, baseURL string) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Name returns the model name recorded in the run registry
func (c *Client) Name() string {
	return c.name
}

type projectRequest struct {
	Series  []float64 `json:"series"`
	Horizon int       `json:"horizon"`
}

type projectResponse struct {
	Projected []float64 `json:"projected"`
}

// Project sends the series to the model server and returns its projection
func (c *Client) Project(ctx context.Context, series []float64, horizon int) ([]float64, error) {
	if len(series) < 2 {
		return nil, ErrInsufficientData
	}

	payload, err := json.Marshal(projectRequest{Series: series, Horizon: horizon})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/project", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model response: %w", err)
	}

	var out projectResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model response: %w", err)
	}
	if len(out.Projected) != horizon {
		return nil, fmt.Errorf("model returned %d values, expected %d", len(out.Projected), horizon)
	}
	return out.Projected, nil
}
