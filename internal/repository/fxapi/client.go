package fxapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://open.er-api.com/v6"

// Client reads latest rates from an open.er-api.com compatible endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type latestResponse struct {
	Result    string                     `json:"result"`
	BaseCode  string                     `json:"base_code"`
	ErrorType string                     `json:"error-type"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	endpoint := c.baseURL + "/latest/" + url.PathEscape(base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch rates: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if payload.Result != "success" {
		return nil, fmt.Errorf("fetch rates: provider returned %q (%s)", payload.Result, payload.ErrorType)
	}
	return payload.Rates, nil
}
