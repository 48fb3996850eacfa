// Package mt5bridge provides a Go SDK for the bridge HTTP API.
package mt5bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Side is the direction of an order or position.
type Side string

// Order sides accepted by the bridge.
const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Bar is one OHLCV bar. Time is a Unix timestamp in seconds.
type Bar struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume int64   `json:"tick_volume"`
	Spread     int32   `json:"spread"`
	RealVolume int64   `json:"real_volume"`
}

// Tick is the latest quote for a symbol.
type Tick struct {
	Time   int64   `json:"time"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume int64   `json:"volume"`
}

// Position is an open position.
type Position struct {
	Ticket       uint64  `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Side         Side    `json:"side"`
	Volume       float64 `json:"volume"`
	PriceOpen    float64 `json:"price_open"`
	StopLoss     float64 `json:"sl"`
	TakeProfit   float64 `json:"tp"`
	PriceCurrent float64 `json:"price_current"`
	Profit       float64 `json:"profit"`
	Time         int64   `json:"time"`
}

// Health is the bridge liveness report.
type Health struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
}

// OrderRequest is the payload for SendOrder. StopLoss and TakeProfit are
// price levels; zero leaves the level unset.
type OrderRequest struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Volume     float64 `json:"volume"`
	StopLoss   float64 `json:"sl,omitempty"`
	TakeProfit float64 `json:"tp,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}

// ModifyRequest is the payload for ModifyPosition. Only flagged levels
// change; a flagged nil level is cleared.
type ModifyRequest struct {
	Ticket     uint64   `json:"ticket"`
	StopLoss   *float64 `json:"sl,omitempty"`
	TakeProfit *float64 `json:"tp,omitempty"`
	UpdateSL   bool     `json:"update_sl"`
	UpdateTP   bool     `json:"update_tp"`
}

type orderResponse struct {
	Status string `json:"status"`
	Ticket uint64 `json:"ticket"`
}

// APIError is a non-2xx answer from the bridge, carrying the server's
// reason string.
type APIError struct {
	Status int
	Reason string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("bridge: status %d: %s", e.Status, e.Reason)
}

// Client provides a Go SDK for interacting with the bridge API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new bridge API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Health reports service liveness and terminal connectivity.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &health)
	return health, err
}

// Rates retrieves up to count bars for a symbol at the given timeframe code
// (M1, M5, M15, M30, H1, H4, D1, W1, MN1), oldest first.
func (c *Client) Rates(ctx context.Context, symbol, timeframe string, count int) ([]Bar, error) {
	params := url.Values{}
	params.Set("timeframe", timeframe)
	if count > 0 {
		params.Set("count", fmt.Sprintf("%d", count))
	}

	var bars []Bar
	path := fmt.Sprintf("/rates/%s?%s", url.PathEscape(symbol), params.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, &bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// Tick retrieves the latest quote for a symbol.
func (c *Client) Tick(ctx context.Context, symbol string) (Tick, error) {
	var tick Tick
	err := c.do(ctx, http.MethodGet, "/tick/"+url.PathEscape(symbol), nil, &tick)
	return tick, err
}

// Positions retrieves all open positions.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	var positions []Position
	if err := c.do(ctx, http.MethodGet, "/positions", nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// SendOrder submits a market order and returns the position ticket.
func (c *Client) SendOrder(ctx context.Context, req OrderRequest) (uint64, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/order", req, &resp); err != nil {
		return 0, err
	}
	return resp.Ticket, nil
}

// ClosePosition closes the full volume of an open position.
func (c *Client) ClosePosition(ctx context.Context, ticket uint64) error {
	return c.do(ctx, http.MethodPost, "/close", map[string]uint64{"ticket": ticket}, nil)
}

// ModifyPosition rewrites the protective levels of an open position.
func (c *Client) ModifyPosition(ctx context.Context, req ModifyRequest) error {
	return c.do(ctx, http.MethodPost, "/modify", req, nil)
}

// do executes one API exchange, decoding either the result into out or the
// error body into an APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Reason: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
