package mt5

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Compile-time interface check.
var _ Client = (*SocketClient)(nil)

// Wire envelope for the terminal-side expert advisor. Each exchange is one
// JSON text frame in each direction, correlated by id.
type wireRequest struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wireResponse struct {
	ID     uint64          `json:"id"`
	Error  *wireError      `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// initResult is the initialize handshake payload: terminal build info and
// the trade actions the expert advisor accepts.
type initResult struct {
	Build   int           `json:"build"`
	Company string        `json:"company,omitempty"`
	Actions []TradeAction `json:"actions"`
}

type ratesParams struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Start     int       `json:"start"`
	Count     int       `json:"count"`
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

type positionsParams struct {
	Ticket uint64 `json:"ticket,omitempty"`
}

// SocketClient talks to an expert advisor running inside a MetaTrader 5
// terminal over a websocket, one request/response exchange at a time.
type SocketClient struct {
	url         string
	dialer      *websocket.Dialer
	callTimeout time.Duration

	mu      sync.Mutex // serializes exchanges; the connection allows one writer
	conn    *websocket.Conn
	nextID  uint64
	actions map[TradeAction]bool
}

// NewSocketClient creates a client for the expert advisor listening at url
// (ws:// or wss://). Nothing is dialed until Connect.
func NewSocketClient(url string, dialTimeout, callTimeout time.Duration) *SocketClient {
	return &SocketClient{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: dialTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
		callTimeout: callTimeout,
	}
}

// Name returns "socket".
func (c *SocketClient) Name() string { return "socket" }

// Connect dials the terminal and performs the initialize handshake,
// recording the trade actions the expert advisor advertises. Any previous
// connection is discarded first.
func (c *SocketClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dialing terminal at %s: %w", c.url, err)
	}
	c.conn = conn

	var init initResult
	if err := c.exchange(ctx, "initialize", nil, &init); err != nil {
		c.conn.Close()
		c.conn = nil
		return fmt.Errorf("initialize handshake: %w", err)
	}

	c.actions = make(map[TradeAction]bool, len(init.Actions))
	for _, a := range init.Actions {
		c.actions[a] = true
	}
	return nil
}

// Close tears down the websocket. Safe to call repeatedly or when never
// connected.
func (c *SocketClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// SupportsAction reports whether the last handshake advertised the action.
func (c *SocketClient) SupportsAction(action TradeAction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actions[action]
}

// RatesFromPos queries bars by position, start bars back from the latest.
func (c *SocketClient) RatesFromPos(ctx context.Context, symbol string, timeframe Timeframe, start, count int) ([]Rate, error) {
	var rates []Rate
	if err := c.call(ctx, "rates", ratesParams{Symbol: symbol, Timeframe: timeframe, Start: start, Count: count}, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// Tick queries the latest quote for symbol.
func (c *SocketClient) Tick(ctx context.Context, symbol string) (*Tick, error) {
	var tick *Tick
	if err := c.call(ctx, "tick", symbolParams{Symbol: symbol}, &tick); err != nil {
		return nil, err
	}
	return tick, nil
}

// Positions queries all open positions.
func (c *SocketClient) Positions(ctx context.Context) ([]Position, error) {
	var positions []Position
	if err := c.call(ctx, "positions", positionsParams{}, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// PositionByTicket queries open positions filtered by ticket and returns the
// first match, if any.
func (c *SocketClient) PositionByTicket(ctx context.Context, ticket uint64) (*Position, error) {
	var positions []Position
	if err := c.call(ctx, "positions", positionsParams{Ticket: ticket}, &positions); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}
	return &positions[0], nil
}

// OrderSend submits a trade request to the terminal.
func (c *SocketClient) OrderSend(ctx context.Context, req *TradeRequest) (*TradeResult, error) {
	var result *TradeResult
	if err := c.call(ctx, "order_send", req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// call runs one exchange under the connection lock.
func (c *SocketClient) call(ctx context.Context, method string, params, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exchange(ctx, method, params, result)
}

// exchange writes one request frame and reads its response frame. The caller
// must hold c.mu. An error response from the expert advisor is returned as a
// *TerminalError; a null or missing result leaves result untouched.
func (c *SocketClient) exchange(ctx context.Context, method string, params, result any) error {
	if c.conn == nil {
		return fmt.Errorf("%s: not connected", method)
	}

	deadline := time.Now().Add(c.callTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.nextID++
	req := wireRequest{ID: c.nextID, Method: method, Params: params}

	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("%s: writing request: %w", method, err)
	}

	c.conn.SetReadDeadline(deadline)
	var resp wireResponse
	for {
		if err := c.conn.ReadJSON(&resp); err != nil {
			return fmt.Errorf("%s: reading response: %w", method, err)
		}
		if resp.ID == req.ID {
			break
		}
		// Stale frame from an earlier timed-out call; skip it.
	}

	if resp.Error != nil {
		return &TerminalError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if result == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%s: decoding result: %w", method, err)
	}
	return nil
}
