// Package mt5 defines the contract with the MetaTrader 5 terminal and
// provides two implementations: a websocket client speaking to an expert
// advisor inside a real terminal, and an in-memory simulator for paper
// trading and development.
package mt5

import (
	"context"
	"fmt"
)

// Client abstracts the terminal connection consumed by the bridge.
// Implementations report optional or absent native results as nil values
// with a nil error; errors are reserved for transport and protocol failures.
type Client interface {
	// Name returns the client identifier (e.g. "socket", "simulator").
	Name() string

	// Connect performs the initialize handshake with the terminal. It is
	// invoked for every (re)connection attempt and must be safe to call
	// again after a failure.
	Connect(ctx context.Context) error

	// Close releases the terminal connection unconditionally. Safe to call
	// when never connected.
	Close() error

	// SupportsAction reports whether the terminal advertised support for
	// the given trade action during the last successful Connect.
	SupportsAction(action TradeAction) bool

	// RatesFromPos returns count bars of symbol at the given timeframe,
	// starting start bars back from the most recent one, oldest first. A
	// nil slice means the terminal had no data for the query.
	RatesFromPos(ctx context.Context, symbol string, timeframe Timeframe, start, count int) ([]Rate, error)

	// Tick returns the latest quote for symbol, or nil if the terminal has
	// none.
	Tick(ctx context.Context, symbol string) (*Tick, error)

	// Positions returns all open positions. A nil slice means none are open.
	Positions(ctx context.Context) ([]Position, error)

	// PositionByTicket returns the open position with the given ticket, or
	// nil if no position matches.
	PositionByTicket(ctx context.Context, ticket uint64) (*Position, error)

	// OrderSend submits a trade request. A nil result means the terminal
	// produced no result for the request.
	OrderSend(ctx context.Context, req *TradeRequest) (*TradeResult, error)
}

// TerminalError is a failure reported by the terminal itself, carrying the
// native last-error code alongside its message.
type TerminalError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal error %d: %s", e.Code, e.Message)
}
