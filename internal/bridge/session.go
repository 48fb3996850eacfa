// Package bridge holds the terminal session lifecycle and the adapter that
// turns caller-facing operations into native terminal calls, classifying
// every failure into a stable error kind.
package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"

	"mt5bridge/internal/mt5"
)

// Session owns the single terminal connection and its lifecycle. The
// connected flag is the only shared state; redundant concurrent reconnects
// are allowed and harmless, so nothing serializes the attempt itself.
type Session struct {
	client    mt5.Client
	log       *slog.Logger
	connected atomic.Bool
}

// NewSession creates a Session around client. No connection is attempted
// until Initialize or the first guarded operation.
func NewSession(client mt5.Client, log *slog.Logger) *Session {
	return &Session{
		client: client,
		log:    log.With("component", "session"),
	}
}

// Initialize (re)establishes the terminal connection. It always performs a
// fresh handshake, so callers may use it to revalidate a connection believed
// live. On failure the returned error carries the terminal's own code and
// message.
func (s *Session) Initialize(ctx context.Context) error {
	if err := s.client.Connect(ctx); err != nil {
		s.connected.Store(false)
		s.log.Error("terminal initialize failed", "error", err)
		return wrapError(KindNotConnected, err, "MT5 initialize failed")
	}
	s.connected.Store(true)
	s.log.Info("terminal connected", "client", s.client.Name())
	return nil
}

// Shutdown releases the terminal connection unconditionally. Safe when never
// connected.
func (s *Session) Shutdown() {
	s.connected.Store(false)
	if err := s.client.Close(); err != nil {
		s.log.Warn("closing terminal connection", "error", err)
	}
}

// EnsureConnected returns nil when the session believes the terminal is
// reachable, reconnecting first when it does not. A live connection is never
// re-polled.
func (s *Session) EnsureConnected(ctx context.Context) error {
	if s.connected.Load() {
		return nil
	}
	s.log.Info("terminal not connected, attempting to reconnect")
	return s.Initialize(ctx)
}

// Connected reports the session's view of the terminal connection.
func (s *Session) Connected() bool {
	return s.connected.Load()
}
