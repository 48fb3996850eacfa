package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"mt5bridge/internal/bridge"
	"mt5bridge/internal/domain"
)

// defaultRatesCount is the bar count used when the query omits count.
const defaultRatesCount = 1000

// Bridge is the adapter surface the API serves.
type Bridge interface {
	Connected() bool
	Rates(ctx context.Context, symbol, timeframe string, count int) ([]domain.Bar, error)
	Tick(ctx context.Context, symbol string) (domain.Tick, error)
	Positions(ctx context.Context) ([]domain.Position, error)
	SendOrder(ctx context.Context, req bridge.OrderRequest) (uint64, error)
	ClosePosition(ctx context.Context, ticket uint64) error
	ModifyPosition(ctx context.Context, req bridge.ModifyRequest) error
}

var _ Bridge = (*bridge.Bridge)(nil)

// Server serves the bridge HTTP API.
type Server struct {
	bridge   Bridge
	log      *slog.Logger
	validate *validator.Validate
}

// NewServer creates a new bridge HTTP server.
func NewServer(b Bridge, log *slog.Logger) *Server {
	return &Server{
		bridge:   b,
		log:      log.With("component", "httpapi"),
		validate: validator.New(),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /rates/{symbol}", s.handleRates)
	mux.HandleFunc("GET /tick/{symbol}", s.handleTick)
	mux.HandleFunc("GET /positions", s.handlePositions)
	mux.HandleFunc("POST /order", s.handleOrder)
	mux.HandleFunc("POST /close", s.handleClose)
	mux.HandleFunc("POST /modify", s.handleModify)
}

// Handler returns an http.Handler with request logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logMiddleware(mux)
}

// handleHealth always answers 200; connected reflects the session flag
// without touching the terminal.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok", Connected: s.bridge.Connected()})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		writeError(w, http.StatusBadRequest, "timeframe required")
		return
	}

	count := defaultRatesCount
	if c := r.URL.Query().Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	bars, err := s.bridge.Rates(r.Context(), symbol, timeframe, count)
	if err != nil {
		s.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, bars)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	tick, err := s.bridge.Tick(r.Context(), r.PathValue("symbol"))
	if err != nil {
		s.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, tick)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.bridge.Positions(r.Context())
	if err != nil {
		s.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, positions)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var body OrderBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	ticket, err := s.bridge.SendOrder(r.Context(), bridge.OrderRequest{
		Symbol:     body.Symbol,
		Side:       domain.Side(body.Side),
		Volume:     body.Volume,
		StopLoss:   body.StopLoss,
		TakeProfit: body.TakeProfit,
		Comment:    body.Comment,
	})
	if err != nil {
		s.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, OrderResponse{Status: "ok", Ticket: ticket})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	var body CloseBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	if err := s.bridge.ClosePosition(r.Context(), body.Ticket); err != nil {
		s.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, StatusResponse{Status: "ok"})
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var body ModifyBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	err := s.bridge.ModifyPosition(r.Context(), bridge.ModifyRequest{
		Ticket:     body.Ticket,
		StopLoss:   body.StopLoss,
		TakeProfit: body.TakeProfit,
		UpdateSL:   body.UpdateSL,
		UpdateTP:   body.UpdateTP,
	})
	if err != nil {
		s.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, StatusResponse{Status: "ok"})
}

// decodeBody decodes and validates a JSON request body, answering 400 on
// failure. The return reports whether the handler should proceed.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeBridgeError maps any bridge failure to a server error carrying the
// reason string.
func (s *Server) writeBridgeError(w http.ResponseWriter, r *http.Request, err error) {
	reason := bridge.Reason(err)
	s.log.Error("bridge call failed",
		"method", r.Method,
		"path", r.URL.Path,
		"kind", string(bridge.KindOf(err)),
		"reason", reason,
	)
	writeError(w, http.StatusInternalServerError, reason)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
