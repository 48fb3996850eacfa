package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mt5bridge/internal/bridge"
	"mt5bridge/internal/domain"
)

// fakeBridge scripts adapter results and records what handlers pass down.
type fakeBridge struct {
	connected bool

	bars      []domain.Bar
	barsErr   error
	ratesReqs []ratesReq

	tick    domain.Tick
	tickErr error

	positions []domain.Position
	posErr    error

	ticket    uint64
	orderErr  error
	lastOrder *bridge.OrderRequest

	closeErr    error
	closeTicket uint64

	modifyErr  error
	lastModify *bridge.ModifyRequest
}

type ratesReq struct {
	symbol    string
	timeframe string
	count     int
}

var _ Bridge = (*fakeBridge)(nil)

func (f *fakeBridge) Connected() bool { return f.connected }

func (f *fakeBridge) Rates(_ context.Context, symbol, timeframe string, count int) ([]domain.Bar, error) {
	f.ratesReqs = append(f.ratesReqs, ratesReq{symbol, timeframe, count})
	return f.bars, f.barsErr
}

func (f *fakeBridge) Tick(context.Context, string) (domain.Tick, error) {
	return f.tick, f.tickErr
}

func (f *fakeBridge) Positions(context.Context) ([]domain.Position, error) {
	return f.positions, f.posErr
}

func (f *fakeBridge) SendOrder(_ context.Context, req bridge.OrderRequest) (uint64, error) {
	f.lastOrder = &req
	return f.ticket, f.orderErr
}

func (f *fakeBridge) ClosePosition(_ context.Context, ticket uint64) error {
	f.closeTicket = ticket
	return f.closeErr
}

func (f *fakeBridge) ModifyPosition(_ context.Context, req bridge.ModifyRequest) error {
	f.lastModify = &req
	return f.modifyErr
}

func newTestServer(f *fakeBridge) http.Handler {
	s := NewServer(f, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, rdr))
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body %q: %v", rr.Body.String(), err)
	}
	return body["error"]
}

func TestHealth(t *testing.T) {
	for _, connected := range []bool{true, false} {
		h := newTestServer(&fakeBridge{connected: connected})
		rr := do(t, h, http.MethodGet, "/health", "")

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		var resp HealthResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if resp.Status != "ok" || resp.Connected != connected {
			t.Errorf("body = %+v, want ok/%v", resp, connected)
		}
	}
}

func TestRatesQuery(t *testing.T) {
	f := &fakeBridge{bars: []domain.Bar{{Time: 100, Open: 1.1}}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodGet, "/rates/EURUSD?timeframe=M5&count=50", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if len(f.ratesReqs) != 1 {
		t.Fatalf("bridge calls = %d, want 1", len(f.ratesReqs))
	}
	if got, want := f.ratesReqs[0], (ratesReq{"EURUSD", "M5", 50}); got != want {
		t.Errorf("bridge saw %+v, want %+v", got, want)
	}

	var bars []domain.Bar
	if err := json.Unmarshal(rr.Body.Bytes(), &bars); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(bars) != 1 || bars[0].Time != 100 {
		t.Errorf("bars = %+v, want the scripted bar", bars)
	}
}

func TestRatesCountDefaults(t *testing.T) {
	f := &fakeBridge{bars: []domain.Bar{}}
	h := newTestServer(f)

	if rr := do(t, h, http.MethodGet, "/rates/EURUSD?timeframe=H1", ""); rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if f.ratesReqs[0].count != defaultRatesCount {
		t.Errorf("count = %d, want %d", f.ratesReqs[0].count, defaultRatesCount)
	}
}

func TestRatesQueryValidation(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{"missing timeframe", "/rates/EURUSD"},
		{"non-integer count", "/rates/EURUSD?timeframe=M5&count=abc"},
		{"zero count", "/rates/EURUSD?timeframe=M5&count=0"},
		{"negative count", "/rates/EURUSD?timeframe=M5&count=-3"},
	}
	for _, c := range cases {
		f := &fakeBridge{}
		h := newTestServer(f)
		rr := do(t, h, http.MethodGet, c.target, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", c.name, rr.Code, http.StatusBadRequest)
		}
		if len(f.ratesReqs) != 0 {
			t.Errorf("%s: bridge was called %d times, want 0", c.name, len(f.ratesReqs))
		}
	}
}

func TestRatesBridgeFailure(t *testing.T) {
	f := &fakeBridge{barsErr: &bridge.Error{Kind: bridge.KindInvalidInput, Message: "invalid timeframe: H2"}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodGet, "/rates/EURUSD?timeframe=H2", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got, want := decodeError(t, rr), "invalid timeframe: H2"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestTickEndpoint(t *testing.T) {
	f := &fakeBridge{tick: domain.Tick{Time: 1700000000, Bid: 1.0849, Ask: 1.0851}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodGet, "/tick/EURUSD", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var tick domain.Tick
	if err := json.Unmarshal(rr.Body.Bytes(), &tick); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if tick != f.tick {
		t.Errorf("tick = %+v, want %+v", tick, f.tick)
	}
}

func TestTickFailure(t *testing.T) {
	f := &fakeBridge{tickErr: &bridge.Error{Kind: bridge.KindDataUnavailable, Message: "failed to get tick for NOSUCH"}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodGet, "/tick/NOSUCH", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got, want := decodeError(t, rr), "failed to get tick for NOSUCH"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestPositionsEmptyArray(t *testing.T) {
	f := &fakeBridge{positions: []domain.Position{}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodGet, "/positions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body = %q, want an empty JSON array", got)
	}
}

func TestPositionsBody(t *testing.T) {
	f := &fakeBridge{positions: []domain.Position{
		{Ticket: 42, Symbol: "EURUSD", Side: domain.SideBuy, Volume: 0.1, StopLoss: 1.05, TakeProfit: 1.12},
	}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodGet, "/positions", "")
	var decoded []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("len = %d, want 1", len(decoded))
	}
	for _, key := range []string{"ticket", "symbol", "side", "volume", "price_open", "sl", "tp", "price_current", "profit", "time"} {
		if _, ok := decoded[0][key]; !ok {
			t.Errorf("position JSON missing key %q", key)
		}
	}
}

func TestOrderEndpoint(t *testing.T) {
	f := &fakeBridge{ticket: 1042}
	h := newTestServer(f)

	body := `{"symbol":"EURUSD","side":"BUY","volume":0.1,"sl":1.05,"tp":1.12,"comment":"entry"}`
	rr := do(t, h, http.MethodPost, "/order", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp OrderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Status != "ok" || resp.Ticket != 1042 {
		t.Errorf("body = %+v, want ok/1042", resp)
	}

	if f.lastOrder == nil {
		t.Fatal("bridge never saw the order")
	}
	want := bridge.OrderRequest{Symbol: "EURUSD", Side: domain.SideBuy, Volume: 0.1, StopLoss: 1.05, TakeProfit: 1.12, Comment: "entry"}
	if *f.lastOrder != want {
		t.Errorf("bridge saw %+v, want %+v", *f.lastOrder, want)
	}
}

func TestOrderValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"symbol":`},
		{"missing symbol", `{"side":"BUY","volume":0.1}`},
		{"missing side", `{"symbol":"EURUSD","volume":0.1}`},
		{"lowercase side", `{"symbol":"EURUSD","side":"buy","volume":0.1}`},
		{"unknown side", `{"symbol":"EURUSD","side":"HOLD","volume":0.1}`},
		{"zero volume", `{"symbol":"EURUSD","side":"BUY","volume":0}`},
		{"negative volume", `{"symbol":"EURUSD","side":"BUY","volume":-0.1}`},
		{"negative sl", `{"symbol":"EURUSD","side":"BUY","volume":0.1,"sl":-1}`},
	}
	for _, c := range cases {
		f := &fakeBridge{}
		h := newTestServer(f)
		rr := do(t, h, http.MethodPost, "/order", c.body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", c.name, rr.Code, http.StatusBadRequest)
		}
		if f.lastOrder != nil {
			t.Errorf("%s: bridge saw an order for an invalid body", c.name)
		}
	}
}

func TestOrderRejected(t *testing.T) {
	f := &fakeBridge{orderErr: &bridge.Error{
		Kind:    bridge.KindRejected,
		Message: "order rejected: No money (10019)",
		Retcode: 10019,
	}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodPost, "/order", `{"symbol":"EURUSD","side":"BUY","volume":0.1}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got, want := decodeError(t, rr), "order rejected: No money (10019)"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestCloseEndpoint(t *testing.T) {
	f := &fakeBridge{}
	h := newTestServer(f)

	rr := do(t, h, http.MethodPost, "/close", `{"ticket":42}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if f.closeTicket != 42 {
		t.Errorf("bridge saw ticket %d, want 42", f.closeTicket)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestCloseValidation(t *testing.T) {
	for _, body := range []string{`{}`, `{"ticket":0}`, `not json`} {
		f := &fakeBridge{}
		h := newTestServer(f)
		rr := do(t, h, http.MethodPost, "/close", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestCloseNotFound(t *testing.T) {
	f := &fakeBridge{closeErr: &bridge.Error{Kind: bridge.KindNotFound, Message: "position 99 not found"}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodPost, "/close", `{"ticket":99}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got, want := decodeError(t, rr), "position 99 not found"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestModifyEndpoint(t *testing.T) {
	f := &fakeBridge{}
	h := newTestServer(f)

	// update_sl with a null level clears the stop; tp stays untouched.
	rr := do(t, h, http.MethodPost, "/modify", `{"ticket":42,"sl":null,"update_sl":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	if f.lastModify == nil {
		t.Fatal("bridge never saw the modify")
	}
	got := *f.lastModify
	if got.Ticket != 42 || !got.UpdateSL || got.UpdateTP {
		t.Errorf("bridge saw %+v, want ticket 42 with only update_sl", got)
	}
	if got.StopLoss != nil {
		t.Errorf("sl = %v, want nil for an explicit null", *got.StopLoss)
	}
}

func TestModifyForwardsLevels(t *testing.T) {
	f := &fakeBridge{}
	h := newTestServer(f)

	rr := do(t, h, http.MethodPost, "/modify", `{"ticket":42,"sl":1.05,"tp":1.2,"update_sl":true,"update_tp":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	got := *f.lastModify
	if got.StopLoss == nil || *got.StopLoss != 1.05 {
		t.Errorf("sl = %v, want 1.05", got.StopLoss)
	}
	if got.TakeProfit == nil || *got.TakeProfit != 1.2 {
		t.Errorf("tp = %v, want 1.2", got.TakeProfit)
	}
}

func TestModifyNothingToUpdate(t *testing.T) {
	// Flags are the adapter's concern, not the boundary's: the body is
	// well-formed, so the failure surfaces as a server error.
	f := &fakeBridge{modifyErr: &bridge.Error{
		Kind:    bridge.KindInvalidInput,
		Message: "nothing to update: set update_sl and/or update_tp",
	}}
	h := newTestServer(f)

	rr := do(t, h, http.MethodPost, "/modify", `{"ticket":42}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got, want := decodeError(t, rr), "nothing to update: set update_sl and/or update_tp"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(&fakeBridge{})

	first := do(t, h, http.MethodGet, "/health", "").Header().Get("X-Request-ID")
	second := do(t, h, http.MethodGet, "/health", "").Header().Get("X-Request-ID")

	if first == "" || second == "" {
		t.Fatal("X-Request-ID missing")
	}
	if first == second {
		t.Errorf("request IDs repeat: %q", first)
	}
}
