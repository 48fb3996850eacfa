package mt5

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Client = (*Simulator)(nil)

// contractSize is the units per lot used for simulated profit marks.
const contractSize = 100000

// Seed quotes for the built-in simulator symbols.
var simQuotes = map[string]Tick{
	"EURUSD": {Bid: 1.08497, Ask: 1.08511},
	"GBPUSD": {Bid: 1.26734, Ask: 1.26752},
	"USDJPY": {Bid: 155.291, Ask: 155.308},
	"XAUUSD": {Bid: 2411.35, Ask: 2411.85},
}

// Simulator implements Client against in-memory state, for paper trading and
// development without a terminal. Orders fill immediately at the current
// quote; bars are synthesized deterministically per symbol.
type Simulator struct {
	mu         sync.Mutex
	ticks      map[string]Tick
	positions  map[uint64]*Position
	nextTicket uint64
	rng        *rand.Rand
}

// NewSimulator creates a simulator seeded with the built-in symbols.
func NewSimulator() *Simulator {
	now := time.Now().Unix()
	ticks := make(map[string]Tick, len(simQuotes))
	for sym, q := range simQuotes {
		q.Time = now
		q.Last = q.Bid
		q.Volume = 1
		ticks[sym] = q
	}
	return &Simulator{
		ticks:      ticks,
		positions:  make(map[uint64]*Position),
		nextTicket: 1000,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name returns "simulator".
func (s *Simulator) Name() string { return "simulator" }

// Connect always succeeds; the simulator has no external terminal.
func (s *Simulator) Connect(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Simulator) Close() error { return nil }

// SupportsAction reports support for market deals and SL/TP modification.
func (s *Simulator) SupportsAction(action TradeAction) bool {
	return action == TradeActionDeal || action == TradeActionSLTP
}

// RatesFromPos synthesizes count bars for symbol, oldest first, ending at
// the current bar. The walk is a function of bar time only, so repeated
// queries return identical data.
func (s *Simulator) RatesFromPos(_ context.Context, symbol string, timeframe Timeframe, start, count int) ([]Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed, ok := s.ticks[symbol]
	if !ok || count <= 0 {
		return nil, nil
	}
	step := timeframe.Duration()
	if step == 0 {
		return nil, nil
	}

	spread := spreadPoints(symbol, seed.Bid, seed.Ask)
	base := seed.Bid
	end := time.Now().Truncate(step)

	bars := make([]Rate, count)
	for i := 0; i < count; i++ {
		back := count - 1 - i + start
		t := end.Add(-time.Duration(back) * step)
		phase := float64(t.Unix() / int64(step/time.Second))
		openPx := base * (1 + 0.002*math.Sin(phase*0.11))
		closePx := base * (1 + 0.002*math.Sin((phase+1)*0.11))
		bars[i] = Rate{
			Time:       t.Unix(),
			Open:       openPx,
			High:       math.Max(openPx, closePx) * 1.0004,
			Low:        math.Min(openPx, closePx) * 0.9996,
			Close:      closePx,
			TickVolume: 100 + int64(50*math.Abs(math.Sin(phase))),
			Spread:     spread,
		}
	}
	return bars, nil
}

// Tick returns the current simulated quote for symbol.
func (s *Simulator) Tick(_ context.Context, symbol string) (*Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tick, ok := s.ticks[symbol]
	if !ok {
		return nil, nil
	}
	return &tick, nil
}

// Positions returns all simulated positions ordered by ticket.
func (s *Simulator) Positions(_ context.Context) ([]Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.positions) == 0 {
		return nil, nil
	}
	positions := make([]Position, 0, len(s.positions))
	for _, p := range s.positions {
		positions = append(positions, *p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Ticket < positions[j].Ticket })
	return positions, nil
}

// PositionByTicket returns the simulated position with the given ticket.
func (s *Simulator) PositionByTicket(_ context.Context, ticket uint64) (*Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[ticket]
	if !ok {
		return nil, nil
	}
	pos := *p
	return &pos, nil
}

// OrderSend executes a trade request against the in-memory book.
func (s *Simulator) OrderSend(_ context.Context, req *TradeRequest) (*TradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Action {
	case TradeActionDeal:
		return s.execDeal(req), nil
	case TradeActionSLTP:
		return s.execSLTP(req), nil
	default:
		return &TradeResult{Retcode: RetcodeInvalid, Comment: "Unsupported action"}, nil
	}
}

// execDeal fills a market order: buys at ask, sells at bid. A request
// referencing an existing position nets against it; otherwise a new position
// opens. The caller must hold s.mu.
func (s *Simulator) execDeal(req *TradeRequest) *TradeResult {
	if req.Volume <= 0 {
		return &TradeResult{Retcode: RetcodeInvalidVolume, Comment: "Invalid volume"}
	}
	tick, ok := s.ticks[req.Symbol]
	if !ok {
		return &TradeResult{Retcode: RetcodeInvalid, Comment: "Unknown symbol"}
	}

	price := tick.Ask
	if req.Type == OrderTypeSell {
		price = tick.Bid
	}

	if req.Position != 0 {
		pos, ok := s.positions[req.Position]
		if !ok {
			return &TradeResult{Retcode: RetcodeInvalid, Comment: "Position not found"}
		}
		if req.Volume >= pos.Volume {
			delete(s.positions, req.Position)
		} else {
			pos.Volume -= req.Volume
		}
		s.nextTicket++
		return &TradeResult{Retcode: RetcodeDone, Deal: s.nextTicket, Order: s.nextTicket, Volume: req.Volume, Price: price, Comment: "Request executed"}
	}

	s.nextTicket++
	ticket := s.nextTicket
	s.positions[ticket] = &Position{
		Ticket:       ticket,
		Symbol:       req.Symbol,
		Type:         req.Type,
		Volume:       req.Volume,
		PriceOpen:    price,
		SL:           req.SL,
		TP:           req.TP,
		PriceCurrent: price,
		Time:         time.Now().Unix(),
	}
	return &TradeResult{Retcode: RetcodeDone, Deal: ticket, Order: ticket, Volume: req.Volume, Price: price, Comment: "Request executed"}
}

// execSLTP rewrites the protective levels of an open position. The caller
// must hold s.mu.
func (s *Simulator) execSLTP(req *TradeRequest) *TradeResult {
	pos, ok := s.positions[req.Position]
	if !ok {
		return &TradeResult{Retcode: RetcodeInvalid, Comment: "Position not found"}
	}
	pos.SL = req.SL
	pos.TP = req.TP
	return &TradeResult{Retcode: RetcodeDone, Comment: "Request executed"}
}

// SetTick replaces the quote for symbol and marks its positions to market.
func (s *Simulator) SetTick(symbol string, tick Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tick.Time == 0 {
		tick.Time = time.Now().Unix()
	}
	s.ticks[symbol] = tick
	s.markToMarket(symbol)
}

// Run drifts quotes with a small random walk until ctx is done, giving the
// simulator live-looking prices. The bridge works without it.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.step()
		}
	}
}

// step applies one random-walk move to every quote.
func (s *Simulator) step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	for sym, tick := range s.ticks {
		drift := 1 + (s.rng.Float64()-0.5)*0.0004
		mid := (tick.Bid + tick.Ask) / 2 * drift
		half := (tick.Ask - tick.Bid) / 2
		tick.Bid = mid - half
		tick.Ask = mid + half
		tick.Last = tick.Bid
		tick.Time = now
		tick.Volume++
		s.ticks[sym] = tick
		s.markToMarket(sym)
	}
}

// markToMarket refreshes price and profit on open positions for symbol. A
// long marks at bid, a short at ask. The caller must hold s.mu.
func (s *Simulator) markToMarket(symbol string) {
	tick, ok := s.ticks[symbol]
	if !ok {
		return
	}
	for _, pos := range s.positions {
		if pos.Symbol != symbol {
			continue
		}
		if pos.Type == OrderTypeBuy {
			pos.PriceCurrent = tick.Bid
			pos.Profit = (tick.Bid - pos.PriceOpen) * pos.Volume * contractSize
		} else {
			pos.PriceCurrent = tick.Ask
			pos.Profit = (pos.PriceOpen - tick.Ask) * pos.Volume * contractSize
		}
	}
}

// spreadPoints converts a bid/ask gap to points for the symbol's precision.
func spreadPoints(symbol string, bid, ask float64) int32 {
	point := 0.00001
	switch {
	case strings.Contains(symbol, "JPY"):
		point = 0.001
	case strings.HasPrefix(symbol, "XAU"), strings.HasPrefix(symbol, "XAG"):
		point = 0.01
	}
	return int32(math.Round((ask - bid) / point))
}
