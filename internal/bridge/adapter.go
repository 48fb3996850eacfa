package bridge

import (
	"context"
	"log/slog"

	"mt5bridge/internal/domain"
	"mt5bridge/internal/mt5"
)

// Execution constants applied to every market order.
const (
	orderDeviation = 20     // max slippage, points
	orderMagic     = 123456 // tags bridge-originated orders
	closeComment   = "Close position"
)

// timeframes maps the supported timeframe codes to their terminal encodings.
var timeframes = map[string]mt5.Timeframe{
	"M1":  mt5.TimeframeM1,
	"M5":  mt5.TimeframeM5,
	"M15": mt5.TimeframeM15,
	"M30": mt5.TimeframeM30,
	"H1":  mt5.TimeframeH1,
	"H4":  mt5.TimeframeH4,
	"D1":  mt5.TimeframeD1,
	"W1":  mt5.TimeframeW1,
	"MN1": mt5.TimeframeMN1,
}

// OrderRequest describes a market order. StopLoss and TakeProfit are price
// levels; zero leaves the level unset.
type OrderRequest struct {
	Symbol     string
	Side       domain.Side
	Volume     float64
	StopLoss   float64
	TakeProfit float64
	Comment    string
}

// ModifyRequest rewrites the protective levels of an open position. Only
// flagged fields change; a flagged field with a nil value clears that level.
type ModifyRequest struct {
	Ticket     uint64
	StopLoss   *float64
	TakeProfit *float64
	UpdateSL   bool
	UpdateTP   bool
}

// Bridge adapts caller-facing operations onto the native terminal client,
// guarding every call behind the session's lazy reconnect.
type Bridge struct {
	session *Session
	log     *slog.Logger
}

// New creates a Bridge on top of a session.
func New(session *Session, log *slog.Logger) *Bridge {
	return &Bridge{
		session: session,
		log:     log.With("component", "bridge"),
	}
}

// Connected reports whether the terminal connection is believed live.
func (b *Bridge) Connected() bool {
	return b.session.Connected()
}

func (b *Bridge) client() mt5.Client {
	return b.session.client
}

// Rates returns up to count bars for symbol at the named timeframe, oldest
// first, ending at the most recent bar.
func (b *Bridge) Rates(ctx context.Context, symbol, timeframe string, count int) ([]domain.Bar, error) {
	if err := b.session.EnsureConnected(ctx); err != nil {
		return nil, err
	}

	tf, ok := timeframes[timeframe]
	if !ok {
		return nil, newError(KindInvalidInput, "invalid timeframe: %s", timeframe)
	}

	rates, err := b.client().RatesFromPos(ctx, symbol, tf, 0, count)
	if err != nil {
		return nil, wrapError(KindDataUnavailable, err, "failed to get rates for %s", symbol)
	}
	if rates == nil {
		return nil, newError(KindDataUnavailable, "failed to get rates for %s", symbol)
	}

	bars := make([]domain.Bar, len(rates))
	for i := range rates {
		bars[i] = domain.Bar{
			Time:       rates[i].Time,
			Open:       rates[i].Open,
			High:       rates[i].High,
			Low:        rates[i].Low,
			Close:      rates[i].Close,
			TickVolume: rates[i].TickVolume,
			Spread:     rates[i].Spread,
			RealVolume: rates[i].RealVolume,
		}
	}
	return bars, nil
}

// Tick returns the latest quote for symbol.
func (b *Bridge) Tick(ctx context.Context, symbol string) (domain.Tick, error) {
	if err := b.session.EnsureConnected(ctx); err != nil {
		return domain.Tick{}, err
	}

	tick, err := b.fetchTick(ctx, symbol)
	if err != nil {
		return domain.Tick{}, err
	}
	return domain.Tick{Time: tick.Time, Bid: tick.Bid, Ask: tick.Ask, Last: tick.Last, Volume: tick.Volume}, nil
}

// fetchTick loads a quote that must exist, classifying absence the same way
// as a transport failure.
func (b *Bridge) fetchTick(ctx context.Context, symbol string) (*mt5.Tick, error) {
	tick, err := b.client().Tick(ctx, symbol)
	if err != nil {
		return nil, wrapError(KindDataUnavailable, err, "failed to get tick for %s", symbol)
	}
	if tick == nil {
		return nil, newError(KindDataUnavailable, "failed to get tick for %s", symbol)
	}
	return tick, nil
}

// Positions returns all open positions. No open positions is success with an
// empty slice.
func (b *Bridge) Positions(ctx context.Context) ([]domain.Position, error) {
	if err := b.session.EnsureConnected(ctx); err != nil {
		return nil, err
	}

	positions, err := b.client().Positions(ctx)
	if err != nil {
		return nil, wrapError(KindDataUnavailable, err, "failed to get positions")
	}

	out := make([]domain.Position, 0, len(positions))
	for i := range positions {
		out = append(out, convertPosition(&positions[i]))
	}
	return out, nil
}

// SendOrder submits a market order priced off a fresh tick and returns the
// terminal's order ticket.
func (b *Bridge) SendOrder(ctx context.Context, req OrderRequest) (uint64, error) {
	if err := b.session.EnsureConnected(ctx); err != nil {
		return 0, err
	}

	var orderType mt5.OrderType
	switch req.Side {
	case domain.SideBuy:
		orderType = mt5.OrderTypeBuy
	case domain.SideSell:
		orderType = mt5.OrderTypeSell
	default:
		return 0, newError(KindInvalidInput, "invalid order side: %s", req.Side)
	}

	tick, err := b.fetchTick(ctx, req.Symbol)
	if err != nil {
		return 0, err
	}

	// Buys lift the ask, sells hit the bid.
	price := tick.Ask
	if orderType == mt5.OrderTypeSell {
		price = tick.Bid
	}

	result, err := b.client().OrderSend(ctx, &mt5.TradeRequest{
		Action:      mt5.TradeActionDeal,
		Symbol:      req.Symbol,
		Volume:      req.Volume,
		Type:        orderType,
		Price:       price,
		SL:          req.StopLoss,
		TP:          req.TakeProfit,
		Deviation:   orderDeviation,
		Magic:       orderMagic,
		Comment:     req.Comment,
		TypeTime:    mt5.OrderTimeGTC,
		TypeFilling: mt5.OrderFillingIOC,
	})
	if err != nil {
		return 0, wrapError(KindSubmitFailed, err, "order send failed")
	}
	if result == nil {
		return 0, newError(KindSubmitFailed, "order send failed")
	}
	if result.Retcode != mt5.RetcodeDone {
		return 0, rejected("order", result)
	}

	b.log.Info("order executed",
		"symbol", req.Symbol,
		"side", req.Side,
		"volume", req.Volume,
		"price", result.Price,
		"ticket", result.Order,
	)
	return result.Order, nil
}

// ClosePosition closes the full volume of an open position by sending the
// opposing market order netted against it.
func (b *Bridge) ClosePosition(ctx context.Context, ticket uint64) error {
	if err := b.session.EnsureConnected(ctx); err != nil {
		return err
	}

	pos, err := b.lookupPosition(ctx, ticket)
	if err != nil {
		return err
	}

	// The opposite side closes: a long is closed by selling at bid, a short
	// by buying at ask.
	closeType := mt5.OrderTypeSell
	if pos.Type == mt5.OrderTypeSell {
		closeType = mt5.OrderTypeBuy
	}

	tick, err := b.fetchTick(ctx, pos.Symbol)
	if err != nil {
		return err
	}

	price := tick.Bid
	if closeType == mt5.OrderTypeBuy {
		price = tick.Ask
	}

	result, err := b.client().OrderSend(ctx, &mt5.TradeRequest{
		Action:      mt5.TradeActionDeal,
		Symbol:      pos.Symbol,
		Volume:      pos.Volume,
		Type:        closeType,
		Position:    ticket,
		Price:       price,
		Deviation:   orderDeviation,
		Magic:       orderMagic,
		Comment:     closeComment,
		TypeTime:    mt5.OrderTimeGTC,
		TypeFilling: mt5.OrderFillingIOC,
	})
	if err != nil {
		return wrapError(KindSubmitFailed, err, "close submit failed")
	}
	if result == nil {
		return newError(KindSubmitFailed, "close submit failed")
	}
	if result.Retcode != mt5.RetcodeDone {
		return rejected("close", result)
	}

	b.log.Info("position closed", "ticket", ticket, "symbol", pos.Symbol, "volume", pos.Volume)
	return nil
}

// ModifyPosition rewrites a position's stop loss and take profit. Unflagged
// fields keep their current values; a flagged nil clears the level.
func (b *Bridge) ModifyPosition(ctx context.Context, req ModifyRequest) error {
	// Rejected before any connection or lookup work happens.
	if !req.UpdateSL && !req.UpdateTP {
		return newError(KindInvalidInput, "nothing to update: set update_sl and/or update_tp")
	}

	if err := b.session.EnsureConnected(ctx); err != nil {
		return err
	}

	pos, err := b.lookupPosition(ctx, req.Ticket)
	if err != nil {
		return err
	}

	if !b.client().SupportsAction(mt5.TradeActionSLTP) {
		return newError(KindCapabilityUnavailable, "terminal does not support SL/TP modification")
	}

	sl, tp := pos.SL, pos.TP
	if req.UpdateSL {
		sl = 0
		if req.StopLoss != nil {
			sl = *req.StopLoss
		}
	}
	if req.UpdateTP {
		tp = 0
		if req.TakeProfit != nil {
			tp = *req.TakeProfit
		}
	}

	result, err := b.client().OrderSend(ctx, &mt5.TradeRequest{
		Action:   mt5.TradeActionSLTP,
		Symbol:   pos.Symbol,
		Position: req.Ticket,
		SL:       sl,
		TP:       tp,
	})
	if err != nil {
		return wrapError(KindSubmitFailed, err, "modify submit failed")
	}
	if result == nil {
		return newError(KindSubmitFailed, "modify submit failed")
	}
	if result.Retcode != mt5.RetcodeDone {
		return rejected("modify", result)
	}

	b.log.Info("position modified", "ticket", req.Ticket, "sl", sl, "tp", tp)
	return nil
}

// lookupPosition resolves a ticket to its open position, classifying both
// lookup failure and absence as not found.
func (b *Bridge) lookupPosition(ctx context.Context, ticket uint64) (*mt5.Position, error) {
	pos, err := b.client().PositionByTicket(ctx, ticket)
	if err != nil {
		return nil, wrapError(KindNotFound, err, "position %d not found", ticket)
	}
	if pos == nil {
		return nil, newError(KindNotFound, "position %d not found", ticket)
	}
	return pos, nil
}

// rejected builds the REJECTED failure for a non-done trade result, keeping
// the terminal's comment and return code verbatim.
func rejected(op string, result *mt5.TradeResult) *Error {
	e := newError(KindRejected, "%s rejected: %s (%d)", op, result.Comment, result.Retcode)
	e.Retcode = result.Retcode
	return e
}

func convertPosition(p *mt5.Position) domain.Position {
	return domain.Position{
		Ticket:       p.Ticket,
		Symbol:       p.Symbol,
		Side:         sideOf(p.Type),
		Volume:       p.Volume,
		PriceOpen:    p.PriceOpen,
		StopLoss:     p.SL,
		TakeProfit:   p.TP,
		PriceCurrent: p.PriceCurrent,
		Profit:       p.Profit,
		Time:         p.Time,
	}
}

// sideOf maps the native order type onto the two-sided position model;
// anything that is not a buy reports as a sell.
func sideOf(t mt5.OrderType) domain.Side {
	if t == mt5.OrderTypeBuy {
		return domain.SideBuy
	}
	return domain.SideSell
}
