// Package domain defines the value objects exchanged between the bridge and
// its callers: market data records and open positions. All values are
// transient; nothing here outlives the request that produced it.
package domain

// Side identifies the direction of an order or position.
type Side string

// Order and position directions.
const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Bar is one OHLCV record for a symbol at a fixed timeframe. Time is the bar
// open in epoch seconds; Spread is quoted in points.
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

// Tick is the most recent quote for a symbol.
type Tick struct {
	Time   int64   `json:"time"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume int64   `json:"volume"`
}

// Position is one open position as reported by the terminal. StopLoss and
// TakeProfit are price levels; zero means the level is not set.
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
