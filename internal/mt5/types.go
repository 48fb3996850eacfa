package mt5

// Rate is one native OHLCV record: bar open time in epoch seconds, prices,
// tick volume, spread in points, and real volume.
type Rate struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume int64   `json:"tick_volume"`
	Spread     int32   `json:"spread"`
	RealVolume int64   `json:"real_volume"`
}

// Tick mirrors the terminal's symbol tick info.
type Tick struct {
	Time   int64   `json:"time"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume int64   `json:"volume"`
}

// Position mirrors one entry of the terminal's open-position list.
type Position struct {
	Ticket       uint64    `json:"ticket"`
	Symbol       string    `json:"symbol"`
	Type         OrderType `json:"type"`
	Volume       float64   `json:"volume"`
	PriceOpen    float64   `json:"price_open"`
	SL           float64   `json:"sl"`
	TP           float64   `json:"tp"`
	PriceCurrent float64   `json:"price_current"`
	Profit       float64   `json:"profit"`
	Time         int64     `json:"time"`
}

// TradeRequest mirrors the terminal's trade request structure. SL and TP are
// always sent; zero clears the level on an SLTP action.
type TradeRequest struct {
	Action      TradeAction  `json:"action"`
	Symbol      string       `json:"symbol,omitempty"`
	Volume      float64      `json:"volume,omitempty"`
	Type        OrderType    `json:"type"`
	Price       float64      `json:"price,omitempty"`
	SL          float64      `json:"sl"`
	TP          float64      `json:"tp"`
	Deviation   int          `json:"deviation,omitempty"`
	Magic       int64        `json:"magic,omitempty"`
	Comment     string       `json:"comment,omitempty"`
	Position    uint64       `json:"position,omitempty"`
	TypeTime    OrderTime    `json:"type_time"`
	TypeFilling OrderFilling `json:"type_filling"`
}

// TradeResult mirrors the terminal's trade result structure.
type TradeResult struct {
	Retcode uint32  `json:"retcode"`
	Deal    uint64  `json:"deal,omitempty"`
	Order   uint64  `json:"order,omitempty"`
	Volume  float64 `json:"volume,omitempty"`
	Price   float64 `json:"price,omitempty"`
	Comment string  `json:"comment,omitempty"`
}
