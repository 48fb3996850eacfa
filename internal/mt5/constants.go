package mt5

import "time"

// Timeframe is the terminal's chart period encoding. Minute periods are the
// minute count; hour and longer periods use flag bits, so the values below
// are the exact wire constants.
type Timeframe int

// Supported chart periods.
const (
	TimeframeM1  Timeframe = 1
	TimeframeM5  Timeframe = 5
	TimeframeM15 Timeframe = 15
	TimeframeM30 Timeframe = 30
	TimeframeH1  Timeframe = 16385
	TimeframeH4  Timeframe = 16388
	TimeframeD1  Timeframe = 16408
	TimeframeW1  Timeframe = 32769
	TimeframeMN1 Timeframe = 49153
)

// Duration returns the bar length. Months use a 30-day approximation.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeM1:
		return time.Minute
	case TimeframeM5:
		return 5 * time.Minute
	case TimeframeM15:
		return 15 * time.Minute
	case TimeframeM30:
		return 30 * time.Minute
	case TimeframeH1:
		return time.Hour
	case TimeframeH4:
		return 4 * time.Hour
	case TimeframeD1:
		return 24 * time.Hour
	case TimeframeW1:
		return 7 * 24 * time.Hour
	case TimeframeMN1:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// OrderType is the terminal's order direction encoding.
type OrderType int

// Market order directions.
const (
	OrderTypeBuy  OrderType = 0
	OrderTypeSell OrderType = 1
)

// TradeAction selects the operation a trade request performs.
type TradeAction int

// Trade request actions.
const (
	TradeActionDeal    TradeAction = 1
	TradeActionPending TradeAction = 5
	TradeActionSLTP    TradeAction = 6
	TradeActionModify  TradeAction = 7
	TradeActionRemove  TradeAction = 8
	TradeActionCloseBy TradeAction = 10
)

// OrderTime is the order expiration policy.
type OrderTime int

// Expiration policies.
const (
	OrderTimeGTC          OrderTime = 0
	OrderTimeDay          OrderTime = 1
	OrderTimeSpecified    OrderTime = 2
	OrderTimeSpecifiedDay OrderTime = 3
)

// OrderFilling is the order fill policy.
type OrderFilling int

// Fill policies.
const (
	OrderFillingFOK    OrderFilling = 0
	OrderFillingIOC    OrderFilling = 1
	OrderFillingReturn OrderFilling = 2
)

// Trade server return codes.
const (
	RetcodeRequote       uint32 = 10004
	RetcodeReject        uint32 = 10006
	RetcodeCancel        uint32 = 10007
	RetcodePlaced        uint32 = 10008
	RetcodeDone          uint32 = 10009
	RetcodeDonePartial   uint32 = 10010
	RetcodeError         uint32 = 10011
	RetcodeTimeout       uint32 = 10012
	RetcodeInvalid       uint32 = 10013
	RetcodeInvalidVolume uint32 = 10014
	RetcodeInvalidPrice  uint32 = 10015
	RetcodeInvalidStops  uint32 = 10016
	RetcodeTradeDisabled uint32 = 10017
	RetcodeMarketClosed  uint32 = 10018
	RetcodeNoMoney       uint32 = 10019
	RetcodePriceChanged  uint32 = 10020
	RetcodePriceOff      uint32 = 10021
)

// Terminal last-error codes, reported on failed initialize and data calls.
const (
	CodeOK                  = 1
	CodeFail                = -1
	CodeInvalidParams       = -2
	CodeNotFound            = -4
	CodeAutoTradingDisabled = -8
	CodeInternalFailSend    = -10001
	CodeInternalFailReceive = -10002
	CodeInternalFailInit    = -10003
	CodeInternalFailConnect = -10004
	CodeInternalFailTimeout = -10005
)
