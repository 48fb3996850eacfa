// Package httpapi exposes the bridge operations as a JSON REST API for
// external trading clients.
package httpapi

// OrderBody is the request payload for POST /order. StopLoss and TakeProfit
// are price levels; zero leaves the level unset.
type OrderBody struct {
	Symbol     string  `json:"symbol" validate:"required"`
	Side       string  `json:"side" validate:"required,oneof=BUY SELL"`
	Volume     float64 `json:"volume" validate:"required,gt=0"`
	StopLoss   float64 `json:"sl" validate:"gte=0"`
	TakeProfit float64 `json:"tp" validate:"gte=0"`
	Comment    string  `json:"comment"`
}

// CloseBody is the request payload for POST /close.
type CloseBody struct {
	Ticket uint64 `json:"ticket" validate:"required"`
}

// ModifyBody is the request payload for POST /modify. Only flagged levels
// change; a flagged level with a null value is cleared.
type ModifyBody struct {
	Ticket     uint64   `json:"ticket" validate:"required"`
	StopLoss   *float64 `json:"sl" validate:"omitempty,gte=0"`
	TakeProfit *float64 `json:"tp" validate:"omitempty,gte=0"`
	UpdateSL   bool     `json:"update_sl"`
	UpdateTP   bool     `json:"update_tp"`
}

// HealthResponse reports process liveness and terminal connectivity.
type HealthResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
}

// OrderResponse confirms an executed market order.
type OrderResponse struct {
	Status string `json:"status"`
	Ticket uint64 `json:"ticket"`
}

// StatusResponse confirms an operation that returns no data.
type StatusResponse struct {
	Status string `json:"status"`
}
