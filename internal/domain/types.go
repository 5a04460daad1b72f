// Package domain defines the value types shared across the backtesting
// engine: bars, orders, fills, positions, equity snapshots, and round-trip
// trades.
package domain

import (
	"fmt"
	"time"
)

// Side is the direction of an order.
type Side string

// Order sides.
const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType identifies how an order is matched against the next bar.
type OrderType string

// Order types.
const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
	OrderTypeStop   OrderType = "stop"
)

// Bar is one OHLCV observation for a fixed time interval. Bars for one
// symbol are strictly increasing in timestamp with no duplicates.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Order represents trading intent. Orders are created while bar t is current
// and resolve (fill or drop) while bar t+1 is processed; they never survive
// past one bar boundary.
type Order struct {
	// ID is assigned by the broker on submission, monotonically increasing.
	ID         int64
	Symbol     string
	Side       Side
	Type       OrderType
	Qty        int
	LimitPrice float64 // required when Type == OrderTypeLimit
	StopPrice  float64 // required when Type == OrderTypeStop
	CreatedAt  time.Time
}

// Validate checks the order's construction invariants. A violation is a
// configuration error and is surfaced before any simulation runs.
func (o *Order) Validate() error {
	if o.Qty <= 0 {
		return fmt.Errorf("order quantity must be positive, got %d", o.Qty)
	}
	if o.Type == OrderTypeLimit && o.LimitPrice <= 0 {
		return fmt.Errorf("limit order requires a limit price")
	}
	if o.Type == OrderTypeStop && o.StopPrice <= 0 {
		return fmt.Errorf("stop order requires a stop price")
	}
	switch o.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("unknown order side %q", o.Side)
	}
	return nil
}

// Fill is the resolved execution of an Order. Fills are created only by
// successful order resolution and are immutable thereafter.
type Fill struct {
	// ID is assigned by the broker, monotonically increasing.
	ID         int64
	Order      Order
	Price      float64
	Qty        int
	Timestamp  time.Time
	Commission float64
	Slippage   float64
}

// TotalCost returns gross value plus commission and slippage.
func (f *Fill) TotalCost() float64 {
	return f.Price*float64(f.Qty) + f.Commission + f.Slippage
}

// NetPrice returns the effective per-share price including all costs.
func (f *Fill) NetPrice() float64 {
	if f.Qty <= 0 {
		return 0
	}
	return f.TotalCost() / float64(f.Qty)
}

// Position tracks the signed quantity and volume-weighted average entry
// price for one symbol. This engine is long-only, so Qty never goes
// negative.
type Position struct {
	Symbol   string
	Qty      int
	AvgPrice float64
}

// IsFlat reports whether the position is closed.
func (p *Position) IsFlat() bool {
	return p.Qty == 0
}

// ApplyFill mutates the position from a fill. Buys average in at the fill's
// net (cost-inclusive) price; sells reduce quantity and reset the average
// price when the position returns to flat.
func (p *Position) ApplyFill(f *Fill) {
	if f.Order.Side == SideBuy {
		total := float64(p.Qty)*p.AvgPrice + f.TotalCost()
		p.Qty += f.Qty
		if p.Qty > 0 {
			p.AvgPrice = total / float64(p.Qty)
		} else {
			p.AvgPrice = 0
		}
		return
	}
	p.Qty -= f.Qty
	if p.Qty == 0 {
		p.AvgPrice = 0
	}
}

// EquitySnapshot is one per-bar record of the portfolio's state. Snapshots
// are strictly time-ordered and append-only.
type EquitySnapshot struct {
	Timestamp   time.Time
	Equity      float64
	Cash        float64
	MarketValue float64
}

// Trade is a round-trip entry→exit pair reconstructed from the fill
// sequence for reporting. The kernel itself never consumes trades.
type Trade struct {
	Symbol     string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Qty        int
	PnL        float64
	PnLPct     float64
	Duration   time.Duration
}
