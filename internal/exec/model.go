// Package exec implements the fill-matching execution model: pure functions
// that decide whether, how, and at what price an order placed on bar t fills
// against bar t+1, and what the fill costs. The model holds only
// configuration; it never mutates portfolio or broker state.
package exec

import (
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
)

// Model prices order fills against the next bar and applies the cost model.
//
// Matching rules:
//   - market: fills fully at the next bar's open (or close when
//     FillAtNextOpen is false)
//   - limit buy: fills iff next low <= limit, at min(limit, next open)
//   - limit sell: fills iff next high >= limit, at max(limit, next open)
//   - stop buy: fills iff next high >= stop, at max(stop, next open)
//   - stop sell: fills iff next low <= stop, at min(stop, next open)
//
// Orders never fill against the bar they were placed on.
type Model struct {
	CommissionPerFill float64
	CommissionPct     float64 // percent of trade value, e.g. 0.1 means 0.1%
	SlippageBps       float64 // basis points of trade value
	SlippageFixed     float64 // per share
	FillAtNextOpen    bool    // false fills market orders at next close
}

// DefaultModel returns the cost model used when a runner is configured with
// zero values: $1 per fill, 1bp slippage, market fills at next open.
func DefaultModel() Model {
	return Model{
		CommissionPerFill: 1.0,
		SlippageBps:       1.0,
		FillAtNextOpen:    true,
	}
}

// Commission returns the cost of one fill: the fixed per-fill charge plus
// the percentage of trade value.
func (m Model) Commission(price float64, qty int) float64 {
	return m.CommissionPerFill + price*float64(qty)*(m.CommissionPct/100.0)
}

// Slippage returns the assumed adverse price impact, always a cost: added
// for buys, subtracted from proceeds for sells.
func (m Model) Slippage(price float64, qty int) float64 {
	return price*float64(qty)*(m.SlippageBps/10000.0) + m.SlippageFixed*float64(qty)
}

// TryFill attempts to resolve an order against the next bar. It returns nil
// when the order does not fill; that is a normal outcome, not an error. A
// nil next bar never produces a fill.
func (m Model) TryFill(order *domain.Order, next *domain.Bar, ts time.Time) *domain.Fill {
	if next == nil {
		return nil
	}

	var price float64
	switch order.Type {
	case domain.OrderTypeMarket:
		if m.FillAtNextOpen {
			price = next.Open
		} else {
			price = next.Close
		}

	case domain.OrderTypeLimit:
		if order.Side == domain.SideBuy {
			if next.Low > order.LimitPrice {
				return nil
			}
			// A favorable gap down fills at the open, below the limit.
			price = min(order.LimitPrice, next.Open)
		} else {
			if next.High < order.LimitPrice {
				return nil
			}
			price = max(order.LimitPrice, next.Open)
		}

	case domain.OrderTypeStop:
		if order.Side == domain.SideBuy {
			if next.High < order.StopPrice {
				return nil
			}
			price = max(order.StopPrice, next.Open)
		} else {
			if next.Low > order.StopPrice {
				return nil
			}
			price = min(order.StopPrice, next.Open)
		}

	default:
		return nil
	}

	return &domain.Fill{
		Order:      *order,
		Price:      price,
		Qty:        order.Qty,
		Timestamp:  ts,
		Commission: m.Commission(price, order.Qty),
		Slippage:   m.Slippage(price, order.Qty),
	}
}
