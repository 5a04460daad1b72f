// Package portfolio tracks cash, per-symbol positions, and the equity
// snapshot history for one backtest run. Cash changes only by applying
// fills; equity queries are pure functions over current state and an
// externally supplied price map.
package portfolio

import (
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
)

// Portfolio is exclusively owned by one runner; nothing outside the kernel
// mutates it while a run is in progress.
type Portfolio struct {
	InitialCash float64
	Cash        float64

	positions map[string]*domain.Position
	history   []domain.EquitySnapshot
}

// New creates a portfolio holding only cash.
func New(initialCash float64) *Portfolio {
	return &Portfolio{
		InitialCash: initialCash,
		Cash:        initialCash,
		positions:   make(map[string]*domain.Position),
	}
}

// Position returns the position for a symbol, creating an empty one if none
// exists yet.
func (p *Portfolio) Position(symbol string) *domain.Position {
	pos, ok := p.positions[symbol]
	if !ok {
		pos = &domain.Position{Symbol: symbol}
		p.positions[symbol] = pos
	}
	return pos
}

// ApplyFill updates cash and the relevant position. Buys debit the full
// cost including commission and slippage; sells credit proceeds minus
// costs.
func (p *Portfolio) ApplyFill(fill *domain.Fill) {
	pos := p.Position(fill.Order.Symbol)
	if fill.Order.Side == domain.SideBuy {
		p.Cash -= fill.TotalCost()
	} else {
		proceeds := fill.Price * float64(fill.Qty)
		p.Cash += proceeds - fill.Commission - fill.Slippage
	}
	pos.ApplyFill(fill)
}

// MarketValue returns the total value of open positions marked at the
// supplied prices. Positions without a price are ignored.
func (p *Portfolio) MarketValue(prices map[string]float64) float64 {
	var total float64
	for symbol, pos := range p.positions {
		if pos.Qty <= 0 {
			continue
		}
		if price, ok := prices[symbol]; ok {
			total += float64(pos.Qty) * price
		}
	}
	return total
}

// Equity returns cash plus market value.
func (p *Portfolio) Equity(prices map[string]float64) float64 {
	return p.Cash + p.MarketValue(prices)
}

// Exposure returns market value as a fraction of equity, 0 when equity is
// not positive.
func (p *Portfolio) Exposure(prices map[string]float64) float64 {
	equity := p.Equity(prices)
	if equity <= 0 {
		return 0
	}
	return p.MarketValue(prices) / equity
}

// RecordEquity appends one snapshot. The runner calls this exactly once per
// bar, after order processing for that bar.
func (p *Portfolio) RecordEquity(ts time.Time, prices map[string]float64) {
	p.history = append(p.history, domain.EquitySnapshot{
		Timestamp:   ts,
		Equity:      p.Equity(prices),
		Cash:        p.Cash,
		MarketValue: p.MarketValue(prices),
	})
}

// History returns the append-only equity snapshot series.
func (p *Portfolio) History() []domain.EquitySnapshot {
	return p.history
}

// Positions returns all positions keyed by symbol, including flat ones.
func (p *Portfolio) Positions() map[string]*domain.Position {
	return p.positions
}
