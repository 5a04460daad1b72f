package strategy

import (
	"math"

	"github.com/GetwaveS201/claude-trading-strategies/internal/broker"
	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/portfolio"
)

// Context is the capability handed to a strategy on each bar: read the
// current bar, query portfolio state marked at the current close, and
// submit orders for resolution on the next bar. A fresh Context is built
// per bar; strategies must not retain it.
type Context struct {
	Symbol   string
	Bar      domain.Bar
	BarIndex int

	portfolio *portfolio.Portfolio
	broker    *broker.Broker
}

// NewContext builds the per-bar context. Called by the runner.
func NewContext(symbol string, bar domain.Bar, barIndex int, p *portfolio.Portfolio, b *broker.Broker) *Context {
	return &Context{
		Symbol:    symbol,
		Bar:       bar,
		BarIndex:  barIndex,
		portfolio: p,
		broker:    b,
	}
}

// Close returns the current bar's closing price.
func (c *Context) Close() float64 { return c.Bar.Close }

// Open returns the current bar's opening price.
func (c *Context) Open() float64 { return c.Bar.Open }

// High returns the current bar's high.
func (c *Context) High() float64 { return c.Bar.High }

// Low returns the current bar's low.
func (c *Context) Low() float64 { return c.Bar.Low }

// Volume returns the current bar's volume.
func (c *Context) Volume() int64 { return c.Bar.Volume }

// Equity returns portfolio equity marked at the current bar's close.
func (c *Context) Equity() float64 {
	return c.portfolio.Equity(map[string]float64{c.Symbol: c.Bar.Close})
}

// Cash returns the portfolio's cash balance.
func (c *Context) Cash() float64 { return c.portfolio.Cash }

// PositionQty returns the current position quantity for the context symbol.
func (c *Context) PositionQty() int {
	return c.portfolio.Position(c.Symbol).Qty
}

// Buy submits a market buy for an explicit share count. Submitting zero or
// fewer shares is a no-op.
func (c *Context) Buy(qty int) error {
	return c.submit(domain.SideBuy, domain.OrderTypeMarket, qty, 0, 0)
}

// BuyPercent sizes a market buy as a percentage of current equity:
// floor(equity * pct/100 / close) shares.
func (c *Context) BuyPercent(pct float64) error {
	qty := int(math.Floor(c.Equity() * (pct / 100.0) / c.Bar.Close))
	return c.Buy(qty)
}

// BuyRisk sizes a market buy so that riskPct of equity is lost if price
// moves stopDistance against the entry: floor(equity * riskPct/100 /
// stopDistance) shares. Without a positive stop distance the sizing is
// undefined and the call is a no-op.
func (c *Context) BuyRisk(riskPct, stopDistance float64) error {
	if stopDistance <= 0 {
		return nil
	}
	qty := int(math.Floor(c.Equity() * (riskPct / 100.0) / stopDistance))
	return c.Buy(qty)
}

// Sell submits a market sell for an explicit share count.
func (c *Context) Sell(qty int) error {
	return c.submit(domain.SideSell, domain.OrderTypeMarket, qty, 0, 0)
}

// SellAll closes the entire current position.
func (c *Context) SellAll() error {
	return c.Sell(c.PositionQty())
}

// BuyLimit submits a buy limit order at the given price.
func (c *Context) BuyLimit(qty int, limitPrice float64) error {
	return c.submit(domain.SideBuy, domain.OrderTypeLimit, qty, limitPrice, 0)
}

// SellLimit submits a sell limit order at the given price.
func (c *Context) SellLimit(qty int, limitPrice float64) error {
	return c.submit(domain.SideSell, domain.OrderTypeLimit, qty, limitPrice, 0)
}

// BuyStop submits a buy stop (breakout entry) at the given price.
func (c *Context) BuyStop(qty int, stopPrice float64) error {
	return c.submit(domain.SideBuy, domain.OrderTypeStop, qty, 0, stopPrice)
}

// SellStop submits a sell stop (protective stop) at the given price.
func (c *Context) SellStop(qty int, stopPrice float64) error {
	return c.submit(domain.SideSell, domain.OrderTypeStop, qty, 0, stopPrice)
}

func (c *Context) submit(side domain.Side, typ domain.OrderType, qty int, limit, stop float64) error {
	if qty <= 0 {
		return nil
	}
	return c.broker.Submit(&domain.Order{
		Symbol:     c.Symbol,
		Side:       side,
		Type:       typ,
		Qty:        qty,
		LimitPrice: limit,
		StopPrice:  stop,
		CreatedAt:  c.Bar.Timestamp,
	})
}
