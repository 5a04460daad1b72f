// Package broker owns the pending-order queue and fill history for one
// backtest run, orchestrating the execution model against the portfolio on
// every bar step.
package broker

import (
	"fmt"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/exec"
	"github.com/GetwaveS201/claude-trading-strategies/internal/portfolio"
)

// Broker resolves orders placed on bar t against bar t+1.
//
// Orders have a single-bar lifetime: ProcessOrders attempts every pending
// order once and then unconditionally clears the queue. An unmatched limit
// or stop order is dropped, not retried on later bars. This is a stated
// policy of the engine, not an accident; persistent orders would need an
// explicit cancellation model this simulator does not have.
type Broker struct {
	Portfolio *portfolio.Portfolio
	Model     exec.Model

	pending      []*domain.Order
	fills        []*domain.Fill
	orderCounter int64
	fillCounter  int64
}

// New creates a broker bound to one portfolio and execution model.
func New(p *portfolio.Portfolio, model exec.Model) *Broker {
	return &Broker{Portfolio: p, Model: model}
}

// Submit validates the order, assigns it the next monotonic id, and
// enqueues it for resolution on the following bar.
func (b *Broker) Submit(order *domain.Order) error {
	if err := order.Validate(); err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	order.ID = b.orderCounter
	b.orderCounter++
	b.pending = append(b.pending, order)
	return nil
}

// ProcessOrders attempts to resolve every pending order against the next
// bar, applies successful fills to the portfolio, and clears the pending
// queue regardless of outcome. ts is the fill timestamp, normally the next
// bar's timestamp.
func (b *Broker) ProcessOrders(current, next *domain.Bar, ts time.Time) {
	_ = current // decisions were made on this bar; fills only see next
	for _, order := range b.pending {
		fill := b.Model.TryFill(order, next, ts)
		if fill == nil {
			continue
		}
		fill.ID = b.fillCounter
		b.fillCounter++
		b.Portfolio.ApplyFill(fill)
		b.fills = append(b.fills, fill)
	}
	b.pending = b.pending[:0]
}

// Fills returns the ordered fill history.
func (b *Broker) Fills() []*domain.Fill {
	return b.fills
}

// PendingCount returns the number of orders awaiting the next bar.
func (b *Broker) PendingCount() int {
	return len(b.pending)
}
