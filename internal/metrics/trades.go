package metrics

import (
	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
)

// BuildTrades greedily pairs the ordered fill sequence into round-trip
// trades, per symbol. Buys open or average into a lot at the fill's net
// (cost-inclusive) price; each sell closes against the open lot, allowing
// partial exits. An entry still open at the end of the run produces no
// trade.
func BuildTrades(fills []*domain.Fill) []domain.Trade {
	type lot struct {
		qty      int
		avgNet   float64
		entering domain.Fill // first fill of the current lot
	}
	open := make(map[string]*lot)

	var trades []domain.Trade
	for _, f := range fills {
		symbol := f.Order.Symbol
		l := open[symbol]

		if f.Order.Side == domain.SideBuy {
			if l == nil || l.qty == 0 {
				open[symbol] = &lot{qty: f.Qty, avgNet: f.NetPrice(), entering: *f}
				continue
			}
			// Average into the existing lot.
			total := float64(l.qty)*l.avgNet + float64(f.Qty)*f.NetPrice()
			l.qty += f.Qty
			l.avgNet = total / float64(l.qty)
			continue
		}

		// Sell with no open lot: nothing to pair against.
		if l == nil || l.qty == 0 {
			continue
		}

		exitQty := min(f.Qty, l.qty)
		entryPrice := l.avgNet
		exitPrice := f.Price

		trades = append(trades, domain.Trade{
			Symbol:     symbol,
			EntryTime:  l.entering.Timestamp,
			ExitTime:   f.Timestamp,
			EntryPrice: entryPrice,
			ExitPrice:  exitPrice,
			Qty:        exitQty,
			PnL:        (exitPrice - entryPrice) * float64(exitQty),
			PnLPct:     (exitPrice/entryPrice - 1) * 100,
			Duration:   f.Timestamp.Sub(l.entering.Timestamp),
		})

		l.qty -= exitQty
		if l.qty == 0 {
			delete(open, symbol)
		}
	}
	return trades
}
