package strategy

import (
	"testing"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/broker"
	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/exec"
	"github.com/GetwaveS201/claude-trading-strategies/internal/portfolio"
)

// stubStrategy is a minimal Strategy implementation used in registry tests.
type stubStrategy struct {
	name string
}

func (s *stubStrategy) Name() string          { return s.name }
func (s *stubStrategy) OnStart() error        { return nil }
func (s *stubStrategy) OnBar(_ *Context) error { return nil }
func (s *stubStrategy) OnEnd() error          { return nil }

func TestRegistryRegisterAndNew(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func(_ Params) (Strategy, error) {
		return &stubStrategy{name: "stub"}, nil
	})

	s, err := r.New("stub", nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if s.Name() != "stub" {
		t.Errorf("New returned strategy with Name() = %q, want %q", s.Name(), "stub")
	}
}

func TestRegistryNew_Unknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New("nonexistent", nil); err == nil {
		t.Error("New returned nil error for unregistered strategy")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register("beta", func(_ Params) (Strategy, error) { return &stubStrategy{name: "beta"}, nil })
	r.Register("alpha", func(_ Params) (Strategy, error) { return &stubStrategy{name: "alpha"}, nil })

	names := r.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List returned %v, want [alpha beta]", names)
	}
}

func TestParamsClone(t *testing.T) {
	p := Params{"fast": 5}
	q := p.Clone()
	q["fast"] = 10
	if p["fast"] != 5 {
		t.Error("Clone shares storage with the original")
	}
}

func newTestContext(close float64, cash float64) (*Context, *broker.Broker) {
	p := portfolio.New(cash)
	b := broker.New(p, exec.Model{FillAtNextOpen: true})
	bar := domain.Bar{
		Symbol:    "SPY",
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:      close, High: close, Low: close, Close: close, Volume: 1000,
	}
	return NewContext("SPY", bar, 0, p, b), b
}

func TestContextBuyPercentSizing(t *testing.T) {
	// equity 100000, 95% at close 100 => floor(95000/100) = 950 shares.
	c, b := newTestContext(100, 100000)
	if err := c.BuyPercent(95); err != nil {
		t.Fatalf("BuyPercent returned error: %v", err)
	}
	if b.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", b.PendingCount())
	}

	next := &domain.Bar{Symbol: "SPY", Timestamp: c.Bar.Timestamp.AddDate(0, 0, 1), Open: 100, High: 100, Low: 100, Close: 100}
	b.ProcessOrders(&c.Bar, next, next.Timestamp)
	fills := b.Fills()
	if len(fills) != 1 || fills[0].Qty != 950 {
		t.Fatalf("fill qty = %v, want 950", fills)
	}
}

func TestContextBuyRiskSizing(t *testing.T) {
	// equity 100000, risk 1% with $2 stop distance => floor(1000/2) = 500.
	c, b := newTestContext(100, 100000)
	if err := c.BuyRisk(1.0, 2.0); err != nil {
		t.Fatalf("BuyRisk returned error: %v", err)
	}
	if b.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", b.PendingCount())
	}
}

func TestContextBuyRiskWithoutStopDistanceIsNoop(t *testing.T) {
	c, b := newTestContext(100, 100000)
	if err := c.BuyRisk(1.0, 0); err != nil {
		t.Fatalf("BuyRisk returned error: %v", err)
	}
	if b.PendingCount() != 0 {
		t.Error("BuyRisk without stop distance submitted an order")
	}
}

func TestContextSellAllClosesPosition(t *testing.T) {
	c, b := newTestContext(100, 100000)

	// Establish a position directly through the portfolio.
	b.Portfolio.ApplyFill(&domain.Fill{
		Order: domain.Order{Symbol: "SPY", Side: domain.SideBuy, Type: domain.OrderTypeMarket, Qty: 25},
		Price: 100, Qty: 25,
	})

	if err := c.SellAll(); err != nil {
		t.Fatalf("SellAll returned error: %v", err)
	}
	next := &domain.Bar{Symbol: "SPY", Timestamp: c.Bar.Timestamp.AddDate(0, 0, 1), Open: 100, High: 100, Low: 100, Close: 100}
	b.ProcessOrders(&c.Bar, next, next.Timestamp)

	if pos := b.Portfolio.Position("SPY"); !pos.IsFlat() {
		t.Errorf("position after SellAll = %d, want flat", pos.Qty)
	}
}

func TestContextSellAllWhenFlatIsNoop(t *testing.T) {
	c, b := newTestContext(100, 100000)
	if err := c.SellAll(); err != nil {
		t.Fatalf("SellAll returned error: %v", err)
	}
	if b.PendingCount() != 0 {
		t.Error("SellAll with no position submitted an order")
	}
}
