package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/portfolio"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fillAt(day int, side domain.Side, price float64, qty int, commission float64) *domain.Fill {
	return &domain.Fill{
		Order:      domain.Order{Symbol: "SPY", Side: side, Type: domain.OrderTypeMarket, Qty: qty},
		Price:      price,
		Qty:        qty,
		Timestamp:  day0.AddDate(0, 0, day),
		Commission: commission,
	}
}

func TestBuildTradesPairsRoundTrips(t *testing.T) {
	fills := []*domain.Fill{
		fillAt(0, domain.SideBuy, 100, 10, 0),
		fillAt(5, domain.SideSell, 110, 10, 0),
		fillAt(10, domain.SideBuy, 105, 20, 0),
		fillAt(12, domain.SideSell, 100, 20, 0),
	}

	trades := BuildTrades(fills)
	if len(trades) != 2 {
		t.Fatalf("trade count = %d, want 2", len(trades))
	}

	first := trades[0]
	if math.Abs(first.PnL-100) > 1e-9 {
		t.Errorf("first trade PnL = %v, want 100", first.PnL)
	}
	if math.Abs(first.PnLPct-10) > 1e-9 {
		t.Errorf("first trade PnLPct = %v, want 10", first.PnLPct)
	}
	if got := first.Duration.Hours() / 24; got != 5 {
		t.Errorf("first trade duration = %v days, want 5", got)
	}

	second := trades[1]
	if math.Abs(second.PnL-(-100)) > 1e-9 {
		t.Errorf("second trade PnL = %v, want -100", second.PnL)
	}
}

func TestBuildTradesEntryUsesNetPrice(t *testing.T) {
	// $10 commission across 10 shares raises the effective entry by $1.
	fills := []*domain.Fill{
		fillAt(0, domain.SideBuy, 100, 10, 10),
		fillAt(1, domain.SideSell, 110, 10, 0),
	}
	trades := BuildTrades(fills)
	if len(trades) != 1 {
		t.Fatalf("trade count = %d, want 1", len(trades))
	}
	if math.Abs(trades[0].EntryPrice-101) > 1e-9 {
		t.Errorf("entry price = %v, want cost-inclusive 101", trades[0].EntryPrice)
	}
	if math.Abs(trades[0].PnL-90) > 1e-9 {
		t.Errorf("PnL = %v, want 90", trades[0].PnL)
	}
}

func TestBuildTradesAveragesIn(t *testing.T) {
	fills := []*domain.Fill{
		fillAt(0, domain.SideBuy, 100, 10, 0),
		fillAt(1, domain.SideBuy, 120, 10, 0),
		fillAt(2, domain.SideSell, 115, 20, 0),
	}
	trades := BuildTrades(fills)
	if len(trades) != 1 {
		t.Fatalf("trade count = %d, want 1", len(trades))
	}
	if math.Abs(trades[0].EntryPrice-110) > 1e-9 {
		t.Errorf("averaged entry = %v, want 110", trades[0].EntryPrice)
	}
	if math.Abs(trades[0].PnL-100) > 1e-9 {
		t.Errorf("PnL = %v, want 100", trades[0].PnL)
	}
}

func TestBuildTradesPartialExit(t *testing.T) {
	fills := []*domain.Fill{
		fillAt(0, domain.SideBuy, 100, 20, 0),
		fillAt(1, domain.SideSell, 105, 5, 0),
		fillAt(2, domain.SideSell, 110, 15, 0),
	}
	trades := BuildTrades(fills)
	if len(trades) != 2 {
		t.Fatalf("trade count = %d, want 2", len(trades))
	}
	if trades[0].Qty != 5 || trades[1].Qty != 15 {
		t.Errorf("trade quantities = %d,%d, want 5,15", trades[0].Qty, trades[1].Qty)
	}
}

func TestBuildTradesOpenEntryProducesNoTrade(t *testing.T) {
	fills := []*domain.Fill{fillAt(0, domain.SideBuy, 100, 10, 0)}
	if trades := BuildTrades(fills); len(trades) != 0 {
		t.Errorf("open entry produced %d trades, want 0", len(trades))
	}
}

// historyPortfolio builds a portfolio whose equity history tracks the given
// per-day equities with no open positions.
func historyPortfolio(equities []float64) *portfolio.Portfolio {
	p := portfolio.New(equities[0])
	for i, eq := range equities {
		// Adjust cash directly to shape the curve, then snapshot it.
		p.Cash = eq
		p.RecordEquity(day0.AddDate(0, 0, i), nil)
	}
	return p
}

func TestComputeTotalReturnAndDrawdown(t *testing.T) {
	p := historyPortfolio([]float64{100, 110, 99, 121})
	r := Compute(p, nil)

	if math.Abs(r.TotalReturnPct-21) > 1e-9 {
		t.Errorf("TotalReturnPct = %v, want 21", r.TotalReturnPct)
	}
	// Peak 110 to trough 99 is -10%.
	if math.Abs(r.MaxDrawdownPct-(-10)) > 1e-9 {
		t.Errorf("MaxDrawdownPct = %v, want -10", r.MaxDrawdownPct)
	}
	if r.DurationDays != 3 {
		t.Errorf("DurationDays = %d, want 3", r.DurationDays)
	}
}

func TestComputeCAGROneYearDoubles(t *testing.T) {
	p := portfolio.New(100)
	p.Cash = 100
	p.RecordEquity(day0, nil)
	p.Cash = 200
	p.RecordEquity(day0.AddDate(0, 0, 365), nil)

	r := Compute(p, nil)

	// 365 days is 365/365.25 years; CAGR is a hair above 100%.
	want := (math.Pow(2, 365.25/365) - 1) * 100
	if math.Abs(r.CAGR-want) > 1e-6 {
		t.Errorf("CAGR = %v, want %v", r.CAGR, want)
	}
}

func TestComputeSharpeZeroWhenFlat(t *testing.T) {
	p := historyPortfolio([]float64{100, 100, 100, 100})
	r := Compute(p, nil)
	if r.SharpeRatio != 0 {
		t.Errorf("SharpeRatio for flat curve = %v, want 0", r.SharpeRatio)
	}
	if r.SortinoRatio != 0 {
		t.Errorf("SortinoRatio for flat curve = %v, want 0", r.SortinoRatio)
	}
}

func TestComputeSharpe(t *testing.T) {
	p := historyPortfolio([]float64{100, 101, 99.99, 101})
	r := Compute(p, nil)

	rets := []float64{0.01, -0.01, 101/99.99 - 1}
	mean := (rets[0] + rets[1] + rets[2]) / 3
	var ss float64
	for _, x := range rets {
		ss += (x - mean) * (x - mean)
	}
	std := math.Sqrt(ss / 2)
	want := mean / std * math.Sqrt(252)

	if math.Abs(r.SharpeRatio-want) > 1e-9 {
		t.Errorf("SharpeRatio = %v, want %v", r.SharpeRatio, want)
	}
	// A single negative return has no sample deviation; Sortino stays 0.
	if r.SortinoRatio != 0 {
		t.Errorf("SortinoRatio = %v, want 0 with one downside bar", r.SortinoRatio)
	}
}

func TestComputeTradeStats(t *testing.T) {
	p := historyPortfolio([]float64{100, 110, 105, 120})

	// Two wins (+100, +50) and one loss (-50) via the fill history.
	fills := []*domain.Fill{
		fillAt(0, domain.SideBuy, 100, 10, 0),
		fillAt(1, domain.SideSell, 110, 10, 0),
		fillAt(2, domain.SideBuy, 100, 10, 0),
		fillAt(3, domain.SideSell, 105, 10, 0),
		fillAt(4, domain.SideBuy, 100, 10, 0),
		fillAt(5, domain.SideSell, 95, 10, 0),
	}

	r := Compute(p, fills)
	if r.NumTrades != 3 || r.NumWins != 2 || r.NumLosses != 1 {
		t.Fatalf("trades/wins/losses = %d/%d/%d, want 3/2/1", r.NumTrades, r.NumWins, r.NumLosses)
	}
	if math.Abs(r.WinRatePct-200.0/3) > 1e-9 {
		t.Errorf("WinRatePct = %v, want 66.67", r.WinRatePct)
	}
	if math.Abs(r.AvgWin-75) > 1e-9 {
		t.Errorf("AvgWin = %v, want 75", r.AvgWin)
	}
	if math.Abs(r.AvgLoss-(-50)) > 1e-9 {
		t.Errorf("AvgLoss = %v, want -50", r.AvgLoss)
	}
	if math.Abs(r.ProfitFactor-3) > 1e-9 {
		t.Errorf("ProfitFactor = %v, want 3", r.ProfitFactor)
	}
}

func TestReportValue(t *testing.T) {
	r := Report{SharpeRatio: 1.5, NumTrades: 7}

	if v, ok := r.Value("sharpe_ratio"); !ok || v != 1.5 {
		t.Errorf("Value(sharpe_ratio) = %v, %v", v, ok)
	}
	if v, ok := r.Value("num_trades"); !ok || v != 7 {
		t.Errorf("Value(num_trades) = %v, %v", v, ok)
	}
	if _, ok := r.Value("nonsense"); ok {
		t.Error("Value accepted an unsupported metric name")
	}
}
