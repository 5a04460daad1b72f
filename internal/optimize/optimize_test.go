package optimize

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/engine"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
)

// holdStrategy buys a fixed share of equity on the first bar and holds.
// The "pct" parameter exists so grid trials actually differ; "boom"
// forces a factory failure for error-path tests.
type holdStrategy struct {
	pct float64
}

func holdFactory(p strategy.Params) (strategy.Strategy, error) {
	if p.Float("boom", 0) != 0 {
		return nil, errors.New("boom requested")
	}
	return &holdStrategy{pct: p.Float("pct", 50)}, nil
}

func (s *holdStrategy) Name() string   { return "hold" }
func (s *holdStrategy) OnStart() error { return nil }
func (s *holdStrategy) OnEnd() error   { return nil }

func (s *holdStrategy) OnBar(ctx *strategy.Context) error {
	if ctx.BarIndex == 0 {
		return ctx.BuyPercent(s.pct)
	}
	return nil
}

func testBars(n int) []domain.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		open := 100 + float64(i)
		bars[i] = domain.Bar{
			Symbol:    "SPY",
			Timestamp: start.AddDate(0, 0, i),
			Open:      open,
			High:      open + 2,
			Low:       open - 1,
			Close:     open + 1,
			Volume:    1000,
		}
	}
	return bars
}

func newSearch(n int, grid Grid) *GridSearch {
	return &GridSearch{
		Factory: holdFactory,
		Symbol:  "SPY",
		Bars:    testBars(n),
		Config:  engine.DefaultConfig(),
		Grid:    grid,
	}
}

func TestGridCombinations(t *testing.T) {
	g := Grid{"fast": {5, 10}, "slow": {20, 30, 40}}
	combos := g.Combinations()
	if len(combos) != 6 {
		t.Fatalf("len(combos) = %d, want 6", len(combos))
	}
	// Sorted-key expansion: fast varies slowest.
	want := []string{
		"{fast=5 slow=20}", "{fast=5 slow=30}", "{fast=5 slow=40}",
		"{fast=10 slow=20}", "{fast=10 slow=30}", "{fast=10 slow=40}",
	}
	for i, c := range combos {
		if got := c.String(); got != want[i] {
			t.Errorf("combos[%d] = %q, want %q", i, got, want[i])
		}
	}
}

func TestGridCombinationsEmpty(t *testing.T) {
	combos := Grid{}.Combinations()
	if len(combos) != 1 || len(combos[0]) != 0 {
		t.Fatalf("empty grid combos = %v, want one empty param set", combos)
	}
}

func TestGridSearchRunsAllCombinations(t *testing.T) {
	s := newSearch(30, Grid{"pct": {10, 50, 90}})
	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	seen := map[string]bool{}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("trial %v failed: %v", r.Params, r.Err)
		}
		if r.TrialID == "" {
			t.Error("trial has empty id")
		}
		if seen[r.TrialID] {
			t.Errorf("duplicate trial id %s", r.TrialID)
		}
		seen[r.TrialID] = true
		if r.Report.InitialEquity != 100000 {
			t.Errorf("InitialEquity = %v, want 100000", r.Report.InitialEquity)
		}
	}
}

func TestGridSearchTrialsIndependent(t *testing.T) {
	s := newSearch(30, Grid{"pct": {50}})
	first, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first[0].Report != second[0].Report {
		t.Errorf("repeat run diverged: %+v vs %+v", first[0].Report, second[0].Report)
	}
}

func TestGridSearchRecordsTrialErrors(t *testing.T) {
	s := newSearch(30, Grid{"boom": {0, 1}})
	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	var failed, ok int
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	if failed != 1 || ok != 1 {
		t.Errorf("failed/ok = %d/%d, want 1/1", failed, ok)
	}
}

func TestGridSearchCancelledBetweenTrials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newSearch(30, Grid{"pct": {10, 50}})
	results, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0 after immediate cancel", len(results))
	}
}

func TestRankOrdersByMetricDescending(t *testing.T) {
	s := newSearch(30, Grid{"pct": {10, 90, 50}})
	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ranked, err := Rank(results, "total_return_pct")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	for i := 1; i < len(ranked); i++ {
		prev, _ := ranked[i-1].Report.Value("total_return_pct")
		cur, _ := ranked[i].Report.Value("total_return_pct")
		if prev < cur {
			t.Errorf("ranked[%d]=%v before ranked[%d]=%v", i-1, prev, i, cur)
		}
	}
	// Rising prices: the heaviest allocation returns the most.
	if got := ranked[0].Params.Float("pct", 0); got != 90 {
		t.Errorf("best pct = %v, want 90", got)
	}
}

func TestRankExcludesErrors(t *testing.T) {
	results := []Result{
		{Params: strategy.Params{"pct": 10}},
		{Params: strategy.Params{"pct": 20}, Err: fmt.Errorf("bad")},
	}
	ranked, err := Rank(results, "sharpe_ratio")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("len(ranked) = %d, want 1", len(ranked))
	}
}

func TestRankUnknownMetric(t *testing.T) {
	if _, err := Rank(nil, "no_such_metric"); err == nil {
		t.Fatal("Rank accepted unknown metric")
	}
}

func TestTopLimits(t *testing.T) {
	s := newSearch(30, Grid{"pct": {10, 50, 90}})
	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	top, err := Top(results, "total_return_pct", 2)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 2 {
		t.Errorf("len(top) = %d, want 2", len(top))
	}
}

func TestWalkForwardWindowCount(t *testing.T) {
	// 756+252 fits once in 1200 bars; stepping by 252 overshoots next.
	s := newSearch(1200, Grid{"pct": {50}})
	results, summary, err := WalkForward(context.Background(), s, WalkForwardConfig{
		TrainBars: 756,
		TestBars:  252,
		Metric:    "total_return_pct",
	})
	if err != nil {
		t.Fatalf("WalkForward: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want exactly 1 window", len(results))
	}
	if summary.NumWindows != 1 {
		t.Errorf("NumWindows = %d, want 1", summary.NumWindows)
	}
}

func TestWalkForwardRollsByTestSize(t *testing.T) {
	s := newSearch(10, Grid{"pct": {50}})
	results, _, err := WalkForward(context.Background(), s, WalkForwardConfig{
		TrainBars: 4,
		TestBars:  2,
		Metric:    "total_return_pct",
	})
	if err != nil {
		t.Fatalf("WalkForward: %v", err)
	}
	// Window starts 0, 2, 4; start 6 needs bars through 11.
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	bars := s.Bars
	for i, w := range results {
		start := i * 2
		if !w.TrainStart.Equal(bars[start].Timestamp) {
			t.Errorf("window %d TrainStart = %v, want %v", i, w.TrainStart, bars[start].Timestamp)
		}
		if !w.TestStart.Equal(bars[start+4].Timestamp) {
			t.Errorf("window %d TestStart = %v, want %v", i, w.TestStart, bars[start+4].Timestamp)
		}
		if !w.TestEnd.Equal(bars[start+5].Timestamp) {
			t.Errorf("window %d TestEnd = %v, want %v", i, w.TestEnd, bars[start+5].Timestamp)
		}
		if !w.TestStart.After(w.TrainEnd) {
			t.Errorf("window %d test overlaps train", i)
		}
	}
}

func TestWalkForwardTooFewBars(t *testing.T) {
	s := newSearch(100, Grid{"pct": {50}})
	_, _, err := WalkForward(context.Background(), s, WalkForwardConfig{
		TrainBars: 80,
		TestBars:  40,
		Metric:    "total_return_pct",
	})
	if err == nil {
		t.Fatal("WalkForward accepted series smaller than one window")
	}
}

func TestWalkForwardSkipsBrokenWindows(t *testing.T) {
	// Every trial fails to build, so every training search is empty.
	s := newSearch(10, Grid{"boom": {1}})
	results, summary, err := WalkForward(context.Background(), s, WalkForwardConfig{
		TrainBars: 4,
		TestBars:  2,
		Metric:    "total_return_pct",
	})
	if err != nil {
		t.Fatalf("WalkForward: %v", err)
	}
	if len(results) != 0 || summary.NumWindows != 0 {
		t.Errorf("results/windows = %d/%d, want 0/0", len(results), summary.NumWindows)
	}
}

func TestWalkForwardSummaryAggregates(t *testing.T) {
	s := newSearch(10, Grid{"pct": {50}})
	results, summary, err := WalkForward(context.Background(), s, WalkForwardConfig{
		TrainBars: 4,
		TestBars:  2,
		Metric:    "total_return_pct",
	})
	if err != nil {
		t.Fatalf("WalkForward: %v", err)
	}
	var cagr float64
	var trades int
	for _, w := range results {
		cagr += w.Report.CAGR
		trades += w.Report.NumTrades
	}
	cagr /= float64(len(results))
	if summary.AvgCAGR != cagr {
		t.Errorf("AvgCAGR = %v, want %v", summary.AvgCAGR, cagr)
	}
	if summary.TotalTrades != trades {
		t.Errorf("TotalTrades = %d, want %d", summary.TotalTrades, trades)
	}
}
