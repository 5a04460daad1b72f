package optimize

import (
	"context"
	"fmt"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/engine"
	"github.com/GetwaveS201/claude-trading-strategies/internal/metrics"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
)

// WalkForwardConfig fixes the rolling window shape and the metric the
// in-sample grid search optimizes for. TrainBars and TestBars count
// bars, not calendar days; on a daily feed they are the same thing.
type WalkForwardConfig struct {
	TrainBars int
	TestBars  int
	Metric    string
}

// WindowResult is one walk-forward iteration: the parameters that won
// the training grid search and their out-of-sample report.
type WindowResult struct {
	Window     int
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
	Params     strategy.Params
	Report     metrics.Report
}

// WalkForwardSummary aggregates out-of-sample metrics across windows.
type WalkForwardSummary struct {
	NumWindows     int
	AvgCAGR        float64
	AvgSharpe      float64
	AvgMaxDrawdown float64
	AvgWinRatePct  float64
	TotalTrades    int
}

// WalkForward rolls non-overlapping train/test windows over the bar
// series, stepping forward by TestBars each iteration. Each window runs
// the full grid search on its train slice only, then runs the single
// best combination once on the disjoint test slice. A window whose
// training search produces no valid result is skipped; having too few
// bars for even one window is an error.
func WalkForward(ctx context.Context, search *GridSearch, wf WalkForwardConfig) ([]WindowResult, WalkForwardSummary, error) {
	var summary WalkForwardSummary

	if wf.TrainBars <= 0 || wf.TestBars <= 0 {
		return nil, summary, fmt.Errorf("walk-forward: train and test sizes must be positive, got %d/%d", wf.TrainBars, wf.TestBars)
	}
	if _, ok := (metrics.Report{}).Value(wf.Metric); !ok {
		return nil, summary, fmt.Errorf("walk-forward: unknown metric %q", wf.Metric)
	}
	window := wf.TrainBars + wf.TestBars
	bars := search.Bars
	if len(bars) < window {
		return nil, summary, fmt.Errorf("walk-forward: need at least %d bars for one train+test window, have %d", window, len(bars))
	}

	var results []WindowResult
	for start := 0; start+window <= len(bars); start += wf.TestBars {
		train := bars[start : start+wf.TrainBars]
		test := bars[start+wf.TrainBars : start+window]

		trainSearch := &GridSearch{
			Factory: search.Factory,
			Symbol:  search.Symbol,
			Bars:    train,
			Config:  search.Config,
			Grid:    search.Grid,
		}
		trials, err := trainSearch.Run(ctx)
		if err != nil {
			return results, summary, err
		}
		ranked, err := Rank(trials, wf.Metric)
		if err != nil {
			return results, summary, err
		}
		if len(ranked) == 0 {
			// Nothing trained cleanly in this window; move on.
			continue
		}
		best := ranked[0].Params

		strat, err := search.Factory(best)
		if err != nil {
			return results, summary, fmt.Errorf("walk-forward: rebuild best strategy: %w", err)
		}
		r := engine.New(strat, search.Symbol, test, search.Config)
		if err := r.Run(); err != nil {
			return results, summary, fmt.Errorf("walk-forward: out-of-sample run: %w", err)
		}

		results = append(results, WindowResult{
			Window:     len(results) + 1,
			TrainStart: train[0].Timestamp,
			TrainEnd:   train[len(train)-1].Timestamp,
			TestStart:  test[0].Timestamp,
			TestEnd:    test[len(test)-1].Timestamp,
			Params:     best,
			Report:     metrics.Compute(r.Portfolio, r.Broker.Fills()),
		})
	}

	summary = summarize(results)
	return results, summary, nil
}

func summarize(results []WindowResult) WalkForwardSummary {
	s := WalkForwardSummary{NumWindows: len(results)}
	if len(results) == 0 {
		return s
	}
	for _, w := range results {
		s.AvgCAGR += w.Report.CAGR
		s.AvgSharpe += w.Report.SharpeRatio
		s.AvgMaxDrawdown += w.Report.MaxDrawdownPct
		s.AvgWinRatePct += w.Report.WinRatePct
		s.TotalTrades += w.Report.NumTrades
	}
	n := float64(len(results))
	s.AvgCAGR /= n
	s.AvgSharpe /= n
	s.AvgMaxDrawdown /= n
	s.AvgWinRatePct /= n
	return s
}
