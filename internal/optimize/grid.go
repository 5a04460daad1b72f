// Package optimize runs parameter searches over the backtest engine.
// Every trial gets its own portfolio, broker, and strategy instance so
// results never depend on trial ordering.
package optimize

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/engine"
	"github.com/GetwaveS201/claude-trading-strategies/internal/metrics"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
)

// Grid maps a parameter name to its candidate values.
type Grid map[string][]float64

// Combinations expands the grid into the cartesian product of all
// candidate values. Keys are walked in sorted order so the expansion is
// deterministic. An empty grid yields a single empty parameter set.
func (g Grid) Combinations() []strategy.Params {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []strategy.Params{{}}
	for _, k := range keys {
		vals := g[k]
		next := make([]strategy.Params, 0, len(combos)*len(vals))
		for _, base := range combos {
			for _, v := range vals {
				p := base.Clone()
				p[k] = v
				next = append(next, p)
			}
		}
		combos = next
	}
	return combos
}

// Result is one grid-search trial: the parameters tried and either the
// metrics report or the error that stopped the run.
type Result struct {
	TrialID string
	Params  strategy.Params
	Report  metrics.Report
	Err     error
}

// GridSearch runs every combination of a parameter grid against the
// same bar series and reports per-trial results.
type GridSearch struct {
	Factory strategy.Factory
	Symbol  string
	Bars    []domain.Bar
	Config  engine.Config
	Grid    Grid
}

// Run executes all combinations sequentially. A trial that errors is
// recorded and the search continues; the batch itself only fails on a
// bad setup or context cancellation. Cancellation is honored between
// trials, never mid-run.
func (s *GridSearch) Run(ctx context.Context) ([]Result, error) {
	if s.Factory == nil {
		return nil, fmt.Errorf("grid search: nil strategy factory")
	}
	if len(s.Bars) == 0 {
		return nil, fmt.Errorf("grid search: empty bar series")
	}

	combos := s.Grid.Combinations()
	results := make([]Result, 0, len(combos))
	for _, params := range combos {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("grid search interrupted: %w", err)
		}
		results = append(results, s.runTrial(params))
	}
	return results, nil
}

func (s *GridSearch) runTrial(params strategy.Params) Result {
	res := Result{TrialID: uuid.NewString(), Params: params}

	strat, err := s.Factory(params)
	if err != nil {
		res.Err = fmt.Errorf("build strategy: %w", err)
		return res
	}
	r := engine.New(strat, s.Symbol, s.Bars, s.Config)
	if err := r.Run(); err != nil {
		res.Err = err
		return res
	}
	res.Report = metrics.Compute(r.Portfolio, r.Broker.Fills())
	return res
}

// Rank returns the successful results ordered best-first by the named
// metric. Trials with errors, and trials whose report does not carry
// the metric, are left out.
func Rank(results []Result, metric string) ([]Result, error) {
	if _, ok := (metrics.Report{}).Value(metric); !ok {
		return nil, fmt.Errorf("unknown optimization metric %q", metric)
	}
	ranked := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		ranked = append(ranked, r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, _ := ranked[i].Report.Value(metric)
		vj, _ := ranked[j].Report.Value(metric)
		return vi > vj
	})
	return ranked, nil
}

// Top returns at most n of the best results by the named metric.
func Top(results []Result, metric string, n int) ([]Result, error) {
	ranked, err := Rank(results, metric)
	if err != nil {
		return nil, err
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}
