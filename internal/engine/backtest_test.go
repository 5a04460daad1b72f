package engine_test

import (
	"testing"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/engine"
	"github.com/GetwaveS201/claude-trading-strategies/internal/feed"
	"github.com/GetwaveS201/claude-trading-strategies/internal/metrics"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy/builtins"
)

// Full-stack run: one year of synthetic data through a registered
// strategy with realistic costs, repeated to confirm identical output.
func TestFullBacktestDeterministic(t *testing.T) {
	series := feed.GenerateSynthetic("TEST",
		time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), 252, feed.SyntheticConfig{Seed: 99})
	if err := series.Validate(); err != nil {
		t.Fatalf("synthetic series invalid: %v", err)
	}

	registry := strategy.NewRegistry()
	builtins.Register(registry)

	cfg := engine.Config{
		InitialCash:       100000,
		CommissionPerFill: 1.0,
		SlippageBps:       1.0,
		FillAtNextOpen:    true,
	}
	params := strategy.Params{"fast": 5, "slow": 20}

	run := func() metrics.Report {
		strat, err := registry.New("ma-cross", params.Clone())
		if err != nil {
			t.Fatalf("build strategy: %v", err)
		}
		r := engine.New(strat, series.Symbol, series.Bars, cfg)
		if err := r.Run(); err != nil {
			t.Fatalf("Run: %v", err)
		}

		// Every snapshot must satisfy the accounting identity.
		for i, snap := range r.Portfolio.History() {
			if diff := snap.Equity - (snap.Cash + snap.MarketValue); diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("snapshot %d breaks equity identity: %+v", i, snap)
			}
		}
		return metrics.Compute(r.Portfolio, r.Broker.Fills())
	}

	first := run()
	second := run()

	if first != second {
		t.Errorf("repeated runs diverged:\n  %+v\n  %+v", first, second)
	}
}
