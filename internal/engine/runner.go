// Package engine contains the backtest kernel: the bar-by-bar loop that
// wires a strategy, broker, and portfolio together and records the equity
// curve. The kernel is single-threaded, strictly sequential, and fully
// deterministic given a fixed bar sequence; it never consumes a random
// source.
package engine

import (
	"errors"
	"fmt"

	"github.com/GetwaveS201/claude-trading-strategies/internal/broker"
	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/exec"
	"github.com/GetwaveS201/claude-trading-strategies/internal/portfolio"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
)

// ErrEmptyFeed is returned when a run is started with no bars. This is a
// configuration error; the simulation never starts.
var ErrEmptyFeed = errors.New("engine: no bars in data feed")

// State is the runner's lifecycle phase.
type State string

// Runner states.
const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateFinished   State = "finished"
)

// Config holds the runner options recognized by the kernel.
type Config struct {
	InitialCash       float64
	CommissionPerFill float64
	CommissionPct     float64
	SlippageBps       float64
	SlippageFixed     float64
	FillAtNextOpen    bool
}

// DefaultConfig returns the reference configuration: $100k starting cash,
// $1 commission per fill, 1bp slippage, market fills at next open.
func DefaultConfig() Config {
	return Config{
		InitialCash:       100000,
		CommissionPerFill: 1.0,
		SlippageBps:       1.0,
		FillAtNextOpen:    true,
	}
}

func (c Config) model() exec.Model {
	return exec.Model{
		CommissionPerFill: c.CommissionPerFill,
		CommissionPct:     c.CommissionPct,
		SlippageBps:       c.SlippageBps,
		SlippageFixed:     c.SlippageFixed,
		FillAtNextOpen:    c.FillAtNextOpen,
	}
}

// Runner drives one backtest: per bar it builds a fresh Context, calls the
// strategy, then resolves pending orders against the following bar. That
// t→t+1 handoff is what realizes the no-lookahead guarantee: a decision
// made on bar i can only ever fill at bar i+1's prices.
type Runner struct {
	Portfolio *portfolio.Portfolio
	Broker    *broker.Broker

	cfg    Config
	symbol string
	bars   []domain.Bar
	strat  strategy.Strategy
	state  State
}

// New creates a runner over the given bar series. The strategy instance
// must be freshly constructed and not shared with any other runner.
func New(strat strategy.Strategy, symbol string, bars []domain.Bar, cfg Config) *Runner {
	p := portfolio.New(cfg.InitialCash)
	return &Runner{
		Portfolio: p,
		Broker:    broker.New(p, cfg.model()),
		cfg:       cfg,
		symbol:    symbol,
		bars:      bars,
		strat:     strat,
		state:     StateNotStarted,
	}
}

// State returns the runner's lifecycle phase.
func (r *Runner) State() State { return r.state }

// Run executes the backtest. Strategy errors propagate and abort the run;
// a runner is single-use and cannot be restarted.
func (r *Runner) Run() error {
	if r.state != StateNotStarted {
		return fmt.Errorf("engine: run already started (state %s)", r.state)
	}
	if len(r.bars) == 0 {
		return ErrEmptyFeed
	}

	r.state = StateRunning
	if err := r.strat.OnStart(); err != nil {
		return fmt.Errorf("strategy %s on_start: %w", r.strat.Name(), err)
	}

	for i := range r.bars {
		bar := r.bars[i]
		ctx := strategy.NewContext(r.symbol, bar, i, r.Portfolio, r.Broker)
		if err := r.strat.OnBar(ctx); err != nil {
			return fmt.Errorf("strategy %s on_bar %d: %w", r.strat.Name(), i, err)
		}

		// Orders placed on bar i resolve against bar i+1. On the final bar
		// there is no next bar and pending orders are dropped unfilled.
		if i+1 < len(r.bars) {
			next := r.bars[i+1]
			r.Broker.ProcessOrders(&bar, &next, next.Timestamp)
		} else {
			r.Broker.ProcessOrders(&bar, nil, bar.Timestamp)
		}

		r.Portfolio.RecordEquity(bar.Timestamp, map[string]float64{r.symbol: bar.Close})
	}

	r.state = StateFinished
	if err := r.strat.OnEnd(); err != nil {
		return fmt.Errorf("strategy %s on_end: %w", r.strat.Name(), err)
	}
	return nil
}
