package builtins

import (
	"fmt"

	"github.com/GetwaveS201/claude-trading-strategies/internal/indicator"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*LeveragedTrend)(nil)

// LeveragedTrendConfig holds the leveraged-trend parameters.
type LeveragedTrendConfig struct {
	Fast        int
	Slow        int
	PositionPct float64 // above 100 sizes past available cash
}

// LeveragedTrend is an EMA crossover that sizes entries above 100% of
// equity. With the default 200% allocation the cash balance goes negative
// while in a position, which amplifies both gains and drawdowns.
type LeveragedTrend struct {
	cfg    LeveragedTrendConfig
	fastMA *indicator.EMA
	slowMA *indicator.EMA

	prevFast float64
	prevSlow float64
	hasPrev  bool
}

// NewLeveragedTrend is the leveraged-trend factory. Defaults: fast=10,
// slow=50, position_pct=200.
func NewLeveragedTrend(p strategy.Params) (strategy.Strategy, error) {
	cfg := LeveragedTrendConfig{Fast: 10, Slow: 50, PositionPct: 200}
	for k := range p {
		switch k {
		case "fast":
			cfg.Fast = p.Int(k, cfg.Fast)
		case "slow":
			cfg.Slow = p.Int(k, cfg.Slow)
		case "position_pct":
			cfg.PositionPct = p.Float(k, cfg.PositionPct)
		default:
			return nil, fmt.Errorf("leveraged-trend: unknown parameter %q", k)
		}
	}
	if cfg.Fast <= 0 || cfg.Slow <= 0 || cfg.Fast >= cfg.Slow {
		return nil, fmt.Errorf("leveraged-trend: need 0 < fast < slow, got fast=%d slow=%d", cfg.Fast, cfg.Slow)
	}
	return &LeveragedTrend{
		cfg:    cfg,
		fastMA: indicator.NewEMA(cfg.Fast),
		slowMA: indicator.NewEMA(cfg.Slow),
	}, nil
}

// Name returns "leveraged-trend".
func (s *LeveragedTrend) Name() string { return "leveraged-trend" }

// OnStart implements strategy.Strategy.
func (s *LeveragedTrend) OnStart() error { return nil }

// OnBar trades the EMA crossover with oversized allocation.
func (s *LeveragedTrend) OnBar(c *strategy.Context) error {
	s.fastMA.Update(c.Close())
	s.slowMA.Update(c.Close())

	fast, fok := s.fastMA.Value()
	slow, sok := s.slowMA.Value()
	if !fok || !sok {
		return nil
	}

	if s.hasPrev {
		switch {
		case s.prevFast <= s.prevSlow && fast > slow && c.PositionQty() == 0:
			if err := c.BuyPercent(s.cfg.PositionPct); err != nil {
				return err
			}
		case s.prevFast >= s.prevSlow && fast < slow && c.PositionQty() > 0:
			if err := c.SellAll(); err != nil {
				return err
			}
		}
	}

	s.prevFast, s.prevSlow = fast, slow
	s.hasPrev = true
	return nil
}

// OnEnd implements strategy.Strategy.
func (s *LeveragedTrend) OnEnd() error { return nil }
