// Package builtins provides the built-in strategy implementations that ship
// with the backtester.
package builtins

import (
	"fmt"

	"github.com/GetwaveS201/claude-trading-strategies/internal/indicator"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MACross)(nil)

// MACrossConfig holds the ma-cross parameters.
type MACrossConfig struct {
	Fast        int     // fast SMA period
	Slow        int     // slow SMA period
	PositionPct float64 // percent of equity per entry
}

// MACross buys when the fast SMA crosses above the slow SMA and sells the
// whole position when it crosses back below.
type MACross struct {
	cfg    MACrossConfig
	fastMA *indicator.SMA
	slowMA *indicator.SMA

	prevFast float64
	prevSlow float64
	hasPrev  bool
}

// NewMACross is the ma-cross factory. Defaults: fast=20, slow=50,
// position_pct=95. Unknown parameter keys are a configuration error.
func NewMACross(p strategy.Params) (strategy.Strategy, error) {
	cfg := MACrossConfig{Fast: 20, Slow: 50, PositionPct: 95}
	for k := range p {
		switch k {
		case "fast":
			cfg.Fast = p.Int(k, cfg.Fast)
		case "slow":
			cfg.Slow = p.Int(k, cfg.Slow)
		case "position_pct":
			cfg.PositionPct = p.Float(k, cfg.PositionPct)
		default:
			return nil, fmt.Errorf("ma-cross: unknown parameter %q", k)
		}
	}
	if cfg.Fast <= 0 || cfg.Slow <= 0 {
		return nil, fmt.Errorf("ma-cross: periods must be positive, got fast=%d slow=%d", cfg.Fast, cfg.Slow)
	}
	if cfg.Fast >= cfg.Slow {
		return nil, fmt.Errorf("ma-cross: fast period %d must be below slow period %d", cfg.Fast, cfg.Slow)
	}
	return &MACross{
		cfg:    cfg,
		fastMA: indicator.NewSMA(cfg.Fast),
		slowMA: indicator.NewSMA(cfg.Slow),
	}, nil
}

// Name returns "ma-cross".
func (s *MACross) Name() string { return "ma-cross" }

// OnStart implements strategy.Strategy.
func (s *MACross) OnStart() error { return nil }

// OnBar updates both averages and trades the crossover.
func (s *MACross) OnBar(c *strategy.Context) error {
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
func (s *MACross) OnEnd() error { return nil }
