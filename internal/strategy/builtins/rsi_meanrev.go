package builtins

import (
	"fmt"

	"github.com/GetwaveS201/claude-trading-strategies/internal/indicator"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*RSIMeanRev)(nil)

// RSIMeanRevConfig holds the rsi-meanrev parameters.
type RSIMeanRevConfig struct {
	Period      int
	Oversold    float64
	Overbought  float64
	PositionPct float64
}

// RSIMeanRev buys when the RSI crosses down through the oversold threshold
// and sells the position when it crosses up through the overbought
// threshold.
type RSIMeanRev struct {
	cfg RSIMeanRevConfig
	rsi *indicator.RSI

	prevRSI float64
	hasPrev bool
}

// NewRSIMeanRev is the rsi-meanrev factory. Defaults: rsi_period=14,
// oversold=30, overbought=70, position_pct=95.
func NewRSIMeanRev(p strategy.Params) (strategy.Strategy, error) {
	cfg := RSIMeanRevConfig{Period: 14, Oversold: 30, Overbought: 70, PositionPct: 95}
	for k := range p {
		switch k {
		case "rsi_period":
			cfg.Period = p.Int(k, cfg.Period)
		case "oversold":
			cfg.Oversold = p.Float(k, cfg.Oversold)
		case "overbought":
			cfg.Overbought = p.Float(k, cfg.Overbought)
		case "position_pct":
			cfg.PositionPct = p.Float(k, cfg.PositionPct)
		default:
			return nil, fmt.Errorf("rsi-meanrev: unknown parameter %q", k)
		}
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("rsi-meanrev: rsi_period must be positive, got %d", cfg.Period)
	}
	if cfg.Oversold >= cfg.Overbought {
		return nil, fmt.Errorf("rsi-meanrev: oversold %v must be below overbought %v", cfg.Oversold, cfg.Overbought)
	}
	return &RSIMeanRev{cfg: cfg, rsi: indicator.NewRSI(cfg.Period)}, nil
}

// Name returns "rsi-meanrev".
func (s *RSIMeanRev) Name() string { return "rsi-meanrev" }

// OnStart implements strategy.Strategy.
func (s *RSIMeanRev) OnStart() error { return nil }

// OnBar updates the RSI and trades threshold crossings.
func (s *RSIMeanRev) OnBar(c *strategy.Context) error {
	s.rsi.Update(c.Close())

	rsi, ok := s.rsi.Value()
	if !ok {
		return nil
	}

	if s.hasPrev {
		switch {
		case s.prevRSI >= s.cfg.Oversold && rsi < s.cfg.Oversold && c.PositionQty() == 0:
			if err := c.BuyPercent(s.cfg.PositionPct); err != nil {
				return err
			}
		case s.prevRSI <= s.cfg.Overbought && rsi > s.cfg.Overbought && c.PositionQty() > 0:
			if err := c.SellAll(); err != nil {
				return err
			}
		}
	}

	s.prevRSI = rsi
	s.hasPrev = true
	return nil
}

// OnEnd implements strategy.Strategy.
func (s *RSIMeanRev) OnEnd() error { return nil }
