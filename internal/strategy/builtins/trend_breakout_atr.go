package builtins

import (
	"fmt"

	"github.com/GetwaveS201/claude-trading-strategies/internal/indicator"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*TrendBreakoutATR)(nil)

// TrendBreakoutATRConfig holds the trend-breakout-atr parameters.
type TrendBreakoutATRConfig struct {
	TrendLength    int     // EMA period for the trend filter
	BreakoutLength int     // Donchian channel lookback
	ATRLength      int     // ATR period
	ATRStopMult    float64 // ATR multiple for the initial stop distance
	ATRTrailMult   float64 // ATR multiple for the trailing stop
	MinATRPct      float64 // minimum ATR as percent of price (volatility filter)
	RiskPct        float64 // percent of equity risked per entry
}

// TrendBreakoutATR enters long when price breaks above the prior Donchian
// high while trading above its trend EMA with sufficient volatility, sizes
// the entry off ATR risk, and exits on a trailing ATR stop or a trend flip.
type TrendBreakoutATR struct {
	cfg TrendBreakoutATRConfig

	trendEMA    *indicator.EMA
	atr         *indicator.ATR
	rollingHigh *indicator.RollingHigh

	prevHigh    float64
	hasPrevHigh bool
	entryPrice  float64
	trailStop   float64
}

// NewTrendBreakoutATR is the trend-breakout-atr factory. Defaults:
// trend_length=200, breakout_length=20, atr_length=14, atr_stop_mult=2,
// atr_trail_mult=3, min_atr_pct=1, risk_pct=1.
func NewTrendBreakoutATR(p strategy.Params) (strategy.Strategy, error) {
	cfg := TrendBreakoutATRConfig{
		TrendLength:    200,
		BreakoutLength: 20,
		ATRLength:      14,
		ATRStopMult:    2,
		ATRTrailMult:   3,
		MinATRPct:      1,
		RiskPct:        1,
	}
	for k := range p {
		switch k {
		case "trend_length":
			cfg.TrendLength = p.Int(k, cfg.TrendLength)
		case "breakout_length":
			cfg.BreakoutLength = p.Int(k, cfg.BreakoutLength)
		case "atr_length":
			cfg.ATRLength = p.Int(k, cfg.ATRLength)
		case "atr_stop_mult":
			cfg.ATRStopMult = p.Float(k, cfg.ATRStopMult)
		case "atr_trail_mult":
			cfg.ATRTrailMult = p.Float(k, cfg.ATRTrailMult)
		case "min_atr_pct":
			cfg.MinATRPct = p.Float(k, cfg.MinATRPct)
		case "risk_pct":
			cfg.RiskPct = p.Float(k, cfg.RiskPct)
		default:
			return nil, fmt.Errorf("trend-breakout-atr: unknown parameter %q", k)
		}
	}
	if cfg.TrendLength <= 0 || cfg.BreakoutLength <= 0 || cfg.ATRLength <= 0 {
		return nil, fmt.Errorf("trend-breakout-atr: periods must be positive")
	}
	return &TrendBreakoutATR{
		cfg:         cfg,
		trendEMA:    indicator.NewEMA(cfg.TrendLength),
		atr:         indicator.NewATR(cfg.ATRLength),
		rollingHigh: indicator.NewRollingHigh(cfg.BreakoutLength),
	}, nil
}

// Name returns "trend-breakout-atr".
func (s *TrendBreakoutATR) Name() string { return "trend-breakout-atr" }

// OnStart implements strategy.Strategy.
func (s *TrendBreakoutATR) OnStart() error { return nil }

// OnBar updates the indicator set and runs entry/exit logic.
func (s *TrendBreakoutATR) OnBar(c *strategy.Context) error {
	s.trendEMA.Update(c.Close())
	s.atr.Update(c.High(), c.Low(), c.Close())
	s.rollingHigh.Update(c.High())

	ema, eok := s.trendEMA.Value()
	atr, aok := s.atr.Value()
	highest, hok := s.rollingHigh.Value()
	if !eok || !aok || !hok {
		return nil
	}

	atrPct := atr / c.Close() * 100
	bullTrend := c.Close() > ema
	volOK := atrPct >= s.cfg.MinATRPct

	// Entry: close breaks the prior bar's Donchian high.
	breakout := s.hasPrevHigh && c.Close() > s.prevHigh
	if breakout && bullTrend && volOK && c.PositionQty() == 0 {
		stopDistance := atr * s.cfg.ATRStopMult
		if err := c.BuyRisk(s.cfg.RiskPct, stopDistance); err != nil {
			return err
		}
		s.entryPrice = c.Close()
		s.trailStop = c.Close() - atr*s.cfg.ATRTrailMult
	}

	if c.PositionQty() > 0 {
		if c.Close() > s.entryPrice {
			s.trailStop = max(s.trailStop, c.Close()-atr*s.cfg.ATRTrailMult)
		}
		if c.Close() <= s.trailStop || c.Close() < ema {
			if err := c.SellAll(); err != nil {
				return err
			}
			s.entryPrice = 0
			s.trailStop = 0
		}
	}

	s.prevHigh = highest
	s.hasPrevHigh = true
	return nil
}

// OnEnd implements strategy.Strategy.
func (s *TrendBreakoutATR) OnEnd() error { return nil }
