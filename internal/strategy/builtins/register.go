package builtins

import "github.com/GetwaveS201/claude-trading-strategies/internal/strategy"

// Register adds every built-in strategy factory to the registry.
func Register(r *strategy.Registry) {
	r.Register("ma-cross", NewMACross)
	r.Register("rsi-meanrev", NewRSIMeanRev)
	r.Register("trend-breakout-atr", NewTrendBreakoutATR)
	r.Register("leveraged-trend", NewLeveragedTrend)
}
