// Package metrics derives performance statistics from a completed backtest:
// return and risk measures over the equity curve plus trade statistics
// reconstructed from the fill history. Everything here is a pure function
// of the portfolio and fill history.
package metrics

import (
	"math"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/portfolio"
)

// tradingDaysPerYear annualizes per-bar return statistics, assuming daily
// bars.
const tradingDaysPerYear = 252

// Report is the full set of performance statistics for one run.
type Report struct {
	InitialEquity  float64   `json:"initial_equity"`
	FinalEquity    float64   `json:"final_equity"`
	TotalReturnPct float64   `json:"total_return_pct"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	DurationDays   int       `json:"duration_days"`
	CAGR           float64   `json:"cagr"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	SortinoRatio   float64   `json:"sortino_ratio"`

	NumTrades    int     `json:"num_trades"`
	NumWins      int     `json:"num_wins"`
	NumLosses    int     `json:"num_losses"`
	WinRatePct   float64 `json:"win_rate_pct"`
	AvgWin       float64 `json:"avg_win"`
	AvgWinPct    float64 `json:"avg_win_pct"`
	AvgLoss      float64 `json:"avg_loss"`
	AvgLossPct   float64 `json:"avg_loss_pct"`
	ProfitFactor float64 `json:"profit_factor"`
	ExposurePct  float64 `json:"exposure_pct"`
}

// Value returns the metric with the given snake_case name, for use as an
// optimization objective. ok is false for unsupported names.
func (r Report) Value(name string) (float64, bool) {
	switch name {
	case "total_return_pct":
		return r.TotalReturnPct, true
	case "cagr":
		return r.CAGR, true
	case "max_drawdown_pct":
		return r.MaxDrawdownPct, true
	case "sharpe_ratio":
		return r.SharpeRatio, true
	case "sortino_ratio":
		return r.SortinoRatio, true
	case "final_equity":
		return r.FinalEquity, true
	case "num_trades":
		return float64(r.NumTrades), true
	case "win_rate_pct":
		return r.WinRatePct, true
	case "profit_factor":
		return r.ProfitFactor, true
	case "exposure_pct":
		return r.ExposurePct, true
	}
	return 0, false
}

// Compute builds the report from a finished run's portfolio and fill history.
func Compute(p *portfolio.Portfolio, fills []*domain.Fill) Report {
	r := Report{
		InitialEquity: p.InitialCash,
		FinalEquity:   p.InitialCash,
	}

	hist := p.History()
	if len(hist) == 0 {
		return r
	}

	r.FinalEquity = hist[len(hist)-1].Equity
	r.TotalReturnPct = (r.FinalEquity/r.InitialEquity - 1) * 100

	r.StartDate = hist[0].Timestamp
	r.EndDate = hist[len(hist)-1].Timestamp
	r.DurationDays = int(r.EndDate.Sub(r.StartDate).Hours() / 24)
	years := float64(r.DurationDays) / 365.25
	if years > 0 && r.InitialEquity > 0 && r.FinalEquity > 0 {
		r.CAGR = (math.Pow(r.FinalEquity/r.InitialEquity, 1/years) - 1) * 100
	}

	r.MaxDrawdownPct = maxDrawdownPct(hist)

	returns := barReturns(hist)
	mean := meanOf(returns)
	if std := sampleStd(returns, mean); std > 0 {
		r.SharpeRatio = mean / std * math.Sqrt(tradingDaysPerYear)
	}
	var downside []float64
	for _, ret := range returns {
		if ret < 0 {
			downside = append(downside, ret)
		}
	}
	if dstd := sampleStd(downside, meanOf(downside)); dstd > 0 {
		r.SortinoRatio = mean / dstd * math.Sqrt(tradingDaysPerYear)
	}

	trades := BuildTrades(fills)
	r.NumTrades = len(trades)
	if len(trades) > 0 {
		var grossProfit, grossLoss float64
		var winPctSum, lossPctSum float64
		for _, tr := range trades {
			if tr.PnL > 0 {
				r.NumWins++
				grossProfit += tr.PnL
				winPctSum += tr.PnLPct
			} else if tr.PnL < 0 {
				r.NumLosses++
				grossLoss += -tr.PnL
				lossPctSum += tr.PnLPct
			}
		}
		r.WinRatePct = float64(r.NumWins) / float64(len(trades)) * 100
		if r.NumWins > 0 {
			r.AvgWin = grossProfit / float64(r.NumWins)
			r.AvgWinPct = winPctSum / float64(r.NumWins)
		}
		if r.NumLosses > 0 {
			r.AvgLoss = -grossLoss / float64(r.NumLosses)
			r.AvgLossPct = lossPctSum / float64(r.NumLosses)
		}
		if grossLoss > 0 {
			r.ProfitFactor = grossProfit / grossLoss
		}
	}

	inMarket := 0
	for _, snap := range hist {
		if snap.MarketValue > 0 {
			inMarket++
		}
	}
	r.ExposurePct = float64(inMarket) / float64(len(hist)) * 100

	return r
}

// maxDrawdownPct is the deepest peak-to-trough decline of the equity
// series, as a negative percentage, computed with a running peak.
func maxDrawdownPct(hist []domain.EquitySnapshot) float64 {
	var worst float64
	peak := hist[0].Equity
	for _, snap := range hist {
		if snap.Equity > peak {
			peak = snap.Equity
		}
		if peak > 0 {
			dd := (snap.Equity - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst * 100
}

// barReturns is the per-bar fractional change of the equity series.
func barReturns(hist []domain.EquitySnapshot) []float64 {
	if len(hist) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(hist)-1)
	for i := 1; i < len(hist); i++ {
		prev := hist[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, hist[i].Equity/prev-1)
	}
	return returns
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation; it returns 0 for fewer than two
// samples, which zeroes the dependent ratio.
func sampleStd(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
