// Package report exports finished-run results to disk and renders the
// console summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
	"github.com/GetwaveS201/claude-trading-strategies/internal/metrics"
	"github.com/GetwaveS201/claude-trading-strategies/internal/optimize"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Saver writes result files under a single output directory.
type Saver struct {
	Dir string
}

// NewSaver creates the output directory if needed.
func NewSaver(dir string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Saver{Dir: dir}, nil
}

// SaveRun writes summary.json, equity.csv, and trades.csv for one
// backtest run.
func (s *Saver) SaveRun(rep metrics.Report, history []domain.EquitySnapshot, trades []domain.Trade) error {
	if err := s.writeJSON("summary.json", rep); err != nil {
		return err
	}
	if err := s.writeEquityCSV("equity.csv", history); err != nil {
		return err
	}
	return s.writeTradesCSV("trades.csv", trades)
}

// gridRow flattens one trial for export; errors become a string so the
// row still serializes.
type gridRow struct {
	TrialID string             `json:"trial_id"`
	Params  map[string]float64 `json:"params"`
	Report  *metrics.Report    `json:"report,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// SaveGrid writes every trial, failed ones included, to grid.json.
func (s *Saver) SaveGrid(results []optimize.Result) error {
	rows := make([]gridRow, 0, len(results))
	for _, r := range results {
		row := gridRow{TrialID: r.TrialID, Params: r.Params}
		if r.Err != nil {
			row.Error = r.Err.Error()
		} else {
			rep := r.Report
			row.Report = &rep
		}
		rows = append(rows, row)
	}
	return s.writeJSON("grid.json", rows)
}

type walkForwardExport struct {
	Windows []walkForwardWindow         `json:"windows"`
	Summary optimize.WalkForwardSummary `json:"summary"`
}

type walkForwardWindow struct {
	Window     int                `json:"window"`
	TrainStart time.Time          `json:"train_start"`
	TrainEnd   time.Time          `json:"train_end"`
	TestStart  time.Time          `json:"test_start"`
	TestEnd    time.Time          `json:"test_end"`
	Params     map[string]float64 `json:"params"`
	Report     metrics.Report     `json:"report"`
}

// SaveWalkForward writes the aggregate to walkforward.json and the
// per-window table to walkforward.csv.
func (s *Saver) SaveWalkForward(results []optimize.WindowResult, summary optimize.WalkForwardSummary) error {
	out := walkForwardExport{Summary: summary}
	for _, w := range results {
		out.Windows = append(out.Windows, walkForwardWindow{
			Window:     w.Window,
			TrainStart: w.TrainStart,
			TrainEnd:   w.TrainEnd,
			TestStart:  w.TestStart,
			TestEnd:    w.TestEnd,
			Params:     w.Params,
			Report:     w.Report,
		})
	}
	if err := s.writeJSON("walkforward.json", out); err != nil {
		return err
	}
	return s.writeWalkForwardCSV("walkforward.csv", results)
}

func (s *Saver) writeWalkForwardCSV(name string, results []optimize.WindowResult) error {
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"window", "train_start", "train_end", "test_start", "test_end", "params", "cagr", "sharpe_ratio", "max_drawdown_pct", "win_rate_pct", "num_trades"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, win := range results {
		rec := []string{
			strconv.Itoa(win.Window),
			win.TrainStart.Format("2006-01-02"),
			win.TrainEnd.Format("2006-01-02"),
			win.TestStart.Format("2006-01-02"),
			win.TestEnd.Format("2006-01-02"),
			win.Params.String(),
			formatFloat(win.Report.CAGR),
			formatFloat(win.Report.SharpeRatio),
			formatFloat(win.Report.MaxDrawdownPct),
			formatFloat(win.Report.WinRatePct),
			strconv.Itoa(win.Report.NumTrades),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Saver) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Saver) writeEquityCSV(name string, history []domain.EquitySnapshot) error {
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "equity", "cash", "market_value"}); err != nil {
		return err
	}
	for _, snap := range history {
		rec := []string{
			snap.Timestamp.Format(time.RFC3339),
			formatFloat(snap.Equity),
			formatFloat(snap.Cash),
			formatFloat(snap.MarketValue),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Saver) writeTradesCSV(name string, trades []domain.Trade) error {
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"symbol", "entry_time", "exit_time", "entry_price", "exit_price", "qty", "pnl", "pnl_pct", "duration_days"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, tr := range trades {
		rec := []string{
			tr.Symbol,
			tr.EntryTime.Format(time.RFC3339),
			tr.ExitTime.Format(time.RFC3339),
			formatFloat(tr.EntryPrice),
			formatFloat(tr.ExitPrice),
			strconv.Itoa(tr.Qty),
			formatFloat(tr.PnL),
			formatFloat(tr.PnLPct),
			formatFloat(tr.Duration.Hours() / 24),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// PrintSummary renders the run report as a console block.
func PrintSummary(w io.Writer, rep metrics.Report) {
	fmt.Fprintln(w, "=== Backtest Summary ===")
	fmt.Fprintf(w, "Period            %s .. %s (%d days)\n",
		rep.StartDate.Format("2006-01-02"), rep.EndDate.Format("2006-01-02"), rep.DurationDays)
	fmt.Fprintf(w, "Initial equity    %.2f\n", rep.InitialEquity)
	fmt.Fprintf(w, "Final equity      %.2f\n", rep.FinalEquity)
	fmt.Fprintf(w, "Total return      %.2f%%\n", rep.TotalReturnPct)
	fmt.Fprintf(w, "CAGR              %.2f%%\n", rep.CAGR)
	fmt.Fprintf(w, "Max drawdown      %.2f%%\n", rep.MaxDrawdownPct)
	fmt.Fprintf(w, "Sharpe            %.2f\n", rep.SharpeRatio)
	fmt.Fprintf(w, "Sortino           %.2f\n", rep.SortinoRatio)
	fmt.Fprintf(w, "Trades            %d (%d wins / %d losses, %.1f%% win rate)\n",
		rep.NumTrades, rep.NumWins, rep.NumLosses, rep.WinRatePct)
	fmt.Fprintf(w, "Profit factor     %.2f\n", rep.ProfitFactor)
	fmt.Fprintf(w, "Exposure          %.1f%%\n", rep.ExposurePct)
}

// PrintWalkForward renders the per-window table and aggregate.
func PrintWalkForward(w io.Writer, results []optimize.WindowResult, summary optimize.WalkForwardSummary) {
	fmt.Fprintln(w, "=== Walk-Forward Analysis ===")
	for _, win := range results {
		fmt.Fprintf(w, "window %d  test %s..%s  params %s  cagr %.2f%%  sharpe %.2f  maxdd %.2f%%  trades %d\n",
			win.Window,
			win.TestStart.Format("2006-01-02"), win.TestEnd.Format("2006-01-02"),
			win.Params, win.Report.CAGR, win.Report.SharpeRatio,
			win.Report.MaxDrawdownPct, win.Report.NumTrades)
	}
	fmt.Fprintf(w, "windows %d  avg cagr %.2f%%  avg sharpe %.2f  avg maxdd %.2f%%  avg win rate %.1f%%  total trades %d\n",
		summary.NumWindows, summary.AvgCAGR, summary.AvgSharpe,
		summary.AvgMaxDrawdown, summary.AvgWinRatePct, summary.TotalTrades)
}
