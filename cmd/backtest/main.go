package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/config"
	"github.com/GetwaveS201/claude-trading-strategies/internal/engine"
	"github.com/GetwaveS201/claude-trading-strategies/internal/feed"
	"github.com/GetwaveS201/claude-trading-strategies/internal/metrics"
	"github.com/GetwaveS201/claude-trading-strategies/internal/optimize"
	"github.com/GetwaveS201/claude-trading-strategies/internal/report"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy"
	"github.com/GetwaveS201/claude-trading-strategies/internal/strategy/builtins"
	"github.com/GetwaveS201/claude-trading-strategies/internal/util"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: backtest <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version      Print the version\n")
	fmt.Fprintf(os.Stderr, "  strategies   List registered strategies\n")
	fmt.Fprintf(os.Stderr, "  run          Run a single backtest\n")
	fmt.Fprintf(os.Stderr, "  optimize     Grid-search strategy parameters\n")
	fmt.Fprintf(os.Stderr, "  walkforward  Walk-forward analysis\n")
	fmt.Fprintf(os.Stderr, "  sample       Generate synthetic bar data\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	registry := strategy.NewRegistry()
	builtins.Register(registry)

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("backtest %s\n", version)

	case "strategies":
		for _, name := range registry.List() {
			fmt.Println(name)
		}

	case "run":
		err = cmdRun(registry, os.Args[2:])

	case "optimize":
		err = cmdOptimize(registry, os.Args[2:])

	case "walkforward":
		err = cmdWalkForward(registry, os.Args[2:])

	case "sample":
		err = cmdSample(os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

// loadSetup reads the config, installs the logger, and loads the bar
// series for the configured data source.
func loadSetup(cfgPath string) (*config.Config, *feed.Series, error) {
	if cfgPath == "" {
		cfgPath = "config/backtest.yaml"
		if p := os.Getenv("BACKTEST_CONFIG"); p != "" {
			cfgPath = p
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	series, err := loadSeries(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("loaded bar series",
		"symbol", series.Symbol,
		"bars", len(series.Bars),
		"first", series.Bars[0].Timestamp.Format("2006-01-02"),
		"last", series.Bars[len(series.Bars)-1].Timestamp.Format("2006-01-02"))
	return cfg, series, nil
}

func loadSeries(cfg *config.Config) (*feed.Series, error) {
	dates, err := cfg.Data.ParseDates()
	if err != nil {
		return nil, err
	}
	start, end := dates.Start, dates.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	switch {
	case cfg.Data.CSVPath != "":
		return feed.LoadCSV(cfg.Data.CSVPath, cfg.Data.Symbol, dates.Start, dates.End)
	case cfg.Data.ParquetDir != "":
		return feed.NewParquetStore(cfg.Data.ParquetDir).Load(cfg.Data.Symbol, start, end)
	case cfg.Data.SQLitePath != "":
		st, err := feed.OpenSQLite(cfg.Data.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.Load(context.Background(), cfg.Data.Symbol, start, end)
	default:
		return nil, fmt.Errorf("no data source configured; set data.csv_path, data.parquet_dir, or data.sqlite_path")
	}
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		InitialCash:       cfg.Run.InitialCash,
		CommissionPerFill: cfg.Run.CommissionPerFill,
		CommissionPct:     cfg.Run.CommissionPct,
		SlippageBps:       cfg.Run.SlippageBps,
		SlippageFixed:     cfg.Run.SlippageFixed,
		FillAtNextOpen:    cfg.Run.FillAtNextOpen,
	}
}

func cmdRun(registry *strategy.Registry, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to the YAML config")
	fs.Parse(args)

	cfg, series, err := loadSetup(*cfgPath)
	if err != nil {
		return err
	}

	strat, err := registry.New(cfg.Strategy.Name, strategy.Params(cfg.Strategy.Params))
	if err != nil {
		return fmt.Errorf("build strategy: %w", err)
	}

	runner := engine.New(strat, series.Symbol, series.Bars, engineConfig(cfg))
	started := time.Now()
	if err := runner.Run(); err != nil {
		return err
	}
	slog.Info("backtest finished",
		"strategy", cfg.Strategy.Name,
		"bars", len(series.Bars),
		"elapsed", time.Since(started))

	rep := metrics.Compute(runner.Portfolio, runner.Broker.Fills())
	report.PrintSummary(os.Stdout, rep)

	saver, err := report.NewSaver(cfg.Output.Dir)
	if err != nil {
		return err
	}
	trades := metrics.BuildTrades(runner.Broker.Fills())
	if err := saver.SaveRun(rep, runner.Portfolio.History(), trades); err != nil {
		return err
	}
	slog.Info("results written", "dir", cfg.Output.Dir)
	return nil
}

func cmdOptimize(registry *strategy.Registry, args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to the YAML config")
	fs.Parse(args)

	cfg, series, err := loadSetup(*cfgPath)
	if err != nil {
		return err
	}
	factory, ok := registry.Get(cfg.Strategy.Name)
	if !ok {
		return fmt.Errorf("unknown strategy %q", cfg.Strategy.Name)
	}
	if len(cfg.Optimize.Grid) == 0 {
		return fmt.Errorf("optimize.grid is empty")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	search := &optimize.GridSearch{
		Factory: factory,
		Symbol:  series.Symbol,
		Bars:    series.Bars,
		Config:  engineConfig(cfg),
		Grid:    optimize.Grid(cfg.Optimize.Grid),
	}
	started := time.Now()
	results, err := search.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("grid search finished", "trials", len(results), "elapsed", time.Since(started))

	top, err := optimize.Top(results, cfg.Optimize.Metric, cfg.Optimize.TopN)
	if err != nil {
		return err
	}
	fmt.Printf("=== Top %d by %s ===\n", len(top), cfg.Optimize.Metric)
	for i, r := range top {
		v, _ := r.Report.Value(cfg.Optimize.Metric)
		fmt.Printf("%2d. %s  %s=%.4f  return=%.2f%%  trades=%d\n",
			i+1, r.Params, cfg.Optimize.Metric, v, r.Report.TotalReturnPct, r.Report.NumTrades)
	}

	saver, err := report.NewSaver(cfg.Output.Dir)
	if err != nil {
		return err
	}
	return saver.SaveGrid(results)
}

func cmdWalkForward(registry *strategy.Registry, args []string) error {
	fs := flag.NewFlagSet("walkforward", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to the YAML config")
	fs.Parse(args)

	cfg, series, err := loadSetup(*cfgPath)
	if err != nil {
		return err
	}
	factory, ok := registry.Get(cfg.Strategy.Name)
	if !ok {
		return fmt.Errorf("unknown strategy %q", cfg.Strategy.Name)
	}
	if len(cfg.Optimize.Grid) == 0 {
		return fmt.Errorf("optimize.grid is empty")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	search := &optimize.GridSearch{
		Factory: factory,
		Symbol:  series.Symbol,
		Bars:    series.Bars,
		Config:  engineConfig(cfg),
		Grid:    optimize.Grid(cfg.Optimize.Grid),
	}
	results, summary, err := optimize.WalkForward(ctx, search, optimize.WalkForwardConfig{
		TrainBars: cfg.WalkForward.TrainDays,
		TestBars:  cfg.WalkForward.TestDays,
		Metric:    cfg.WalkForward.Metric,
	})
	if err != nil {
		return err
	}

	report.PrintWalkForward(os.Stdout, results, summary)

	saver, err := report.NewSaver(cfg.Output.Dir)
	if err != nil {
		return err
	}
	return saver.SaveWalkForward(results, summary)
}

func cmdSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	symbol := fs.String("symbol", "TEST", "symbol for the generated series")
	bars := fs.Int("bars", 504, "number of daily bars to generate")
	seed := fs.Int64("seed", 1, "random seed; same seed gives the same series")
	startStr := fs.String("start", "2020-01-01", "first bar date (YYYY-MM-DD)")
	dataDir := fs.String("data-dir", "data", "parquet data directory to write into")
	dbPath := fs.String("sqlite", "", "also write bars to this SQLite database")
	fs.Parse(args)

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		return fmt.Errorf("bad -start date: %w", err)
	}

	series := feed.GenerateSynthetic(*symbol, start, *bars, feed.SyntheticConfig{Seed: *seed})
	if err := feed.NewParquetStore(*dataDir).WriteBars(series.Bars); err != nil {
		return err
	}
	fmt.Printf("wrote %d bars for %s under %s\n", len(series.Bars), series.Symbol, *dataDir)

	if *dbPath != "" {
		st, err := feed.OpenSQLite(*dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.WriteBars(context.Background(), series.Bars); err != nil {
			return err
		}
		fmt.Printf("wrote %d bars for %s to %s\n", len(series.Bars), series.Symbol, *dbPath)
	}
	return nil
}
