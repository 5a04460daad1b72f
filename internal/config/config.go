package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for a backtest invocation.
type Config struct {
	Data        Data              `yaml:"data"`
	Run         Run               `yaml:"run"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	Optimize    OptimizeConfig    `yaml:"optimize"`
	WalkForward WalkForwardConfig `yaml:"walkforward"`
	Logging     Logging           `yaml:"logging"`
	Output      Output            `yaml:"output"`
}

// Data selects the bar source. Exactly one of CSVPath, ParquetDir, or
// SQLitePath should be set; Symbol and the date range apply to all.
type Data struct {
	Symbol     string `yaml:"symbol"`
	CSVPath    string `yaml:"csv_path"`
	ParquetDir string `yaml:"parquet_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	StartDate  string `yaml:"start_date"` // YYYY-MM-DD, empty = unbounded
	EndDate    string `yaml:"end_date"`
}

// Run holds the simulation cost and cash parameters.
type Run struct {
	InitialCash       float64 `yaml:"initial_cash"`
	CommissionPerFill float64 `yaml:"commission_per_fill"`
	CommissionPct     float64 `yaml:"commission_pct"`
	SlippageBps       float64 `yaml:"slippage_bps"`
	SlippageFixed     float64 `yaml:"slippage_fixed"`
	FillAtNextOpen    bool    `yaml:"fill_at_next_open"`
}

// StrategyConfig names the registered strategy and its parameters.
type StrategyConfig struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

// OptimizeConfig holds the grid-search setup.
type OptimizeConfig struct {
	Grid   map[string][]float64 `yaml:"grid"`
	Metric string               `yaml:"metric"`
	TopN   int                  `yaml:"top_n"`
}

// WalkForwardConfig holds rolling-window sizes in trading days (bars,
// on a daily feed).
type WalkForwardConfig struct {
	TrainDays int    `yaml:"train_days"`
	TestDays  int    `yaml:"test_days"`
	Metric    string `yaml:"metric"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Output holds result export settings.
type Output struct {
	Dir string `yaml:"dir"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when a field is left unset.
func Default() *Config {
	return &Config{
		Run: Run{
			InitialCash:       100000,
			CommissionPerFill: 1.0,
			SlippageBps:       1.0,
			FillAtNextOpen:    true,
		},
		Optimize:    OptimizeConfig{Metric: "sharpe_ratio", TopN: 10},
		WalkForward: WalkForwardConfig{Metric: "sharpe_ratio"},
		Logging:     Logging{Level: "info", Format: "json"},
		Output:      Output{Dir: "results"},
	}
}

// Load reads the YAML configuration file at the given path over the
// defaults, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run.
func (c *Config) Validate() error {
	if c.Data.Symbol == "" {
		return fmt.Errorf("config: data.symbol is required")
	}
	sources := 0
	for _, s := range []string{c.Data.CSVPath, c.Data.ParquetDir, c.Data.SQLitePath} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("config: set at most one of csv_path, parquet_dir, sqlite_path")
	}
	if _, err := c.Data.ParseDates(); err != nil {
		return err
	}
	if c.Run.InitialCash <= 0 {
		return fmt.Errorf("config: run.initial_cash must be positive, got %v", c.Run.InitialCash)
	}
	return nil
}

// DateRange is the parsed data window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDates parses the start/end date strings. Empty strings stay as
// zero times, meaning unbounded.
func (d Data) ParseDates() (DateRange, error) {
	var r DateRange
	var err error
	if d.StartDate != "" {
		if r.Start, err = time.Parse("2006-01-02", d.StartDate); err != nil {
			return r, fmt.Errorf("config: bad data.start_date %q: %w", d.StartDate, err)
		}
	}
	if d.EndDate != "" {
		if r.End, err = time.Parse("2006-01-02", d.EndDate); err != nil {
			return r, fmt.Errorf("config: bad data.end_date %q: %w", d.EndDate, err)
		}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return r, fmt.Errorf("config: data.end_date %s precedes start_date %s", d.EndDate, d.StartDate)
	}
	return r, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.ParquetDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Data.SQLitePath = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
