package feed

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
)

// SyntheticConfig shapes the generated random walk. Zero values fall
// back to the defaults below.
type SyntheticConfig struct {
	StartPrice float64 // default 100
	Drift      float64 // per-bar log drift, default 0.0003
	Volatility float64 // per-bar log stddev, default 0.01
	Seed       int64   // generator seed, same seed gives same series
}

// GenerateSynthetic produces n daily bars of a geometric random walk
// starting at start, skipping weekends. The seed fully determines the
// output; this is the only source of randomness in the module.
func GenerateSynthetic(symbol string, start time.Time, n int, cfg SyntheticConfig) *Series {
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 100
	}
	if cfg.Drift == 0 {
		cfg.Drift = 0.0003
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.01
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	series := &Series{Symbol: strings.ToUpper(symbol)}
	price := cfg.StartPrice
	day := start.UTC().Truncate(24 * time.Hour)
	for len(series.Bars) < n {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			day = day.AddDate(0, 0, 1)
			continue
		}

		open := price
		close := open * math.Exp(cfg.Drift+cfg.Volatility*rng.NormFloat64())
		high := math.Max(open, close) * (1 + math.Abs(rng.NormFloat64())*cfg.Volatility/2)
		low := math.Min(open, close) * (1 - math.Abs(rng.NormFloat64())*cfg.Volatility/2)
		volume := 500000 + rng.Int63n(1500000)

		series.Bars = append(series.Bars, domain.Bar{
			Symbol:    series.Symbol,
			Timestamp: day,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})
		price = close
		day = day.AddDate(0, 0, 1)
	}
	return series
}
