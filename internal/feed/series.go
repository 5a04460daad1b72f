// Package feed loads and validates the bar series the engine consumes.
// Loaders exist for CSV, Parquet, and SQLite sources, plus a seeded
// synthetic generator for smoke runs without market data.
package feed

import (
	"fmt"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
)

// Series is an ordered run of daily bars for one symbol.
type Series struct {
	Symbol string
	Bars   []domain.Bar
}

// Validate checks that the series is non-empty, single-symbol, and
// strictly increasing in time. Duplicate timestamps are rejected; the
// engine's causality rules assume each bar is a distinct instant.
func (s *Series) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("series %s: no bars", s.Symbol)
	}
	for i, b := range s.Bars {
		if b.Symbol != s.Symbol {
			return fmt.Errorf("series %s: bar %d has symbol %s", s.Symbol, i, b.Symbol)
		}
		if b.High < b.Low {
			return fmt.Errorf("series %s: bar %d at %s has high %v below low %v",
				s.Symbol, i, b.Timestamp.Format("2006-01-02"), b.High, b.Low)
		}
		if i == 0 {
			continue
		}
		prev := s.Bars[i-1].Timestamp
		if !b.Timestamp.After(prev) {
			return fmt.Errorf("series %s: bar %d at %s does not advance past %s",
				s.Symbol, i, b.Timestamp.Format("2006-01-02"), prev.Format("2006-01-02"))
		}
	}
	return nil
}

// Slice returns the bars within [start, end], inclusive on both ends.
// Zero start or end means unbounded on that side.
func (s *Series) Slice(start, end time.Time) []domain.Bar {
	var out []domain.Bar
	for _, b := range s.Bars {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
