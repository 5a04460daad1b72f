package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GetwaveS201/claude-trading-strategies/internal/domain"
)

// csvDateLayouts are tried in order when parsing the datetime column.
var csvDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadCSV reads daily bars for one symbol from a CSV file with a header
// row naming at least datetime, open, high, low, close, and volume
// columns (any order, case-insensitive). Rows outside [start, end] are
// dropped before validation.
func LoadCSV(path, symbol string, start, end time.Time) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"datetime", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv %s: missing column %q", path, required)
		}
	}

	s := &Series{Symbol: symbol}
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv %s line %d: %w", path, line+1, err)
		}
		line++

		ts, err := parseCSVTime(row[col["datetime"]])
		if err != nil {
			return nil, fmt.Errorf("csv %s line %d: %w", path, line, err)
		}
		bar := domain.Bar{Symbol: symbol, Timestamp: ts}
		if bar.Open, err = strconv.ParseFloat(row[col["open"]], 64); err != nil {
			return nil, fmt.Errorf("csv %s line %d: open: %w", path, line, err)
		}
		if bar.High, err = strconv.ParseFloat(row[col["high"]], 64); err != nil {
			return nil, fmt.Errorf("csv %s line %d: high: %w", path, line, err)
		}
		if bar.Low, err = strconv.ParseFloat(row[col["low"]], 64); err != nil {
			return nil, fmt.Errorf("csv %s line %d: low: %w", path, line, err)
		}
		if bar.Close, err = strconv.ParseFloat(row[col["close"]], 64); err != nil {
			return nil, fmt.Errorf("csv %s line %d: close: %w", path, line, err)
		}
		if bar.Volume, err = strconv.ParseInt(row[col["volume"]], 10, 64); err != nil {
			return nil, fmt.Errorf("csv %s line %d: volume: %w", path, line, err)
		}

		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		s.Bars = append(s.Bars, bar)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("csv %s: %w", path, err)
	}
	return s, nil
}

func parseCSVTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime %q", raw)
}
