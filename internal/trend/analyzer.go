// Package trend turns a pollutant time series into per-column summaries.
package trend

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/dataset"
	"go.uber.org/zap"
)

// Config tunes the analyzer.
type Config struct {
	// Epsilon is the relative change between the earliest and latest
	// thirds needed to call a series rising or falling.
	Epsilon float64 `json:"epsilon"`
	// MaxUnparseableRatio is the share of rows with unparseable cells
	// above which the dataset is rejected.
	MaxUnparseableRatio float64 `json:"max_unparseable_ratio"`
}

// DefaultConfig returns a 5% epsilon and a 50% unparseable-row tolerance.
func DefaultConfig() Config {
	return Config{Epsilon: 0.05, MaxUnparseableRatio: 0.5}
}

// Analyzer computes TrendSummaries. It holds no per-run state.
type Analyzer struct {
	cfg    Config
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer; zero config fields take defaults.
func NewAnalyzer(cfg Config, logger *zap.Logger) *Analyzer {
	def := DefaultConfig()
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = def.Epsilon
	}
	if cfg.MaxUnparseableRatio <= 0 {
		cfg.MaxUnparseableRatio = def.MaxUnparseableRatio
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"01/02/2006",
}

var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "-": true,
}

type point struct {
	at    time.Time
	value float64
}

// Analyze summarizes every pollutant column of ds. An empty dataset yields
// an empty result. A missing required column or too many unparseable rows
// yields *agent.SchemaError.
func (a *Analyzer) Analyze(ds *dataset.Dataset) ([]agent.TrendSummary, error) {
	if ds.Len() == 0 {
		return []agent.TrendSummary{}, nil
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	dates, chronological := parseDates(ds.Rows)
	columns := ds.PollutantColumns()
	series := make(map[string][]point, len(columns))
	badRows := 0

	for i, row := range ds.Rows {
		bad := false
		for _, col := range columns {
			raw := strings.TrimSpace(row.Values[col])
			if missingTokens[strings.ToLower(raw)] {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				bad = true
				continue
			}
			series[col] = append(series[col], point{at: dates[i], value: v})
		}
		if bad {
			badRows++
		}
	}

	if float64(badRows)/float64(len(ds.Rows)) > a.cfg.MaxUnparseableRatio {
		return nil, &agent.SchemaError{Unparseable: badRows, Rows: len(ds.Rows)}
	}
	if badRows > 0 {
		a.logger.Warn("ignored unparseable cells",
			zap.Int("rows", badRows), zap.Int("total", len(ds.Rows)))
	}

	out := make([]agent.TrendSummary, 0, len(columns))
	for _, col := range columns {
		pts := series[col]
		if chronological {
			sort.SliceStable(pts, func(i, j int) bool {
				if !pts[i].at.Equal(pts[j].at) {
					return pts[i].at.Before(pts[j].at)
				}
				return pts[i].value < pts[j].value
			})
		}
		out = append(out, a.summarize(col, pts))
	}

	a.logger.Debug("analyzed dataset",
		zap.Int("rows", len(ds.Rows)),
		zap.Int("columns", len(columns)),
		zap.Bool("chronological", chronological))
	return out, nil
}

func (a *Analyzer) summarize(col string, pts []point) agent.TrendSummary {
	s := agent.TrendSummary{Pollutant: col, Direction: agent.Flat, SampleCount: len(pts)}
	n := len(pts)
	if n == 0 {
		return s
	}

	values := make([]float64, n)
	for i, p := range pts {
		values[i] = p.value
	}
	s.Mean = ptr(mean(values))
	s.Median = ptr(median(values))
	s.Latest = ptr(values[n-1])
	if n >= 8 {
		s.Change7d = ptr(values[n-1] - values[n-8])
	}
	if n >= 3 {
		k := n / 3
		s.Direction = a.direction(mean(values[:k]), mean(values[n-k:]))
	}
	return s
}

func (a *Analyzer) direction(earliest, latest float64) agent.Direction {
	change := latest - earliest
	if earliest != 0 {
		change /= math.Abs(earliest)
	}
	switch {
	case change > a.cfg.Epsilon:
		return agent.Rising
	case change < -a.cfg.Epsilon:
		return agent.Falling
	}
	return agent.Flat
}

// parseDates parses every row's date. The series is chronological only if
// all of them parse.
func parseDates(rows []dataset.Row) ([]time.Time, bool) {
	out := make([]time.Time, len(rows))
	ok := true
	for i, r := range rows {
		t, parsed := parseDate(r.Date)
		if !parsed {
			ok = false
		}
		out[i] = t
	}
	return out, ok
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func median(vs []float64) float64 {
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func ptr(v float64) *float64 { return &v }
