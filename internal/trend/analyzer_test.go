package trend

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/dataset"
	"go.uber.org/zap"
)

var columns = []string{"date", "pm25", "pm10", "no2", "city"}

func newAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultConfig(), zap.NewNop())
}

// series builds daily rows from 2025-03-01 carrying only pm25 values.
func series(values ...string) *dataset.Dataset {
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	ds := dataset.New(columns)
	for i, v := range values {
		ds.Rows = append(ds.Rows, dataset.Row{
			Date:   start.AddDate(0, 0, i).Format(time.DateOnly),
			City:   "Springfield",
			Values: map[string]string{"pm25": v},
		})
	}
	return ds
}

func find(t *testing.T, trends []agent.TrendSummary, col string) agent.TrendSummary {
	t.Helper()
	for _, tr := range trends {
		if tr.Pollutant == col {
			return tr
		}
	}
	t.Fatalf("no trend for %s in %+v", col, trends)
	return agent.TrendSummary{}
}

func TestAnalyzeRisingSeries(t *testing.T) {
	ds := series("10", "10", "10", "20", "20", "20", "40", "40", "40")
	trends, err := newAnalyzer().Analyze(ds)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	pm25 := find(t, trends, "pm25")
	if pm25.Direction != agent.Rising {
		t.Errorf("direction = %s, want rising", pm25.Direction)
	}
	if pm25.SampleCount != 9 {
		t.Errorf("sample count = %d, want 9", pm25.SampleCount)
	}
	if pm25.Mean == nil || fmt.Sprintf("%.2f", *pm25.Mean) != "23.33" {
		t.Errorf("mean = %v, want 23.33", pm25.Mean)
	}
	if *pm25.Median != 20 || *pm25.Latest != 40 {
		t.Errorf("median/latest = %v/%v", *pm25.Median, *pm25.Latest)
	}
	if *pm25.Change7d != 30 {
		t.Errorf("change7d = %v, want 30", *pm25.Change7d)
	}
}

func TestAnalyzeColumnsInHeaderOrder(t *testing.T) {
	trends, err := newAnalyzer().Analyze(series("1", "2", "3"))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, tr := range trends {
		got = append(got, tr.Pollutant)
	}
	if diff := cmp.Diff([]string{"pm25", "pm10", "no2"}, got); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeMissingColumnHasNoMean(t *testing.T) {
	trends, err := newAnalyzer().Analyze(series("5", "6"))
	if err != nil {
		t.Fatal(err)
	}
	no2 := find(t, trends, "no2")
	if no2.SampleCount != 0 || no2.Mean != nil || no2.Direction != agent.Flat {
		t.Errorf("got %+v, want empty flat summary", no2)
	}
	pm25 := find(t, trends, "pm25")
	if pm25.Direction != agent.Flat || pm25.SampleCount != 2 {
		t.Errorf("short series: got %+v", pm25)
	}
	if pm25.Change7d != nil {
		t.Errorf("change7d should be nil below 8 samples")
	}
}

func TestAnalyzeDirections(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   agent.Direction
	}{
		{"falling", []string{"40", "40", "30", "20", "10", "10"}, agent.Falling},
		{"within epsilon", []string{"100", "100", "100", "104", "104", "104"}, agent.Flat},
		{"just over epsilon", []string{"100", "100", "106", "106"}, agent.Rising},
		{"zero baseline", []string{"0", "0", "0", "1", "1", "1"}, agent.Rising},
		{"skips missing", []string{"10", "NA", "", "10", "null", "30"}, agent.Rising},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			trends, err := newAnalyzer().Analyze(series(c.values...))
			if err != nil {
				t.Fatal(err)
			}
			if got := find(t, trends, "pm25").Direction; got != c.want {
				t.Errorf("got %s, want %s", got, c.want)
			}
		})
	}
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	a := newAnalyzer()
	for _, ds := range []*dataset.Dataset{nil, dataset.New(columns), dataset.New(nil)} {
		trends, err := a.Analyze(ds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if trends == nil || len(trends) != 0 {
			t.Errorf("got %v, want empty non-nil slice", trends)
		}
	}
}

func TestAnalyzeMissingRequiredColumn(t *testing.T) {
	ds := dataset.New([]string{"date", "pm25", "city"},
		dataset.Row{Date: "2025-01-01", City: "X", Values: map[string]string{"pm25": "1"}})
	_, err := newAnalyzer().Analyze(ds)
	var se *agent.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *SchemaError", err)
	}
	if len(se.Missing) != 2 {
		t.Errorf("missing = %v", se.Missing)
	}
}

func TestAnalyzeUnparseableThreshold(t *testing.T) {
	_, err := newAnalyzer().Analyze(series("abc", "def", "3"))
	var se *agent.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *SchemaError", err)
	}
	if se.Unparseable != 2 || se.Rows != 3 {
		t.Errorf("got %+v", se)
	}

	trends, err := newAnalyzer().Analyze(series("1", "oops", "3", "4"))
	if err != nil {
		t.Fatalf("one bad row of four should be tolerated: %v", err)
	}
	if got := find(t, trends, "pm25").SampleCount; got != 3 {
		t.Errorf("sample count = %d, want 3", got)
	}
}

func TestAnalyzeSortsChronologically(t *testing.T) {
	ds := series("40", "40", "40", "10", "10", "10")
	// Reverse the rows: dates still ascend once sorted, so the series falls.
	for i, j := 0, len(ds.Rows)-1; i < j; i, j = i+1, j-1 {
		ds.Rows[i], ds.Rows[j] = ds.Rows[j], ds.Rows[i]
	}
	trends, err := newAnalyzer().Analyze(ds)
	if err != nil {
		t.Fatal(err)
	}
	if got := find(t, trends, "pm25").Direction; got != agent.Falling {
		t.Errorf("got %s, want falling", got)
	}
}

func TestAnalyzeUnparseableDatesKeepGivenOrder(t *testing.T) {
	ds := series("10", "10", "10", "50", "50", "50")
	ds.Rows[0].Date = "sometime"
	ds.Rows[5].Date = "2020-01-01"
	trends, err := newAnalyzer().Analyze(ds)
	if err != nil {
		t.Fatal(err)
	}
	pm25 := find(t, trends, "pm25")
	if pm25.Direction != agent.Rising {
		t.Errorf("got %s, want rising in given order", pm25.Direction)
	}
	if *pm25.Latest != 50 {
		t.Errorf("latest = %v, want 50", *pm25.Latest)
	}
}

func TestAnalyzeIgnoresOrderWithinTimestamp(t *testing.T) {
	build := func(rows []dataset.Row) *dataset.Dataset {
		return dataset.New(append([]string{}, columns...), rows...)
	}
	var rows []dataset.Row
	for day := 1; day <= 3; day++ {
		for _, v := range []string{"5", "50", "20"} {
			rows = append(rows, dataset.Row{
				Date:   fmt.Sprintf("2025-02-0%d", day),
				City:   "Springfield",
				Values: map[string]string{"pm25": v, "pm10": v},
			})
		}
	}
	want, err := newAnalyzer().Analyze(build(rows))
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		shuffled := append([]dataset.Row{}, rows...)
		// Shuffle only inside each day so timestamps keep their order.
		for d := 0; d < 3; d++ {
			day := shuffled[d*3 : d*3+3]
			rng.Shuffle(len(day), func(i, j int) { day[i], day[j] = day[j], day[i] })
		}
		got, err := newAnalyzer().Analyze(build(shuffled))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("trial %d: result changed after shuffling (-want +got):\n%s", trial, diff)
		}
	}
}

func TestAnalyzeDemoDataset(t *testing.T) {
	trends, err := newAnalyzer().Analyze(dataset.Demo("Karachi"))
	if err != nil {
		t.Fatal(err)
	}
	pm25 := find(t, trends, "pm25")
	if pm25.SampleCount != 30 || pm25.Direction != agent.Falling {
		t.Errorf("got %+v", pm25)
	}
	if *pm25.Change7d != 4 {
		t.Errorf("change7d = %v, want 4", *pm25.Change7d)
	}
}

func TestNewAnalyzerDefaults(t *testing.T) {
	a := NewAnalyzer(Config{}, zap.NewNop())
	if a.cfg != DefaultConfig() {
		t.Errorf("got %+v, want defaults", a.cfg)
	}
}
