// Package dataset models the tabular pollutant time series handed to the
// data analyst, and loads it from CSV or the built-in demo series.
package dataset

import (
	"slices"

	"github.com/nidhogg/taskforce/internal/agent"
)

// Column names with fixed meaning. Every other column is a pollutant.
const (
	ColumnDate = "date"
	ColumnCity = "city"
)

// RequiredColumns must all be present for a dataset to be analyzed.
var RequiredColumns = []string{ColumnDate, "pm25", "pm10", "no2", ColumnCity}

// Row is one record. Pollutant cells are kept as raw text so the analyzer
// can tell missing values from unparseable ones.
type Row struct {
	Date   string            `json:"date"`
	City   string            `json:"city"`
	Values map[string]string `json:"values"`
}

// Dataset is an ordered sequence of rows sharing one header.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New builds a dataset from a header and rows.
func New(columns []string, rows ...Row) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

// Len returns the number of rows; a nil dataset has none.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether the header contains name.
func (d *Dataset) HasColumn(name string) bool {
	return slices.Contains(d.Columns, name)
}

// PollutantColumns returns every column except date and city, in header order.
func (d *Dataset) PollutantColumns() []string {
	var out []string
	for _, c := range d.Columns {
		if c == ColumnDate || c == ColumnCity || c == "" {
			continue
		}
		if slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Validate checks the header for required columns.
func (d *Dataset) Validate() error {
	var missing []string
	for _, c := range RequiredColumns {
		if !d.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &agent.SchemaError{Missing: missing, Rows: len(d.Rows)}
	}
	return nil
}

// City returns the first non-empty city value, or "".
func (d *Dataset) City() string {
	if d == nil {
		return ""
	}
	for _, r := range d.Rows {
		if r.City != "" {
			return r.City
		}
	}
	return ""
}
