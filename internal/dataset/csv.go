package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV loads a dataset from CSV with a header row. Header names are
// trimmed and lower-cased; short rows are padded with empty cells. The
// header is not checked for required columns here so that callers can
// still run the rest of the team and report the schema problem per role.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	ds := New(cols)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}
		row := Row{Values: make(map[string]string, len(cols))}
		for i, c := range cols {
			var cell string
			if i < len(rec) {
				cell = strings.TrimSpace(rec[i])
			}
			switch c {
			case ColumnDate:
				row.Date = cell
			case ColumnCity:
				row.City = cell
			case "":
			default:
				row.Values[c] = cell
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// WriteCSV writes the dataset back out with its original header.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range d.Rows {
		rec := make([]string, len(d.Columns))
		for i, c := range d.Columns {
			switch c {
			case ColumnDate:
				rec[i] = r.Date
			case ColumnCity:
				rec[i] = r.City
			default:
				rec[i] = r.Values[c]
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
