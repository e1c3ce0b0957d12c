package dataset

import (
	"strconv"
	"time"
)

var (
	demoPM25 = []int{50, 48, 45, 52, 60, 55, 58, 62, 49, 47, 46, 45, 44, 50, 52, 51, 48, 46, 45, 43, 42, 40, 39, 41, 44, 46, 49, 47, 45, 43}
	demoPM10 = []int{90, 88, 85, 92, 100, 95, 98, 102, 89, 87, 86, 85, 84, 90, 92, 91, 88, 86, 85, 83, 82, 80, 79, 81, 84, 86, 89, 87, 85, 83}
	demoNO2  = []int{30, 32, 31, 29, 35, 34, 33, 36, 31, 30, 29, 28, 27, 31, 32, 33, 30, 29, 28, 27, 26, 25, 24, 25, 26, 27, 28, 27, 26, 25}
)

var demoStart = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Demo returns the built-in 30-day daily series starting 2025-01-01,
// stamped with city.
func Demo(city string) *Dataset {
	ds := New([]string{ColumnDate, "pm25", "pm10", "no2", ColumnCity})
	for i := range demoPM25 {
		ds.Rows = append(ds.Rows, Row{
			Date: demoStart.AddDate(0, 0, i).Format(time.DateOnly),
			City: city,
			Values: map[string]string{
				"pm25": strconv.Itoa(demoPM25[i]),
				"pm10": strconv.Itoa(demoPM10[i]),
				"no2":  strconv.Itoa(demoNO2[i]),
			},
		})
	}
	return ds
}
