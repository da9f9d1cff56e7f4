package exporter

import (
	"strconv"
)

// formatFloat renders a value with the shortest exact representation so
// that CSV output round-trips.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// stringRecords converts typed rows to CSV records
func stringRecords(rows [][]interface{}) [][]string {
	records := make([][]string, len(rows))
	for i, row := range rows {
		rec := make([]string, len(row))
		for j, v := range row {
			switch val := v.(type) {
			case string:
				rec[j] = val
			case float64:
				rec[j] = formatFloat(val)
			case int:
				rec[j] = formatInt(val)
			case nil:
				rec[j] = ""
			default:
				rec[j] = ""
			}
		}
		records[i] = rec
	}
	return records
}
