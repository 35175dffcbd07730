package exporter

import (
	"strconv"
)

// formatFloat formats a value with the shortest exact representation
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatValue formats an optional value; absent values are empty cells
func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// formatInt formats an integer count
func formatInt(i int) string {
	return strconv.Itoa(i)
}
