// Package transform holds the cell-level conversions shared by the pipeline
// stages: currency, dates, ranks and logs.
package transform

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mkguldan/empirical/internal/table"
)

var printer = message.NewPrinter(language.English)

// Thousands renders an integer with comma grouping, e.g. 12,345.
func Thousands(n int) string {
	return printer.Sprintf("%d", n)
}

// Decimal renders v with comma grouping and the given number of decimals.
func Decimal(v float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// Log returns the natural log of v for positive v.
func Log(v float64) (float64, bool) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Log(v), true
}

// LogCell parses a cell and returns its natural log as a cell, or "" when the
// value is missing or not positive.
func LogCell(raw string) string {
	v, ok := table.ParseFloat(raw)
	if !ok {
		return ""
	}
	if l, ok := Log(v); ok {
		return table.FormatFloat(l)
	}
	return ""
}

// ParseRank converts a university rank cell. Vendor files write ranks past
// the published list as "192<", meaning worse than 192, which maps to 193.
func ParseRank(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if i := strings.Index(s, "<"); i >= 0 {
		if bound, ok := table.ParseFloat(s[:i]); ok {
			return bound + 1, true
		}
		return 0, false
	}
	return table.ParseFloat(s)
}

// FormatNumber renders a number in its shortest decimal form.
func FormatNumber(v float64) string {
	return table.FormatFloat(v)
}
