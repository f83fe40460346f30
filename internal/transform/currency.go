package transform

import (
	"strings"

	"github.com/mkguldan/empirical/internal/table"
)

// Deal sizes in the vendor export are in millions of USD.
const dealSizeUnit = 1_000_000

func stripCurrency(raw string) string {
	s := strings.ReplaceAll(raw, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// FormatCurrency renders a deal size given in millions as dollars, e.g.
// "1.5" becomes "$1,500,000.00". Blank stays blank and values that do not
// parse are returned as they were.
func FormatCurrency(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	v, ok := table.ParseFloat(stripCurrency(raw))
	if !ok {
		return raw
	}
	return "$" + Decimal(v*dealSizeUnit, 2)
}

// ParseCurrency reads a "$1,234.56" style amount. Only positive amounts are
// accepted.
func ParseCurrency(raw string) (float64, bool) {
	v, ok := table.ParseFloat(stripCurrency(raw))
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
