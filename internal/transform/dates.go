package transform

import (
	"strings"
	"time"
)

// OutputDateLayout is the dd/mm/yyyy form written by NormalizeDate.
const OutputDateLayout = "02/01/2006"

// dateLayouts are tried in order. Day-first wins for ambiguous dates such as
// 03/04/2020.
var dateLayouts = []string{
	"2/1/2006",
	"1/2/2006",
	"2006-1-2",
	"2006/1/2",
	"1-2-2006",
	"2-1-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

// ParseDate parses the date formats found in vendor exports. Dots are read
// as slashes, so "30.5.2014" is the 30th of May.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	s = strings.ReplaceAll(s, ".", "/")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate rewrites a date cell as dd/mm/yyyy. Blank and unparseable
// cells are returned unchanged.
func NormalizeDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	return t.Format(OutputDateLayout)
}

// Year returns the calendar year of a date cell.
func Year(raw string) (int, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return 0, false
	}
	return t.Year(), true
}

// ParseDealDate reads the deal date column, which the vendor writes as
// d.m.yyyy and the clean job rewrites as dd/mm/yyyy.
func ParseDealDate(raw string) (time.Time, bool) {
	return ParseDate(raw)
}
