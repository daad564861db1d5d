package source

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// dateLayouts are the calendar date formats accepted in load-shape files.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// normalizeCol lowercases and trims a header name for cross-format matching.
func normalizeCol(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mapColumnsNormalized builds a normalized column name -> index map.
func mapColumnsNormalized(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[normalizeCol(col)] = i
	}
	return m
}

// getColN gets a column value by normalized name.
func getColN(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[normalizeCol(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// requireColumns verifies that every named column exists in the header,
// failing with an error naming the first missing one.
func requireColumns(colIdx map[string]int, file string, names ...string) error {
	for _, name := range names {
		if _, ok := colIdx[normalizeCol(name)]; !ok {
			return eris.Errorf("source: %s: missing required column %q", file, name)
		}
	}
	return nil
}

// parseDate parses a calendar date trying each accepted layout.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, eris.Errorf("source: unparseable date %q", s)
}

// parseHour parses an hour-of-day value, accepting 0-23.
func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, eris.Errorf("source: unparseable hour %q", s)
	}
	if h < 0 || h > 23 {
		return 0, eris.Errorf("source: hour %d out of range", h)
	}
	return h, nil
}

// parseKWH parses an energy reading.
func parseKWH(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Errorf("source: unparseable kwh %q", s)
	}
	return v, nil
}
