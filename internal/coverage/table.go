// Package coverage implements the gene coverage aggregation pipeline:
// raw region aggregation, panel filtering, auxiliary merging and the
// column lookups they share.
package coverage

import (
	"strconv"
	"strings"
)

// Table is a header line plus string rows, as loaded from a spreadsheet
// or a delimited text file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// FindColumn returns the first candidate present in the header, trying
// candidates in order.
func (t *Table) FindColumn(candidates ...string) (string, int, bool) {
	for _, c := range candidates {
		if i := t.Column(c); i >= 0 {
			return c, i, true
		}
	}
	return "", -1, false
}

// FindColumnFunc returns the first header accepted by match.
func (t *Table) FindColumnFunc(match func(string) bool) (string, int, bool) {
	for i, h := range t.Header {
		if match(h) {
			return h, i, true
		}
	}
	return "", -1, false
}

// Cell returns the value at col, or "" when the row is too short or col is -1.
// An empty cell is treated as missing everywhere in this package.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// CoverageColumns are the accepted spellings of the percent-at-1x column
// in pre-aggregated input, in lookup order.
var CoverageColumns = []string{"% 1x", "%1x", "% 1x "}

// FindCoverageColumn resolves the coverage column of a pre-aggregated table.
func FindCoverageColumn(t *Table) (string, int, error) {
	name, idx, ok := t.FindColumn(CoverageColumns...)
	if !ok {
		return "", -1, &ColumnNotFoundError{Candidates: CoverageColumns}
	}
	return name, idx, nil
}

// parseNumber converts a cell to a float. ok is false when the cell is
// missing or not numeric.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
