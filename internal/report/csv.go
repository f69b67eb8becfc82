package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/inodb/genecov/internal/coverage"
)

// Coverage column names accepted for the per-gene export.
const (
	ColumnPerc1x = "Perc_1x"
	ColumnPct1x  = "% 1x"
)

// WriteGenesCSV writes one row per gene with the coverage rounded to two
// decimals. column names the coverage column; it defaults to Perc_1x.
func WriteGenesCSV(w io.Writer, genes []coverage.GeneCoverage, column string) error {
	if column == "" {
		column = ColumnPerc1x
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Gene_ID", column}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, g := range genes {
		if err := cw.Write([]string{g.GeneID, FormatPct(g.Pct1x)}); err != nil {
			return fmt.Errorf("write gene %s: %w", g.GeneID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTableCSV writes a table with its header.
func WriteTableCSV(w io.Writer, t *coverage.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// FormatPct formats a coverage value with two decimals.
func FormatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
