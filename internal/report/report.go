// Package report turns grouped gene coverage into render-ready data and
// writes it as CSV, Word, Excel and HTML documents.
package report

import (
	"gonum.org/v1/gonum/stat"

	"github.com/inodb/genecov/internal/coverage"
)

// LowCoverageThreshold is the %1x below which a gene has low coverage.
const LowCoverageThreshold = 90.0

// GenesPerRow is the number of gene/coverage pairs per table row.
const GenesPerRow = 4

// Default headings of rendered documents.
const (
	DefaultTitle    = "Appendix 1: Gene Coverage"
	DefaultSubtitle = "Indication Based Analysis:"
)

// IsLow reports whether a coverage value is below the threshold. A value of
// exactly 90 is adequate.
func IsLow(pct float64) bool {
	return pct < LowCoverageThreshold
}

// Cell is one gene/coverage pair of the chunked table. Empty cells pad the
// last row.
type Cell struct {
	GeneID string
	Pct1x  float64
	Low    bool
	Empty  bool
}

// Entry is one gene of the flat, ranked list.
type Entry struct {
	Rank   int     `json:"rank"`
	GeneID string  `json:"gene_id"`
	Pct1x  float64 `json:"perc_1x"`
	Low    bool    `json:"low"`
}

// Data is everything a renderer needs.
type Data struct {
	Rows  [][]Cell
	Genes []Entry

	Total        int
	LowCount     int
	MeanCoverage float64
}

// Build chunks genes into rows of GenesPerRow cells and classifies each
// gene against LowCoverageThreshold. Genes keep their given order.
func Build(genes []coverage.GeneCoverage) *Data {
	d := &Data{Total: len(genes)}

	values := make([]float64, 0, len(genes))
	for i, g := range genes {
		low := IsLow(g.Pct1x)
		if low {
			d.LowCount++
		}
		values = append(values, g.Pct1x)
		d.Genes = append(d.Genes, Entry{Rank: i + 1, GeneID: g.GeneID, Pct1x: g.Pct1x, Low: low})
	}
	if len(values) > 0 {
		d.MeanCoverage = stat.Mean(values, nil)
	}

	for start := 0; start < len(genes); start += GenesPerRow {
		row := make([]Cell, GenesPerRow)
		for j := range row {
			if start+j >= len(genes) {
				row[j] = Cell{Empty: true}
				continue
			}
			e := d.Genes[start+j]
			row[j] = Cell{GeneID: e.GeneID, Pct1x: e.Pct1x, Low: e.Low}
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// Options control document headings.
type Options struct {
	Title    string
	Subtitle string
	Sample   string   // input base name, shown in HTML and spreadsheet output
	Missing  []string // panel genes without coverage; listed when non-empty
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Subtitle == "" {
		o.Subtitle = DefaultSubtitle
	}
	return o
}
