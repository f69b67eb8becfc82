package coverage

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// IntronPrefix marks pseudo-rows for non-coding regions in coverage tables.
const IntronPrefix = "Intron:"

// GeneCoverage is one row of a grouped coverage table.
type GeneCoverage struct {
	GeneID string  `json:"gene_id"`
	Pct1x  float64 `json:"perc_1x"`
}

// GeneSet is the panel membership test used by FilterAndGroup.
type GeneSet interface {
	Contains(gene string) bool
	Genes() []string
}

// GroupResult is the output of FilterAndGroup.
type GroupResult struct {
	Genes    []GeneCoverage
	Missing  []string // panel genes without a usable coverage value, in panel order
	Warnings []error
}

// FilterAndGroup keeps the rows of a pre-aggregated coverage table that
// belong to the panel and reduces them to one row per gene, sorted by gene.
func FilterAndGroup(t *Table, panel GeneSet) (*GroupResult, error) {
	pctName, pct, err := FindCoverageColumn(t)
	if err != nil {
		return nil, err
	}
	geneName := t.Column(ColNormalizedName)
	if geneName < 0 {
		return nil, &SchemaError{Column: ColNormalizedName, Input: "coverage"}
	}
	refName := t.Column(ColRefName)
	if refName < 0 {
		return nil, &SchemaError{Column: ColRefName, Input: "coverage"}
	}

	groups := make(map[string][]float64)
	matched := make(map[string]bool)
	nonNumeric := 0

	for _, row := range t.Rows {
		name, _ := PrimaryName(Cell(row, geneName))
		ref := Cell(row, refName)

		var hits []string
		if name != "" && panel.Contains(name) {
			hits = append(hits, name)
		}
		if ref != "" && ref != name && panel.Contains(ref) {
			hits = append(hits, ref)
		}
		if len(hits) == 0 {
			continue
		}

		id := ResolveGeneID(Cell(row, geneName), ref)
		if id == "" || strings.HasPrefix(id, IntronPrefix) {
			continue
		}

		v, ok := parseNumber(Cell(row, pct))
		if !ok {
			nonNumeric++
			continue
		}
		for _, g := range hits {
			matched[g] = true
		}
		groups[id] = append(groups[id], v)
	}

	res := &GroupResult{}
	for id, vals := range groups {
		res.Genes = append(res.Genes, GeneCoverage{GeneID: id, Pct1x: round2(stat.Mean(vals, nil))})
	}
	SortByGene(res.Genes)

	for _, g := range panel.Genes() {
		if !matched[g] {
			res.Missing = append(res.Missing, g)
		}
	}

	if nonNumeric > 0 {
		res.Warnings = append(res.Warnings, &ConversionWarning{Column: pctName, Count: nonNumeric})
	}
	if len(res.Missing) > 0 {
		res.Warnings = append(res.Warnings, &EmptyResultWarning{Genes: res.Missing})
	}
	return res, nil
}

// SortByGene orders rows by gene identifier using byte-wise string order.
func SortByGene(genes []GeneCoverage) {
	sort.SliceStable(genes, func(i, j int) bool {
		return genes[i].GeneID < genes[j].GeneID
	})
}
