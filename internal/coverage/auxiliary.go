package coverage

import "strings"

// AuxIDColumn is the identifier column of an auxiliary coverage sheet. Its
// values look like "MT-ND1/chrM:3307-4262"; only the part before the first
// slash is the gene.
const AuxIDColumn = "Name"

// AuxResult is the extracted content of an auxiliary coverage source.
type AuxResult struct {
	Genes    []GeneCoverage
	Dropped  int // rows dropped for non-numeric coverage
	Warnings []error
}

// ReadAuxiliary extracts gene coverage rows from an auxiliary source table.
// The coverage column is the first whose name contains "1x", ignoring case.
func ReadAuxiliary(t *Table) (*AuxResult, error) {
	id := t.Column(AuxIDColumn)
	if id < 0 {
		return nil, &SchemaError{Column: AuxIDColumn, Input: "auxiliary coverage"}
	}
	pctName, pct, ok := t.FindColumnFunc(func(h string) bool {
		return strings.Contains(strings.ToLower(h), "1x")
	})
	if !ok {
		return nil, &ColumnNotFoundError{Rule: `no header contains "1x"`}
	}

	res := &AuxResult{}
	for _, row := range t.Rows {
		gene, _, _ := strings.Cut(Cell(row, id), "/")
		gene = strings.TrimSpace(gene)
		if gene == "" {
			continue
		}
		v, ok := parseNumber(Cell(row, pct))
		if !ok {
			res.Dropped++
			continue
		}
		res.Genes = append(res.Genes, GeneCoverage{GeneID: gene, Pct1x: round2(v)})
	}
	if res.Dropped > 0 {
		res.Warnings = append(res.Warnings, &ConversionWarning{Column: pctName, Count: res.Dropped})
	}
	return res, nil
}

// Merge appends auxiliary rows to the primary rows. When a gene appears more
// than once, the first occurrence wins, so primary rows take precedence.
// The result is sorted by gene.
func Merge(primary, aux []GeneCoverage) []GeneCoverage {
	seen := make(map[string]bool, len(primary)+len(aux))
	merged := make([]GeneCoverage, 0, len(primary)+len(aux))
	for _, src := range [][]GeneCoverage{primary, aux} {
		for _, g := range src {
			if seen[g.GeneID] {
				continue
			}
			seen[g.GeneID] = true
			merged = append(merged, g)
		}
	}
	SortByGene(merged)
	return merged
}
