// Package panel parses gene panels: the lists of gene symbols a coverage
// report is restricted to.
package panel

import (
	"fmt"
	"os"
	"strings"

	"github.com/inodb/genecov/internal/coverage"
	"github.com/inodb/genecov/internal/sheet"
)

// GeneColumn is the column holding gene symbols in a tabular panel.
const GeneColumn = "GENE"

// Panel is an ordered set of gene symbols. Matching is case-sensitive.
type Panel struct {
	genes      []string
	set        map[string]struct{}
	duplicates int
}

// New builds a panel from symbols, dropping empty and repeated entries while
// keeping first-occurrence order.
func New(symbols []string) Panel {
	p := Panel{set: make(map[string]struct{}, len(symbols))}
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := p.set[s]; ok {
			p.duplicates++
			continue
		}
		p.set[s] = struct{}{}
		p.genes = append(p.genes, s)
	}
	return p
}

// Parse reads a free-text gene list. Newlines, commas, tabs and spaces all
// separate symbols.
func Parse(text string) Panel {
	return New(strings.Fields(strings.ReplaceAll(text, ",", " ")))
}

// FromColumn builds a panel from a table column; missing cells are skipped.
func FromColumn(values []string) Panel {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		trimmed = append(trimmed, strings.TrimSpace(v))
	}
	return New(trimmed)
}

// FromTable builds a panel from the GENE column of a table.
func FromTable(t *coverage.Table) (Panel, error) {
	col := t.Column(GeneColumn)
	if col < 0 {
		return Panel{}, &coverage.SchemaError{Column: GeneColumn, Input: "panel"}
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, coverage.Cell(row, col))
	}
	return FromColumn(values), nil
}

// Load reads a panel file. Spreadsheets must have a GENE column; any other
// file is parsed as free text.
func Load(path string) (Panel, error) {
	if sheet.DetectFormat(path) == sheet.FormatXLSX {
		t, err := sheet.ReadFile(path, 0)
		if err != nil {
			return Panel{}, fmt.Errorf("load panel: %w", err)
		}
		p, err := FromTable(t)
		if err != nil {
			return Panel{}, fmt.Errorf("load panel %s: %w", path, err)
		}
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Panel{}, fmt.Errorf("load panel: %w", err)
	}
	return Parse(string(data)), nil
}

// Genes returns the symbols in panel order.
func (p Panel) Genes() []string { return p.genes }

// Contains reports whether gene is in the panel.
func (p Panel) Contains(gene string) bool {
	_, ok := p.set[gene]
	return ok
}

// Len returns the number of distinct genes.
func (p Panel) Len() int { return len(p.genes) }

// Duplicates returns how many repeated symbols were dropped.
func (p Panel) Duplicates() int { return p.duplicates }
