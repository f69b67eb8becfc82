package coverage

import (
	"fmt"
	"strings"
)

// SchemaError reports a required column that is absent from an input table.
type SchemaError struct {
	Column string
	Input  string // e.g. "raw coverage", "pre-aggregated coverage"
}

func (e *SchemaError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("required column %q not found", e.Column)
	}
	return fmt.Sprintf("%s: required column %q not found", e.Input, e.Column)
}

// ColumnNotFoundError reports a coverage column that could not be resolved
// by any accepted name.
type ColumnNotFoundError struct {
	Candidates []string
	Rule       string // describes a non-exact match rule, if one was used
}

func (e *ColumnNotFoundError) Error() string {
	if e.Rule != "" {
		return "no coverage column found: " + e.Rule
	}
	quoted := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "no coverage column found (tried " + strings.Join(quoted, ", ") + ")"
}

// ProcessingError wraps a malformed value found while aggregating raw records.
type ProcessingError struct {
	Row    int // 1-based data row
	Column string
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// ConversionWarning reports coverage values that were not numeric and were
// excluded instead of being treated as zero.
type ConversionWarning struct {
	Column string
	Count  int
}

func (w *ConversionWarning) Error() string {
	return fmt.Sprintf("%d non-numeric value(s) in column %q excluded", w.Count, w.Column)
}

// EmptyResultWarning reports panel genes that matched no coverage rows, or
// a gene list that produced no genes at all.
type EmptyResultWarning struct {
	Genes []string
}

func (w *EmptyResultWarning) Error() string {
	if len(w.Genes) == 0 {
		return "gene list is empty"
	}
	return fmt.Sprintf("%d panel gene(s) not found in coverage data: %s",
		len(w.Genes), strings.Join(w.Genes, ", "))
}
