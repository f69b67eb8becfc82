// Package analyze runs the coverage pipeline: load a coverage table,
// aggregate raw spreadsheets through an optional cache, filter and group by
// panel, merge auxiliary coverage and build report data.
package analyze

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/genecov/internal/coverage"
	"github.com/inodb/genecov/internal/duckdb"
	"github.com/inodb/genecov/internal/report"
	"github.com/inodb/genecov/internal/sheet"
)

// Default header offsets of the input spreadsheets.
const (
	DefaultSkipRows     = 1
	DefaultAuxHeaderRow = 2
)

// SummaryCache stores aggregated summaries keyed by input content.
type SummaryCache interface {
	LookupSummaries(key string) ([]coverage.GeneSummary, bool, error)
	WriteSummaries(key, name string, summaries []coverage.GeneSummary) error
}

// Analyzer runs the pipeline for one or more inputs.
type Analyzer struct {
	logger       *zap.Logger
	cache        SummaryCache
	skipRows     int
	auxHeaderRow int
}

// New creates an analyzer with default header offsets and no cache.
func New() *Analyzer {
	return &Analyzer{
		logger:       zap.NewNop(),
		skipRows:     DefaultSkipRows,
		auxHeaderRow: DefaultAuxHeaderRow,
	}
}

// SetLogger sets the logger for warning and info messages.
func (a *Analyzer) SetLogger(l *zap.Logger) {
	a.logger = l
}

// SetCache enables caching of raw aggregation results.
func (a *Analyzer) SetCache(c SummaryCache) {
	a.cache = c
}

// SetSkipRows sets how many rows precede the header of a raw coverage
// spreadsheet.
func (a *Analyzer) SetSkipRows(n int) {
	a.skipRows = n
}

// SetAuxHeaderRow sets the 0-based header row of auxiliary spreadsheets.
func (a *Analyzer) SetAuxHeaderRow(n int) {
	a.auxHeaderRow = n
}

// Coverage is a loaded coverage input.
type Coverage struct {
	Table      *coverage.Table
	Name       string // input base name
	Aggregated bool   // true when Table was aggregated from raw regions
	Cached     bool   // true when the aggregation came from the cache
	Summaries  []coverage.GeneSummary
}

// LoadCoverage loads a coverage input. Spreadsheets hold raw per-region data
// and are aggregated per gene; delimited files are read as pre-aggregated.
func (a *Analyzer) LoadCoverage(path string) (*Coverage, error) {
	cov := &Coverage{Name: sheet.BaseName(path)}

	if sheet.DetectFormat(path) != sheet.FormatXLSX {
		t, err := sheet.ReadFile(path, 0)
		if err != nil {
			return nil, err
		}
		cov.Table = t
		return cov, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var key string
	if a.cache != nil {
		key = duckdb.ContentKey(filepath.Base(path), data)
		summaries, ok, err := a.cache.LookupSummaries(key)
		switch {
		case err != nil:
			a.logger.Warn("summary cache lookup failed", zap.String("path", path), zap.Error(err))
		case ok:
			a.logger.Info("using cached summaries", zap.String("path", path), zap.Int("genes", len(summaries)))
			cov.Summaries, cov.Cached = summaries, true
		}
	}

	if !cov.Cached {
		t, err := sheet.Read(bytes.NewReader(data), sheet.FormatXLSX, a.skipRows)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		summaries, err := coverage.Aggregate(t)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", path, err)
		}
		cov.Summaries = summaries
		a.logger.Info("aggregated coverage",
			zap.String("path", path),
			zap.Int("regions", len(t.Rows)),
			zap.Int("genes", len(summaries)))

		if a.cache != nil {
			if err := a.cache.WriteSummaries(key, filepath.Base(path), summaries); err != nil {
				a.logger.Warn("summary cache write failed", zap.String("path", path), zap.Error(err))
			}
		}
	}

	cov.Table = coverage.SummaryTable(cov.Summaries)
	cov.Aggregated = true
	return cov, nil
}

// LoadAuxiliary reads an auxiliary coverage source.
func (a *Analyzer) LoadAuxiliary(path string) (*coverage.AuxResult, error) {
	t, err := sheet.ReadFile(path, a.auxHeaderRow)
	if err != nil {
		return nil, fmt.Errorf("load auxiliary: %w", err)
	}
	aux, err := coverage.ReadAuxiliary(t)
	if err != nil {
		return nil, fmt.Errorf("load auxiliary %s: %w", path, err)
	}
	return aux, nil
}

// Result is the outcome of Analyze.
type Result struct {
	Genes      []coverage.GeneCoverage
	Missing    []string
	Warnings   []error
	Data       *report.Data
	AuxDropped int
}

// Analyze filters t by panel, merges aux when given and builds report data.
// Warnings are logged and returned; only schema problems are errors.
func (a *Analyzer) Analyze(t *coverage.Table, panel coverage.GeneSet, aux *coverage.AuxResult) (*Result, error) {
	res := &Result{}
	if len(panel.Genes()) == 0 {
		res.Warnings = append(res.Warnings, &coverage.EmptyResultWarning{})
	}

	grouped, err := coverage.FilterAndGroup(t, panel)
	if err != nil {
		return nil, err
	}
	res.Genes = grouped.Genes
	res.Missing = grouped.Missing
	res.Warnings = append(res.Warnings, grouped.Warnings...)

	if aux != nil {
		res.Genes = coverage.Merge(res.Genes, aux.Genes)
		res.AuxDropped = aux.Dropped
		res.Warnings = append(res.Warnings, aux.Warnings...)
	}

	res.Data = report.Build(res.Genes)
	for _, w := range res.Warnings {
		a.logger.Warn("coverage warning", zap.Error(w))
	}
	a.logger.Info("analysis complete",
		zap.Int("genes", res.Data.Total),
		zap.Int("low_coverage", res.Data.LowCount),
		zap.Int("missing", len(res.Missing)))
	return res, nil
}
