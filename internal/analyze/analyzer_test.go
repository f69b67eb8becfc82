package analyze

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/genecov/internal/coverage"
	"github.com/inodb/genecov/internal/duckdb"
	"github.com/inodb/genecov/internal/panel"
)

func writeWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func writeRawCoverage(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sample1.xlsx")
	writeWorkbook(t, path, [][]any{
		{"Coverage summary"},
		{"Gene Name", "Gene Names", "Aliases", "Name", "Gene IDs", "Counted Bases", "Mean Depth", "Min Depth", "Max Depth", "% 1x"},
		{"BRCA1", "BRCA1", "", "BRCA1_ex1", "ENSG1", 100, 50, 10, 90, 100},
		{"BRCA1", "BRCA1", "", "BRCA1_ex2", "ENSG1", 100, 30, 0, 60, 90},
		{"TP53", "TP53", "", "TP53_ex1", "ENSG2", 200, 40, 5, 70, 80},
	})
	return path
}

type memCache struct {
	entries map[string][]coverage.GeneSummary
	lookups int
	writes  int
	err     error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]coverage.GeneSummary)}
}

func (c *memCache) LookupSummaries(key string) ([]coverage.GeneSummary, bool, error) {
	c.lookups++
	if c.err != nil {
		return nil, false, c.err
	}
	s, ok := c.entries[key]
	return s, ok, nil
}

func (c *memCache) WriteSummaries(key, name string, summaries []coverage.GeneSummary) error {
	c.writes++
	if c.err != nil {
		return c.err
	}
	c.entries[key] = summaries
	return nil
}

func TestLoadCoverageRaw(t *testing.T) {
	path := writeRawCoverage(t, t.TempDir())

	cov, err := New().LoadCoverage(path)
	require.NoError(t, err)
	assert.Equal(t, "sample1", cov.Name)
	assert.True(t, cov.Aggregated)
	assert.False(t, cov.Cached)
	require.Len(t, cov.Summaries, 2)
	assert.Equal(t, "BRCA1", cov.Summaries[0].GeneName)
	assert.InDelta(t, 95.0, cov.Summaries[0].Pct1x, 1e-9)
	assert.InDelta(t, 40.0, cov.Summaries[0].MeanDepth, 1e-9)
	assert.Equal(t, coverage.SummaryColumns, cov.Table.Header)
}

func TestLoadCoveragePreAggregated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	require.NoError(t, os.WriteFile(path, []byte("Ref Name,Gene_Name,%1x\nTP53,TP53,99\n"), 0644))

	cov, err := New().LoadCoverage(path)
	require.NoError(t, err)
	assert.Equal(t, "run", cov.Name)
	assert.False(t, cov.Aggregated)
	assert.Equal(t, [][]string{{"TP53", "TP53", "99"}}, cov.Table.Rows)
}

func TestLoadCoverageSchemaError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	writeWorkbook(t, path, [][]any{
		{"skip"},
		{"Gene", "Counted Bases"},
		{"TP53", 1},
	})

	_, err := New().LoadCoverage(path)
	var schemaErr *coverage.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, coverage.ColGeneName, schemaErr.Column)
}

func TestLoadCoverageUsesCache(t *testing.T) {
	path := writeRawCoverage(t, t.TempDir())
	c := newMemCache()
	a := New()
	a.SetCache(c)

	first, err := a.LoadCoverage(path)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, c.writes)

	second, err := a.LoadCoverage(path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, c.writes)
	assert.Equal(t, 2, c.lookups)
	assert.Equal(t, first.Table, second.Table)
}

func TestLoadCoverageCacheFailureIsLogged(t *testing.T) {
	path := writeRawCoverage(t, t.TempDir())
	c := newMemCache()
	c.err = errors.New("disk full")

	core, logs := observer.New(zap.WarnLevel)
	a := New()
	a.SetLogger(zap.New(core))
	a.SetCache(c)

	cov, err := a.LoadCoverage(path)
	require.NoError(t, err)
	assert.Len(t, cov.Summaries, 2)
	assert.Equal(t, 1, logs.FilterMessage("summary cache lookup failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("summary cache write failed").Len())
}

func TestLoadCoverageWithDuckDBCache(t *testing.T) {
	path := writeRawCoverage(t, t.TempDir())
	store, err := duckdb.Open("")
	require.NoError(t, err)
	defer store.Close()

	a := New()
	a.SetCache(store)

	first, err := a.LoadCoverage(path)
	require.NoError(t, err)
	second, err := a.LoadCoverage(path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Table, second.Table)

	sources, err := store.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "sample1.xlsx", sources[0].Name)
	assert.Equal(t, 2, sources[0].Genes)
}

func TestLoadAuxiliary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mito.xlsx")
	writeWorkbook(t, path, [][]any{
		{"report"},
		{"generated"},
		{"Name", "Length", "Percent 1x"},
		{"MT-ND1/chrM:3307-4262", 956, 100},
		{"MT-ND2/chrM:4470-5511", 1042, "n/a"},
	})

	aux, err := New().LoadAuxiliary(path)
	require.NoError(t, err)
	assert.Equal(t, []coverage.GeneCoverage{{GeneID: "MT-ND1", Pct1x: 100}}, aux.Genes)
	assert.Equal(t, 1, aux.Dropped)
}

func TestAnalyze(t *testing.T) {
	path := writeRawCoverage(t, t.TempDir())
	a := New()
	cov, err := a.LoadCoverage(path)
	require.NoError(t, err)

	aux := &coverage.AuxResult{
		Genes:   []coverage.GeneCoverage{{GeneID: "MT-ND1", Pct1x: 88}, {GeneID: "TP53", Pct1x: 1}},
		Dropped: 2,
	}
	res, err := a.Analyze(cov.Table, panel.Parse("TP53 BRCA1 VHL"), aux)
	require.NoError(t, err)

	assert.Equal(t, []coverage.GeneCoverage{
		{GeneID: "BRCA1", Pct1x: 95},
		{GeneID: "MT-ND1", Pct1x: 88},
		{GeneID: "TP53", Pct1x: 80},
	}, res.Genes)
	assert.Equal(t, []string{"VHL"}, res.Missing)
	assert.Equal(t, 2, res.AuxDropped)
	assert.Equal(t, 3, res.Data.Total)
	assert.Equal(t, 2, res.Data.LowCount)

	var empty *coverage.EmptyResultWarning
	require.True(t, errors.As(res.Warnings[0], &empty))
	assert.Equal(t, []string{"VHL"}, empty.Genes)
}

func TestAnalyzeEmptyPanel(t *testing.T) {
	tbl := &coverage.Table{
		Header: []string{"Ref Name", "Gene_Name", "% 1x"},
		Rows:   [][]string{{"TP53", "TP53", "99"}},
	}
	res, err := New().Analyze(tbl, panel.Parse(" ,\n"), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Genes)
	require.Len(t, res.Warnings, 1)
	assert.EqualError(t, res.Warnings[0], "gene list is empty")
	assert.Zero(t, res.Data.Total)
}

func TestAnalyzeColumnNotFound(t *testing.T) {
	tbl := &coverage.Table{Header: []string{"Ref Name", "Gene_Name", "coverage"}}
	_, err := New().Analyze(tbl, panel.Parse("TP53"), nil)
	var notFound *coverage.ColumnNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
