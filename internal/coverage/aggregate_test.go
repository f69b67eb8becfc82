package coverage

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawHeader = []string{
	"Region", "Gene Name", "Gene Names", "Aliases", "Name", "Gene IDs",
	"Counted Bases", "Mean Depth", "Min Depth", "Max Depth", "% 1x",
}

func rawRow(geneName, geneNames, aliases, name string, bases, mean, min, max, pct float64) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{"r", geneName, geneNames, aliases, name, "", f(bases), f(mean), f(min), f(max), f(pct)}
}

func TestAggregate_WeightedPct1x(t *testing.T) {
	tbl := &Table{
		Header: rawHeader,
		Rows: [][]string{
			rawRow("X", "X", "", "X", 100, 10, 2, 20, 80),
			rawRow("X", "X", "", "X", 300, 30, 5, 50, 100),
		},
	}

	got, err := Aggregate(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "total", s.Region)
	assert.Equal(t, "X", s.RefName)
	assert.Equal(t, "X", s.GeneName)
	assert.Equal(t, 400.0, s.CountedBases)
	assert.InDelta(t, 95.0, s.Pct1x, 1e-9)
	assert.InDelta(t, 25.0, s.MeanDepth, 1e-9) // (10*100 + 30*300) / 400
	assert.Equal(t, 2.0, s.MinDepth)
	assert.Equal(t, 50.0, s.MaxDepth)
}

func TestAggregate_IdentityPrecedence(t *testing.T) {
	tbl := &Table{
		Header: rawHeader,
		Rows: [][]string{
			// Grouped by Gene Names even though the aliases differ.
			rawRow("BRCA1,BRCA1P1", "BRCA1", "A1", "n1", 10, 1, 1, 1, 50),
			rawRow("BRCA1", "BRCA1", "A2", "n2", 10, 1, 1, 1, 100),
			// No Gene Names: grouped by Aliases.
			rawRow("TP53", "", "P53", "n3", 10, 1, 1, 1, 90),
			rawRow("TP53b", "", "P53", "n4", 30, 1, 1, 1, 10),
			// Only a gene name: grouped by normalized name.
			rawRow("KRAS;K-RAS", "", "", "n5", 10, 1, 1, 1, 70),
			rawRow("KRAS", "", "", "n6", 10, 1, 1, 1, 30),
			// Nothing to group on.
			rawRow("", "", "", "n7", 10, 1, 1, 1, 30),
		},
	}

	got, err := Aggregate(tbl)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "BRCA1", got[0].RefName)
	assert.Equal(t, "A1", got[0].Aliases)
	assert.Equal(t, "n1", got[0].Name)
	assert.InDelta(t, 75.0, got[0].Pct1x, 1e-9)

	assert.Equal(t, "", got[1].RefName)
	assert.Equal(t, "P53", got[1].Aliases)
	assert.Equal(t, "TP53", got[1].GeneName)
	assert.InDelta(t, 30.0, got[1].Pct1x, 1e-9)

	assert.Equal(t, "KRAS", got[2].GeneName)
	assert.InDelta(t, 50.0, got[2].Pct1x, 1e-9)
}

func TestAggregate_SkipsZeroBases(t *testing.T) {
	tbl := &Table{
		Header: rawHeader,
		Rows: [][]string{
			rawRow("EMPTY", "EMPTY", "", "", 0, 0, 0, 0, 0),
			rawRow("EGFR", "EGFR", "", "", 5, 3, 1, 4, 100),
		},
	}

	got, err := Aggregate(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EGFR", got[0].RefName)
}

func TestAggregate_MissingCellsAreSkipped(t *testing.T) {
	tbl := &Table{
		Header: rawHeader,
		Rows: [][]string{
			{"r", "ALK", "ALK", "", "", "", "100", "", "", "7", "90"},
			{"r", "ALK", "ALK", "", "", "", "100", "10", "3", "", "80"},
		},
	}

	got, err := Aggregate(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 85.0, got[0].Pct1x, 1e-9)
	assert.InDelta(t, 5.0, got[0].MeanDepth, 1e-9)
	assert.Equal(t, 3.0, got[0].MinDepth)
	assert.Equal(t, 7.0, got[0].MaxDepth)
}

func TestAggregate_MissingGeneNameColumn(t *testing.T) {
	tbl := &Table{Header: []string{"Gene Names", "Counted Bases"}}

	_, err := Aggregate(tbl)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Gene Name", schemaErr.Column)
}

func TestAggregate_MalformedNumber(t *testing.T) {
	tbl := &Table{
		Header: rawHeader,
		Rows: [][]string{
			rawRow("X", "X", "", "", 1, 1, 1, 1, 1),
			{"r", "Y", "Y", "", "", "", "many", "1", "1", "1", "1"},
		},
	}

	got, err := Aggregate(tbl)
	assert.Nil(t, got)
	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, 2, procErr.Row)
	assert.Equal(t, "Counted Bases", procErr.Column)
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
	assert.Contains(t, err.Error(), "many")
}

func TestAggregate_AcceptsCoverageSpellings(t *testing.T) {
	header := append([]string(nil), rawHeader...)
	header[len(header)-1] = "%1x"
	tbl := &Table{Header: header, Rows: [][]string{rawRow("X", "X", "", "", 1, 1, 1, 1, 42)}}

	got, err := Aggregate(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 42.0, got[0].Pct1x)
}

func TestSummarize_WeightedMeansWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var regions []Region
	for i := 0; i < 200; i++ {
		gene := "G" + strconv.Itoa(i%9)
		regions = append(regions, Region{
			GeneName:     gene,
			GeneNames:    gene,
			CountedBases: float64(rng.Intn(500) + 1),
			MeanDepth:    rng.Float64() * 300,
			MinDepth:     rng.Float64() * 10,
			MaxDepth:     300 + rng.Float64()*100,
			Pct1x:        rng.Float64() * 100,
		})
	}

	for _, s := range Summarize(regions) {
		lo, hi := math.Inf(1), math.Inf(-1)
		dlo, dhi := math.Inf(1), math.Inf(-1)
		for _, r := range regions {
			if r.GeneNames != s.RefName {
				continue
			}
			lo, hi = math.Min(lo, r.Pct1x), math.Max(hi, r.Pct1x)
			dlo, dhi = math.Min(dlo, r.MeanDepth), math.Max(dhi, r.MeanDepth)
		}
		assert.GreaterOrEqual(t, s.Pct1x, lo-1e-9, s.RefName)
		assert.LessOrEqual(t, s.Pct1x, hi+1e-9, s.RefName)
		assert.GreaterOrEqual(t, s.MeanDepth, dlo-1e-9, s.RefName)
		assert.LessOrEqual(t, s.MeanDepth, dhi+1e-9, s.RefName)
	}
}

func TestSummarize_OrderInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	var regions []Region
	for i := 0; i < 60; i++ {
		gene := "G" + strconv.Itoa(i%5)
		regions = append(regions, Region{
			GeneName:     gene,
			GeneNames:    gene,
			CountedBases: float64(rng.Intn(100) + 1),
			MeanDepth:    rng.Float64() * 100,
			MinDepth:     rng.Float64(),
			MaxDepth:     100 + rng.Float64(),
			Pct1x:        rng.Float64() * 100,
		})
	}

	byRef := func(s []GeneSummary) []GeneSummary {
		sort.Slice(s, func(i, j int) bool { return s[i].RefName < s[j].RefName })
		return s
	}

	want := byRef(Summarize(regions))
	shuffled := append([]Region(nil), regions...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	got := byRef(Summarize(shuffled))

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].RefName, got[i].RefName)
		assert.InDelta(t, want[i].CountedBases, got[i].CountedBases, 1e-9)
		assert.InDelta(t, want[i].Pct1x, got[i].Pct1x, 1e-9)
		assert.InDelta(t, want[i].MeanDepth, got[i].MeanDepth, 1e-9)
		assert.Equal(t, want[i].MinDepth, got[i].MinDepth)
		assert.Equal(t, want[i].MaxDepth, got[i].MaxDepth)
	}
}

func TestSummaryTable_RoundTripsThroughGrouper(t *testing.T) {
	summaries := []GeneSummary{
		{Region: "total", RefName: "BRCA1", GeneName: "BRCA1", CountedBases: 10, Pct1x: 95.126},
		{Region: "total", RefName: "TP53", GeneName: "TP53", CountedBases: 10, Pct1x: 80, MinDepth: math.NaN()},
	}
	tbl := SummaryTable(summaries)
	assert.Equal(t, SummaryColumns, tbl.Header)
	assert.Equal(t, "", tbl.Rows[1][tbl.Column(ColMinDepth)])

	res, err := FilterAndGroup(tbl, testPanel("BRCA1", "TP53"))
	require.NoError(t, err)
	assert.Equal(t, []GeneCoverage{{"BRCA1", 95.13}, {"TP53", 80}}, res.Genes)
}
