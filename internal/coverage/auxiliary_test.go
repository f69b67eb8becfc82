package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAuxiliary(t *testing.T) {
	tbl := &Table{
		Header: []string{"Name", "Length", "Mean Depth", "Percent 1X Coverage"},
		Rows: [][]string{
			{"MT-ND1/chrM:3307-4262", "956", "1200", "100"},
			{"MT-CO1 / chrM:5904-7445", "1542", "900", "99.456"},
			{"MT-ATP8/chrM:8366-8572", "207", "0", "NA"},
			{"", "1", "1", "50"},
		},
	}

	res, err := ReadAuxiliary(tbl)
	require.NoError(t, err)
	assert.Equal(t, []GeneCoverage{
		{GeneID: "MT-ND1", Pct1x: 100},
		{GeneID: "MT-CO1", Pct1x: 99.46},
	}, res.Genes)
	assert.Equal(t, 1, res.Dropped)

	require.Len(t, res.Warnings, 1)
	var conv *ConversionWarning
	require.ErrorAs(t, res.Warnings[0], &conv)
	assert.Equal(t, "Percent 1X Coverage", conv.Column)
}

func TestReadAuxiliary_NoCoverageColumn(t *testing.T) {
	tbl := &Table{Header: []string{"Name", "Percent 10X"}}

	_, err := ReadAuxiliary(tbl)
	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestReadAuxiliary_NoNameColumn(t *testing.T) {
	tbl := &Table{Header: []string{"Gene", "% 1x"}}

	_, err := ReadAuxiliary(tbl)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Name", schemaErr.Column)
}

func TestMerge_PrimaryWins(t *testing.T) {
	primary := []GeneCoverage{{GeneID: "BRCA1", Pct1x: 95.0}}
	aux := []GeneCoverage{{GeneID: "BRCA1", Pct1x: 10.0}, {GeneID: "MT-ND1", Pct1x: 100}}

	got := Merge(primary, aux)
	assert.Equal(t, []GeneCoverage{
		{GeneID: "BRCA1", Pct1x: 95.0},
		{GeneID: "MT-ND1", Pct1x: 100},
	}, got)
}

func TestMerge_FirstAuxOccurrenceWins(t *testing.T) {
	aux := []GeneCoverage{{GeneID: "MT-CO2", Pct1x: 80}, {GeneID: "MT-CO2", Pct1x: 20}, {GeneID: "MT-CO1", Pct1x: 50}}

	got := Merge(nil, aux)
	assert.Equal(t, []GeneCoverage{
		{GeneID: "MT-CO1", Pct1x: 50},
		{GeneID: "MT-CO2", Pct1x: 80},
	}, got)
}
