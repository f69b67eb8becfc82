package coverage

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Raw per-region coverage columns.
const (
	ColGeneName     = "Gene Name"
	ColGeneNames    = "Gene Names"
	ColAliases      = "Aliases"
	ColName         = "Name"
	ColGeneIDs      = "Gene IDs"
	ColCountedBases = "Counted Bases"
	ColMeanDepth    = "Mean Depth"
	ColMinDepth     = "Min Depth"
	ColMaxDepth     = "Max Depth"
)

// Gene summary columns (pre-aggregated input and aggregated output).
const (
	ColRegion         = "Region"
	ColRefName        = "Ref Name"
	ColNormalizedName = "Gene_Name"
	ColPct1x          = "% 1x"
)

// SummaryColumns is the column layout of an aggregated coverage table.
var SummaryColumns = []string{
	ColRegion, ColRefName, ColAliases, ColNormalizedName, ColName, ColGeneIDs,
	ColCountedBases, ColMeanDepth, ColMinDepth, ColMaxDepth, ColPct1x,
}

// Region is one sequenced region of a raw coverage table. Missing numeric
// cells are NaN.
type Region struct {
	GeneName  string
	GeneNames string
	Aliases   string
	Name      string
	GeneIDs   string

	CountedBases float64
	MeanDepth    float64
	MinDepth     float64
	MaxDepth     float64
	Pct1x        float64
}

// IdentityKey is the tuple used to partition regions into genes.
type IdentityKey struct {
	GeneNames string
	Aliases   string
	Name      string // normalized primary name
}

// Key returns the region's identity key.
func (r *Region) Key() IdentityKey {
	name, _ := PrimaryName(r.GeneName)
	return IdentityKey{GeneNames: r.GeneNames, Aliases: r.Aliases, Name: name}
}

type groupField int

const (
	byGeneNames groupField = iota
	byAliases
	byName
)

type groupKey struct {
	field groupField
	value string
}

// group returns the field that decides group membership: Gene Names first,
// then Aliases, then the normalized name. ok is false when all are empty.
func (k IdentityKey) group() (groupKey, bool) {
	switch {
	case k.GeneNames != "":
		return groupKey{byGeneNames, k.GeneNames}, true
	case k.Aliases != "":
		return groupKey{byAliases, k.Aliases}, true
	case k.Name != "":
		return groupKey{byName, k.Name}, true
	}
	return groupKey{}, false
}

// GeneSummary is the aggregate of all regions of one gene.
type GeneSummary struct {
	Region   string
	RefName  string
	Aliases  string
	GeneName string
	Name     string
	GeneIDs  string

	CountedBases float64
	MeanDepth    float64
	MinDepth     float64
	MaxDepth     float64
	Pct1x        float64
}

// Aggregate reads the regions of a raw coverage table and summarizes them
// per gene. It fails without partial output when a required column is
// missing or a numeric cell is malformed.
func Aggregate(t *Table) ([]GeneSummary, error) {
	regions, err := ReadRegions(t)
	if err != nil {
		return nil, err
	}
	return Summarize(regions), nil
}

// ReadRegions converts a raw coverage table into regions.
func ReadRegions(t *Table) ([]Region, error) {
	geneName := t.Column(ColGeneName)
	if geneName < 0 {
		return nil, &SchemaError{Column: ColGeneName, Input: "raw coverage"}
	}

	numeric := []string{ColCountedBases, ColMeanDepth, ColMinDepth, ColMaxDepth}
	idx := make([]int, 0, len(numeric)+1)
	for _, c := range numeric {
		i := t.Column(c)
		if i < 0 {
			return nil, &SchemaError{Column: c, Input: "raw coverage"}
		}
		idx = append(idx, i)
	}
	pctName, pct, err := FindCoverageColumn(t)
	if err != nil {
		return nil, err
	}
	numeric = append(numeric, pctName)
	idx = append(idx, pct)

	geneNames := t.Column(ColGeneNames)
	aliases := t.Column(ColAliases)
	name := t.Column(ColName)
	geneIDs := t.Column(ColGeneIDs)

	regions := make([]Region, 0, len(t.Rows))
	values := make([]float64, len(idx))
	for n, row := range t.Rows {
		for j, col := range idx {
			v, err := parseRequiredNumber(Cell(row, col))
			if err != nil {
				return nil, &ProcessingError{Row: n + 1, Column: numeric[j], Err: err}
			}
			values[j] = v
		}
		regions = append(regions, Region{
			GeneName:     Cell(row, geneName),
			GeneNames:    Cell(row, geneNames),
			Aliases:      Cell(row, aliases),
			Name:         Cell(row, name),
			GeneIDs:      Cell(row, geneIDs),
			CountedBases: values[0],
			MeanDepth:    values[1],
			MinDepth:     values[2],
			MaxDepth:     values[3],
			Pct1x:        values[4],
		})
	}
	return regions, nil
}

// parseRequiredNumber returns NaN for a missing cell and an error for a
// cell that is present but not a number.
func parseRequiredNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// Summarize groups regions by identity key and computes base-weighted
// statistics per group. Groups appear in order of first occurrence. Groups
// with no counted bases are skipped.
func Summarize(regions []Region) []GeneSummary {
	var order []groupKey
	members := make(map[groupKey][]int)
	for i := range regions {
		k, ok := regions[i].Key().group()
		if !ok {
			continue
		}
		if _, seen := members[k]; !seen {
			order = append(order, k)
		}
		members[k] = append(members[k], i)
	}

	summaries := make([]GeneSummary, 0, len(order))
	for _, k := range order {
		s, ok := summarize(regions, members[k])
		if !ok {
			continue
		}
		summaries = append(summaries, s)
	}
	return summaries
}

func summarize(regions []Region, idx []int) (GeneSummary, bool) {
	bases := make([]float64, 0, len(idx))
	var depthW, depthX, pctW, pctX, mins, maxs []float64

	s := GeneSummary{Region: "total"}
	for _, i := range idx {
		r := &regions[i]
		key := r.Key()
		if s.RefName == "" {
			s.RefName = key.GeneNames
		}
		if s.Aliases == "" {
			s.Aliases = key.Aliases
		}
		if s.GeneName == "" {
			s.GeneName = key.Name
		}
		if s.Name == "" {
			s.Name = r.Name
		}
		if s.GeneIDs == "" {
			s.GeneIDs = r.GeneIDs
		}

		if math.IsNaN(r.CountedBases) {
			continue
		}
		bases = append(bases, r.CountedBases)
		if !math.IsNaN(r.MeanDepth) {
			depthX = append(depthX, r.MeanDepth)
			depthW = append(depthW, r.CountedBases)
		}
		if !math.IsNaN(r.Pct1x) {
			pctX = append(pctX, r.Pct1x)
			pctW = append(pctW, r.CountedBases)
		}
	}
	for _, i := range idx {
		if v := regions[i].MinDepth; !math.IsNaN(v) {
			mins = append(mins, v)
		}
		if v := regions[i].MaxDepth; !math.IsNaN(v) {
			maxs = append(maxs, v)
		}
	}

	total := floats.Sum(bases)
	if total == 0 {
		return GeneSummary{}, false
	}
	s.CountedBases = total
	s.MeanDepth = floats.Dot(depthX, depthW) / total
	s.Pct1x = floats.Dot(pctX, pctW) / total
	s.MinDepth = math.NaN()
	if len(mins) > 0 {
		s.MinDepth = floats.Min(mins)
	}
	s.MaxDepth = math.NaN()
	if len(maxs) > 0 {
		s.MaxDepth = floats.Max(maxs)
	}
	return s, true
}

// SummaryTable lays out summaries with SummaryColumns so the result can be
// exported and re-read as pre-aggregated input.
func SummaryTable(summaries []GeneSummary) *Table {
	t := &Table{Header: append([]string(nil), SummaryColumns...)}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			s.Region, s.RefName, s.Aliases, s.GeneName, s.Name, s.GeneIDs,
			formatNumber(s.CountedBases),
			formatNumber(s.MeanDepth),
			formatNumber(s.MinDepth),
			formatNumber(s.MaxDepth),
			formatNumber(s.Pct1x),
		})
	}
	return t
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
