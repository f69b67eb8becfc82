package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genecov/internal/analyze"
	"github.com/inodb/genecov/internal/coverage"
	"github.com/inodb/genecov/internal/duckdb"
	"github.com/inodb/genecov/internal/panel"
	"github.com/inodb/genecov/internal/report"
)

// reportFlags are the analysis flags shared by report, batch and view.
type reportFlags struct {
	panelFile string
	genes     string
	auxFile   string
	formats   string
	outDir    string
	column    string
}

func (f *reportFlags) register(fs *pflag.FlagSet, withOutput bool) {
	fs.StringVarP(&f.panelFile, "panel", "p", "", "Gene panel file (.xlsx with a GENE column, or text)")
	fs.StringVarP(&f.genes, "genes", "g", "", "Gene list separated by commas, spaces or newlines")
	fs.StringVar(&f.auxFile, "aux", "", "Auxiliary coverage spreadsheet merged into the result")
	fs.String("title", "", "Report title")
	fs.String("subtitle", "", "Report subtitle")
	fs.Bool("show-missing", false, "List panel genes without coverage data in reports")
	fs.Int("skip-rows", 1, "Rows before the header of raw coverage spreadsheets")
	fs.Int("aux-header-row", 2, "0-based header row of auxiliary spreadsheets")
	fs.Bool("cache", true, "Cache aggregated summaries of raw coverage files")
	if withOutput {
		fs.StringVarP(&f.formats, "format", "f", "", "Output formats: docx, xlsx, html, csv (default from config: docx,csv)")
		fs.StringVar(&f.column, "column", report.ColumnPerc1x, `Coverage column name in CSV output: Perc_1x or "% 1x"`)
	}
}

// bindReportFlags binds flags of the running command to config keys, so
// a flag set on the command line overrides the config file.
func bindReportFlags(cmd *cobra.Command) error {
	bindings := map[string]string{
		"title":          keyTitle,
		"subtitle":       keySubtitle,
		"show-missing":   keyShowMissing,
		"skip-rows":      keySkipRows,
		"aux-header-row": keyAuxHeaderRow,
		"cache":          keyCacheEnabled,
		"format":         keyFormats,
	}
	for name, key := range bindings {
		fl := cmd.Flags().Lookup(name)
		if fl == nil {
			continue
		}
		if err := viper.BindPFlag(key, fl); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func (f *reportFlags) validate() error {
	if f.panelFile != "" && f.genes != "" {
		return usagef("--panel and --genes are mutually exclusive")
	}
	if f.panelFile == "" && f.genes == "" {
		return usagef("one of --panel or --genes is required")
	}
	if f.column != "" && f.column != report.ColumnPerc1x && f.column != report.ColumnPct1x {
		return usagef("unsupported --column %q (expected %s or %q)", f.column, report.ColumnPerc1x, report.ColumnPct1x)
	}
	return nil
}

// pipeline holds everything that is shared across the inputs of one
// invocation.
type pipeline struct {
	logger      *zap.Logger
	analyzer    *analyze.Analyzer
	panel       panel.Panel
	aux         *coverage.AuxResult
	title       string
	subtitle    string
	showMissing bool
	store       *duckdb.Store
}

func (a *app) newPipeline(f *reportFlags) (*pipeline, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	p := &pipeline{
		logger:      a.logger,
		analyzer:    analyze.New(),
		title:       viper.GetString(keyTitle),
		subtitle:    viper.GetString(keySubtitle),
		showMissing: viper.GetBool(keyShowMissing),
	}
	p.analyzer.SetLogger(a.logger)
	p.analyzer.SetSkipRows(viper.GetInt(keySkipRows))
	p.analyzer.SetAuxHeaderRow(viper.GetInt(keyAuxHeaderRow))

	if f.panelFile != "" {
		pn, err := panel.Load(f.panelFile)
		if err != nil {
			return nil, err
		}
		p.panel = pn
	} else {
		p.panel = panel.Parse(f.genes)
	}
	a.logger.Info("loaded gene panel",
		zap.Int("genes", p.panel.Len()),
		zap.Int("duplicates", p.panel.Duplicates()))

	if f.auxFile != "" {
		aux, err := p.analyzer.LoadAuxiliary(f.auxFile)
		if err != nil {
			return nil, err
		}
		p.aux = aux
		a.logger.Info("loaded auxiliary coverage",
			zap.String("path", f.auxFile),
			zap.Int("genes", len(aux.Genes)),
			zap.Int("dropped", aux.Dropped))
	}

	if viper.GetBool(keyCacheEnabled) {
		path := expandHome(viper.GetString(keyCachePath))
		store, err := duckdb.Open(path)
		if err != nil {
			a.logger.Warn("summary cache unavailable", zap.String("path", path), zap.Error(err))
		} else {
			p.store = store
			p.analyzer.SetCache(store)
		}
	}
	return p, nil
}

func (p *pipeline) close() {
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.logger.Warn("closing summary cache", zap.Error(err))
		}
	}
}

// run analyzes one coverage input and returns the report options for it.
func (p *pipeline) run(path string) (*analyze.Coverage, *analyze.Result, report.Options, error) {
	cov, err := p.analyzer.LoadCoverage(path)
	if err != nil {
		return nil, nil, report.Options{}, err
	}
	res, err := p.analyzer.Analyze(cov.Table, p.panel, p.aux)
	if err != nil {
		return nil, nil, report.Options{}, fmt.Errorf("analyze %s: %w", path, err)
	}
	opts := report.Options{Title: p.title, Subtitle: p.subtitle, Sample: cov.Name}
	if p.showMissing {
		opts.Missing = res.Missing
	}
	return cov, res, opts, nil
}

func (a *app) newReportCmd() *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "report [options] <coverage-file>",
		Short: "Write a gene coverage report for one coverage file",
		Long: `Filter a coverage file by a gene panel and write the coverage report.

Spreadsheets (.xlsx) are read as raw per-region coverage and aggregated per
gene first; the aggregated table is written as <name>_coverage.csv. CSV and TSV
files are read as pre-aggregated gene coverage.`,
		Example: `  genecov report --panel panel.xlsx sample1.xlsx
  genecov report --genes "BRCA1,BRCA2,TP53" --format docx,html sample1_coverage.csv
  genecov report -p panel.txt --aux mito.xlsx -f xlsx,csv --out-dir reports sample1.xlsx`,
		Args: argsRange(1, 1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindReportFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(&f, args[0])
		},
	}
	f.register(cmd.Flags(), true)
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", ".", "Output directory")
	return cmd
}

func (a *app) runReport(f *reportFlags, path string) error {
	formats, err := parseFormats(viper.GetString(keyFormats))
	if err != nil {
		return err
	}
	p, err := a.newPipeline(f)
	if err != nil {
		return err
	}
	defer p.close()

	cov, res, opts, err := p.run(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stderr, "Writing reports for %s\n", cov.Name)
	if cov.Aggregated {
		out := filepath.Join(f.outDir, report.ArtifactName(cov.Name, "coverage", "csv"))
		if err := writeFileAtomic(out, func(w io.Writer) error {
			return report.WriteTableCSV(w, cov.Table)
		}); err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "  %s (%s)\n", out, fileSize(out))
	}
	for _, art := range artifacts(cov.Name, res, opts, formats, f.column) {
		out := filepath.Join(f.outDir, art.name)
		if err := writeFileAtomic(out, art.render); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(a.stderr, "  %s (%s)\n", out, fileSize(out))
	}
	printSummary(a.stderr, res)
	return nil
}

func printSummary(w io.Writer, res *analyze.Result) {
	fmt.Fprintf(w, "Genes: %d  Low coverage (<%.0f%%): %d  Not found: %d\n",
		res.Data.Total, report.LowCoverageThreshold, res.Data.LowCount, len(res.Missing))
}
