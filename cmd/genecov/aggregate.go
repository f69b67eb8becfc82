package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genecov/internal/analyze"
	"github.com/inodb/genecov/internal/duckdb"
	"github.com/inodb/genecov/internal/report"
	"github.com/inodb/genecov/internal/sheet"
)

func (a *app) newAggregateCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "aggregate [options] <raw-coverage.xlsx>...",
		Short: "Aggregate raw per-region coverage into per-gene summaries",
		Long: `Aggregate raw per-region coverage spreadsheets into one summary row per gene.

Regions are grouped by gene; depth and %1x are averaged weighted by counted
bases. Each input is written as <name>_coverage.csv, which can be passed to
the report command as pre-aggregated input.`,
		Example: `  genecov aggregate sample1.xlsx
  genecov aggregate --out-dir summaries --skip-rows 0 run1/*.xlsx`,
		Args: argsRange(1, -1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindReportFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAggregate(outDir, args)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Output directory")
	cmd.Flags().Int("skip-rows", 1, "Rows before the header of raw coverage spreadsheets")
	cmd.Flags().Bool("cache", true, "Cache aggregated summaries of raw coverage files")
	return cmd
}

func (a *app) runAggregate(outDir string, inputs []string) error {
	for _, path := range inputs {
		if sheet.DetectFormat(path) != sheet.FormatXLSX {
			return usagef("%s is not a raw coverage spreadsheet (.xlsx)", path)
		}
	}

	analyzer := analyze.New()
	analyzer.SetLogger(a.logger)
	analyzer.SetSkipRows(viper.GetInt(keySkipRows))
	if viper.GetBool(keyCacheEnabled) {
		cachePath := expandHome(viper.GetString(keyCachePath))
		store, err := duckdb.Open(cachePath)
		if err != nil {
			a.logger.Warn("summary cache unavailable", zap.String("path", cachePath), zap.Error(err))
		} else {
			defer store.Close()
			analyzer.SetCache(store)
		}
	}

	fmt.Fprintf(a.stderr, "Aggregating %d coverage file(s)...\n", len(inputs))
	for _, path := range inputs {
		cov, err := analyzer.LoadCoverage(path)
		if err != nil {
			return err
		}
		out := filepath.Join(outDir, report.ArtifactName(cov.Name, "coverage", "csv"))
		if err := writeFileAtomic(out, func(w io.Writer) error {
			return report.WriteTableCSV(w, cov.Table)
		}); err != nil {
			return err
		}
		cached := ""
		if cov.Cached {
			cached = ", cached"
		}
		fmt.Fprintf(a.stderr, "  %s: %d genes%s -> %s (%s)\n", path, len(cov.Summaries), cached, out, fileSize(out))
	}
	return nil
}
