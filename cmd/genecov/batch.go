package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genecov/internal/report"
)

func (a *app) newBatchCmd() *cobra.Command {
	var (
		f       reportFlags
		archive string
	)
	cmd := &cobra.Command{
		Use:   "batch [options] <coverage-file>...",
		Short: "Write reports for several coverage files into one zip archive",
		Long: `Analyze each coverage file independently against the same gene panel and
collect the reports into a zip archive. Entries are named after the input,
e.g. sample1_report.docx; repeated names get a numeric suffix.

A file that fails to load is reported and skipped; the command then exits
with an error after writing the archive for the remaining files.`,
		Example: `  genecov batch --panel panel.xlsx --archive reports.zip run1/*.xlsx
  genecov batch -g "BRCA1 BRCA2" -f docx,xlsx,csv --archive out.zip a.csv b.csv`,
		Args: argsRange(1, -1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if archive == "" {
				return usagef("--archive is required")
			}
			return bindReportFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(&f, archive, args)
		},
	}
	f.register(cmd.Flags(), true)
	cmd.Flags().StringVar(&archive, "archive", "", "Output zip archive (required)")
	return cmd
}

func (a *app) runBatch(f *reportFlags, archivePath string, inputs []string) error {
	formats, err := parseFormats(viper.GetString(keyFormats))
	if err != nil {
		return err
	}
	p, err := a.newPipeline(f)
	if err != nil {
		return err
	}
	defer p.close()

	var failed, written int
	err = writeFileAtomic(archivePath, func(w io.Writer) error {
		arch := report.NewArchive(w)
		for _, path := range inputs {
			cov, res, opts, err := p.run(path)
			if err != nil {
				a.logger.Error("skipping input", zap.String("path", path), zap.Error(err))
				failed++
				continue
			}
			for _, art := range artifacts(cov.Name, res, opts, formats, f.column) {
				name, err := arch.Add(art.name, art.render)
				if err != nil {
					return err
				}
				written++
				a.logger.Debug("added archive entry", zap.String("name", name))
			}
			fmt.Fprintf(a.stderr, "%s: ", cov.Name)
			printSummary(a.stderr, res)
		}
		return arch.Close()
	})
	if err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}

	fmt.Fprintf(a.stderr, "\nBatch complete!\n")
	fmt.Fprintf(a.stderr, "  Inputs:  %d (%d failed)\n", len(inputs), failed)
	fmt.Fprintf(a.stderr, "  Entries: %d\n", written)
	fmt.Fprintf(a.stderr, "  Archive: %s (%s)\n", archivePath, fileSize(archivePath))

	if failed > 0 {
		return fmt.Errorf("%d of %d input(s) failed", failed, len(inputs))
	}
	return nil
}
