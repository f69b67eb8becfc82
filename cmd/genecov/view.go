package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/inodb/genecov/internal/server"
)

func (a *app) newViewCmd() *cobra.Command {
	var (
		f    reportFlags
		addr string
	)
	cmd := &cobra.Command{
		Use:   "view [options] <coverage-file>",
		Short: "Browse a coverage report in a local web viewer",
		Long: `Analyze one coverage file and serve the result on a local HTTP server.

Routes:
  /              searchable, sortable coverage page
  /genes.csv     filtered per-gene CSV (?column=Perc_1x or % 1x)
  /report.docx   Word report
  /report.xlsx   Excel report
  /api/genes     JSON gene list (?q=<substring>, ?low=true)`,
		Example: `  genecov view --panel panel.xlsx sample1.xlsx
  genecov view -g "BRCA1 BRCA2" --addr 127.0.0.1:9000 sample1_coverage.csv`,
		Args: argsRange(1, 1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindReportFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd.Context(), &f, addr, args[0])
		},
	}
	f.register(cmd.Flags(), false)
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	return cmd
}

func (a *app) runView(ctx context.Context, f *reportFlags, addr, path string) error {
	p, err := a.newPipeline(f)
	if err != nil {
		return err
	}
	cov, res, opts, err := p.run(path)
	p.close()
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(&server.View{
		Name:    cov.Name,
		Genes:   res.Genes,
		Data:    res.Data,
		Options: opts,
	}, a.logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(a.stderr, "Serving %s on http://%s (Ctrl+C to stop)\n", cov.Name, addr)
	return server.Serve(ctx, addr, router, a.logger)
}
