package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/genecov/internal/duckdb"
)

func (a *app) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the summary cache",
		Long: `List or clear cached aggregation results.

Aggregating a raw coverage spreadsheet stores the per-gene summaries in a
DuckDB database (cache.path, default ~/.genecov/cache.duckdb), keyed by the
file name and content. Re-running on an unchanged file reuses them.`,
		Example: `  genecov cache        # list cached files
  genecov cache clear  # remove all cached summaries`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCacheList()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached coverage files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCacheList()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCacheClear()
		},
	})
	return cmd
}

func openCache() (*duckdb.Store, error) {
	path := expandHome(viper.GetString(keyCachePath))
	s, err := duckdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	return s, nil
}

func (a *app) runCacheList() error {
	s, err := openCache()
	if err != nil {
		return err
	}
	defer s.Close()

	sources, err := s.Sources()
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintf(a.stdout, "# Cache is empty: %s\n", s.Path())
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGENES\tCACHED\tKEY")
	for _, src := range sources {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", src.Name, src.Genes, src.CreatedAt.Local().Format(time.DateTime), src.Key[:12])
	}
	return tw.Flush()
}

func (a *app) runCacheClear() error {
	s, err := openCache()
	if err != nil {
		return err
	}
	defer s.Close()

	sources, err := s.Sources()
	if err != nil {
		return err
	}
	if err := s.ClearSummaries(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Fprintf(a.stdout, "Removed %d cached file(s) from %s\n", len(sources), s.Path())
	return nil
}
