package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/genecov/internal/coverage"
)

// WriteSummaries caches the summaries of one coverage file, replacing any
// entry already stored under key. The source row is inserted last, so an
// interrupted write leaves no entry behind.
func (s *Store) WriteSummaries(key, name string, summaries []coverage.GeneSummary) error {
	if err := s.deleteKey(key); err != nil {
		return err
	}
	if err := s.appendSummaries(key, summaries); err != nil {
		if cleanupErr := s.deleteKey(key); cleanupErr != nil {
			return fmt.Errorf("%w (cleanup: %v)", err, cleanupErr)
		}
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO sources VALUES (?, ?, ?, ?)`,
		key, name, int64(len(summaries)), time.Now().UTC()); err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

func (s *Store) appendSummaries(key string, summaries []coverage.GeneSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "gene_summaries")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for i, g := range summaries {
		if err := appender.AppendRow(
			key, int64(i),
			g.Region, g.RefName, g.Aliases, g.GeneName, g.Name, g.GeneIDs,
			g.CountedBases, g.MeanDepth, g.MinDepth, g.MaxDepth, g.Pct1x,
		); err != nil {
			appender.Close()
			return fmt.Errorf("append gene summary: %w", err)
		}
	}

	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush gene summaries: %w", err)
	}
	return nil
}

// LookupSummaries returns the summaries cached under key in their original
// order. ok is false when nothing was cached for key, or when the stored
// rows do not match the gene count recorded for the source.
func (s *Store) LookupSummaries(key string) (summaries []coverage.GeneSummary, ok bool, err error) {
	var genes int64
	switch err := s.db.QueryRow(`SELECT genes FROM sources WHERE content_key=?`, key).Scan(&genes); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("query source: %w", err)
	}

	rows, err := s.db.Query(`SELECT
		region, ref_name, aliases, gene_name, name, gene_ids,
		counted_bases, mean_depth, min_depth, max_depth, pct_1x
		FROM gene_summaries
		WHERE content_key=?
		ORDER BY seq`, key)
	if err != nil {
		return nil, false, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	summaries = []coverage.GeneSummary{}
	for rows.Next() {
		var g coverage.GeneSummary
		if err := rows.Scan(
			&g.Region, &g.RefName, &g.Aliases, &g.GeneName, &g.Name, &g.GeneIDs,
			&g.CountedBases, &g.MeanDepth, &g.MinDepth, &g.MaxDepth, &g.Pct1x,
		); err != nil {
			return nil, false, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, g)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate summaries: %w", err)
	}
	if int64(len(summaries)) != genes {
		return nil, false, nil
	}
	return summaries, true, nil
}

// Sources lists cached coverage files, newest first.
func (s *Store) Sources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT content_key, name, genes, created_at
		FROM sources ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		var genes int64
		if err := rows.Scan(&src.Key, &src.Name, &genes, &src.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Genes = int(genes)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// ClearSummaries removes all cached summaries.
func (s *Store) ClearSummaries() error {
	if _, err := s.db.Exec("DELETE FROM gene_summaries"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM sources")
	return err
}

func (s *Store) deleteKey(key string) error {
	if _, err := s.db.Exec(`DELETE FROM gene_summaries WHERE content_key=?`, key); err != nil {
		return fmt.Errorf("delete summaries: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM sources WHERE content_key=?`, key); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}
