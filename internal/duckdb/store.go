// Package duckdb caches per-gene coverage summaries in DuckDB, keyed by the
// content of the raw coverage file they were aggregated from.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for caching gene summaries.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
		content_key VARCHAR PRIMARY KEY,
		name VARCHAR,
		genes BIGINT,
		created_at TIMESTAMP
	)`,
		`CREATE TABLE IF NOT EXISTS gene_summaries (
		content_key VARCHAR,
		seq BIGINT,
		region VARCHAR,
		ref_name VARCHAR,
		aliases VARCHAR,
		gene_name VARCHAR,
		name VARCHAR,
		gene_ids VARCHAR,
		counted_bases DOUBLE,
		mean_depth DOUBLE,
		min_depth DOUBLE,
		max_depth DOUBLE,
		pct_1x DOUBLE,
		PRIMARY KEY (content_key, seq)
	)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
