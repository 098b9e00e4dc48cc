// Package duckdb exports computed diversity bars to DuckDB so they can be
// queried across datasets, and tracks which dataset file produced them.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding exported diversity bars.
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
			return nil, fmt.Errorf("create database directory: %w", err)
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

// Path returns the database path, empty for in-memory databases.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS diversity_bars (
			dataset VARCHAR,
			region VARCHAR,
			mode VARCHAR,
			prot VARCHAR,
			position BIGINT,
			y DOUBLE,
			fill VARCHAR,
			PRIMARY KEY (dataset, region, mode, prot, position)
		)`,
		`CREATE TABLE IF NOT EXISTS diversity_runs (
			dataset VARCHAR,
			region VARCHAR,
			mode VARCHAR,
			max_y DOUBLE,
			n_bars BIGINT,
			PRIMARY KEY (dataset, region, mode)
		)`,
		`CREATE TABLE IF NOT EXISTS datasets (
			name VARCHAR PRIMARY KEY,
			path VARCHAR,
			size BIGINT,
			mod_time_ns BIGINT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
