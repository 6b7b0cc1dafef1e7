// Package store is the data access layer for the combat codex harvester.
//
// It persists five logical tables (sources, keywords, class_meta, skills,
// runs+run_items) in a single SQLite database. Writes commit independently;
// only the per-class skill swap runs inside a transaction.
package store

import "database/sql"

// Store wraps an already-opened database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an open database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
