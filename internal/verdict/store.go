// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verdict persists validation outcomes and the derived files
// table. One row per URL, latest write wins; rows whose reason marks a
// failed API or parse outcome are treated as unresolved so the next run
// re-attempts them.
package verdict

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/skills-dataset/internal/classify"
	"github.com/pdiddy/skills-dataset/pkg/types"
)

// Store manages the validation results SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the results database at path and bootstraps the
// schema. The handle is not safe for concurrent writers; the pipeline
// funnels all writes through one goroutine.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS validation_results (
			url TEXT PRIMARY KEY,
			is_skill BOOLEAN NOT NULL,
			reason TEXT,
			validated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			url TEXT PRIMARY KEY,
			sha TEXT,
			size_bytes INTEGER,
			discovered_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

const upsertSQL = `INSERT OR REPLACE INTO validation_results (url, is_skill, reason) VALUES (?, ?, ?)`

// Upsert records the verdict for url, replacing any prior row.
func (s *Store) Upsert(url string, isSkill bool, reason string) error {
	if _, err := s.db.Exec(upsertSQL, url, isSkill, reason); err != nil {
		return fmt.Errorf("upserting verdict for %s: %w", url, err)
	}
	return nil
}

// Batch groups upserts into one transaction so an interrupted run loses at
// most the uncommitted tail.
type Batch struct {
	tx *sql.Tx
}

// BeginBatch opens a write transaction.
func (s *Store) BeginBatch() (*Batch, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning batch: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// Upsert records one verdict inside the batch.
func (b *Batch) Upsert(url string, isSkill bool, reason string) error {
	if _, err := b.tx.Exec(upsertSQL, url, isSkill, reason); err != nil {
		return fmt.Errorf("upserting verdict for %s: %w", url, err)
	}
	return nil
}

// Commit makes the batch durable.
func (b *Batch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// Resolved returns the URLs with a definitive verdict. Rows whose reason
// carries a failure prefix are omitted: those outcomes were never cached,
// so the next run re-attempts them.
func (s *Store) Resolved() (map[string]struct{}, error) {
	rows, err := s.db.Query(
		`SELECT url FROM validation_results
		 WHERE reason IS NULL OR (reason NOT LIKE ? AND reason NOT LIKE ?)`,
		classify.APIErrorPrefix+"%", classify.ParseErrorPrefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("querying resolved URLs: %w", err)
	}
	defer rows.Close()

	resolved := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning resolved URL: %w", err)
		}
		resolved[url] = struct{}{}
	}
	return resolved, rows.Err()
}

// Get reads the verdict for url.
func (s *Store) Get(url string) (types.Verdict, bool, error) {
	var v types.Verdict
	var reason sql.NullString
	err := s.db.QueryRow(
		`SELECT url, is_skill, reason, validated_at FROM validation_results WHERE url = ?`, url,
	).Scan(&v.URL, &v.IsSkill, &reason, &v.ValidatedAt)
	if err == sql.ErrNoRows {
		return types.Verdict{}, false, nil
	}
	if err != nil {
		return types.Verdict{}, false, fmt.Errorf("reading verdict for %s: %w", url, err)
	}
	v.Reason = reason.String
	return v, true, nil
}

// CountValid returns the number of URLs judged valid skills.
func (s *Store) CountValid() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM validation_results WHERE is_skill = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting valid verdicts: %w", err)
	}
	return n, nil
}

// ValidURLs returns the set of URLs judged valid skills.
func (s *Store) ValidURLs() (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT url FROM validation_results WHERE is_skill = 1`)
	if err != nil {
		return nil, fmt.Errorf("querying valid URLs: %w", err)
	}
	defer rows.Close()

	valid := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning valid URL: %w", err)
		}
		valid[url] = struct{}{}
	}
	return valid, rows.Err()
}

// RebuildFiles replaces the derived files table with the upstream rows
// whose URL has a valid verdict. The table is a disposable
// materialization, fully rebuilt each run. Returns the row count.
func (s *Store) RebuildFiles(upstream []types.FileRow) (int, error) {
	valid, err := s.ValidURLs()
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files`); err != nil {
		return 0, fmt.Errorf("clearing files table: %w", err)
	}

	inserted := 0
	for _, row := range upstream {
		if _, ok := valid[row.URL]; !ok {
			continue
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO files (url, sha, size_bytes, discovered_at) VALUES (?, ?, ?, ?)`,
			row.URL, row.SHA, row.SizeBytes, row.DiscoveredAt,
		); err != nil {
			return 0, fmt.Errorf("inserting file row %s: %w", row.URL, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return inserted, nil
}
