// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus reads the database produced by the file fetcher. The
// pipeline treats it as an external, read-only source: files to validate,
// repository metadata, and per-file commit history.
package corpus

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/skills-dataset/pkg/types"
)

// DB wraps the upstream SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens the upstream database read-only.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// URLs returns every file URL in the corpus, in discovery order.
func (d *DB) URLs() ([]string, error) {
	rows, err := d.db.Query(`SELECT url FROM files`)
	if err != nil {
		return nil, fmt.Errorf("querying file URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning file URL: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// Files returns every row of the files table.
func (d *DB) Files() ([]types.FileRow, error) {
	rows, err := d.db.Query(`SELECT url, sha, size_bytes, discovered_at FROM files`)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var out []types.FileRow
	for rows.Next() {
		var r types.FileRow
		var sha, discovered sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(&r.URL, &sha, &size, &discovered); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		r.SHA, r.SizeBytes, r.DiscoveredAt = sha.String, size.Int64, discovered.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Repos returns every row of the repo_metadata table.
func (d *DB) Repos() ([]types.RepoRow, error) {
	rows, err := d.db.Query(
		`SELECT repo_key, stars, forks, watchers, language, topics,
			description, license, created_at, updated_at
		 FROM repo_metadata`)
	if err != nil {
		return nil, fmt.Errorf("querying repo metadata: %w", err)
	}
	defer rows.Close()

	var out []types.RepoRow
	for rows.Next() {
		var r types.RepoRow
		var stars, forks, watchers sql.NullInt64
		var language, topics, description, license, created, updated sql.NullString
		if err := rows.Scan(&r.RepoKey, &stars, &forks, &watchers, &language, &topics,
			&description, &license, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning repo row: %w", err)
		}
		r.Stars, r.Forks, r.Watchers = stars.Int64, forks.Int64, watchers.Int64
		r.Language, r.Topics, r.Description = language.String, topics.String, description.String
		r.License, r.CreatedAt, r.UpdatedAt = license.String, created.String, updated.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// History returns every row of the file_history table.
func (d *DB) History() ([]types.HistoryRow, error) {
	rows, err := d.db.Query(`SELECT url, commits FROM file_history`)
	if err != nil {
		return nil, fmt.Errorf("querying file history: %w", err)
	}
	defer rows.Close()

	var out []types.HistoryRow
	for rows.Next() {
		var r types.HistoryRow
		var commits sql.NullString
		if err := rows.Scan(&r.URL, &commits); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		r.Commits = commits.String
		out = append(out, r)
	}
	return out, rows.Err()
}
