// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSource creates a fetcher-shaped database with a few rows.
func seedSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skills.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	schema := []string{
		`CREATE TABLE files (url TEXT PRIMARY KEY, sha TEXT, size_bytes INTEGER, discovered_at TIMESTAMP)`,
		`CREATE TABLE repo_metadata (repo_key TEXT PRIMARY KEY, stars INTEGER, forks INTEGER,
			watchers INTEGER, language TEXT, topics TEXT, description TEXT, license TEXT,
			created_at TEXT, updated_at TEXT)`,
		`CREATE TABLE file_history (url TEXT PRIMARY KEY, commits TEXT)`,
	}
	for _, stmt := range schema {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}

	_, err = db.Exec(`INSERT INTO files VALUES
		('https://github.com/acme/tools/blob/main/SKILL.md', 'aaa', 120, '2026-01-01'),
		('https://github.com/acme/tools/blob/main/skills/x/SKILL.md', 'bbb', 340, '2026-01-02')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO repo_metadata VALUES
		('acme/tools', 42, 7, 42, 'Go', '["cli","skills"]', 'Tooling', 'MIT', '2024-01-01', '2026-01-01')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO file_history VALUES
		('https://github.com/acme/tools/blob/main/SKILL.md',
		 '[{"sha":"aaa","author":"jo","date":"2026-01-01","message":"add skill"}]')`)
	require.NoError(t, err)

	return path
}

func TestDB_Reads(t *testing.T) {
	d, err := Open(seedSource(t))
	require.NoError(t, err)
	defer d.Close()

	urls, err := d.URLs()
	require.NoError(t, err)
	assert.Len(t, urls, 2)

	files, err := d.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "aaa", files[0].SHA)
	assert.Equal(t, int64(120), files[0].SizeBytes)

	repos, err := d.Repos()
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "acme/tools", repos[0].RepoKey)
	assert.Equal(t, int64(42), repos[0].Stars)
	assert.Equal(t, `["cli","skills"]`, repos[0].Topics)

	history, err := d.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Commits, `"add skill"`)
}

func TestDB_NullColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skills.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE files (url TEXT PRIMARY KEY, sha TEXT, size_bytes INTEGER, discovered_at TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO files (url) VALUES ('https://github.com/a/b/blob/main/SKILL.md')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	files, err := d.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Empty(t, files[0].SHA)
	assert.Zero(t, files[0].SizeBytes)
}
