// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes the validated corpus to Parquet: files joined to
// their verdicts, repository metadata, and per-commit file history, plus
// optional Kaggle dataset packaging.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/pdiddy/skills-dataset/internal/corpus"
	"github.com/pdiddy/skills-dataset/internal/githuburl"
	"github.com/pdiddy/skills-dataset/internal/verdict"
	"github.com/pdiddy/skills-dataset/pkg/types"
)

// MissingDataError reports valid files whose repo metadata or history is
// absent from the upstream database.
type MissingDataError struct {
	Msg string
}

func (e *MissingDataError) Error() string { return e.Msg }

// fileRecord is one row of files.parquet: the upstream row plus columns
// derived from the blob URL.
type fileRecord struct {
	URL          string `parquet:"url,snappy"`
	SHA          string `parquet:"sha,snappy"`
	SizeBytes    int64  `parquet:"size_bytes,snappy"`
	DiscoveredAt string `parquet:"discovered_at,snappy"`
	RepoKey      string `parquet:"repo_key,snappy"`
	Filename     string `parquet:"filename,snappy"`
	Path         string `parquet:"path,snappy"`
}

// repoRecord is one row of repos.parquet with the owner/name split out and
// the topics JSON decoded.
type repoRecord struct {
	RepoKey     string   `parquet:"repo_key,snappy"`
	RepoOwner   string   `parquet:"repo_owner,snappy"`
	RepoName    string   `parquet:"repo_name,snappy"`
	Stars       int64    `parquet:"stars,snappy"`
	Forks       int64    `parquet:"forks,snappy"`
	Watchers    int64    `parquet:"watchers,snappy"`
	Language    string   `parquet:"language,snappy"`
	Topics      []string `parquet:"topics,list,snappy"`
	Description string   `parquet:"description,snappy"`
	License     string   `parquet:"license,snappy"`
	CreatedAt   string   `parquet:"created_at,snappy"`
	UpdatedAt   string   `parquet:"updated_at,snappy"`
}

// historyRecord is one row of history.parquet: one commit of one file.
type historyRecord struct {
	URL           string `parquet:"url,snappy"`
	CommitSHA     string `parquet:"commit_sha,snappy"`
	CommitAuthor  string `parquet:"commit_author,snappy"`
	CommitDate    string `parquet:"commit_date,snappy"`
	CommitMessage string `parquet:"commit_message,snappy"`
}

// Run exports files.parquet, repos.parquet and history.parquet to
// cfg.OutputDir, filtered to the URLs the validation DB marks valid. When
// cfg.KaggleUsername is set it also writes the Kaggle dataset metadata.
func Run(cfg types.ExportConfig, w io.Writer) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	fmt.Fprintln(w, "Loading valid URLs from validation DB...")
	store, err := verdict.Open(cfg.OutputDB)
	if err != nil {
		return err
	}
	validURLs, err := store.ValidURLs()
	store.Close()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  %d valid skill URLs\n", len(validURLs))

	src, err := corpus.Open(cfg.MainDB)
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Fprintln(w, "Exporting files.parquet...")
	upstream, err := src.Files()
	if err != nil {
		return err
	}
	files := buildFiles(upstream, validURLs)
	if err := writeParquet(filepath.Join(cfg.OutputDir, "files.parquet"), files); err != nil {
		return err
	}
	fmt.Fprintf(w, "  %d files\n", len(files))

	fmt.Fprintln(w, "Exporting repos.parquet...")
	repoRows, err := src.Repos()
	if err != nil {
		return err
	}
	repos, err := buildRepos(repoRows, files, cfg.AllowNoRepo, w)
	if err != nil {
		return err
	}
	if err := writeParquet(filepath.Join(cfg.OutputDir, "repos.parquet"), repos); err != nil {
		return err
	}
	fmt.Fprintf(w, "  %d repos\n", len(repos))

	fmt.Fprintln(w, "Exporting history.parquet...")
	historyRows, err := src.History()
	if err != nil {
		return err
	}
	history, err := buildHistory(historyRows, files, cfg.AllowNoHistory, w)
	if err != nil {
		return err
	}
	if err := writeParquet(filepath.Join(cfg.OutputDir, "history.parquet"), history); err != nil {
		return err
	}
	fmt.Fprintf(w, "  %d history entries\n", len(history))

	if cfg.KaggleUsername != "" {
		if err := WriteKaggleMetadata(cfg.OutputDir, cfg.KaggleUsername, len(files), len(repos)); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\nDone: %s\n", cfg.OutputDir)
	return nil
}

// buildFiles filters the upstream rows to the valid URLs and derives the
// repo_key, filename and path columns. Rows whose URL does not parse are
// dropped; they could never have reached validation.
func buildFiles(upstream []types.FileRow, valid map[string]struct{}) []fileRecord {
	var out []fileRecord
	for _, row := range upstream {
		if _, ok := valid[row.URL]; !ok {
			continue
		}
		parts, ok := githuburl.Parse(row.URL)
		if !ok {
			continue
		}
		out = append(out, fileRecord{
			URL:          row.URL,
			SHA:          row.SHA,
			SizeBytes:    row.SizeBytes,
			DiscoveredAt: row.DiscoveredAt,
			RepoKey:      parts.RepoKey(),
			Filename:     path.Base(parts.Path),
			Path:         parts.Path,
		})
	}
	return out
}

// buildRepos keeps the metadata rows referenced by the exported files. A
// repo_key with no metadata row is an error unless allowMissing.
func buildRepos(rows []types.RepoRow, files []fileRecord, allowMissing bool, w io.Writer) ([]repoRecord, error) {
	var needed []string
	seen := make(map[string]struct{})
	for _, f := range files {
		if _, ok := seen[f.RepoKey]; ok {
			continue
		}
		seen[f.RepoKey] = struct{}{}
		needed = append(needed, f.RepoKey)
	}
	have := make(map[string]types.RepoRow, len(rows))
	for _, r := range rows {
		have[r.RepoKey] = r
	}

	var missing []string
	for _, key := range needed {
		if _, ok := have[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		msg := fmt.Sprintf("%d valid files have no repo metadata (e.g. %s)",
			len(missing), strings.Join(sample(missing, 10), ", "))
		if !allowMissing {
			return nil, &MissingDataError{Msg: msg + "\nUse --allow-no-repo to export anyway."}
		}
		fmt.Fprintf(w, "  WARNING: %s\n", msg)
	}

	var out []repoRecord
	for _, key := range needed {
		row, ok := have[key]
		if !ok {
			continue
		}
		owner, name, _ := strings.Cut(row.RepoKey, "/")
		topics := decodeTopics(row.Topics)
		out = append(out, repoRecord{
			RepoKey:     row.RepoKey,
			RepoOwner:   owner,
			RepoName:    name,
			Stars:       row.Stars,
			Forks:       row.Forks,
			Watchers:    row.Watchers,
			Language:    row.Language,
			Topics:      topics,
			Description: row.Description,
			License:     row.License,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return out, nil
}

// buildHistory explodes each file's commits JSON into one row per commit.
// A valid file with no history row is an error unless allowMissing, in
// which case it exports as a single row with empty commit columns.
func buildHistory(rows []types.HistoryRow, files []fileRecord, allowMissing bool, w io.Writer) ([]historyRecord, error) {
	have := make(map[string]string, len(rows))
	for _, r := range rows {
		have[r.URL] = r.Commits
	}

	var missing []string
	for _, f := range files {
		if _, ok := have[f.URL]; !ok {
			missing = append(missing, f.URL)
		}
	}
	if len(missing) > 0 {
		msg := fmt.Sprintf("%d valid files have no history (e.g. %s)", len(missing), missing[0])
		if !allowMissing {
			return nil, &MissingDataError{Msg: msg + "\nUse --allow-no-history to export anyway."}
		}
		fmt.Fprintf(w, "  WARNING: %s\n", msg)
	}

	var out []historyRecord
	for _, f := range files {
		raw, ok := have[f.URL]
		if !ok {
			out = append(out, historyRecord{URL: f.URL})
			continue
		}
		var commits []types.Commit
		if err := json.Unmarshal([]byte(raw), &commits); err != nil {
			return nil, fmt.Errorf("decoding commits for %s: %w", f.URL, err)
		}
		for _, c := range commits {
			out = append(out, historyRecord{
				URL:           f.URL,
				CommitSHA:     c.SHA,
				CommitAuthor:  c.Author,
				CommitDate:    c.Date,
				CommitMessage: c.Message,
			})
		}
	}
	return out, nil
}

// decodeTopics parses the upstream topics JSON array, tolerating empty and
// malformed values as no topics.
func decodeTopics(raw string) []string {
	if raw == "" {
		return nil
	}
	var topics []string
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil
	}
	return topics
}

// writeParquet writes rows to path, replacing any previous export.
func writeParquet[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	pw := parquet.NewGenericWriter[T](f)
	if _, err := pw.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := pw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return f.Close()
}

// sample returns at most n elements of items.
func sample(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
