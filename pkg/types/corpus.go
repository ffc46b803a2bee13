// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FileRow is one row of the upstream files table, keyed by blob URL.
type FileRow struct {
	URL          string `json:"url" yaml:"url"`
	SHA          string `json:"sha" yaml:"sha"`
	SizeBytes    int64  `json:"size_bytes" yaml:"size_bytes"`
	DiscoveredAt string `json:"discovered_at" yaml:"discovered_at"`
}

// RepoRow is one row of the upstream repo_metadata table, keyed by
// "owner/repo".
type RepoRow struct {
	RepoKey     string `json:"repo_key" yaml:"repo_key"`
	Stars       int64  `json:"stars" yaml:"stars"`
	Forks       int64  `json:"forks" yaml:"forks"`
	Watchers    int64  `json:"watchers" yaml:"watchers"`
	Language    string `json:"language" yaml:"language"`
	Topics      string `json:"topics" yaml:"topics"` // JSON array of strings
	Description string `json:"description" yaml:"description"`
	License     string `json:"license" yaml:"license"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
	UpdatedAt   string `json:"updated_at" yaml:"updated_at"`
}

// HistoryRow is one row of the upstream file_history table. Commits is a
// JSON array of Commit objects as collected by the fetcher.
type HistoryRow struct {
	URL     string `json:"url" yaml:"url"`
	Commits string `json:"commits" yaml:"commits"`
}

// Commit is a single commit record inside HistoryRow.Commits.
type Commit struct {
	SHA     string `json:"sha" yaml:"sha"`
	Author  string `json:"author" yaml:"author"`
	Date    string `json:"date" yaml:"date"`
	Message string `json:"message" yaml:"message"`
}

// Verdict is the durable validation outcome for one file URL.
type Verdict struct {
	URL         string `json:"url" yaml:"url"`
	IsSkill     bool   `json:"is_skill" yaml:"is_skill"`
	Reason      string `json:"reason" yaml:"reason"`
	ValidatedAt string `json:"validated_at" yaml:"validated_at"`
}
