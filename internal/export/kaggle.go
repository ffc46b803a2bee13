// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type kaggleResource struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

type kaggleLicense struct {
	Name string `json:"name"`
}

type kaggleMetadata struct {
	Title       string           `json:"title"`
	ID          string           `json:"id"`
	Licenses    []kaggleLicense  `json:"licenses"`
	Keywords    []string         `json:"keywords"`
	Description string           `json:"description"`
	Resources   []kaggleResource `json:"resources"`
}

// WriteKaggleMetadata writes dataset-metadata.json and README.md into
// outputDir so the export can be pushed with the kaggle CLI as-is.
func WriteKaggleMetadata(outputDir, username string, filesCount, reposCount int) error {
	meta := kaggleMetadata{
		Title:    "GitHub SKILL.md Files - Claude Code Skills",
		ID:       fmt.Sprintf("%s/github-skill-files", username),
		Licenses: []kaggleLicense{{Name: "CC0-1.0"}},
		Keywords: []string{"github", "claude", "skills", "ai", "automation", "claude-code"},
		Description: fmt.Sprintf(
			"Validated SKILL.md files from %d GitHub repositories. Contains %d skill files with repository metadata and commit history.",
			reposCount, filesCount),
		Resources: []kaggleResource{
			{Path: "files.parquet", Description: "File URLs and basic Git info"},
			{Path: "repos.parquet", Description: "Repository metadata (stars, forks, language, topics)"},
			{Path: "history.parquet", Description: "Commit history exploded to one row per commit"},
		},
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dataset metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "dataset-metadata.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing dataset metadata: %w", err)
	}

	readme := fmt.Sprintf(readmeTemplate, reposCount, filesCount, reposCount)
	if err := os.WriteFile(filepath.Join(outputDir, "README.md"), []byte(readme), 0o644); err != nil {
		return fmt.Errorf("writing README: %w", err)
	}
	return nil
}

const readmeTemplate = `# GitHub SKILL.md Files Dataset

Validated SKILL.md files from %d GitHub repositories.

## Contents

- **%d validated skill files** from GitHub
- **%d repositories** with metadata (stars, forks, topics, language)
- **Commit history** showing when files were created and last modified

## Files

### files.parquet
Basic file information from Git:
- ` + "`url`" + `: GitHub blob URL (primary key)
- ` + "`sha`" + `: Git commit SHA
- ` + "`filename`" + `: File name (e.g., "SKILL.md")
- ` + "`path`" + `: Path in repository
- ` + "`repo_key`" + `: Foreign key to repos (owner/repo)
- ` + "`size_bytes`" + `: File size in bytes
- ` + "`discovered_at`" + `: When we collected this file

### repos.parquet
Repository-level metadata from GitHub:
- ` + "`repo_key`" + `: owner/repo (primary key)
- ` + "`repo_owner`" + `: GitHub username/org
- ` + "`repo_name`" + `: Repository name
- ` + "`stars`" + `, ` + "`forks`" + `, ` + "`watchers`" + `: Popularity counts
- ` + "`language`" + `: Primary language
- ` + "`topics`" + `: Array of topics
- ` + "`description`" + `: Repository description
- ` + "`license`" + `: SPDX license ID
- ` + "`created_at`" + `, ` + "`updated_at`" + `: Timestamps

### history.parquet
One row per commit touching a validated file:
- ` + "`url`" + `: File URL (foreign key to files)
- ` + "`commit_sha`" + `, ` + "`commit_author`" + `, ` + "`commit_date`" + `, ` + "`commit_message`" + `

## Data Collection

1. **Collection**: SKILL.md files discovered through GitHub code search
2. **Validation**: Two-pass validation: a YAML frontmatter check, then
   Claude-based semantic classification
3. **Export**: 3 normalized Parquet files

## License

CC0-1.0 (Public Domain)
`
