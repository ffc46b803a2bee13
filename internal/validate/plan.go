// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/skills-dataset/internal/classify"
	"github.com/pdiddy/skills-dataset/internal/frontmatter"
	"github.com/pdiddy/skills-dataset/internal/githuburl"
	"github.com/pdiddy/skills-dataset/internal/promptcache"
)

// LocalResult is a verdict reached without an API call: a pre-filter
// rejection, a read error, or a cache hit.
type LocalResult struct {
	URL     string
	IsSkill bool
	Reason  string
}

// PlanStats counts how each candidate URL was routed.
type PlanStats struct {
	Total               int
	AlreadyResolved     int
	Unparseable         int
	NoContent           int
	ReadErrors          int
	FrontmatterRejected int
	Cached              int
	Deduplicated        int
}

// Plan is the outcome of the local phase: immediate results plus the
// unique units that need an API call. Every URL in Pending shares its
// unit's rendered prompt byte-for-byte.
type Plan struct {
	Local   []LocalResult
	Pending []*classify.Unit
	Stats   PlanStats
}

// BuildPlan routes every candidate URL: skip URLs already resolved or
// without materialized content, reject structurally invalid files, serve
// cache hits, and collapse the remainder into deduplicated units. The
// pre-filter runs before any cache access, so structurally invalid files
// never touch the cache.
func BuildPlan(urls []string, resolved map[string]struct{}, contentDir string, cache promptcache.Store) (*Plan, error) {
	onDisk, err := listContent(contentDir)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Stats: PlanStats{Total: len(urls)}}
	pending := make(map[string]*classify.Unit)

	for _, url := range urls {
		if _, ok := resolved[url]; ok {
			plan.Stats.AlreadyResolved++
			continue
		}

		parts, ok := githuburl.Parse(url)
		if !ok {
			// Out of corpus; no verdict recorded.
			plan.Stats.Unparseable++
			continue
		}

		path := githuburl.ContentPath(contentDir, parts)
		if _, ok := onDisk[path]; !ok {
			plan.Stats.NoContent++
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			plan.Stats.ReadErrors++
			plan.Local = append(plan.Local, LocalResult{URL: url, Reason: "File read error"})
			continue
		}
		content := string(data)

		if !frontmatter.HasValidFrontmatter(content) {
			plan.Stats.FrontmatterRejected++
			plan.Local = append(plan.Local, LocalResult{URL: url, Reason: "No valid YAML frontmatter"})
			continue
		}

		truncated := classify.Truncate(content, classify.ContentMaxBytes)
		hash, err := classify.PromptHash(truncated)
		if err != nil {
			return nil, fmt.Errorf("hashing prompt for %s: %w", url, err)
		}

		entry, found, err := cache.Get(hash)
		if err != nil {
			return nil, fmt.Errorf("reading cache for %s: %w", url, err)
		}
		if found {
			plan.Stats.Cached++
			plan.Local = append(plan.Local, LocalResult{URL: url, IsSkill: entry.IsSkill, Reason: entry.Reason})
			continue
		}

		// Same content across repos needs only one API call.
		if unit, ok := pending[hash]; ok {
			unit.URLs = append(unit.URLs, url)
			plan.Stats.Deduplicated++
			continue
		}
		unit := &classify.Unit{Hash: hash, Content: truncated, URLs: []string{url}}
		pending[hash] = unit
		plan.Pending = append(plan.Pending, unit)
	}

	return plan, nil
}

// listContent walks the content tree once and returns the set of file
// paths, so per-URL membership tests need no I/O. A missing root is an
// empty corpus, not an error.
func listContent(root string) (map[string]struct{}, error) {
	paths := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths[path] = struct{}{}
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return paths, nil
		}
		return nil, fmt.Errorf("walking content directory %s: %w", root, err)
	}
	return paths, nil
}
