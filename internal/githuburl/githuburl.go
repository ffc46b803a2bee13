// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package githuburl parses GitHub blob URLs and derives local content paths.
package githuburl

import (
	"path/filepath"
	"strings"
)

// Parts are the components of a GitHub blob URL,
// https://github.com/{owner}/{repo}/blob/{ref}/{path}.
type Parts struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// Parse splits a GitHub blob URL into its components. The second return
// value is false when the URL does not have the expected shape: at least
// eight slash-separated segments, host "github.com", and the fixed "blob"
// marker in position five.
func Parse(url string) (Parts, bool) {
	parts := strings.Split(url, "/")
	if len(parts) < 8 || parts[2] != "github.com" || parts[5] != "blob" {
		return Parts{}, false
	}
	return Parts{
		Owner: parts[3],
		Repo:  parts[4],
		Ref:   parts[6],
		Path:  strings.Join(parts[7:], "/"),
	}, true
}

// RepoKey returns the "owner/repo" key used by the repo_metadata table.
func (p Parts) RepoKey() string {
	return p.Owner + "/" + p.Repo
}

// ContentPath builds the local path where the fetcher materialized this
// file: {root}/{owner}/{repo}/blob/{ref}/{path}. Pure join, no filesystem
// access, so callers can test membership against a precomputed listing.
func ContentPath(root string, p Parts) string {
	return filepath.Join(root, p.Owner, p.Repo, "blob", p.Ref, filepath.FromSlash(p.Path))
}
