// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package githuburl

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BlobURL(t *testing.T) {
	p, ok := Parse("https://github.com/anthropics/claude-skills/blob/main/skills/commit/SKILL.md")
	require.True(t, ok)

	assert.Equal(t, "anthropics", p.Owner)
	assert.Equal(t, "claude-skills", p.Repo)
	assert.Equal(t, "main", p.Ref)
	assert.Equal(t, "skills/commit/SKILL.md", p.Path)
	assert.Equal(t, "anthropics/claude-skills", p.RepoKey())
}

func TestParse_TopLevelFile(t *testing.T) {
	p, ok := Parse("https://github.com/acme/tools/blob/v1.2/SKILL.md")
	require.True(t, ok)
	assert.Equal(t, "SKILL.md", p.Path)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"too few segments": "https://github.com/acme/tools",
		"wrong host":       "https://gitlab.com/acme/tools/blob/main/SKILL.md",
		"no blob marker":   "https://github.com/acme/tools/tree/main/SKILL.md",
		"empty":            "",
	}
	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := Parse(url)
			assert.False(t, ok)
		})
	}
}

func TestContentPath(t *testing.T) {
	p, ok := Parse("https://github.com/acme/tools/blob/main/skills/deploy/SKILL.md")
	require.True(t, ok)

	want := filepath.Join("/data/content", "acme", "tools", "blob", "main", "skills", "deploy", "SKILL.md")
	assert.Equal(t, want, ContentPath("/data/content", p))
}
