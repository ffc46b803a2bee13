// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package frontmatter is the cheap structural pre-filter that runs before
// any cache lookup or API call.
package frontmatter

import (
	"strings"

	"go.yaml.in/yaml/v3"
)

const delimiter = "---"

// HasValidFrontmatter reports whether content opens with a YAML frontmatter
// block between --- markers. The header must parse as YAML under relaxed
// rules; an empty header is fine. A missing closing marker or a parse
// failure means false.
func HasValidFrontmatter(content string) bool {
	if !strings.HasPrefix(content, delimiter) {
		return false
	}

	parts := strings.SplitN(content, delimiter, 3)
	if len(parts) < 3 {
		return false
	}

	var node yaml.Node
	return yaml.Unmarshal([]byte(parts[1]), &node) == nil
}
