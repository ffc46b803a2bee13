// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify renders validation prompts, calls the Claude API, and
// parses verdicts. It supports two calling conventions: a
// bounded-concurrency pool of individual Messages API calls, and the
// Message Batches API for large corpora.
package classify

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"text/template"
	"unicode/utf8"
)

const (
	// DefaultModel is the classification model. Haiku is sufficient for the
	// rubric and keeps per-file cost low.
	DefaultModel = "claude-haiku-4-5-20251001"

	// ContentMaxBytes caps content sent for classification. Frontmatter
	// plus the introduction is enough to judge a skill file.
	ContentMaxBytes = 3000

	maxTokens        = 256
	truncationMarker = "\n[truncated]"
)

// validationPromptTmpl is the rubric sent to Claude for each unique file
// content. The rendered text, content included, is also the cache key
// input, so any wording change invalidates the cache.
var validationPromptTmpl = template.Must(template.New("validation").Parse(`Analyze this SKILL.md file from GitHub.

A valid Claude Code skill file has:
1. YAML frontmatter between --- markers (at the start)
2. Markdown content after frontmatter
3. Content that extends Claude's capabilities (instructions, workflows, knowledge, or commands)

Common frontmatter fields (all optional):
- name, description, disable-model-invocation, user-invocable, allowed-tools

The content can be:
- Reference material (API conventions, patterns, style guides)
- Task instructions (step-by-step workflows like deploy, commit)
- Templates or examples
- Configuration for tools/agents

Be INCLUSIVE - if it has frontmatter + markdown content that looks skill-like, mark as valid.
Reject only if clearly not a skill (blog posts, GitHub templates, unrelated docs).

File content:
{{.Content}}

Respond with JSON only:
{"is_skill": true/false, "reason": "one sentence"}`))

// RenderPrompt substitutes content into the validation prompt.
func RenderPrompt(content string) (string, error) {
	var buf bytes.Buffer
	if err := validationPromptTmpl.Execute(&buf, struct{ Content string }{Content: content}); err != nil {
		return "", fmt.Errorf("rendering validation prompt: %w", err)
	}
	return buf.String(), nil
}

// PromptHash returns the cache key for content: the SHA-256 of the fully
// rendered prompt, hex-encoded. Pure function of its input.
func PromptHash(content string) (string, error) {
	prompt, err := RenderPrompt(content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(prompt))), nil
}

// Truncate cuts content to at most maxBytes at a UTF-8 boundary and
// appends a truncation marker. Content within budget passes through
// unchanged. maxBytes <= 0 uses ContentMaxBytes.
func Truncate(content string, maxBytes int) string {
	if maxBytes <= 0 {
		maxBytes = ContentMaxBytes
	}
	if len(content) <= maxBytes {
		return content
	}

	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + truncationMarker
}
