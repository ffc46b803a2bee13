// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Verdict is a parsed classification result.
type Verdict struct {
	IsSkill bool   `json:"is_skill"`
	Reason  string `json:"reason"`
}

// Models sometimes wrap the JSON in a fenced block or surround it with
// prose despite the "JSON only" instruction; the fallbacks recover those
// cases.
var (
	fencedJSONPattern    = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	verdictObjectPattern = regexp.MustCompile(`(?s)\{.*"is_skill".*\}`)
)

// ParseVerdict interprets a Claude response as a verdict object. It tries
// strict JSON, then a ```json fenced block, then a best-effort scan for an
// object containing "is_skill". A missing field defaults to the zero
// value, matching an inclusive-reject stance.
func ParseVerdict(text string) (Verdict, error) {
	text = strings.TrimSpace(text)

	var v Verdict
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &v); err == nil {
			return v, nil
		}
	}

	if m := verdictObjectPattern.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), &v); err == nil {
			return v, nil
		}
	}

	return Verdict{}, fmt.Errorf("could not parse JSON verdict from %q", clip(text, 200))
}

// clip bounds a string for use inside reason fields and error messages.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
