package genservice

import (
	"regexp"
	"strings"
)

// The service is not contractually guaranteed to return bare content:
// responses commonly arrive wrapped in markdown fences, quotes, or a
// leading language-name token. Everything here strips that noise.
var (
	// fencePattern matches a whole response wrapped in a markdown code
	// fence with an optional language tag.
	fencePattern = regexp.MustCompile("(?s)\\A```[a-zA-Z]*\\s*\\n?(.*?)\\n?```\\s*\\z")
	// langTokenPattern matches a bare language-name token on the first
	// line of a response.
	langTokenPattern = regexp.MustCompile(`(?i)\A(javascript|js|json)\s*\n`)
)

// CleanScript normalizes a script-text response: trims whitespace,
// removes a surrounding code fence or quote characters, and drops a
// leading language token.
func CleanScript(raw string) string {
	s := strings.TrimSpace(raw)

	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.Trim(s, "`\"' \n")
	s = langTokenPattern.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}

// CleanDocument normalizes a whole-document JSON response: trims
// whitespace and strips leading/trailing fence markers, tolerating a
// response where only the opening fence survived truncation.
func CleanDocument(raw string) string {
	s := strings.TrimSpace(raw)

	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}
