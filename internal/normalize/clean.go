package normalize

import "strings"

// StripFences trims s and, when it contains a code fence, removes every
// "```json" and "```" marker.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// BracketSpan returns the substring from the first '[' to the last ']'
// inclusive. It is a heuristic over untrusted text, not a parser: brackets
// inside strings are not considered. ok is false when no such span exists.
func BracketSpan(s string) (span string, ok bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// BraceSpan returns the substring from the first '{' to the last '}'
// inclusive, with the same caveats as BracketSpan.
func BraceSpan(s string) (span string, ok bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
