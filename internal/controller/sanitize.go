package controller

import "regexp"

// stepRefPattern matches stray internal step-reference markers like
// "[step 3]" that a writer-stage LLM call occasionally echoes back verbatim
// instead of resolving into prose, grounded on the teacher's
// internal/brain gap-marker sanitizer (same regexp-strip-and-count shape,
// generalized from "[gap X]" to this package's "[step X]" markers).
var stepRefPattern = regexp.MustCompile(`\[step\s+\d+\]\s*`)

// sanitizeExplanation removes internal step-reference markers from
// user-facing explanation text. Returns the cleaned text and the count of
// markers stripped, so callers can log when a writer stage leaks internal
// references.
func sanitizeExplanation(content string) (string, int) {
	matches := stepRefPattern.FindAllStringIndex(content, -1)
	count := len(matches)
	if count == 0 {
		return content, 0
	}
	return stepRefPattern.ReplaceAllString(content, ""), count
}
