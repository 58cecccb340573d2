package sqltext

import (
	"regexp"
	"strings"
)

var (
	lineComment  = regexp.MustCompile(`--.*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

var destructiveKeywords = []string{
	"insert",
	"update",
	"delete",
	"drop",
	"create",
	"alter",
	"truncate",
	"grant",
	"revoke",
}

var readOnlyKeywords = []string{"select", "show", "describe", "explain", "with"}

// IsReadOnly reports whether the statement's leading keyword marks it as a
// read. This is a heuristic on the leading keyword, not a parser: a write
// smuggled into a non-leading clause is not caught here. Anything that
// matches neither keyword set is treated as a write.
func IsReadOnly(query string) bool {
	normalized := normalize(query)
	if normalized == "" {
		return false
	}

	for _, keyword := range destructiveKeywords {
		if strings.HasPrefix(normalized, keyword) {
			return false
		}
	}

	for _, keyword := range readOnlyKeywords {
		if strings.HasPrefix(normalized, keyword) {
			return true
		}
	}

	return false
}

// Strips comments, collapses whitespace and lower-cases the statement so the
// leading keyword can be matched reliably.
func normalize(query string) string {
	stripped := strings.ToLower(strings.TrimSpace(query))
	stripped = lineComment.ReplaceAllString(stripped, "")
	stripped = blockComment.ReplaceAllString(stripped, "")

	return strings.Join(strings.Fields(stripped), " ")
}
