package dashboard

import "strings"

// canonicalName normalizes a free-text record-reference name into a lookup
// key: surrounding whitespace is trimmed and the result is case-folded. The
// empty string is the excluded marker: entries canonicalizing to it are never
// looked up. Canonicalization is idempotent.
func canonicalName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
