// Package safety gates generated SQL before execution. The check is a
// case-insensitive denylist scan, not a SQL parser: a mutating keyword inside
// a string literal is rejected as a false positive, and an encoded or
// obfuscated mutation could slip past it. It is a fast first gate; the
// read-only instruction in the prompt and the provider's own permissions are
// the remaining layers.
package safety

import "strings"

// deniedKeywords are the mutating statement keywords that mark a query unsafe
// wherever they appear in the statement text.
var deniedKeywords = []string{
	"DROP",
	"DELETE",
	"TRUNCATE",
	"ALTER",
	"UPDATE",
	"INSERT",
}

// IsSafe reports whether the statement is free of mutating keywords.
func IsSafe(sql string) bool {
	upper := strings.ToUpper(sql)

	for _, keyword := range deniedKeywords {
		if strings.Contains(upper, keyword) {
			return false
		}
	}

	return true
}

// DeniedKeywords returns a copy of the denylist, for display in diagnostics.
func DeniedKeywords() []string {
	out := make([]string, len(deniedKeywords))
	copy(out, deniedKeywords)

	return out
}
