package ninja

import "strings"

// ninjaEscape escapes a path or token for use inside a ninja build
// statement: '$' and ':' are ninja syntax characters, and spaces need
// escaping wherever a bare path could otherwise be split into two tokens.
func ninjaEscape(s string) string {
	s = strings.ReplaceAll(s, "$", "$$")
	s = strings.ReplaceAll(s, ":", "$:")
	s = strings.ReplaceAll(s, " ", "$ ")
	return s
}
