package util

import "unicode/utf8"

// Preview returns the first n characters of s, followed by "..." when s was
// longer. Characters are counted as runes, not bytes or display cells.
func Preview(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}
