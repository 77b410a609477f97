package textutil

import "strings"

// Excerpt collapses whitespace to single spaces and cuts value to at most
// limit runes, marking the cut with "...". A non-positive limit only
// collapses whitespace.
func Excerpt(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
