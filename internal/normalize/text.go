package normalize

import (
	"strconv"
	"strings"
)

// Clean trims and lowercases a string for case-insensitive comparison.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EqualFold reports case-insensitive, trimmed equality.
func EqualFold(a, b string) bool {
	return Clean(a) == Clean(b)
}

// ContainsFold reports whether haystack contains needle, case-insensitively
// and trimmed. An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	n := Clean(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Clean(haystack), n)
}

// Stringify renders any scalar to a trimmed string for length and pattern
// checks. Nil renders as "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
