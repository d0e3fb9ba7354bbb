package normalize

import (
	"strconv"
	"strings"
)

// ParseAmount converts a currency-formatted value ("$12,500.00", "12 500",
// "MXN 900") to a plain float64. Returns 0, false for empty or unparseable
// input. Numeric inputs pass through unchanged.
func ParseAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		return parseAmountString(t)
	default:
		return 0, false
	}
}

func parseAmountString(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
