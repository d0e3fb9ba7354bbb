package rules

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/fieldpath"
	"github.com/opensource-health/centinela/internal/normalize"
)

// Condition evaluation. A true result means the condition is TRIGGERED:
// a problem was detected. Rules are user-authored, so every malformed input
// (unknown operator, non-numeric comparison, unparsable date) resolves to
// "not triggered" rather than an error.

// EvaluateCondition evaluates one condition against a record tree.
// overridePath, when non-empty, replaces the condition's field path before
// resolution (per-insurer normalized rule authoring).
func EvaluateCondition(cond domain.RuleCondition, record map[string]any, overridePath string) bool {
	field := cond.Field
	if overridePath != "" {
		field = overridePath
	}
	value := fieldpath.Get(record, field)

	switch cond.Operator {
	case domain.OpIsEmpty:
		return fieldpath.IsEmpty(value)
	case domain.OpIsNotEmpty:
		return !fieldpath.IsEmpty(value)
	case domain.OpRequires:
		// XOR dependency: exactly one side present.
		other := fieldpath.Get(record, cond.CompareField)
		return fieldpath.IsEmpty(value) != fieldpath.IsEmpty(other)
	case domain.OpIfThen:
		other := fieldpath.Get(record, cond.CompareField)
		return !fieldpath.IsEmpty(value) && fieldpath.IsEmpty(other)

	case domain.OpEquals:
		return valueEquals(value, cond.Value)
	case domain.OpNotEquals:
		return !fieldpath.IsEmpty(value) && !valueEquals(value, cond.Value)
	case domain.OpGreaterThan:
		return compareNumeric(value, cond.Value, func(a, b float64) bool { return a > b })
	case domain.OpLessThan:
		return compareNumeric(value, cond.Value, func(a, b float64) bool { return a < b })
	case domain.OpGreaterThanOrEqual:
		return compareNumeric(value, cond.Value, func(a, b float64) bool { return a >= b })
	case domain.OpLessThanOrEqual:
		return compareNumeric(value, cond.Value, func(a, b float64) bool { return a <= b })

	case domain.OpDateMissing:
		return fieldpath.IsEmpty(value)
	case domain.OpDateInvalid, domain.OpIsDate:
		if fieldpath.IsEmpty(value) {
			return false
		}
		return normalize.ParseDate(normalize.Stringify(value)) == nil
	case domain.OpDateBefore:
		return compareDates(value, cond, record, func(a, b time.Time) bool { return a.Before(b) })
	case domain.OpDateAfter:
		return compareDates(value, cond, record, func(a, b time.Time) bool { return a.After(b) })

	case domain.OpIsNumber:
		if fieldpath.IsEmpty(value) {
			return false
		}
		_, ok := toFloat(value)
		return !ok
	case domain.OpIsEmail:
		return presentAndInvalid(value, emailPattern)
	case domain.OpIsRFC:
		if fieldpath.IsEmpty(value) {
			return false
		}
		s := strings.ToUpper(strings.TrimSpace(normalize.Stringify(value)))
		return !rfcPattern.MatchString(s)
	case domain.OpIsPhone:
		if fieldpath.IsEmpty(value) {
			return false
		}
		return len(digitsOf(normalize.Stringify(value))) != 10

	case domain.OpRegex:
		if fieldpath.IsEmpty(value) {
			return false
		}
		pattern, err := regexp.Compile("(?i)" + normalize.Stringify(cond.Value))
		if err != nil {
			return false
		}
		return !pattern.MatchString(normalize.Stringify(value))
	case domain.OpContains:
		return contains(value, cond.Value)
	case domain.OpNotContains:
		return !fieldpath.IsEmpty(value) && !contains(value, cond.Value)
	case domain.OpLengthLessThan:
		n, ok := toFloat(cond.Value)
		if !ok {
			return false
		}
		// Empty stringifies to length 0, satisfying LESS_THAN trivially.
		return float64(len([]rune(normalize.Stringify(value)))) < n
	case domain.OpLengthGreaterThan:
		n, ok := toFloat(cond.Value)
		if !ok {
			return false
		}
		return float64(len([]rune(normalize.Stringify(value)))) > n

	case domain.OpMutuallyExclusive:
		other := fieldpath.Get(record, cond.CompareField)
		return !fieldpath.IsEmpty(value) && !fieldpath.IsEmpty(other)
	case domain.OpOneOfRequired:
		return !anyPresent(record, cond)
	case domain.OpAllRequired:
		return !allPresent(record, cond)

	default:
		// Unknown operator: fail-safe, never an error.
		return false
	}
}

// valueEquals compares case-insensitively after trimming; numeric coercion
// applies only when both sides are numeric-like. An array field uses
// membership.
func valueEquals(fieldValue, condValue any) bool {
	if arr, ok := fieldValue.([]any); ok {
		for _, elem := range arr {
			if scalarEquals(elem, condValue) {
				return true
			}
		}
		return false
	}
	return scalarEquals(fieldValue, condValue)
}

func scalarEquals(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return normalize.EqualFold(normalize.Stringify(a), normalize.Stringify(b))
}

// compareNumeric requires both operands numeric-coercible; otherwise the
// condition is not triggered.
func compareNumeric(fieldValue, condValue any, cmp func(a, b float64) bool) bool {
	a, okA := toFloat(fieldValue)
	b, okB := toFloat(condValue)
	if !okA || !okB {
		return false
	}
	return cmp(a, b)
}

// compareDates resolves the reference date in priority order: the TODAY
// sentinel, the compare field's parsed date, then a literal date value.
func compareDates(fieldValue any, cond domain.RuleCondition, record map[string]any, cmp func(a, b time.Time) bool) bool {
	fieldDate := normalize.ParseDate(normalize.Stringify(fieldValue))
	if fieldDate == nil {
		return false
	}

	var ref *time.Time
	switch {
	case strings.EqualFold(normalize.Stringify(cond.Value), domain.DateSentinelToday):
		now := time.Now()
		ref = &now
	case cond.CompareField != "":
		ref = normalize.ParseDate(normalize.Stringify(fieldpath.Get(record, cond.CompareField)))
	default:
		ref = normalize.ParseDate(normalize.Stringify(cond.Value))
	}
	if ref == nil {
		return false
	}
	return cmp(*fieldDate, *ref)
}

func contains(fieldValue, condValue any) bool {
	needle := normalize.Stringify(condValue)
	if arr, ok := fieldValue.([]any); ok {
		for _, elem := range arr {
			if normalize.EqualFold(normalize.Stringify(elem), needle) ||
				normalize.ContainsFold(normalize.Stringify(elem), needle) {
				return true
			}
		}
		return false
	}
	return normalize.ContainsFold(normalize.Stringify(fieldValue), needle)
}

func anyPresent(record map[string]any, cond domain.RuleCondition) bool {
	for _, path := range conditionFieldSet(cond) {
		if !fieldpath.IsEmpty(fieldpath.Get(record, path)) {
			return true
		}
	}
	return false
}

func allPresent(record map[string]any, cond domain.RuleCondition) bool {
	for _, path := range conditionFieldSet(cond) {
		if fieldpath.IsEmpty(fieldpath.Get(record, path)) {
			return false
		}
	}
	return true
}

func conditionFieldSet(cond domain.RuleCondition) []string {
	fields := []string{cond.Field}
	fields = append(fields, cond.AdditionalFields...)
	return fields
}

func presentAndInvalid(value any, pattern *regexp.Regexp) bool {
	if fieldpath.IsEmpty(value) {
		return false
	}
	return !pattern.MatchString(strings.TrimSpace(normalize.Stringify(value)))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// Mexican tax-ID pattern.
	rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3}$`)
)
