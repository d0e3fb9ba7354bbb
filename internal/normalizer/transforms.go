package normalizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opensource-health/centinela/internal/normalize"
)

// Parsers and validators are registered by name so insurer mapping tables
// stay pure data: a config row referencing "parse_amount" serializes,
// versions, and round-trips through the repository without code loading.

// ParserFunc transforms a raw source value into its canonical form.
type ParserFunc func(raw any) (any, error)

// ValidatorFunc reports whether a parsed value is acceptable.
type ValidatorFunc func(value any) bool

var parsers = map[string]ParserFunc{
	"trim":         parseTrim,
	"upper":        parseUpper,
	"digits_only":  parseDigitsOnly,
	"parse_amount": parseAmount,
	"parse_date":   parseDate,
}

var validators = map[string]ValidatorFunc{
	"non_empty":       validateNonEmpty,
	"valid_date":      validateDate,
	"valid_rfc":       validateRFC,
	"valid_email":     validateEmail,
	"positive_amount": validatePositiveAmount,
}

// LookupParser returns the named parser. Unknown names are a configuration
// error surfaced at normalization time.
func LookupParser(name string) (ParserFunc, error) {
	if name == "" {
		return nil, nil
	}
	p, ok := parsers[name]
	if !ok {
		return nil, fmt.Errorf("unknown parser %q", name)
	}
	return p, nil
}

// LookupValidator returns the named validator.
func LookupValidator(name string) (ValidatorFunc, error) {
	if name == "" {
		return nil, nil
	}
	v, ok := validators[name]
	if !ok {
		return nil, fmt.Errorf("unknown validator %q", name)
	}
	return v, nil
}

func parseTrim(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return raw, nil
}

func parseUpper(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		return strings.ToUpper(strings.TrimSpace(s)), nil
	}
	return raw, nil
}

func parseDigitsOnly(raw any) (any, error) {
	s := normalize.Stringify(raw)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// parseAmount strips currency punctuation and yields a plain float64.
func parseAmount(raw any) (any, error) {
	f, ok := normalize.ParseAmount(raw)
	if !ok {
		return nil, fmt.Errorf("not a parseable amount: %v", raw)
	}
	return f, nil
}

// parseDate re-renders any accepted date format as DD/MM/YYYY.
func parseDate(raw any) (any, error) {
	s := normalize.Stringify(raw)
	t := normalize.ParseDate(s)
	if t == nil {
		return nil, fmt.Errorf("not a parseable date: %q", s)
	}
	return normalize.FormatDate(*t), nil
}

func validateNonEmpty(value any) bool {
	switch t := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}

func validateDate(value any) bool {
	return normalize.ParseDate(normalize.Stringify(value)) != nil
}

// Mexican tax-ID pattern.
var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3}$`)

func validateRFC(value any) bool {
	s := strings.ToUpper(strings.TrimSpace(normalize.Stringify(value)))
	return rfcPattern.MatchString(s)
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateEmail(value any) bool {
	return emailPattern.MatchString(strings.TrimSpace(normalize.Stringify(value)))
}

func validatePositiveAmount(value any) bool {
	f, ok := normalize.ParseAmount(value)
	return ok && f > 0
}
