package normalize

import (
	"strings"
	"time"
)

// Date formats accepted at the service boundary. DD/MM/YYYY is the canonical
// interchange format for Mexican claim documents; the rest cover what the
// extraction collaborator actually emits.
var dateFormats = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"02/01/06",
}

// ParseDate attempts to parse a date string in the accepted formats.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// FormatDate renders a time in the DD/MM/YYYY interchange format.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// MonthsBetween returns the number of whole calendar months from a to b.
// Negative when b precedes a. Used for policy tenure arithmetic.
func MonthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	return months
}
