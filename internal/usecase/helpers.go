package usecase

import (
	"math"
	"strings"
	"time"

	"github.com/i2y/clinicalmcp/internal/domain"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime accepts RFC 3339 and a few common local layouts. A blank value
// yields ok=false; an unparseable one yields a ValidationError naming field.
func parseTime(field, value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true, nil
		}
	}
	return time.Time{}, false, domain.NewValidationError(field, "must be an RFC 3339 timestamp such as 2024-05-01T08:00:00Z")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func bulletList(b *strings.Builder, items []string) {
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
}
