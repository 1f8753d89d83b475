package credit

import (
	"sort"
	"strings"
)

// =============================================================================
// TEMPLATE NORMALIZER - Percentage mode
// =============================================================================

// DefaultTemplate is the fallback row used when a template definition
// normalizes to nothing: the full total due 30 days after issue.
func DefaultTemplate() Template {
	return Template{DaysFromIssue: 30, Percentage: hundred}
}

// NormalizeTemplates sanitizes a percentage-mode definition:
//   - negative day offsets are clamped to zero
//   - percentages are rounded to two decimals
//   - no-op rows (zero days AND zero percentage) are dropped
//   - rows are stably sorted ascending by day offset
//
// When nothing survives, the single default row is returned so previews
// always have something to render. Validation uses the non-defaulting
// path so a genuinely empty definition still reads as an error.
func NormalizeTemplates(templates []Template) []Template {
	out := sanitizeTemplates(templates)
	if len(out) == 0 {
		return []Template{DefaultTemplate()}
	}
	return out
}

// sanitizeTemplates is NormalizeTemplates without the default fallback.
func sanitizeTemplates(templates []Template) []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		days := t.DaysFromIssue
		if days < 0 {
			days = 0
		}
		pct := round2(t.Percentage)
		if days == 0 && pct.IsZero() {
			continue
		}
		out = append(out, Template{DaysFromIssue: days, Percentage: pct})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysFromIssue < out[j].DaysFromIssue
	})
	return out
}

// =============================================================================
// CALENDAR NORMALIZER - Explicit date/amount mode
// =============================================================================

// NormalizeCalendar sanitizes a calendar-mode definition:
//   - date strings are trimmed
//   - amounts are rounded to two decimals
//   - no-op rows (empty date AND zero amount) are dropped
//   - rows are stably sorted ascending by ISO date string
//
// Lexicographic order is correct for same-format ISO dates with
// zero-padded components.
func NormalizeCalendar(rows []CalendarEntry) []CalendarEntry {
	out := make([]CalendarEntry, 0, len(rows))
	for _, r := range rows {
		date := strings.TrimSpace(r.DueDate)
		amount := round2(r.Amount)
		if date == "" && amount.IsZero() {
			continue
		}
		out = append(out, CalendarEntry{DueDate: date, Amount: amount})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate < out[j].DueDate
	})
	return out
}
