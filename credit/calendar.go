package credit

import (
	"strings"
	"time"
)

// =============================================================================
// BUSINESS CALENDAR - Injected date capability
// =============================================================================

const isoDate = "2006-01-02"

// BusinessCalendar is the date capability the engine depends on. The host
// environment injects it; a holiday-aware implementation can shift due
// dates off weekends and holidays without the engine knowing.
//
// EnsureValidDate must accept absent or unparseable input and substitute
// today's date. That sanitization boundary is what lets the builder treat
// every issue date as valid downstream.
type BusinessCalendar interface {
	// Today returns the current business date as an ISO string.
	Today() string

	// EnsureValidDate returns input when it is a valid ISO date,
	// otherwise today's date.
	EnsureValidDate(input string) string

	// ShiftByDays returns base moved forward by days (days may be 0).
	ShiftByDays(base string, days int) string
}

// CivilCalendar is the default BusinessCalendar: plain civil-day
// arithmetic in UTC with no weekend or holiday awareness.
type CivilCalendar struct{}

var _ BusinessCalendar = CivilCalendar{}

func (CivilCalendar) Today() string {
	return time.Now().UTC().Format(isoDate)
}

func (c CivilCalendar) EnsureValidDate(input string) string {
	input = strings.TrimSpace(input)
	if _, err := time.Parse(isoDate, input); err != nil {
		return c.Today()
	}
	return input
}

func (c CivilCalendar) ShiftByDays(base string, days int) string {
	t, err := time.Parse(isoDate, base)
	if err != nil {
		t, _ = time.Parse(isoDate, c.Today())
	}
	return t.AddDate(0, 0, days).Format(isoDate)
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// isValidISODate reports whether s is a real calendar date in ISO form.
// time.Parse rejects impossible dates like 2024-02-30.
func isValidISODate(s string) bool {
	_, err := time.Parse(isoDate, s)
	return err == nil
}

// diffDays returns the whole civil days from one ISO date to another,
// clamped to zero when either date fails to parse or to is before from.
func diffDays(from, to string) int {
	f, err := time.Parse(isoDate, from)
	if err != nil {
		return 0
	}
	t, err := time.Parse(isoDate, to)
	if err != nil {
		return 0
	}
	days := int(t.Sub(f).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
