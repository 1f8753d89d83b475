package credit

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// GLOBAL DUE-DATE RESOLVER
// =============================================================================

// GlobalDueDate returns the latest due date across the installments,
// used for aggregate reporting and sorting. An empty list resolves to
// today's business date. ISO strings compare correctly lexicographically.
func GlobalDueDate(cal BusinessCalendar, installments []Installment) string {
	if cal == nil {
		cal = CivilCalendar{}
	}
	if len(installments) == 0 {
		return cal.Today()
	}
	max := installments[0].DueDate
	for _, inst := range installments[1:] {
		if inst.DueDate > max {
			max = inst.DueDate
		}
	}
	return max
}

// =============================================================================
// PAYMENT-METHOD LABEL
// =============================================================================

// DefaultMethodLabel derives a human label for a payment method from the
// distinct sorted day offsets of its templates, e.g. "Credit 30 days" or
// "Credit 15-30-60 days". With no offsets it falls back to a generic
// credit label.
func DefaultMethodLabel(templates []Template) string {
	seen := make(map[int]bool)
	var offsets []int
	for _, t := range sanitizeTemplates(templates) {
		if !seen[t.DaysFromIssue] {
			seen[t.DaysFromIssue] = true
			offsets = append(offsets, t.DaysFromIssue)
		}
	}
	if len(offsets) == 0 {
		return "Credit"
	}
	sort.Ints(offsets)

	parts := make([]string, len(offsets))
	for i, d := range offsets {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("Credit %s days", strings.Join(parts, "-"))
}
