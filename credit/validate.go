package credit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULE VALIDATOR - The save gate
// =============================================================================

// ValidateDefinition checks a definition for internal consistency and
// returns human-readable violations; an empty slice means valid. It never
// returns an error and never panics.
//
// Validation is advisory: the builder does not require it to have passed.
// Call sites must consult it before treating a schedule as final (e.g.
// before confirming a sale as credit), but live previews keep building
// while the user is mid-edit.
//
// total applies to calendar mode only: when supplied, the summed amounts
// must reconcile with it within a hundredth of a currency unit.
func ValidateDefinition(def Definition, total *decimal.Decimal) []string {
	switch def.Mode {
	case ModeCalendar:
		return validateCalendar(def.Calendar, total)
	default:
		return validateTemplates(def.Templates)
	}
}

func validateTemplates(templates []Template) []string {
	var errs []string

	sum := decimal.Zero
	rows := 0
	for i, t := range templates {
		pct := round2(t.Percentage)
		if t.DaysFromIssue <= 0 && pct.IsZero() {
			continue // no-op row, dropped by the normalizer
		}
		rows++
		if t.DaysFromIssue < 0 {
			errs = append(errs, fmt.Sprintf("installment %d: day offset cannot be negative", i+1))
		}
		if pct.Sign() <= 0 {
			errs = append(errs, fmt.Sprintf("installment %d: percentage must be greater than zero", i+1))
		}
		sum = sum.Add(pct)
	}

	if rows == 0 {
		return []string{"add at least one installment"}
	}
	if sum.Sub(hundred).Abs().GreaterThan(tolerance) {
		errs = append(errs, fmt.Sprintf("percentages must sum to 100, got %s", sum.StringFixed(2)))
	}
	return errs
}

func validateCalendar(rows []CalendarEntry, total *decimal.Decimal) []string {
	normalized := NormalizeCalendar(rows)
	if len(normalized) == 0 {
		return []string{"add at least one installment"}
	}

	var errs []string
	sum := decimal.Zero
	for i, r := range normalized {
		if !isValidISODate(r.DueDate) {
			errs = append(errs, fmt.Sprintf("installment %d: invalid due date %q", i+1, r.DueDate))
		}
		if r.Amount.Sign() <= 0 {
			errs = append(errs, fmt.Sprintf("installment %d: amount must be greater than zero", i+1))
		}
		sum = sum.Add(r.Amount)
	}

	if total != nil {
		diff := sum.Sub(*total)
		switch {
		case diff.GreaterThan(tolerance):
			// Over-specified. When shrinking the last row by the excess
			// would leave it non-positive, report the sharper message.
			last := normalized[len(normalized)-1].Amount
			if last.Sub(diff).Sign() <= 0 {
				errs = append(errs, "excess cannot be absorbed without leaving a zero or negative installment")
			} else {
				errs = append(errs, fmt.Sprintf("amounts sum to %s, which exceeds the total %s",
					sum.StringFixed(2), total.StringFixed(2)))
			}
		case diff.Neg().GreaterThan(tolerance):
			errs = append(errs, fmt.Sprintf("amounts sum to %s, which is less than the total %s",
				sum.StringFixed(2), total.StringFixed(2)))
		}
	}
	return errs
}
