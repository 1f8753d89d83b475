package credit

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULE BUILDER - Definition + total + issue date -> concrete schedule
// =============================================================================

// Builder turns normalized definitions into concrete schedules. It is
// pure computation over its inputs plus the injected calendar; it never
// errors and never panics, so it is always safe to call for previews.
type Builder struct {
	Calendar BusinessCalendar
}

// NewBuilder returns a builder over the given calendar, defaulting to
// plain civil-day arithmetic when cal is nil.
func NewBuilder(cal BusinessCalendar) Builder {
	if cal == nil {
		cal = CivilCalendar{}
	}
	return Builder{Calendar: cal}
}

// Build is the single public entry point consumed by the sale/checkout
// flow: it dispatches on Mode. Total is required here and forwarded to
// both modes, so the builder and the validator can never be fed
// different totals through this path.
func (b Builder) Build(in BuildInput) Schedule {
	if in.Mode == ModeCalendar {
		total := in.Total
		return b.FromCalendar(in.Calendar, in.IssueDate, &total)
	}
	return b.FromTemplates(in.Templates, in.IssueDate, in.Total)
}

// FromTemplates builds a schedule from a percentage-mode definition.
//
// Every row except the last gets round2(total * pct / 100). The last row
// is forced to total minus the sum of the previous amounts, so the
// schedule reconstructs the total exactly regardless of rounding drift
// across earlier rows. Empty or malformed input degrades to the single
// default row (100% at 30 days).
func (b Builder) FromTemplates(templates []Template, issueDate string, total decimal.Decimal) Schedule {
	cal := b.calendar()
	normalized := NormalizeTemplates(templates)
	issue := cal.EnsureValidDate(issueDate)

	installments := make([]Installment, len(normalized))
	totalPct := decimal.Zero
	allocated := decimal.Zero
	for i, t := range normalized {
		var amount decimal.Decimal
		if i == len(normalized)-1 {
			amount = total.Sub(allocated) // residual absorption
		} else {
			amount = round2(total.Mul(t.Percentage).Div(hundred))
			allocated = allocated.Add(amount)
		}
		installments[i] = newInstallment(i+1, t.DaysFromIssue, t.Percentage,
			cal.ShiftByDays(issue, t.DaysFromIssue), amount)
		totalPct = totalPct.Add(t.Percentage)
	}

	return Schedule{
		Installments:    installments,
		TotalPercentage: totalPct,
		GlobalDueDate:   GlobalDueDate(cal, installments),
	}
}

// FromCalendar builds a schedule from an explicit date/amount definition.
//
// When total is supplied and the summed amounts stray from it by more
// than a hundredth, the last row absorbs the signed residual - but only
// if the adjustment keeps that row positive. Otherwise the rows are left
// untouched and the discrepancy surfaces through the validator, never
// silently. Day offsets and percentages are derived, not authored.
func (b Builder) FromCalendar(rows []CalendarEntry, issueDate string, total *decimal.Decimal) Schedule {
	cal := b.calendar()
	normalized := NormalizeCalendar(rows)
	issue := cal.EnsureValidDate(issueDate)

	if total != nil && len(normalized) > 0 {
		sum := decimal.Zero
		for _, r := range normalized {
			sum = sum.Add(r.Amount)
		}
		residual := total.Sub(sum)
		if residual.Abs().GreaterThan(tolerance) {
			last := &normalized[len(normalized)-1]
			if adjusted := last.Amount.Add(residual); adjusted.Sign() > 0 {
				last.Amount = adjusted
			}
		}
	}

	hasBase := total != nil && total.Sign() > 0
	installments := make([]Installment, len(normalized))
	pctAllocated := decimal.Zero
	totalPct := decimal.Zero
	for i, r := range normalized {
		pct := decimal.Zero
		if hasBase {
			if i == len(normalized)-1 {
				pct = hundred.Sub(pctAllocated) // mirror the amount policy
			} else {
				pct = round2(r.Amount.Div(*total).Mul(hundred))
				pctAllocated = pctAllocated.Add(pct)
			}
		}
		installments[i] = newInstallment(i+1, diffDays(issue, r.DueDate), pct, r.DueDate, r.Amount)
		totalPct = totalPct.Add(pct)
	}
	return Schedule{
		Installments:    installments,
		TotalPercentage: totalPct,
		GlobalDueDate:   GlobalDueDate(cal, installments),
	}
}

func (b Builder) calendar() BusinessCalendar {
	if b.Calendar == nil {
		return CivilCalendar{}
	}
	return b.Calendar
}

func newInstallment(number, days int, pct decimal.Decimal, dueDate string, amount decimal.Decimal) Installment {
	return Installment{
		Number:        number,
		DaysFromIssue: days,
		Percentage:    pct,
		DueDate:       dueDate,
		Amount:        amount,
		PaidAmount:    decimal.Zero,
		Remaining:     amount,
		Status:        StatusPending,
		Payments:      []PaymentTrace{},
	}
}
