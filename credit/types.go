/*
Package credit implements the installment scheduling engine for credit sales.

PURPOSE:
  This package contains the types and algorithms that turn a payment-terms
  definition plus a sale total into a concrete, auditable schedule of due
  dates and amounts. Whether the terms are authored as percentage/day-offset
  templates or as an explicit date/amount calendar, the same engine handles
  normalization, validation, building, and due-date resolution.

KEY CONCEPTS IN THIS FILE (types.go):
  - Template: A percentage-of-total due N days after issue (template mode)
  - CalendarEntry: A fixed date and fixed amount (calendar mode)
  - Installment: One computed scheduled payment, immutable once built
  - Schedule: The full computed installment plan for one sale

DESIGN PRINCIPLES:
  1. Exactness: Uses decimal.Decimal so amounts reconcile to the total
     with zero tolerance, never within-epsilon
  2. Totality: Every function accepts malformed input and degrades
     instead of panicking - live previews must keep working mid-edit
  3. Immutability: A built schedule never changes its amounts or dates;
     collections mutate only the paid/remaining/status side

USAGE:
  b := credit.Builder{Calendar: credit.CivilCalendar{}}
  schedule := b.Build(credit.BuildInput{
      Definition: credit.Definition{
          Mode:      credit.ModeTemplate,
          Templates: []credit.Template{{DaysFromIssue: 30, Percentage: credit.Dec(100)}},
      },
      IssueDate: "2024-01-01",
      Total:     credit.Dec(250),
  })

SEE ALSO:
  - normalize.go: Input sanitization for both authoring modes
  - validate.go:  Advisory consistency checks (the save gate)
  - builder.go:   Schedule construction and residual absorption
  - duedate.go:   Global due-date resolution and method labels
*/
package credit

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AUTHORING UNITS
// =============================================================================

// Template is one row of a percentage-mode definition: X% of the sale
// total, due DaysFromIssue days after the issue date. Templates are
// reusable - attached to a payment-method default or entered per sale.
type Template struct {
	DaysFromIssue int
	Percentage    decimal.Decimal
}

// CalendarEntry is one row of a calendar-mode definition: a fixed due
// date and a fixed currency amount, independent of percentages.
type CalendarEntry struct {
	DueDate string // ISO date, "2006-01-02"
	Amount  decimal.Decimal
}

// Mode selects which authoring representation governs a definition.
// The two representations are never mixed within one schedule.
type Mode string

const (
	ModeTemplate Mode = "template"
	ModeCalendar Mode = "calendar"
)

// Definition is a complete authored payment-terms definition.
// Exactly one of Templates/Calendar is meaningful, per Mode.
type Definition struct {
	Mode      Mode
	Templates []Template
	Calendar  []CalendarEntry
}

// BuildInput is the argument of the single public build entry point.
type BuildInput struct {
	Definition
	IssueDate string // ISO date; sanitized via BusinessCalendar.EnsureValidDate
	Total     decimal.Decimal
}

// =============================================================================
// COMPUTED SCHEDULE
// =============================================================================

// Status tracks how much of an installment has been collected.
type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusSettled Status = "settled"
)

// PaymentTrace records one partial collection against an installment.
// The slice on Installment grows over its lifetime; nothing else moves.
type PaymentTrace struct {
	At        string // ISO date
	Amount    decimal.Decimal
	Method    string
	Reference string
}

// Installment is one scheduled partial payment of a credit sale.
// Number, DaysFromIssue, Percentage, DueDate and Amount are fixed at
// build time; the remaining fields belong to the collections lifecycle.
type Installment struct {
	Number        int // 1-based position after sorting
	DaysFromIssue int
	Percentage    decimal.Decimal
	DueDate       string // ISO date
	Amount        decimal.Decimal
	PaidAmount    decimal.Decimal
	Remaining     decimal.Decimal
	Status        Status
	Payments      []PaymentTrace
}

// Schedule is the computed installment plan for one sale.
//
// Invariants once built:
//   - Installments ordered by Number, ascending due date
//   - sum(Installments[i].Amount) == total, exactly
//   - GlobalDueDate == max(Installments[i].DueDate)
//
// Template mode guarantees a non-empty plan (the default row kicks in);
// calendar mode may yield an empty plan, which callers must treat as
// "schedule unavailable".
type Schedule struct {
	Installments    []Installment
	TotalPercentage decimal.Decimal
	GlobalDueDate   string
}

// Total returns the sum of installment amounts.
func (s Schedule) Total() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range s.Installments {
		total = total.Add(inst.Amount)
	}
	return total
}

// Outstanding returns the sum of remaining amounts across installments.
func (s Schedule) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range s.Installments {
		total = total.Add(inst.Remaining)
	}
	return total
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// tolerance is the comparison slack for user-facing consistency checks:
// one hundredth of a currency unit. Internal reconciliation is exact and
// does not use it.
var tolerance = decimal.New(1, -2)

// Dec converts a float to a decimal, mapping NaN and infinities to zero.
// Every numeric coercion at the engine boundary goes through here so the
// engine can never see a non-finite value.
func Dec(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// round2 rounds to two decimal places (half away from zero).
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var hundred = decimal.NewFromInt(100)
