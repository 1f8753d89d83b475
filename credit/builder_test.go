package credit_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/credit-engine/credit"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fixedCalendar pins Today so date fallbacks are deterministic in tests.
type fixedCalendar struct {
	credit.CivilCalendar
	today string
}

func (f fixedCalendar) Today() string { return f.today }

func (f fixedCalendar) EnsureValidDate(input string) string {
	input = strings.TrimSpace(input)
	if _, err := time.Parse("2006-01-02", input); err != nil {
		return f.today
	}
	return input
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pct(days int, p string) credit.Template {
	return credit.Template{DaysFromIssue: days, Percentage: dec(p)}
}

func entry(date, amount string) credit.CalendarEntry {
	return credit.CalendarEntry{DueDate: date, Amount: dec(amount)}
}

func amounts(s credit.Schedule) []string {
	out := make([]string, len(s.Installments))
	for i, inst := range s.Installments {
		out[i] = inst.Amount.StringFixed(2)
	}
	return out
}

func dueDates(s credit.Schedule) []string {
	out := make([]string, len(s.Installments))
	for i, inst := range s.Installments {
		out[i] = inst.DueDate
	}
	return out
}

// =============================================================================
// TEMPLATE MODE
// =============================================================================

func TestBuilder_ThreeWaySplit_ExactReconstruction(t *testing.T) {
	// GIVEN: a 33.33/33.33/33.34 split of 100.00 issued on 2024-01-01
	// WHEN: building in template mode
	// THEN: amounts are exact, dates follow the day offsets, sum is 100.00

	b := credit.NewBuilder(credit.CivilCalendar{})
	schedule := b.FromTemplates([]credit.Template{
		pct(0, "33.33"), pct(30, "33.33"), pct(60, "33.34"),
	}, "2024-01-01", dec("100.00"))

	require.Len(t, schedule.Installments, 3)
	assert.Equal(t, []string{"33.33", "33.33", "33.34"}, amounts(schedule))
	assert.Equal(t, []string{"2024-01-01", "2024-01-31", "2024-03-01"}, dueDates(schedule))
	assert.True(t, schedule.Total().Equal(dec("100.00")), "sum must reconstruct the total exactly")
	assert.Equal(t, "2024-03-01", schedule.GlobalDueDate)
}

func TestBuilder_LastRowAbsorbsRoundingDrift(t *testing.T) {
	// GIVEN: three equal thirds of a total that doesn't divide evenly
	// WHEN: building
	// THEN: the last row's amount is forced to total minus the others

	b := credit.NewBuilder(nil)
	schedule := b.FromTemplates([]credit.Template{
		pct(0, "33.33"), pct(30, "33.33"), pct(60, "33.34"),
	}, "2024-01-01", dec("99.99"))

	require.Len(t, schedule.Installments, 3)
	sum := decimal.Zero
	for _, inst := range schedule.Installments[:2] {
		sum = sum.Add(inst.Amount)
	}
	last := schedule.Installments[2]
	assert.True(t, last.Amount.Equal(dec("99.99").Sub(sum)))
	assert.True(t, schedule.Total().Equal(dec("99.99")))
}

func TestBuilder_EmptyTemplates_DefaultRow(t *testing.T) {
	// GIVEN: no templates at all
	// WHEN: building with a total of 100
	// THEN: exactly one installment, 100% at 30 days, amount 100

	b := credit.NewBuilder(credit.CivilCalendar{})
	schedule := b.FromTemplates(nil, "2024-01-01", dec("100"))

	require.Len(t, schedule.Installments, 1)
	inst := schedule.Installments[0]
	assert.Equal(t, 1, inst.Number)
	assert.Equal(t, 30, inst.DaysFromIssue)
	assert.True(t, inst.Percentage.Equal(dec("100")))
	assert.True(t, inst.Amount.Equal(dec("100")))
	assert.Equal(t, "2024-01-31", inst.DueDate)
}

func TestBuilder_Installments_InitializedPending(t *testing.T) {
	// GIVEN: any built schedule
	// THEN: every installment starts pending, zero paid, remaining == amount

	b := credit.NewBuilder(nil)
	schedule := b.FromTemplates([]credit.Template{
		pct(15, "50"), pct(45, "50"),
	}, "2024-06-01", dec("240.50"))

	for _, inst := range schedule.Installments {
		assert.Equal(t, credit.StatusPending, inst.Status)
		assert.True(t, inst.PaidAmount.IsZero())
		assert.True(t, inst.Remaining.Equal(inst.Amount))
		assert.Empty(t, inst.Payments)
	}
}

func TestBuilder_UnsortedTemplates_SortedByOffset(t *testing.T) {
	// GIVEN: templates authored out of order
	// WHEN: building
	// THEN: installments come out in non-decreasing due-date order

	b := credit.NewBuilder(nil)
	schedule := b.FromTemplates([]credit.Template{
		pct(60, "20"), pct(0, "50"), pct(30, "30"),
	}, "2024-01-01", dec("100"))

	require.Len(t, schedule.Installments, 3)
	for i := 1; i < len(schedule.Installments); i++ {
		prev, cur := schedule.Installments[i-1], schedule.Installments[i]
		assert.LessOrEqual(t, prev.DueDate, cur.DueDate)
		assert.Equal(t, i+1, cur.Number)
	}
}

func TestBuilder_InvalidIssueDate_FallsBackToToday(t *testing.T) {
	// GIVEN: an unparseable issue date
	// WHEN: building a single 100% installment due in 0 days
	// THEN: the due date is today's business date, not garbage

	cal := fixedCalendar{today: "2024-05-10"}
	b := credit.NewBuilder(cal)
	schedule := b.FromTemplates([]credit.Template{pct(0, "100")}, "not-a-date", dec("50"))

	require.Len(t, schedule.Installments, 1)
	assert.Equal(t, "2024-05-10", schedule.Installments[0].DueDate)
}

func TestBuilder_ZeroTotal_StillBuilds(t *testing.T) {
	// Live previews call the builder before a total is known.
	b := credit.NewBuilder(nil)
	schedule := b.FromTemplates([]credit.Template{pct(30, "100")}, "2024-01-01", decimal.Zero)

	require.Len(t, schedule.Installments, 1)
	assert.True(t, schedule.Total().IsZero())
}

// =============================================================================
// CALENDAR MODE
// =============================================================================

func TestBuilder_Calendar_DerivedOffsetsAndPercentages(t *testing.T) {
	// GIVEN: two explicit rows covering a 100.00 total
	// WHEN: building with the total supplied
	// THEN: day offsets and percentages are derived, last row closes to 100

	total := dec("100.00")
	b := credit.NewBuilder(nil)
	schedule := b.FromCalendar([]credit.CalendarEntry{
		entry("2024-01-15", "40"), entry("2024-02-15", "60"),
	}, "2024-01-01", &total)

	require.Len(t, schedule.Installments, 2)
	first, second := schedule.Installments[0], schedule.Installments[1]
	assert.Equal(t, 14, first.DaysFromIssue)
	assert.Equal(t, 45, second.DaysFromIssue)
	assert.True(t, first.Percentage.Equal(dec("40")))
	assert.True(t, second.Percentage.Equal(dec("60")))
	assert.True(t, schedule.TotalPercentage.Equal(dec("100")))
}

func TestBuilder_Calendar_PercentageClosure(t *testing.T) {
	// GIVEN: a three-way split whose derived percentages round unevenly
	// THEN: the last row's percentage is forced to 100 minus the others

	total := dec("300.00")
	b := credit.NewBuilder(nil)
	schedule := b.FromCalendar([]credit.CalendarEntry{
		entry("2024-01-10", "100"), entry("2024-02-10", "100"), entry("2024-03-10", "100"),
	}, "2024-01-01", &total)

	require.Len(t, schedule.Installments, 3)
	sum := decimal.Zero
	for _, inst := range schedule.Installments {
		sum = sum.Add(inst.Percentage)
	}
	assert.True(t, sum.Equal(dec("100")), "percentages must close to exactly 100, got %s", sum)
}

func TestBuilder_Calendar_LastRowAbsorbsResidual(t *testing.T) {
	// GIVEN: rows summing to 90 against a supplied total of 100
	// WHEN: building
	// THEN: the last row grows by the residual and the total reconstructs

	total := dec("100.00")
	b := credit.NewBuilder(nil)
	schedule := b.FromCalendar([]credit.CalendarEntry{
		entry("2024-01-15", "50"), entry("2024-02-15", "40"),
	}, "2024-01-01", &total)

	require.Len(t, schedule.Installments, 2)
	assert.Equal(t, []string{"50.00", "50.00"}, amounts(schedule))
	assert.True(t, schedule.Total().Equal(total))
}

func TestBuilder_Calendar_NonAbsorbableResidual_LeftUntouched(t *testing.T) {
	// GIVEN: rows summing to 120 where the excess would wipe out the last row
	// WHEN: building with total 100
	// THEN: amounts stay as authored; the discrepancy is the validator's job

	total := dec("100.00")
	b := credit.NewBuilder(nil)
	schedule := b.FromCalendar([]credit.CalendarEntry{
		entry("2024-01-15", "110"), entry("2024-02-15", "10"),
	}, "2024-01-01", &total)

	require.Len(t, schedule.Installments, 2)
	assert.Equal(t, []string{"110.00", "10.00"}, amounts(schedule))
}

func TestBuilder_Calendar_NoTotal_OriginalAmountsAndZeroPercentages(t *testing.T) {
	// GIVEN: over-specified rows but no total passed to the builder
	// WHEN: building
	// THEN: both rows keep their authored amounts, percentages report 0

	b := credit.NewBuilder(nil)
	schedule := b.FromCalendar([]credit.CalendarEntry{
		entry("2024-01-15", "60"), entry("2024-02-15", "60"),
	}, "2024-01-01", nil)

	require.Len(t, schedule.Installments, 2)
	assert.Equal(t, []string{"60.00", "60.00"}, amounts(schedule))
	for _, inst := range schedule.Installments {
		assert.True(t, inst.Percentage.IsZero())
	}
	assert.True(t, schedule.TotalPercentage.IsZero())
}

func TestBuilder_Calendar_DueDateBeforeIssue_OffsetClampedToZero(t *testing.T) {
	total := dec("50")
	b := credit.NewBuilder(nil)
	schedule := b.FromCalendar([]credit.CalendarEntry{
		entry("2023-12-20", "50"),
	}, "2024-01-01", &total)

	require.Len(t, schedule.Installments, 1)
	assert.Equal(t, 0, schedule.Installments[0].DaysFromIssue)
}

func TestBuilder_Calendar_EmptyRows_ScheduleUnavailable(t *testing.T) {
	// Calendar mode has no default row: empty input means no schedule.
	cal := fixedCalendar{today: "2024-05-10"}
	b := credit.NewBuilder(cal)
	schedule := b.FromCalendar(nil, "2024-01-01", nil)

	assert.Empty(t, schedule.Installments)
	assert.Equal(t, "2024-05-10", schedule.GlobalDueDate)
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestBuilder_Build_DispatchesByMode(t *testing.T) {
	b := credit.NewBuilder(nil)

	tmpl := b.Build(credit.BuildInput{
		Definition: credit.Definition{
			Mode:      credit.ModeTemplate,
			Templates: []credit.Template{pct(30, "100")},
		},
		IssueDate: "2024-01-01",
		Total:     dec("80"),
	})
	require.Len(t, tmpl.Installments, 1)
	assert.Equal(t, "2024-01-31", tmpl.Installments[0].DueDate)

	cal := b.Build(credit.BuildInput{
		Definition: credit.Definition{
			Mode:     credit.ModeCalendar,
			Calendar: []credit.CalendarEntry{entry("2024-02-01", "80")},
		},
		IssueDate: "2024-01-01",
		Total:     dec("80"),
	})
	require.Len(t, cal.Installments, 1)
	assert.Equal(t, "2024-02-01", cal.Installments[0].DueDate)
	assert.True(t, cal.Installments[0].Percentage.Equal(dec("100")))
}
