package credit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/credit-engine/credit"
)

// =============================================================================
// GLOBAL DUE DATE
// =============================================================================

func TestGlobalDueDate_MaxAcrossInstallments(t *testing.T) {
	// GIVEN: installments with out-of-order due dates
	// THEN: the resolver picks the latest one

	installments := []credit.Installment{
		{Number: 1, DueDate: "2024-01-31"},
		{Number: 2, DueDate: "2024-03-01"},
		{Number: 3, DueDate: "2024-01-01"},
	}

	got := credit.GlobalDueDate(credit.CivilCalendar{}, installments)
	assert.Equal(t, "2024-03-01", got)
}

func TestGlobalDueDate_Empty_ReturnsToday(t *testing.T) {
	cal := fixedCalendar{today: "2024-07-04"}
	got := credit.GlobalDueDate(cal, nil)
	assert.Equal(t, "2024-07-04", got)
}

// =============================================================================
// METHOD LABEL
// =============================================================================

func TestDefaultMethodLabel(t *testing.T) {
	tests := []struct {
		name      string
		templates []credit.Template
		want      string
	}{
		{
			name:      "single offset",
			templates: []credit.Template{pct(30, "100")},
			want:      "Credit 30 days",
		},
		{
			name: "multiple offsets sorted",
			templates: []credit.Template{
				pct(60, "30"), pct(15, "40"), pct(30, "30"),
			},
			want: "Credit 15-30-60 days",
		},
		{
			name: "duplicate offsets collapsed",
			templates: []credit.Template{
				pct(30, "50"), pct(30, "50"),
			},
			want: "Credit 30 days",
		},
		{
			name:      "no offsets",
			templates: nil,
			want:      "Credit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, credit.DefaultMethodLabel(tt.templates))
		})
	}
}
