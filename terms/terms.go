/*
Package terms provides JSON to Go payment-terms conversion.

PURPOSE:
  Converts JSON payment-terms definitions into credit.Definition values.
  This enables terms configuration without code changes - an administrator
  can define a payment method's default installment plan in JSON, and the
  factory produces the engine's types.

WHY JSON?
  - Non-developers can author payment methods
  - Easy integration with the admin UI
  - Database storage of terms alongside the method record

JSON SCHEMA:
  {
    "mode": "template",
    "templates": [
      {"days_from_issue": 0,  "percentage": 50},
      {"days_from_issue": 30, "percentage": 50}
    ]
  }

  {
    "mode": "calendar",
    "calendar": [
      {"due_date": "2024-01-15", "amount": 40},
      {"due_date": "2024-02-15", "amount": 60}
    ]
  }

KEY FEATURES:
  - Validates JSON structure and the mode discriminator
  - Float fields are sanitized at the boundary (non-finite -> 0,
    fractional day offsets truncated)
  - Presets for the common authoring patterns

USAGE:
  f := terms.NewFactory()
  def, err := f.Parse(jsonStr)
  if err != nil { ... }
  schedule := builder.Build(credit.BuildInput{Definition: def, ...})

SEE ALSO:
  - credit/types.go: Definition and row types
  - api/handlers.go: Persists terms JSON on payment methods
*/
package terms

import (
	"encoding/json"
	"fmt"

	"github.com/warp/credit-engine/credit"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TermsJSON is the JSON representation of a payment-terms definition.
type TermsJSON struct {
	Mode      string         `json:"mode"`
	Templates []TemplateJSON `json:"templates,omitempty"`
	Calendar  []CalendarJSON `json:"calendar,omitempty"`
}

// TemplateJSON is one percentage-mode row. Day offsets arrive as floats
// because spreadsheet-shaped clients send them that way; fractions are
// truncated on conversion.
type TemplateJSON struct {
	DaysFromIssue float64 `json:"days_from_issue"`
	Percentage    float64 `json:"percentage"`
}

// CalendarJSON is one calendar-mode row.
type CalendarJSON struct {
	DueDate string  `json:"due_date"`
	Amount  float64 `json:"amount"`
}

// =============================================================================
// TERMS FACTORY
// =============================================================================

// Factory converts JSON terms to engine definitions.
type Factory struct{}

// NewFactory creates a new terms factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Parse parses a JSON string into a credit.Definition.
func (f *Factory) Parse(jsonStr string) (credit.Definition, error) {
	var tj TermsJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return credit.Definition{}, fmt.Errorf("failed to parse terms JSON: %w", err)
	}
	return f.FromJSON(tj)
}

// FromJSON converts TermsJSON to a credit.Definition.
func (f *Factory) FromJSON(tj TermsJSON) (credit.Definition, error) {
	var mode credit.Mode
	switch tj.Mode {
	case "", string(credit.ModeTemplate):
		mode = credit.ModeTemplate
	case string(credit.ModeCalendar):
		mode = credit.ModeCalendar
	default:
		return credit.Definition{}, fmt.Errorf("unknown terms mode %q", tj.Mode)
	}

	def := credit.Definition{Mode: mode}
	for _, t := range tj.Templates {
		def.Templates = append(def.Templates, credit.Template{
			DaysFromIssue: truncDays(t.DaysFromIssue),
			Percentage:    credit.Dec(t.Percentage),
		})
	}
	for _, c := range tj.Calendar {
		def.Calendar = append(def.Calendar, credit.CalendarEntry{
			DueDate: c.DueDate,
			Amount:  credit.Dec(c.Amount),
		})
	}
	return def, nil
}

// ToJSON converts a definition back to its JSON form.
func (f *Factory) ToJSON(def credit.Definition) TermsJSON {
	tj := TermsJSON{Mode: string(def.Mode)}
	for _, t := range def.Templates {
		pct, _ := t.Percentage.Float64()
		tj.Templates = append(tj.Templates, TemplateJSON{
			DaysFromIssue: float64(t.DaysFromIssue),
			Percentage:    pct,
		})
	}
	for _, c := range def.Calendar {
		amount, _ := c.Amount.Float64()
		tj.Calendar = append(tj.Calendar, CalendarJSON{DueDate: c.DueDate, Amount: amount})
	}
	return tj
}

// truncDays truncates a float day offset toward zero, mapping anything
// non-finite to zero. Negative values are left for the normalizer to clamp.
func truncDays(f float64) int {
	if f != f || f > 1e9 || f < -1e9 {
		return 0
	}
	return int(f)
}

// =============================================================================
// COMMON TERMS PRESETS
// =============================================================================

// NetDaysJSON returns single-installment terms: 100% due after n days.
func NetDaysJSON(n int) string {
	return fmt.Sprintf(`{"mode":"template","templates":[{"days_from_issue":%d,"percentage":100}]}`, n)
}

// SplitJSON returns terms that split the total evenly across the given
// day offsets, with the last row taking the remainder of the hundred.
func SplitJSON(offsets ...int) string {
	if len(offsets) == 0 {
		return NetDaysJSON(30)
	}
	tj := TermsJSON{Mode: string(credit.ModeTemplate)}
	even := float64(int(10000/len(offsets))) / 100 // 2dp floor
	allocated := 0.0
	for i, d := range offsets {
		pct := even
		if i == len(offsets)-1 {
			pct = 100 - allocated
		}
		allocated += pct
		tj.Templates = append(tj.Templates, TemplateJSON{DaysFromIssue: float64(d), Percentage: pct})
	}
	out, _ := json.Marshal(tj)
	return string(out)
}

// CalendarPlanJSON returns calendar-mode terms from parallel date and
// amount slices; extra elements of the longer slice are ignored.
func CalendarPlanJSON(dates []string, amounts []float64) string {
	tj := TermsJSON{Mode: string(credit.ModeCalendar)}
	n := len(dates)
	if len(amounts) < n {
		n = len(amounts)
	}
	for i := 0; i < n; i++ {
		tj.Calendar = append(tj.Calendar, CalendarJSON{DueDate: dates[i], Amount: amounts[i]})
	}
	out, _ := json.Marshal(tj)
	return string(out)
}
