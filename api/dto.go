/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal-based domain model from the external API contract:
  amounts and percentages cross the wire as floats and come back through
  the non-finite-safe conversion, so a hostile payload can never plant a
  NaN inside the engine.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - terms/terms.go: The TermsJSON shape embedded in method requests
*/
package api

import (
	"github.com/warp/credit-engine/credit"
	"github.com/warp/credit-engine/terms"
)

// =============================================================================
// SCHEDULE TYPES
// =============================================================================

// ScheduleRequest carries a definition plus build context. It serves both
// the preview and validate endpoints so clients send one shape everywhere.
type ScheduleRequest struct {
	Mode      string                `json:"mode"`
	Templates []terms.TemplateJSON  `json:"templates,omitempty"`
	Calendar  []terms.CalendarJSON  `json:"calendar,omitempty"`
	IssueDate string                `json:"issue_date"`
	Total     float64               `json:"total"`
}

// ScheduleDTO is a built schedule in API form.
type ScheduleDTO struct {
	Installments    []InstallmentDTO `json:"installments"`
	TotalPercentage float64          `json:"total_percentage"`
	GlobalDueDate   string           `json:"global_due_date"`
}

// InstallmentDTO is one schedule row in API form.
type InstallmentDTO struct {
	Number        int               `json:"number"`
	DaysFromIssue int               `json:"days_from_issue"`
	Percentage    float64           `json:"percentage"`
	DueDate       string            `json:"due_date"`
	Amount        float64           `json:"amount"`
	PaidAmount    float64           `json:"paid_amount"`
	Remaining     float64           `json:"remaining_amount"`
	Status        string            `json:"status"`
	Payments      []PaymentTraceDTO `json:"payments,omitempty"`
}

// PaymentTraceDTO is one recorded collection.
type PaymentTraceDTO struct {
	At        string  `json:"at"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method,omitempty"`
	Reference string  `json:"reference,omitempty"`
}

// PreviewResponse pairs the always-built schedule with the advisory
// validation result, so live previews render both at once.
type PreviewResponse struct {
	Schedule ScheduleDTO `json:"schedule"`
	Errors   []string    `json:"errors"`
}

// ValidateResponse is the validation message list on its own.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// =============================================================================
// PAYMENT METHOD TYPES
// =============================================================================

// MethodDTO represents a payment method in API responses.
type MethodDTO struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Label     string           `json:"label"`
	IsCredit  bool             `json:"is_credit"`
	Terms     *terms.TermsJSON `json:"terms,omitempty"`
	CreatedAt string           `json:"created_at,omitempty"`
}

// CreateMethodRequest is the request to create a payment method.
type CreateMethodRequest struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	IsCredit bool             `json:"is_credit"`
	Terms    *terms.TermsJSON `json:"terms,omitempty"`
}

// =============================================================================
// SALE TYPES
// =============================================================================

// CreateSaleRequest finalizes a sale. Terms may be given ad hoc; when
// absent, the payment method's default terms apply.
type CreateSaleRequest struct {
	ID         string           `json:"id"`
	CustomerID string           `json:"customer_id"`
	MethodID   string           `json:"method_id"`
	IssueDate  string           `json:"issue_date"`
	Total      float64          `json:"total"`
	Terms      *terms.TermsJSON `json:"terms,omitempty"`
}

// SaleDTO represents a finalized sale with its schedule.
type SaleDTO struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id"`
	MethodID   string      `json:"method_id"`
	IssueDate  string      `json:"issue_date"`
	Total      float64     `json:"total"`
	Schedule   ScheduleDTO `json:"schedule"`
	CreatedAt  string      `json:"created_at,omitempty"`
}

// RecordPaymentRequest records a collection against an installment.
type RecordPaymentRequest struct {
	Amount    float64 `json:"amount"`
	At        string  `json:"at"` // ISO date; defaults to today
	Method    string  `json:"method,omitempty"`
	Reference string  `json:"reference,omitempty"`
}

// DueInstallmentDTO is one row of the due report.
type DueInstallmentDTO struct {
	SaleID      string         `json:"sale_id"`
	CustomerID  string         `json:"customer_id"`
	Overdue     bool           `json:"overdue"`
	Installment InstallmentDTO `json:"installment"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toScheduleDTO(s credit.Schedule) ScheduleDTO {
	totalPct, _ := s.TotalPercentage.Float64()
	dto := ScheduleDTO{
		Installments:    make([]InstallmentDTO, len(s.Installments)),
		TotalPercentage: totalPct,
		GlobalDueDate:   s.GlobalDueDate,
	}
	for i, inst := range s.Installments {
		dto.Installments[i] = toInstallmentDTO(inst)
	}
	return dto
}

func toInstallmentDTO(inst credit.Installment) InstallmentDTO {
	pct, _ := inst.Percentage.Float64()
	amount, _ := inst.Amount.Float64()
	paid, _ := inst.PaidAmount.Float64()
	remaining, _ := inst.Remaining.Float64()

	dto := InstallmentDTO{
		Number:        inst.Number,
		DaysFromIssue: inst.DaysFromIssue,
		Percentage:    pct,
		DueDate:       inst.DueDate,
		Amount:        amount,
		PaidAmount:    paid,
		Remaining:     remaining,
		Status:        string(inst.Status),
	}
	for _, p := range inst.Payments {
		pAmount, _ := p.Amount.Float64()
		dto.Payments = append(dto.Payments, PaymentTraceDTO{
			At: p.At, Amount: pAmount, Method: p.Method, Reference: p.Reference,
		})
	}
	return dto
}

func (r ScheduleRequest) toDefinition(f *terms.Factory) (credit.Definition, error) {
	return f.FromJSON(terms.TermsJSON{
		Mode:      r.Mode,
		Templates: r.Templates,
		Calendar:  r.Calendar,
	})
}
