/*
handlers.go - HTTP API handlers for the credit scheduling service

PURPOSE:
  Exposes the installment scheduling engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine and
  the stores.

ENDPOINTS:
  Schedules:
    POST   /api/schedule/preview   Build a schedule (always safe, live preview)
    POST   /api/schedule/validate  Validate a definition

  Payment methods:
    GET    /api/methods            List payment methods
    POST   /api/methods            Create payment method
    GET    /api/methods/{id}       Get payment method
    DELETE /api/methods/{id}       Delete payment method

  Sales:
    POST   /api/sales              Finalize a credit sale (validate + build + persist)
    GET    /api/sales              List sales with schedules
    GET    /api/sales/{id}         Get a sale
    GET    /api/sales/due          Due/overdue installment report
    POST   /api/sales/{id}/installments/{n}/payments  Record a collection

  Admin:
    POST   /api/admin/seed         Load demo data
    POST   /api/admin/sweep        Run the overdue sweep now

GATE VS PREVIEW:
  The preview endpoint builds whatever it is given - invalid definitions
  included - and returns the validation messages alongside, so an editor
  can render in-progress input. The sales endpoint is the gate: it
  refuses to finalize (422) while the validator reports anything.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input
  - 404: Resource not found
  - 422: Definition fails validation
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - sweeper.go: The scheduled overdue sweep behind /api/admin/sweep
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/credit-engine/credit"
	"github.com/warp/credit-engine/terms"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence surface the handlers need.
type Store interface {
	credit.MethodStore
	credit.SaleStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Terms   *terms.Factory
	Builder credit.Builder
}

// NewHandler creates a new handler over the given store and calendar.
// A nil calendar falls back to civil-day arithmetic.
func NewHandler(store Store, cal credit.BusinessCalendar) *Handler {
	return &Handler{
		Store:   store,
		Terms:   terms.NewFactory(),
		Builder: credit.NewBuilder(cal),
	}
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// PreviewSchedule builds a schedule from the posted definition without
// gating on validation. The response carries the validation messages so
// the editor can show both the plan and what still needs fixing.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	def, err := req.toDefinition(h.Terms)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid terms definition", err)
		return
	}

	total := credit.Dec(req.Total)
	schedule := h.Builder.Build(credit.BuildInput{
		Definition: def,
		IssueDate:  req.IssueDate,
		Total:      total,
	})

	writeJSON(w, http.StatusOK, PreviewResponse{
		Schedule: toScheduleDTO(schedule),
		Errors:   validationErrors(def, &total),
	})
}

// ValidateSchedule returns the validation message list for a definition.
func (h *Handler) ValidateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	def, err := req.toDefinition(h.Terms)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid terms definition", err)
		return
	}

	total := credit.Dec(req.Total)
	errs := validationErrors(def, &total)
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(errs) == 0, Errors: errs})
}

// validationErrors runs the validator, passing the total only when it
// carries information (calendar-mode sum checks need a real base).
func validationErrors(def credit.Definition, total *decimal.Decimal) []string {
	if total != nil && total.Sign() <= 0 {
		total = nil
	}
	errs := credit.ValidateDefinition(def, total)
	if errs == nil {
		errs = []string{}
	}
	return errs
}

// =============================================================================
// PAYMENT METHOD HANDLERS
// =============================================================================

// ListMethods returns all payment methods.
func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.Store.ListMethods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payment methods", err)
		return
	}

	dtos := make([]MethodDTO, len(methods))
	for i, m := range methods {
		dtos[i] = h.toMethodDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMethod returns a single payment method.
func (h *Handler) GetMethod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.Store.GetMethod(r.Context(), id)
	if err != nil {
		if credit.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Payment method not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get payment method", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toMethodDTO(*m))
}

// CreateMethod creates a payment method. Credit methods carry a terms
// definition and get a label derived from its day offsets.
func (h *Handler) CreateMethod(w http.ResponseWriter, r *http.Request) {
	var req CreateMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	method := credit.PaymentMethod{
		ID:       req.ID,
		Name:     req.Name,
		Label:    req.Name,
		IsCredit: req.IsCredit,
	}

	if req.Terms != nil {
		def, err := h.Terms.FromJSON(*req.Terms)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid terms definition", err)
			return
		}
		if errs := credit.ValidateDefinition(def, nil); len(errs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, ValidateResponse{Valid: false, Errors: errs})
			return
		}
		raw, err := json.Marshal(req.Terms)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode terms", err)
			return
		}
		method.TermsJSON = string(raw)
		if def.Mode == credit.ModeTemplate {
			method.Label = credit.DefaultMethodLabel(def.Templates)
		}
	}

	if err := h.Store.SaveMethod(r.Context(), method); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment method", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toMethodDTO(method))
}

// DeleteMethod removes a payment method.
func (h *Handler) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteMethod(r.Context(), id); err != nil {
		if credit.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Payment method not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete payment method", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": id})
}

func (h *Handler) toMethodDTO(m credit.PaymentMethod) MethodDTO {
	dto := MethodDTO{
		ID:       m.ID,
		Name:     m.Name,
		Label:    m.Label,
		IsCredit: m.IsCredit,
	}
	if !m.CreatedAt.IsZero() {
		dto.CreatedAt = m.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if m.TermsJSON != "" {
		var tj terms.TermsJSON
		if err := json.Unmarshal([]byte(m.TermsJSON), &tj); err == nil {
			dto.Terms = &tj
		}
	}
	return dto
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// CreateSale finalizes a credit sale: the validator is the gate, then
// the schedule is derived and persisted with the sale record.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.MethodID == "" {
		writeError(w, http.StatusBadRequest, "id and method_id are required", nil)
		return
	}
	total := credit.Dec(req.Total)
	if total.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "total must be greater than zero", nil)
		return
	}

	ctx := r.Context()
	method, err := h.Store.GetMethod(ctx, req.MethodID)
	if err != nil {
		if credit.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Payment method not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get payment method", err)
		return
	}

	def, err := h.resolveTerms(req.Terms, method)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid terms definition", err)
		return
	}

	// The gate: same total goes to the validator and the builder.
	if errs := credit.ValidateDefinition(def, &total); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, ValidateResponse{Valid: false, Errors: errs})
		return
	}

	issueDate := h.Builder.Calendar.EnsureValidDate(req.IssueDate)
	schedule := h.Builder.Build(credit.BuildInput{
		Definition: def,
		IssueDate:  issueDate,
		Total:      total,
	})

	sale := credit.Sale{
		ID:         req.ID,
		CustomerID: req.CustomerID,
		MethodID:   req.MethodID,
		IssueDate:  issueDate,
		Total:      total.String(),
		Schedule:   schedule,
	}
	if err := h.Store.SaveSale(ctx, sale); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// resolveTerms picks ad-hoc terms when present, else the method default.
func (h *Handler) resolveTerms(adHoc *terms.TermsJSON, method *credit.PaymentMethod) (credit.Definition, error) {
	if adHoc != nil {
		return h.Terms.FromJSON(*adHoc)
	}
	if method.TermsJSON != "" {
		return h.Terms.Parse(method.TermsJSON)
	}
	// No terms anywhere: template mode's default row applies.
	return credit.Definition{Mode: credit.ModeTemplate}, nil
}

// ListSales returns all sales with schedules.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Store.ListSales(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSale returns a single sale with its schedule and payment traces.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sale, err := h.Store.GetSale(r.Context(), id)
	if err != nil {
		if credit.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Sale not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*sale))
}

// RecordPayment records a collection against one installment.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "id")
	number, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "Invalid installment number", err)
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount := credit.Dec(req.Amount)
	if amount.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be greater than zero", nil)
		return
	}

	ctx := r.Context()
	sale, err := h.Store.GetSale(ctx, saleID)
	if err != nil {
		if credit.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Sale not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get sale", err)
		return
	}

	var target *credit.Installment
	for i := range sale.Schedule.Installments {
		if sale.Schedule.Installments[i].Number == number {
			target = &sale.Schedule.Installments[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "Installment not found", nil)
		return
	}
	// Nothing left to collect: refuse before touching the store, so a
	// replayed request cannot re-append the last historical trace.
	if target.Remaining.Sign() <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "installment is already settled", nil)
		return
	}

	at := h.Builder.Calendar.EnsureValidDate(req.At)
	updated := credit.ApplyPayment(*target, amount, at, req.Method, req.Reference)
	if err := h.Store.RecordPayment(ctx, saleID, updated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentDTO(updated))
}

// ListDue returns the due/overdue report up to an optional ?until= date
// (default today), ordered by due date.
func (h *Handler) ListDue(w http.ResponseWriter, r *http.Request) {
	until := r.URL.Query().Get("until")
	if until == "" {
		until = h.Builder.Calendar.Today()
	} else {
		until = h.Builder.Calendar.EnsureValidDate(until)
	}

	due, err := h.Store.ListDueInstallments(r.Context(), until)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list due installments", err)
		return
	}

	dtos := make([]DueInstallmentDTO, len(due))
	for i, d := range due {
		dtos[i] = DueInstallmentDTO{
			SaleID:      d.SaleID,
			CustomerID:  d.CustomerID,
			Overdue:     d.Overdue,
			Installment: toInstallmentDTO(d.Installment),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"until": until, "installments": dtos})
}

func toSaleDTO(sale credit.Sale) SaleDTO {
	total, _ := strconv.ParseFloat(sale.Total, 64)
	dto := SaleDTO{
		ID:         sale.ID,
		CustomerID: sale.CustomerID,
		MethodID:   sale.MethodID,
		IssueDate:  sale.IssueDate,
		Total:      total,
		Schedule:   toScheduleDTO(sale.Schedule),
	}
	if !sale.CreatedAt.IsZero() {
		dto.CreatedAt = sale.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
