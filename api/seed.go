/*
seed.go - Demo data loader for testing and demonstrations

PURPOSE:

	Populates the store with a realistic set of payment methods and a
	couple of finalized credit sales, so the API has something to show
	right after startup. Terms come from the factory presets in the
	terms package, finalized through the same engine path real sales
	take.

SEEDED METHODS:

	cash:            Immediate payment, no terms
	credit-30:       Single installment at net 30
	credit-15-30-60: Three-way split at 15/30/60 days
	credit-plan:     Explicit calendar plan

USAGE VIA API:

	POST /api/admin/seed

NOTE:

	Seeding overwrites records with the same IDs. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: SeedDemoData handler registration
  - terms/terms.go: The JSON presets used here
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/credit-engine/credit"
	"github.com/warp/credit-engine/terms"
)

// SeedDemoData loads the demo methods and sales.
func (h *Handler) SeedDemoData(w http.ResponseWriter, r *http.Request) {
	if err := h.seed(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

func (h *Handler) seed(ctx context.Context) error {
	type seedMethod struct {
		id, name string
		credit   bool
		terms    string
	}
	methods := []seedMethod{
		{id: "cash", name: "Cash"},
		{id: "credit-30", name: "Net 30", credit: true, terms: terms.NetDaysJSON(30)},
		{id: "credit-15-30-60", name: "Three-way split", credit: true, terms: terms.SplitJSON(15, 30, 60)},
		{id: "credit-plan", name: "Agreed plan", credit: true, terms: terms.CalendarPlanJSON(
			[]string{"2026-09-15", "2026-10-15", "2026-11-15"},
			[]float64{400, 300, 300},
		)},
	}

	for _, sm := range methods {
		m := credit.PaymentMethod{ID: sm.id, Name: sm.name, Label: sm.name, IsCredit: sm.credit}
		if sm.terms != "" {
			def, err := h.Terms.Parse(sm.terms)
			if err != nil {
				return fmt.Errorf("seed method %s: %w", sm.id, err)
			}
			m.TermsJSON = sm.terms
			if def.Mode == credit.ModeTemplate {
				m.Label = credit.DefaultMethodLabel(def.Templates)
			}
		}
		if err := h.Store.SaveMethod(ctx, m); err != nil {
			return fmt.Errorf("seed method %s: %w", sm.id, err)
		}
	}

	type seedSale struct {
		id, customer, method, issue string
		total                       float64
	}
	sales := []seedSale{
		{id: "sale-1001", customer: "cust-ana", method: "credit-15-30-60", issue: "2026-08-01", total: 1500},
		{id: "sale-1002", customer: "cust-bruno", method: "credit-30", issue: "2026-07-10", total: 420.50},
		{id: "sale-1003", customer: "cust-carla", method: "credit-plan", issue: "2026-08-20", total: 1000},
	}

	for _, ss := range sales {
		method, err := h.Store.GetMethod(ctx, ss.method)
		if err != nil {
			return fmt.Errorf("seed sale %s: %w", ss.id, err)
		}
		def, err := h.resolveTerms(nil, method)
		if err != nil {
			return fmt.Errorf("seed sale %s: %w", ss.id, err)
		}
		total := credit.Dec(ss.total)
		schedule := h.Builder.Build(credit.BuildInput{
			Definition: def,
			IssueDate:  ss.issue,
			Total:      total,
		})
		sale := credit.Sale{
			ID:         ss.id,
			CustomerID: ss.customer,
			MethodID:   ss.method,
			IssueDate:  ss.issue,
			Total:      total.String(),
			Schedule:   schedule,
		}
		if err := h.Store.SaveSale(ctx, sale); err != nil {
			return fmt.Errorf("seed sale %s: %w", ss.id, err)
		}
	}
	return nil
}
