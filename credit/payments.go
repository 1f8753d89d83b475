package credit

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// COLLECTIONS - Partial payments against a built schedule
// =============================================================================

// ApplyPayment records a partial collection against an installment and
// returns the updated copy. Only the paid/remaining/status side and the
// payment trace change; Amount and DueDate stay fixed for the life of
// the schedule.
//
// Non-positive amounts are ignored and overpayment is clamped to the
// remaining balance, so the installment can never go negative.
func ApplyPayment(inst Installment, amount decimal.Decimal, at, method, reference string) Installment {
	amount = round2(amount)
	if amount.Sign() <= 0 || inst.Remaining.Sign() <= 0 {
		return inst
	}
	if amount.GreaterThan(inst.Remaining) {
		amount = inst.Remaining
	}

	inst.PaidAmount = inst.PaidAmount.Add(amount)
	inst.Remaining = inst.Amount.Sub(inst.PaidAmount)
	inst.Payments = append(inst.Payments, PaymentTrace{
		At:        at,
		Amount:    amount,
		Method:    method,
		Reference: reference,
	})

	if inst.Remaining.Sign() <= 0 {
		inst.Status = StatusSettled
	} else {
		inst.Status = StatusPartial
	}
	return inst
}
