package credit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/credit-engine/credit"
)

func pendingInstallment(amount string) credit.Installment {
	b := credit.NewBuilder(nil)
	schedule := b.FromTemplates([]credit.Template{pct(30, "100")}, "2024-01-01", dec(amount))
	return schedule.Installments[0]
}

func TestApplyPayment_PartialThenSettled(t *testing.T) {
	// GIVEN: a 100.00 installment
	// WHEN: collecting 40 then 60
	// THEN: pending -> partial -> settled, with two trace entries

	inst := pendingInstallment("100.00")

	inst = credit.ApplyPayment(inst, dec("40"), "2024-01-10", "cash", "rcpt-1")
	assert.Equal(t, credit.StatusPartial, inst.Status)
	assert.True(t, inst.PaidAmount.Equal(dec("40")))
	assert.True(t, inst.Remaining.Equal(dec("60")))

	inst = credit.ApplyPayment(inst, dec("60"), "2024-01-20", "transfer", "rcpt-2")
	assert.Equal(t, credit.StatusSettled, inst.Status)
	assert.True(t, inst.Remaining.IsZero())

	require.Len(t, inst.Payments, 2)
	assert.Equal(t, "rcpt-1", inst.Payments[0].Reference)
	assert.Equal(t, "rcpt-2", inst.Payments[1].Reference)
}

func TestApplyPayment_OverpaymentClamped(t *testing.T) {
	inst := pendingInstallment("50.00")

	inst = credit.ApplyPayment(inst, dec("80"), "2024-01-10", "cash", "")

	assert.Equal(t, credit.StatusSettled, inst.Status)
	assert.True(t, inst.PaidAmount.Equal(dec("50")), "overpayment must clamp to the remaining balance")
	assert.True(t, inst.Remaining.IsZero())
	require.Len(t, inst.Payments, 1)
	assert.True(t, inst.Payments[0].Amount.Equal(dec("50")))
}

func TestApplyPayment_NonPositiveAmountIgnored(t *testing.T) {
	inst := pendingInstallment("50.00")

	for _, amount := range []string{"0", "-10"} {
		got := credit.ApplyPayment(inst, dec(amount), "2024-01-10", "cash", "")
		assert.Equal(t, credit.StatusPending, got.Status)
		assert.Empty(t, got.Payments)
	}
}

func TestApplyPayment_SettledInstallmentUnchanged(t *testing.T) {
	inst := pendingInstallment("50.00")
	inst = credit.ApplyPayment(inst, dec("50"), "2024-01-10", "cash", "")
	require.Equal(t, credit.StatusSettled, inst.Status)

	again := credit.ApplyPayment(inst, dec("10"), "2024-01-11", "cash", "")
	assert.Equal(t, inst, again)
}

func TestApplyPayment_NeverMutatesAmountOrDueDate(t *testing.T) {
	inst := pendingInstallment("75.25")
	amount, due := inst.Amount, inst.DueDate

	inst = credit.ApplyPayment(inst, dec("25"), "2024-01-10", "cash", "")

	assert.True(t, inst.Amount.Equal(amount))
	assert.Equal(t, due, inst.DueDate)
}
