/*
store.go - Persistence interfaces for payment methods and credit sales

PURPOSE:
  Defines the interface between the scheduling engine's consumers and the
  database. The engine itself is pure and never touches storage; these
  interfaces are what the API layer programs against, so SQLite and the
  in-memory test store are interchangeable.

KEY INTERFACES:
  MethodStore: Payment-method records carrying a terms definition
  SaleStore:   Finalized sales with their derived, immutable schedules

SCHEDULE IMMUTABILITY CONTRACT:
  A schedule is derived once, when a sale is finalized, and its amounts
  and due dates never change afterwards. The only mutation SaleStore
  permits is recording collections: paid/remaining/status on individual
  installments plus appended payment trace rows.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for testing

SEE ALSO:
  - builder.go: Produces the Schedule embedded in Sale
  - payments.go: The collection mutation these stores persist
*/
package credit

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// RECORDS
// =============================================================================

// PaymentMethod is a configured way of paying, optionally carrying a
// default terms definition for credit methods.
type PaymentMethod struct {
	ID        string
	Name      string
	Label     string // derived via DefaultMethodLabel for credit methods
	IsCredit  bool
	TermsJSON string // raw terms definition, empty for cash-like methods
	CreatedAt time.Time
}

// Sale is a finalized credit sale with its derived schedule embedded.
type Sale struct {
	ID         string
	CustomerID string
	MethodID   string
	IssueDate  string // ISO date
	Total      string // decimal string, exact
	Schedule   Schedule
	CreatedAt  time.Time
}

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrMethodNotFound is returned when a referenced payment method doesn't exist.
	ErrMethodNotFound = errors.New("payment method not found")

	// ErrSaleNotFound is returned when a referenced sale doesn't exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrInstallmentNotFound is returned when an installment number is out of range.
	ErrInstallmentNotFound = errors.New("installment not found")
)

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMethodNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrInstallmentNotFound)
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// MethodStore persists payment-method records.
type MethodStore interface {
	SaveMethod(ctx context.Context, m PaymentMethod) error
	GetMethod(ctx context.Context, id string) (*PaymentMethod, error)
	ListMethods(ctx context.Context) ([]PaymentMethod, error)
	DeleteMethod(ctx context.Context, id string) error
}

// SaleStore persists sales and their schedules. Schedules are written
// once with the sale; the only subsequent write is RecordPayment.
type SaleStore interface {
	// SaveSale persists a sale with its full schedule atomically.
	SaveSale(ctx context.Context, sale Sale) error

	// GetSale returns a sale with its schedule and payment traces.
	GetSale(ctx context.Context, id string) (*Sale, error)

	// ListSales returns all sales with schedules, newest first.
	ListSales(ctx context.Context) ([]Sale, error)

	// RecordPayment persists the updated installment (paid/remaining/
	// status) and appends its newest payment trace.
	RecordPayment(ctx context.Context, saleID string, inst Installment) error

	// ListDueInstallments returns unsettled installments due on or
	// before the given ISO date, across all sales.
	ListDueInstallments(ctx context.Context, onOrBefore string) ([]DueInstallment, error)

	// MarkOverdue flags unsettled installments due strictly before the
	// given ISO date and returns how many were newly flagged. The flag
	// is a reporting concern; amounts and due dates never change.
	MarkOverdue(ctx context.Context, before string) (int, error)
}

// DueInstallment is a reporting row joining an installment to its sale.
type DueInstallment struct {
	SaleID      string
	CustomerID  string
	Overdue     bool
	Installment Installment
}
