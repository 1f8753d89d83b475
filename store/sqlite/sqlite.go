/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements credit.MethodStore and credit.SaleStore using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

SCHEDULE IMMUTABILITY ENFORCEMENT:
  Once a sale is saved, its installment amounts and due dates are never
  updated. The only UPDATE touches the collection columns
  (paid_amount, remaining_amount, status, overdue); payment traces are
  append-only rows in installment_payments.

KEY TABLES:
  payment_methods:      Configured methods with their terms JSON
  sales:                Finalized sales (total, issue date, global due date)
  installments:         The derived schedule rows, one per installment
  installment_payments: Append-only collection traces

MONEY REPRESENTATION:
  Amounts and percentages are stored as decimal strings, never floats,
  so what the engine computed is exactly what comes back.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/credit.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - credit/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/credit-engine/credit"
)

// Store implements credit.MethodStore and credit.SaleStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ credit.MethodStore = (*Store)(nil)
	_ credit.SaleStore   = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Payment methods (terms definitions live here as JSON)
	CREATE TABLE IF NOT EXISTS payment_methods (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		label TEXT NOT NULL,
		is_credit INTEGER NOT NULL DEFAULT 0,
		terms_json TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Sales (schedule header)
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		method_id TEXT NOT NULL,
		issue_date TEXT NOT NULL,
		total TEXT NOT NULL,
		total_percentage TEXT NOT NULL,
		global_due_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_global_due
		ON sales(global_due_date);

	-- Installments (derived schedule rows; amounts/dates never updated)
	CREATE TABLE IF NOT EXISTS installments (
		sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		number INTEGER NOT NULL,
		days_from_issue INTEGER NOT NULL,
		percentage TEXT NOT NULL,
		due_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		remaining_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		overdue INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (sale_id, number)
	);

	-- Hot path: the daily due/overdue scans
	CREATE INDEX IF NOT EXISTS idx_installments_due
		ON installments(due_date, status);

	-- Payment traces (append-only)
	CREATE TABLE IF NOT EXISTS installment_payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		paid_at TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (sale_id, number) REFERENCES installments(sale_id, number) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_payments_installment
		ON installment_payments(sale_id, number);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PAYMENT METHODS
// =============================================================================

// SaveMethod inserts or replaces a payment method.
func (s *Store) SaveMethod(ctx context.Context, m credit.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO payment_methods (id, name, label, is_credit, terms_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Label, boolToInt(m.IsCredit), m.TermsJSON, m.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save payment method: %w", err)
	}
	return nil
}

// GetMethod returns a payment method by ID.
func (s *Store) GetMethod(ctx context.Context, id string) (*credit.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, label, is_credit, terms_json, created_at
		FROM payment_methods WHERE id = ?`, id)

	m, err := scanMethod(row)
	if err == sql.ErrNoRows {
		return nil, credit.ErrMethodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return m, nil
}

// ListMethods returns all payment methods ordered by name.
func (s *Store) ListMethods(ctx context.Context) ([]credit.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, label, is_credit, terms_json, created_at
		FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []credit.PaymentMethod
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, *m)
	}
	return methods, rows.Err()
}

// DeleteMethod removes a payment method.
func (s *Store) DeleteMethod(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM payment_methods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return credit.ErrMethodNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMethod(r rowScanner) (*credit.PaymentMethod, error) {
	var m credit.PaymentMethod
	var isCredit int
	var createdAt string
	if err := r.Scan(&m.ID, &m.Name, &m.Label, &isCredit, &m.TermsJSON, &createdAt); err != nil {
		return nil, err
	}
	m.IsCredit = isCredit != 0
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &m, nil
}

// =============================================================================
// SALES AND SCHEDULES
// =============================================================================

// SaveSale persists a sale with its full schedule atomically.
func (s *Store) SaveSale(ctx context.Context, sale credit.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, customer_id, method_id, issue_date, total, total_percentage, global_due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.CustomerID, sale.MethodID, sale.IssueDate, sale.Total,
		sale.Schedule.TotalPercentage.String(), sale.Schedule.GlobalDueDate,
		sale.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}

	for _, inst := range sale.Schedule.Installments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO installments (sale_id, number, days_from_issue, percentage, due_date, amount, paid_amount, remaining_amount, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sale.ID, inst.Number, inst.DaysFromIssue, inst.Percentage.String(),
			inst.DueDate, inst.Amount.String(), inst.PaidAmount.String(),
			inst.Remaining.String(), string(inst.Status))
		if err != nil {
			return fmt.Errorf("failed to save installment %d: %w", inst.Number, err)
		}
	}

	return tx.Commit()
}

// GetSale returns a sale with its schedule and payment traces.
func (s *Store) GetSale(ctx context.Context, id string) (*credit.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, method_id, issue_date, total, total_percentage, global_due_date, created_at
		FROM sales WHERE id = ?`, id)

	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, credit.ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	if err := s.loadSchedule(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// ListSales returns all sales with schedules, newest first.
func (s *Store) ListSales(ctx context.Context) ([]credit.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, method_id, issue_date, total, total_percentage, global_due_date, created_at
		FROM sales ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []credit.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sales {
		if err := s.loadSchedule(ctx, &sales[i]); err != nil {
			return nil, err
		}
	}
	return sales, nil
}

// RecordPayment persists the updated installment and appends its newest
// payment trace. Amounts and due dates are deliberately not part of the
// UPDATE: a built schedule is immutable on that side.
func (s *Store) RecordPayment(ctx context.Context, saleID string, inst credit.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE installments
		SET paid_amount = ?, remaining_amount = ?, status = ?
		WHERE sale_id = ? AND number = ?`,
		inst.PaidAmount.String(), inst.Remaining.String(), string(inst.Status),
		saleID, inst.Number)
	if err != nil {
		return fmt.Errorf("failed to update installment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return credit.ErrInstallmentNotFound
	}

	if len(inst.Payments) > 0 {
		p := inst.Payments[len(inst.Payments)-1]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO installment_payments (sale_id, number, paid_at, amount, method, reference, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			saleID, inst.Number, p.At, p.Amount.String(), p.Method, p.Reference,
			time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to append payment trace: %w", err)
		}
	}

	return tx.Commit()
}

// ListDueInstallments returns unsettled installments due on or before
// the given ISO date, ordered by due date.
func (s *Store) ListDueInstallments(ctx context.Context, onOrBefore string) ([]credit.DueInstallment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.sale_id, s.customer_id, i.overdue,
		       i.number, i.days_from_issue, i.percentage, i.due_date,
		       i.amount, i.paid_amount, i.remaining_amount, i.status
		FROM installments i
		JOIN sales s ON s.id = i.sale_id
		WHERE i.status != ? AND i.due_date <= ?
		ORDER BY i.due_date, i.sale_id, i.number`,
		string(credit.StatusSettled), onOrBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list due installments: %w", err)
	}
	defer rows.Close()

	var due []credit.DueInstallment
	for rows.Next() {
		var d credit.DueInstallment
		var overdue int
		var pct, amount, paid, remaining, status string
		inst := &d.Installment
		if err := rows.Scan(&d.SaleID, &d.CustomerID, &overdue,
			&inst.Number, &inst.DaysFromIssue, &pct, &inst.DueDate,
			&amount, &paid, &remaining, &status); err != nil {
			return nil, fmt.Errorf("failed to scan due installment: %w", err)
		}
		d.Overdue = overdue != 0
		inst.Percentage = mustDecimal(pct)
		inst.Amount = mustDecimal(amount)
		inst.PaidAmount = mustDecimal(paid)
		inst.Remaining = mustDecimal(remaining)
		inst.Status = credit.Status(status)
		due = append(due, d)
	}
	return due, rows.Err()
}

// MarkOverdue flags unsettled installments due strictly before the given
// ISO date and returns how many were newly flagged.
func (s *Store) MarkOverdue(ctx context.Context, before string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE installments SET overdue = 1
		WHERE overdue = 0 AND status != ? AND due_date < ?`,
		string(credit.StatusSettled), before)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue installments: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func scanSale(r rowScanner) (*credit.Sale, error) {
	var sale credit.Sale
	var totalPct, createdAt string
	if err := r.Scan(&sale.ID, &sale.CustomerID, &sale.MethodID, &sale.IssueDate,
		&sale.Total, &totalPct, &sale.Schedule.GlobalDueDate, &createdAt); err != nil {
		return nil, err
	}
	sale.Schedule.TotalPercentage = mustDecimal(totalPct)
	sale.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &sale, nil
}

func (s *Store) loadSchedule(ctx context.Context, sale *credit.Sale) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, days_from_issue, percentage, due_date, amount, paid_amount, remaining_amount, status
		FROM installments WHERE sale_id = ? ORDER BY number`, sale.ID)
	if err != nil {
		return fmt.Errorf("failed to load installments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var inst credit.Installment
		var pct, amount, paid, remaining, status string
		if err := rows.Scan(&inst.Number, &inst.DaysFromIssue, &pct, &inst.DueDate,
			&amount, &paid, &remaining, &status); err != nil {
			return fmt.Errorf("failed to scan installment: %w", err)
		}
		inst.Percentage = mustDecimal(pct)
		inst.Amount = mustDecimal(amount)
		inst.PaidAmount = mustDecimal(paid)
		inst.Remaining = mustDecimal(remaining)
		inst.Status = credit.Status(status)
		inst.Payments = []credit.PaymentTrace{}
		sale.Schedule.Installments = append(sale.Schedule.Installments, inst)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return s.loadPayments(ctx, sale)
}

func (s *Store) loadPayments(ctx context.Context, sale *credit.Sale) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, paid_at, amount, method, reference
		FROM installment_payments WHERE sale_id = ? ORDER BY id`, sale.ID)
	if err != nil {
		return fmt.Errorf("failed to load payment traces: %w", err)
	}
	defer rows.Close()

	byNumber := make(map[int]int, len(sale.Schedule.Installments))
	for i, inst := range sale.Schedule.Installments {
		byNumber[inst.Number] = i
	}

	for rows.Next() {
		var number int
		var trace credit.PaymentTrace
		var amount string
		if err := rows.Scan(&number, &trace.At, &amount, &trace.Method, &trace.Reference); err != nil {
			return fmt.Errorf("failed to scan payment trace: %w", err)
		}
		trace.Amount = mustDecimal(amount)
		if i, ok := byNumber[number]; ok {
			sale.Schedule.Installments[i].Payments = append(sale.Schedule.Installments[i].Payments, trace)
		}
	}
	return rows.Err()
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
