// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/credit-engine/credit"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of the storage interfaces
// =============================================================================

type Store struct {
	mu      sync.RWMutex
	methods map[string]credit.PaymentMethod
	sales   map[string]credit.Sale
	overdue map[instKey]bool
}

type instKey struct {
	SaleID string
	Number int
}

var (
	_ credit.MethodStore = (*Store)(nil)
	_ credit.SaleStore   = (*Store)(nil)
)

func New() *Store {
	return &Store{
		methods: make(map[string]credit.PaymentMethod),
		sales:   make(map[string]credit.Sale),
		overdue: make(map[instKey]bool),
	}
}

// =============================================================================
// PAYMENT METHODS
// =============================================================================

func (s *Store) SaveMethod(_ context.Context, m credit.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.methods[m.ID] = m
	return nil
}

func (s *Store) GetMethod(_ context.Context, id string) (*credit.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.methods[id]
	if !ok {
		return nil, credit.ErrMethodNotFound
	}
	return &m, nil
}

func (s *Store) ListMethods(_ context.Context) ([]credit.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]credit.PaymentMethod, 0, len(s.methods))
	for _, m := range s.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteMethod(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.methods[id]; !ok {
		return credit.ErrMethodNotFound
	}
	delete(s.methods, id)
	return nil
}

// =============================================================================
// SALES AND SCHEDULES
// =============================================================================

func (s *Store) SaveSale(_ context.Context, sale credit.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	s.sales[sale.ID] = copySale(sale)
	return nil
}

func (s *Store) GetSale(_ context.Context, id string) (*credit.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, credit.ErrSaleNotFound
	}
	out := copySale(sale)
	return &out, nil
}

func (s *Store) ListSales(_ context.Context) ([]credit.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]credit.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, copySale(sale))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) RecordPayment(_ context.Context, saleID string, inst credit.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return credit.ErrSaleNotFound
	}
	for i := range sale.Schedule.Installments {
		if sale.Schedule.Installments[i].Number == inst.Number {
			sale.Schedule.Installments[i] = copyInstallment(inst)
			s.sales[saleID] = sale
			return nil
		}
	}
	return credit.ErrInstallmentNotFound
}

func (s *Store) ListDueInstallments(_ context.Context, onOrBefore string) ([]credit.DueInstallment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []credit.DueInstallment
	for _, sale := range s.sales {
		for _, inst := range sale.Schedule.Installments {
			if inst.Status == credit.StatusSettled || inst.DueDate > onOrBefore {
				continue
			}
			due = append(due, credit.DueInstallment{
				SaleID:      sale.ID,
				CustomerID:  sale.CustomerID,
				Overdue:     s.overdue[instKey{sale.ID, inst.Number}],
				Installment: copyInstallment(inst),
			})
		}
	}
	sort.Slice(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if a.Installment.DueDate != b.Installment.DueDate {
			return a.Installment.DueDate < b.Installment.DueDate
		}
		if a.SaleID != b.SaleID {
			return a.SaleID < b.SaleID
		}
		return a.Installment.Number < b.Installment.Number
	})
	return due, nil
}

func (s *Store) MarkOverdue(_ context.Context, before string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flagged := 0
	for _, sale := range s.sales {
		for _, inst := range sale.Schedule.Installments {
			if inst.Status == credit.StatusSettled || inst.DueDate >= before {
				continue
			}
			k := instKey{sale.ID, inst.Number}
			if !s.overdue[k] {
				s.overdue[k] = true
				flagged++
			}
		}
	}
	return flagged, nil
}

// =============================================================================
// COPY HELPERS - Callers must never share slices with the store
// =============================================================================

func copySale(sale credit.Sale) credit.Sale {
	installments := make([]credit.Installment, len(sale.Schedule.Installments))
	for i, inst := range sale.Schedule.Installments {
		installments[i] = copyInstallment(inst)
	}
	sale.Schedule.Installments = installments
	return sale
}

func copyInstallment(inst credit.Installment) credit.Installment {
	payments := make([]credit.PaymentTrace, len(inst.Payments))
	copy(payments, inst.Payments)
	inst.Payments = payments
	return inst
}
