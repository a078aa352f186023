package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/customer"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// QueryService is the read side of the invoice store
type QueryService struct {
	invoices  sales.InvoiceRepository
	customers customer.CustomerRepository
}

// NewQueryService creates a QueryService
func NewQueryService(invoices sales.InvoiceRepository, customers customer.CustomerRepository) *QueryService {
	return &QueryService{invoices: invoices, customers: customers}
}

// MonthlySales groups every invoice by calendar month (UTC), newest month first,
// with the invoices of a month newest first.
func (s *QueryService) MonthlySales(ctx context.Context) ([]MonthlySales, error) {
	invoices, err := s.invoices.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	ids := make([]uuid.UUID, len(invoices))
	for i := range invoices {
		ids[i] = invoices[i].ID
	}
	owners, err := s.customers.FindByInvoiceIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customers: %w", err)
	}

	groups := make([]MonthlySales, 0)
	index := make(map[[2]int]int)
	for i := range invoices {
		inv := &invoices[i]
		created := inv.CreatedAt.UTC()
		key := [2]int{created.Year(), int(created.Month())}

		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, MonthlySales{
				Year:             key[0],
				Month:            key[1],
				TotalTransaction: decimal.Zero,
				Sales:            []InvoiceResponse{},
			})
		}

		var owner *customer.Customer
		if c, ok := owners[inv.ID]; ok {
			owner = &c
		}
		groups[pos].TotalTransaction = groups[pos].TotalTransaction.Add(inv.TotalAmount)
		groups[pos].Sales = append(groups[pos].Sales, ToInvoiceResponse(inv, owner))
	}
	return groups, nil
}

// GetInvoice returns one invoice by number. Missing invoices yield shared.ErrNotFound.
func (s *QueryService) GetInvoice(ctx context.Context, number string) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	var owner *customer.Customer
	if inv.CustomerID != nil {
		owners, err := s.customers.FindByInvoiceIDs(ctx, []uuid.UUID{inv.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve customer: %w", err)
		}
		if c, ok := owners[inv.ID]; ok {
			owner = &c
		}
	}
	resp := ToInvoiceResponse(inv, owner)
	return &resp, nil
}
