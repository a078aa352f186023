package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/application/sales"
	"github.com/pharmacy/backend/internal/domain/customer"
	domainsales "github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// ErrCustomerNotFound is returned for unknown customer IDs
var ErrCustomerNotFound = shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")

// CustomerService is the read side of the customer ledger
type CustomerService struct {
	customerRepo customer.CustomerRepository
	invoiceRepo  domainsales.InvoiceRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo customer.CustomerRepository, invoiceRepo domainsales.InvoiceRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, invoiceRepo: invoiceRepo}
}

// List returns customers newest first
func (s *CustomerService) List(ctx context.Context, f CustomerListFilter) (shared.Paginated[CustomerResponse], error) {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	filter.Normalize()

	customers, err := s.customerRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[CustomerResponse]{}, fmt.Errorf("failed to list customers: %w", err)
	}
	total, err := s.customerRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[CustomerResponse]{}, fmt.Errorf("failed to count customers: %w", err)
	}

	items := make([]CustomerResponse, len(customers))
	for i := range customers {
		items[i] = ToCustomerResponse(&customers[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// GetByID returns one customer
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// PurchaseHistory returns the customer's invoices in the order they were made
func (s *CustomerService) PurchaseHistory(ctx context.Context, id uuid.UUID) (*PurchaseHistory, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	invoices := []domainsales.Invoice{}
	if len(c.InvoiceIDs) > 0 {
		invoices, err = s.invoiceRepo.FindByIDs(ctx, c.InvoiceIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load invoices: %w", err)
		}
	}

	history := &PurchaseHistory{
		Customer: ToCustomerResponse(c),
		Invoices: make([]sales.InvoiceResponse, len(invoices)),
	}
	for i := range invoices {
		history.Invoices[i] = sales.ToInvoiceResponse(&invoices[i], c)
	}
	return history, nil
}

func (s *CustomerService) load(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}
