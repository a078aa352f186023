package customer

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// CustomerRepository defines persistence for the customer ledger
type CustomerRepository interface {
	// FindByID returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByContact returns shared.ErrNotFound when no customer has this contact
	FindByContact(ctx context.Context, contact string) (*Customer, error)

	// FindByInvoiceIDs maps invoice IDs to the customer that owns them
	FindByInvoiceIDs(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]Customer, error)

	// FindAll lists customers, newest first by default. Filter.Search matches name or contact.
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)

	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save inserts a new customer or updates an existing one with an optimistic version check,
	// then appends the pending invoice references in order.
	Save(ctx context.Context, customer *Customer) error
}

// CodeGenerator produces human-readable customer codes
type CodeGenerator interface {
	NextCustomerCode() string
}
