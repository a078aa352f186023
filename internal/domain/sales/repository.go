package sales

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository defines persistence for the invoice store. Invoices are write-once.
type InvoiceRepository interface {
	// Create inserts the invoice with its line items
	Create(ctx context.Context, invoice *Invoice) error

	// FindByNumber returns shared.ErrNotFound when absent
	FindByNumber(ctx context.Context, number string) (*Invoice, error)

	// FindByIDs returns the invoices with the given IDs in the order of ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Invoice, error)

	// FindAll returns all invoices, newest first
	FindAll(ctx context.Context) ([]Invoice, error)
}

// InvoiceNumberGenerator produces invoice numbers that never repeat
type InvoiceNumberGenerator interface {
	NextInvoiceNumber() string
}
