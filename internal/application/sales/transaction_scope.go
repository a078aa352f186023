package sales

import (
	"context"

	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/customer"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/sales"
)

// TransactionScope runs a settlement inside one database transaction.
// Every repository handed to fn shares that transaction, so the batch mutations,
// the invoice and the customer update are committed or rolled back together.
type TransactionScope interface {
	// Execute commits when fn returns nil and rolls back otherwise.
	// Storage conflicts come back wrapping shared.ErrConcurrencyConflict.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the ledgers touched by a settlement, scoped to the current transaction
type TransactionalRepositories interface {
	Medicines() catalog.MedicineRepository
	Batches() inventory.BatchRepository
	Invoices() sales.InvoiceRepository
	Customers() customer.CustomerRepository
}
