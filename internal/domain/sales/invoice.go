package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeInvoice is the aggregate type name used in events
const AggregateTypeInvoice = "Invoice"

// BatchAllocation records how much of one batch a line item consumed
type BatchAllocation struct {
	BatchID     uuid.UUID       `json:"batchId"`
	BatchNumber string          `json:"batchNumber"`
	ExpiryDate  time.Time       `json:"expiryDate"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// LineItem is one settled line of an invoice.
// LineTotal is authoritative. UnitPrice is the price of the last batch drawn from and is informational.
type LineItem struct {
	LineNo       int
	MedicineID   uuid.UUID
	MedicineName string
	Quantity     int
	UnitPrice    decimal.Decimal
	LineTotal    decimal.Decimal
	Allocations  []BatchAllocation
}

// Invoice is the immutable record of a completed sale
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	SoldBy        uuid.UUID
	CustomerID    *uuid.UUID
	Items         []LineItem
	TotalAmount   decimal.Decimal
}

// NewInvoice builds an invoice from settled lines. Line numbers follow the given order
// and the total is the sum of line totals.
func NewInvoice(number string, soldBy uuid.UUID, items []LineItem) (*Invoice, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice must have at least one item")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     number,
		SoldBy:            soldBy,
		Items:             make([]LineItem, len(items)),
		TotalAmount:       decimal.Zero,
	}
	for i, item := range items {
		item.LineNo = i + 1
		inv.Items[i] = item
		inv.TotalAmount = inv.TotalAmount.Add(item.LineTotal)
	}
	return inv, nil
}

// LinkCustomer records the customer that made the purchase
func (i *Invoice) LinkCustomer(customerID uuid.UUID) {
	i.CustomerID = &customerID
}

// TotalQuantity returns the number of units sold across all lines
func (i *Invoice) TotalQuantity() int {
	total := 0
	for _, item := range i.Items {
		total += item.Quantity
	}
	return total
}
