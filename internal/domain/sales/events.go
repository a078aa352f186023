package sales

import (
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EventTypeSaleCompleted is published once a settlement has committed
const EventTypeSaleCompleted = "SaleCompleted"

// SoldLine is the per-medicine quantity carried by SaleCompletedEvent
type SoldLine struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
}

// SaleCompletedEvent is published after an invoice and its ledger mutations are durable
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	SoldBy        uuid.UUID       `json:"sold_by"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Lines         []SoldLine      `json:"lines"`
}

// NewSaleCompletedEvent creates the event for a committed invoice
func NewSaleCompletedEvent(inv *Invoice) *SaleCompletedEvent {
	lines := make([]SoldLine, 0, len(inv.Items))
	for _, item := range inv.Items {
		lines = append(lines, SoldLine{MedicineID: item.MedicineID, Quantity: item.Quantity})
	}
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		SoldBy:          inv.SoldBy,
		TotalAmount:     inv.TotalAmount,
		Lines:           lines,
	}
}
