package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/customer"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// NotAvailable is shown in place of customer details that cannot be resolved
const NotAvailable = "N/A"

// CreateSaleRequest is the body of POST /sales
type CreateSaleRequest struct {
	CustomerName    string            `json:"customerName" binding:"max=200"`
	CustomerContact string            `json:"customerContact" binding:"required"`
	Items           []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

// SaleItemRequest is one line of CreateSaleRequest
type SaleItemRequest struct {
	MedicineID uuid.UUID `json:"medicineId" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,gt=0"`
}

// ToDomain converts the transport request to a sale request
func (r CreateSaleRequest) ToDomain() sales.SaleRequest {
	items := make([]sales.SaleItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = sales.SaleItem{MedicineID: item.MedicineID, Quantity: item.Quantity}
	}
	return sales.SaleRequest{
		CustomerName:    r.CustomerName,
		CustomerContact: r.CustomerContact,
		Items:           items,
	}
}

// LineItemResponse is one settled line
type LineItemResponse struct {
	LineNo       int                     `json:"lineNo"`
	MedicineID   uuid.UUID               `json:"medicineId"`
	MedicineName string                  `json:"medicineName"`
	Quantity     int                     `json:"quantity"`
	UnitPrice    decimal.Decimal         `json:"unitPrice"`
	LineTotal    decimal.Decimal         `json:"lineTotal"`
	Batches      []sales.BatchAllocation `json:"batches"`
}

// InvoiceResponse is the API view of an invoice
type InvoiceResponse struct {
	ID              uuid.UUID          `json:"id"`
	InvoiceNumber   string             `json:"invoiceNumber"`
	SoldBy          uuid.UUID          `json:"soldBy"`
	CustomerID      *uuid.UUID         `json:"customerId,omitempty"`
	CustomerName    string             `json:"customerName"`
	CustomerContact string             `json:"customerContact"`
	Items           []LineItemResponse `json:"items"`
	TotalQuantity   int                `json:"totalQuantity"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// MonthlySales groups the invoices of one calendar month
type MonthlySales struct {
	Year             int               `json:"year"`
	Month            int               `json:"month"`
	TotalTransaction decimal.Decimal   `json:"totalTransaction"`
	Sales            []InvoiceResponse `json:"sales"`
}

// ToInvoiceResponse converts an invoice. cust may be nil, in which case customer fields read "N/A".
func ToInvoiceResponse(inv *sales.Invoice, cust *customer.Customer) InvoiceResponse {
	items := make([]LineItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		batches := item.Allocations
		if batches == nil {
			batches = []sales.BatchAllocation{}
		}
		items[i] = LineItemResponse{
			LineNo:       item.LineNo,
			MedicineID:   item.MedicineID,
			MedicineName: item.MedicineName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineTotal:    item.LineTotal,
			Batches:      batches,
		}
	}

	resp := InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		SoldBy:          inv.SoldBy,
		CustomerID:      inv.CustomerID,
		CustomerName:    NotAvailable,
		CustomerContact: NotAvailable,
		Items:           items,
		TotalQuantity:   inv.TotalQuantity(),
		TotalAmount:     inv.TotalAmount,
		CreatedAt:       inv.CreatedAt,
	}
	if cust != nil {
		if cust.Name != "" {
			resp.CustomerName = cust.Name
		}
		resp.CustomerContact = cust.Contact
	}
	return resp
}
