package customer

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/application/sales"
	"github.com/pharmacy/backend/internal/domain/customer"
)

// CustomerListFilter holds query parameters of the customer list
type CustomerListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// CustomerResponse is the API view of a customer
type CustomerResponse struct {
	ID             uuid.UUID   `json:"id"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Contact        string      `json:"contact"`
	Email          string      `json:"email,omitempty"`
	DateOfBirth    *time.Time  `json:"dateOfBirth,omitempty"`
	Gender         string      `json:"gender,omitempty"`
	Address        string      `json:"address,omitempty"`
	MedicalHistory []string    `json:"medicalHistory"`
	InvoiceIDs     []uuid.UUID `json:"invoices"`
	InvoiceCount   int         `json:"invoiceCount"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// PurchaseHistory is a customer with their invoices in purchase order
type PurchaseHistory struct {
	Customer CustomerResponse        `json:"customer"`
	Invoices []sales.InvoiceResponse `json:"invoices"`
}

// ToCustomerResponse converts a domain customer
func ToCustomerResponse(c *customer.Customer) CustomerResponse {
	history := c.MedicalHistory
	if history == nil {
		history = []string{}
	}
	invoices := c.InvoiceIDs
	if invoices == nil {
		invoices = []uuid.UUID{}
	}
	return CustomerResponse{
		ID:             c.ID,
		Code:           c.Code,
		Name:           c.Name,
		Contact:        c.Contact,
		Email:          c.Email,
		DateOfBirth:    c.DateOfBirth,
		Gender:         string(c.Gender),
		Address:        c.Address,
		MedicalHistory: history,
		InvoiceIDs:     invoices,
		InvoiceCount:   len(invoices),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
