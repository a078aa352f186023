package models

import (
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber string             `gorm:"type:varchar(40);not null;uniqueIndex"`
	SoldBy        uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerID    *uuid.UUID         `gorm:"type:uuid;index"`
	TotalAmount   decimal.Decimal    `gorm:"type:decimal(14,2);not null"`
	Items         []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is one settled line of an invoice. Allocations keep the batches the line drew from.
type InvoiceItemModel struct {
	ID           uuid.UUID                                  `gorm:"type:uuid;primaryKey"`
	InvoiceID    uuid.UUID                                  `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_line,priority:1"`
	LineNo       int                                        `gorm:"not null;uniqueIndex:idx_invoice_line,priority:2"`
	MedicineID   uuid.UUID                                  `gorm:"type:uuid;not null;index"`
	MedicineName string                                     `gorm:"type:varchar(200);not null"`
	Quantity     int                                        `gorm:"not null"`
	UnitPrice    decimal.Decimal                            `gorm:"type:decimal(12,2);not null"`
	LineTotal    decimal.Decimal                            `gorm:"type:decimal(14,2);not null"`
	Allocations  datatypes.JSONSlice[sales.BatchAllocation] `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *sales.Invoice {
	inv := &sales.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		SoldBy:            m.SoldBy,
		CustomerID:        m.CustomerID,
		TotalAmount:       m.TotalAmount,
		Items:             make([]sales.LineItem, len(m.Items)),
	}
	for i, item := range m.Items {
		inv.Items[i] = sales.LineItem{
			LineNo:       item.LineNo,
			MedicineID:   item.MedicineID,
			MedicineName: item.MedicineName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineTotal:    item.LineTotal,
			Allocations:  []sales.BatchAllocation(item.Allocations),
		}
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model, line items included, from a domain Invoice
func InvoiceModelFromDomain(inv *sales.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber: inv.InvoiceNumber,
		SoldBy:        inv.SoldBy,
		CustomerID:    inv.CustomerID,
		TotalAmount:   inv.TotalAmount,
		Items:         make([]InvoiceItemModel, len(inv.Items)),
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	for i, item := range inv.Items {
		allocs := item.Allocations
		if allocs == nil {
			allocs = []sales.BatchAllocation{}
		}
		m.Items[i] = InvoiceItemModel{
			ID:           uuid.New(),
			InvoiceID:    inv.ID,
			LineNo:       item.LineNo,
			MedicineID:   item.MedicineID,
			MedicineName: item.MedicineName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineTotal:    item.LineTotal,
			Allocations:  datatypes.NewJSONSlice(allocs),
		}
	}
	return m
}
