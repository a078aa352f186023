package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/customer"
	"gorm.io/datatypes"
)

// CustomerModel is the persistence model for the Customer aggregate root.
// Invoice references live in customer_invoices.
type CustomerModel struct {
	AggregateModel
	Code           string                      `gorm:"type:varchar(40);not null;uniqueIndex"`
	Name           string                      `gorm:"type:varchar(200)"`
	Contact        string                      `gorm:"type:varchar(20);not null;uniqueIndex"`
	Email          string                      `gorm:"type:varchar(200)"`
	DateOfBirth    *time.Time                  `gorm:"type:date"`
	Gender         string                      `gorm:"type:varchar(10)"`
	Address        string                      `gorm:"type:text"`
	MedicalHistory datatypes.JSONSlice[string] `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// CustomerInvoiceModel is one entry of a customer's ordered purchase history
type CustomerInvoiceModel struct {
	CustomerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position   int       `gorm:"primaryKey;autoIncrement:false"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerInvoiceModel) TableName() string {
	return "customer_invoices"
}

// ToDomain converts the persistence model to a domain Customer, restoring its invoice references
func (m *CustomerModel) ToDomain(invoiceIDs []uuid.UUID) *customer.Customer {
	history := []string(m.MedicalHistory)
	if history == nil {
		history = []string{}
	}
	c := &customer.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Contact:           m.Contact,
		Email:             m.Email,
		DateOfBirth:       m.DateOfBirth,
		Gender:            customer.Gender(m.Gender),
		Address:           m.Address,
		MedicalHistory:    history,
	}
	c.Restore(invoiceIDs)
	return c
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	history := c.MedicalHistory
	if history == nil {
		history = []string{}
	}
	m := &CustomerModel{
		Code:           c.Code,
		Name:           c.Name,
		Contact:        c.Contact,
		Email:          c.Email,
		DateOfBirth:    c.DateOfBirth,
		Gender:         string(c.Gender),
		Address:        c.Address,
		MedicalHistory: datatypes.NewJSONSlice(history),
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
