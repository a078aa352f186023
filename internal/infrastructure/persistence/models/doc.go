// Package models contains the GORM persistence models of the pharmacy backend.
// Domain entities carry no ORM tags; each model converts to and from its aggregate
// with ToDomain/FromDomain and repositories only ever hand models to GORM.
//
//   - base.go: BaseModel and AggregateModel (id, timestamps, version)
//   - catalog.go: medicines
//   - inventory.go: inventory_batches
//   - sales.go: invoices and invoice_items
//   - customer.go: customers and customer_invoices
//   - identity.go: users
package models
