package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// BatchModel is the persistence model for the inventory Batch aggregate.
type BatchModel struct {
	AggregateModel
	MedicineID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_key,priority:1"`
	BatchNumber       string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_batch_key,priority:2"`
	ExpiryDate        time.Time       `gorm:"type:date;not null;uniqueIndex:idx_batch_key,priority:3;index"`
	ManufactureDate   *time.Time      `gorm:"type:date"`
	MRP               decimal.Decimal `gorm:"column:mrp;type:decimal(12,2);not null;default:0"`
	PurchasePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	QuantityInStock   int             `gorm:"not null;check:quantity_in_stock >= 0"`
	MinimumStockLevel int             `gorm:"not null;default:0"`
	ShelfLocation     string          `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "inventory_batches"
}

// ToDomain converts the persistence model to a domain Batch
func (m *BatchModel) ToDomain() *inventory.Batch {
	return &inventory.Batch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		MedicineID:        m.MedicineID,
		BatchNumber:       m.BatchNumber,
		ManufactureDate:   m.ManufactureDate,
		ExpiryDate:        m.ExpiryDate,
		MRP:               m.MRP,
		PurchasePrice:     m.PurchasePrice,
		SellingPrice:      m.SellingPrice,
		QuantityInStock:   m.QuantityInStock,
		MinimumStockLevel: m.MinimumStockLevel,
		ShelfLocation:     m.ShelfLocation,
	}
}

// BatchModelFromDomain creates a persistence model from a domain Batch
func BatchModelFromDomain(b *inventory.Batch) *BatchModel {
	m := &BatchModel{
		MedicineID:        b.MedicineID,
		BatchNumber:       b.BatchNumber,
		ExpiryDate:        b.ExpiryDate,
		ManufactureDate:   b.ManufactureDate,
		MRP:               b.MRP,
		PurchasePrice:     b.PurchasePrice,
		SellingPrice:      b.SellingPrice,
		QuantityInStock:   b.QuantityInStock,
		MinimumStockLevel: b.MinimumStockLevel,
		ShelfLocation:     b.ShelfLocation,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}
