package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Batch is a dated, priced quantity of one medicine.
// (MedicineID, BatchNumber, ExpiryDate) is unique across the ledger.
type Batch struct {
	shared.BaseAggregateRoot
	MedicineID        uuid.UUID
	BatchNumber       string
	ManufactureDate   *time.Time
	ExpiryDate        time.Time
	MRP               decimal.Decimal
	PurchasePrice     decimal.Decimal
	SellingPrice      decimal.Decimal
	QuantityInStock   int
	MinimumStockLevel int
	ShelfLocation     string
}

// BatchAttributes are the intake attributes of a batch besides its key
type BatchAttributes struct {
	ManufactureDate   *time.Time
	MRP               decimal.Decimal
	PurchasePrice     decimal.Decimal
	SellingPrice      decimal.Decimal
	QuantityInStock   int
	MinimumStockLevel int
	ShelfLocation     string
}

// NewBatch creates a batch received into stock
func NewBatch(medicineID uuid.UUID, batchNumber string, expiryDate time.Time, attrs BatchAttributes) (*Batch, error) {
	if medicineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEDICINE", "Medicine ID cannot be empty")
	}
	batchNumber = strings.TrimSpace(batchNumber)
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number is required")
	}
	if expiryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_EXPIRY_DATE", "Expiry date is required")
	}

	b := &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MedicineID:        medicineID,
		BatchNumber:       batchNumber,
		ExpiryDate:        DateOnly(expiryDate),
	}
	if err := b.apply(attrs); err != nil {
		return nil, err
	}
	return b, nil
}

// Revise replaces the intake attributes of an existing batch
func (b *Batch) Revise(attrs BatchAttributes) error {
	if err := b.apply(attrs); err != nil {
		return err
	}
	b.IncrementVersion()
	return nil
}

// Deduct removes quantity from the batch. It never drives the stock below zero.
func (b *Batch) Deduct(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduct quantity must be positive")
	}
	if quantity > b.QuantityInStock {
		return fmt.Errorf("%w: batch %s has %d, requested %d",
			shared.ErrInsufficientStock, b.BatchNumber, b.QuantityInStock, quantity)
	}

	b.QuantityInStock -= quantity
	b.IncrementVersion()
	return nil
}

// IsExhausted returns true once the batch has no stock left. Exhausted batches are removed from the ledger.
func (b *Batch) IsExhausted() bool {
	return b.QuantityInStock == 0
}

// IsExpired returns true if the batch expired before the given time
func (b *Batch) IsExpired(at time.Time) bool {
	return b.ExpiryDate.Before(at)
}

// IsBelowMinimum returns true when stock is at or below the reorder threshold
func (b *Batch) IsBelowMinimum() bool {
	return b.QuantityInStock <= b.MinimumStockLevel
}

// StockValue returns quantity times selling price, the shelf value of the batch
func (b *Batch) StockValue() decimal.Decimal {
	return b.SellingPrice.Mul(decimal.NewFromInt(int64(b.QuantityInStock)))
}

func (b *Batch) apply(attrs BatchAttributes) error {
	if attrs.QuantityInStock < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity in stock cannot be negative")
	}
	if attrs.MinimumStockLevel < 0 {
		return shared.NewDomainError("INVALID_MIN_STOCK", "Minimum stock level cannot be negative")
	}
	if attrs.MRP.IsNegative() || attrs.PurchasePrice.IsNegative() || attrs.SellingPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	if attrs.ManufactureDate != nil && attrs.ManufactureDate.After(b.ExpiryDate) {
		return shared.NewDomainError("INVALID_MANUFACTURE_DATE", "Manufacture date cannot be after expiry date")
	}

	if attrs.ManufactureDate != nil {
		d := DateOnly(*attrs.ManufactureDate)
		attrs.ManufactureDate = &d
	}
	b.ManufactureDate = attrs.ManufactureDate
	b.MRP = attrs.MRP
	b.PurchasePrice = attrs.PurchasePrice
	b.SellingPrice = attrs.SellingPrice
	b.QuantityInStock = attrs.QuantityInStock
	b.MinimumStockLevel = attrs.MinimumStockLevel
	b.ShelfLocation = strings.TrimSpace(attrs.ShelfLocation)
	return nil
}

// DateOnly truncates t to midnight UTC of its UTC calendar day. Batch dates are compared as days.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
