package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Batch is the strategy view of an inventory batch
type Batch struct {
	ID              string
	MedicineID      string
	BatchNumber     string
	AvailableQty    int
	SellingPrice    decimal.Decimal
	ManufactureDate time.Time
	ExpiryDate      time.Time
	ReceivedDate    time.Time
}

// BatchSelection is the quantity drawn from one batch
type BatchSelection struct {
	BatchID     string
	BatchNumber string
	Quantity    int
	ExpiryDate  time.Time
	UnitPrice   decimal.Decimal
}

// Amount returns quantity times the batch selling price
func (s BatchSelection) Amount() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// BatchSelectionContext provides context for batch selection
type BatchSelectionContext struct {
	MedicineID  string
	Quantity    int
	Date        time.Time
	SkipExpired bool
}

// BatchSelectionResult contains the result of batch selection
type BatchSelectionResult struct {
	Selections   []BatchSelection
	TotalQty     int
	ShortfallQty int
}

// Amount returns the sum of the selection amounts
func (r BatchSelectionResult) Amount() decimal.Decimal {
	total := decimal.Zero
	for _, s := range r.Selections {
		total = total.Add(s.Amount())
	}
	return total
}

// Fulfilled reports whether the full requested quantity was selected
func (r BatchSelectionResult) Fulfilled() bool {
	return r.ShortfallQty == 0
}

// BatchAllocationStrategy decides the order in which batches are consumed by a sale
type BatchAllocationStrategy interface {
	Strategy
	// SelectBatches walks the batches in policy order and takes what the request needs
	SelectBatches(ctx context.Context, selCtx BatchSelectionContext, batches []Batch) (BatchSelectionResult, error)
	// ConsidersExpiry returns true if the ordering is driven by expiry dates
	ConsidersExpiry() bool
}
