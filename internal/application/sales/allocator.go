package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared/strategy"
)

// Allocator draws a line's quantity from the medicine's batches in the order chosen by
// the allocation strategy and applies the resulting batch mutations.
// It must run inside a settlement transaction.
type Allocator struct {
	strategy    strategy.BatchAllocationStrategy
	skipExpired bool
	now         func() time.Time
}

// NewAllocator creates an allocator. With skipExpired, batches past their expiry date are not eligible.
func NewAllocator(s strategy.BatchAllocationStrategy, skipExpired bool) *Allocator {
	return &Allocator{
		strategy:    s,
		skipExpired: skipExpired,
		now:         time.Now,
	}
}

// StrategyName returns the allocation policy in use
func (a *Allocator) StrategyName() string {
	return a.strategy.Name()
}

// Allocate consumes quantity units of medicine. Drained batches are deleted, the rest are saved
// with their reduced stock. On shortfall nothing is mutated and an InsufficientStockError is returned.
func (a *Allocator) Allocate(
	ctx context.Context,
	batches inventory.BatchRepository,
	medicine *catalog.Medicine,
	quantity int,
) (sales.LineItem, error) {
	if quantity <= 0 {
		return sales.LineItem{}, sales.NewValidationError(sales.Violation{
			Field:   "quantity",
			Message: "Quantity must be a positive integer",
		})
	}

	locked, err := batches.FindByMedicineForUpdate(ctx, medicine.ID)
	if err != nil {
		return sales.LineItem{}, fmt.Errorf("failed to load batches: %w", err)
	}

	byID := make(map[string]*inventory.Batch, len(locked))
	views := make([]strategy.Batch, 0, len(locked))
	for _, b := range locked {
		id := b.ID.String()
		byID[id] = b
		views = append(views, toStrategyBatch(b))
	}

	result, err := a.strategy.SelectBatches(ctx, strategy.BatchSelectionContext{
		MedicineID:  medicine.ID.String(),
		Quantity:    quantity,
		Date:        a.now(),
		SkipExpired: a.skipExpired,
	}, views)
	if err != nil {
		return sales.LineItem{}, fmt.Errorf("batch selection failed: %w", err)
	}
	if !result.Fulfilled() {
		return sales.LineItem{}, sales.NewInsufficientStockError(medicine.ID, medicine.Name, quantity, result.TotalQty)
	}

	line := sales.LineItem{
		MedicineID:   medicine.ID,
		MedicineName: medicine.Name,
		Quantity:     result.TotalQty,
		LineTotal:    result.Amount(),
		Allocations:  make([]sales.BatchAllocation, 0, len(result.Selections)),
	}

	for _, sel := range result.Selections {
		b, ok := byID[sel.BatchID]
		if !ok {
			return sales.LineItem{}, fmt.Errorf("strategy selected unknown batch %s", sel.BatchID)
		}
		if err := b.Deduct(sel.Quantity); err != nil {
			return sales.LineItem{}, err
		}
		if b.IsExhausted() {
			err = batches.Delete(ctx, b)
		} else {
			err = batches.Update(ctx, b)
		}
		if err != nil {
			return sales.LineItem{}, fmt.Errorf("failed to write batch %s: %w", b.BatchNumber, err)
		}

		line.UnitPrice = sel.UnitPrice
		line.Allocations = append(line.Allocations, sales.BatchAllocation{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			ExpiryDate:  b.ExpiryDate,
			Quantity:    sel.Quantity,
			UnitPrice:   sel.UnitPrice,
		})
	}

	return line, nil
}

func toStrategyBatch(b *inventory.Batch) strategy.Batch {
	v := strategy.Batch{
		ID:           b.ID.String(),
		MedicineID:   b.MedicineID.String(),
		BatchNumber:  b.BatchNumber,
		AvailableQty: b.QuantityInStock,
		SellingPrice: b.SellingPrice,
		ExpiryDate:   b.ExpiryDate,
		ReceivedDate: b.CreatedAt,
	}
	if b.ManufactureDate != nil {
		v.ManufactureDate = *b.ManufactureDate
	}
	return v
}
