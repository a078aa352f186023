package batch

import (
	"context"
	"sort"
	"time"

	"github.com/pharmacy/backend/internal/domain/shared/strategy"
)

// NameFIFO is the registry name of the first-received-first policy
const NameFIFO = "fifo"

// FIFOBatchStrategy implements First In First Out batch selection.
// Batches are consumed in the order they were received into stock.
type FIFOBatchStrategy struct {
	strategy.BaseStrategy
}

// NewFIFOBatchStrategy creates a new FIFO batch strategy
func NewFIFOBatchStrategy() *FIFOBatchStrategy {
	return &FIFOBatchStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			NameFIFO,
			strategy.StrategyTypeBatch,
			"first-received-first: consumes batches in the order they were received",
		),
	}
}

// SelectBatches selects batches in receipt order
func (s *FIFOBatchStrategy) SelectBatches(
	ctx context.Context,
	selCtx strategy.BatchSelectionContext,
	batches []strategy.Batch,
) (strategy.BatchSelectionResult, error) {
	filtered := filterAvailableBatches(batches, selCtx.MedicineID)
	if selCtx.SkipExpired {
		filtered = filterNonExpiredBatches(filtered, selCtx.Date)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].ReceivedDate.Before(filtered[j].ReceivedDate)
	})

	return selectFromBatches(filtered, selCtx.Quantity), nil
}

// ConsidersExpiry returns false as FIFO ignores expiry dates
func (s *FIFOBatchStrategy) ConsidersExpiry() bool {
	return false
}

var _ strategy.BatchAllocationStrategy = (*FIFOBatchStrategy)(nil)

// filterAvailableBatches keeps the medicine's batches that still have stock
func filterAvailableBatches(batches []strategy.Batch, medicineID string) []strategy.Batch {
	filtered := make([]strategy.Batch, 0, len(batches))
	for _, b := range batches {
		if b.MedicineID == medicineID && b.AvailableQty > 0 {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// filterNonExpiredBatches drops batches that expired before the given date
func filterNonExpiredBatches(batches []strategy.Batch, date time.Time) []strategy.Batch {
	if date.IsZero() {
		date = time.Now()
	}

	filtered := make([]strategy.Batch, 0, len(batches))
	for _, b := range batches {
		if b.ExpiryDate.IsZero() || !b.ExpiryDate.Before(date) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// selectFromBatches takes min(available, remaining) from each ordered batch
func selectFromBatches(batches []strategy.Batch, quantity int) strategy.BatchSelectionResult {
	remaining := quantity
	selections := make([]strategy.BatchSelection, 0)
	total := 0

	for _, b := range batches {
		if remaining <= 0 {
			break
		}

		taken := min(remaining, b.AvailableQty)
		selections = append(selections, strategy.BatchSelection{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    taken,
			ExpiryDate:  b.ExpiryDate,
			UnitPrice:   b.SellingPrice,
		})

		remaining -= taken
		total += taken
	}

	return strategy.BatchSelectionResult{
		Selections:   selections,
		TotalQty:     total,
		ShortfallQty: max(remaining, 0),
	}
}
