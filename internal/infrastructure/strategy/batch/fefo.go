package batch

import (
	"context"
	"sort"

	"github.com/pharmacy/backend/internal/domain/shared/strategy"
)

// NameFEFO is the registry name of the earliest-expiry-first policy
const NameFEFO = "fefo"

// FEFOBatchStrategy implements First Expired First Out batch selection.
// The batch closest to expiry is consumed first to minimise waste.
type FEFOBatchStrategy struct {
	strategy.BaseStrategy
}

// NewFEFOBatchStrategy creates a new FEFO batch strategy
func NewFEFOBatchStrategy() *FEFOBatchStrategy {
	return &FEFOBatchStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			NameFEFO,
			strategy.StrategyTypeBatch,
			"earliest-expiry-first: consumes the batch with the nearest expiry date first",
		),
	}
}

// SelectBatches selects batches in expiry order
func (s *FEFOBatchStrategy) SelectBatches(
	ctx context.Context,
	selCtx strategy.BatchSelectionContext,
	batches []strategy.Batch,
) (strategy.BatchSelectionResult, error) {
	filtered := filterAvailableBatches(batches, selCtx.MedicineID)
	if selCtx.SkipExpired {
		filtered = filterNonExpiredBatches(filtered, selCtx.Date)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		iExpiry := filtered[i].ExpiryDate
		jExpiry := filtered[j].ExpiryDate

		// Batches without an expiry date go last
		if iExpiry.IsZero() != jExpiry.IsZero() {
			return jExpiry.IsZero()
		}
		if !iExpiry.Equal(jExpiry) {
			return iExpiry.Before(jExpiry)
		}
		if !filtered[i].ManufactureDate.Equal(filtered[j].ManufactureDate) {
			return filtered[i].ManufactureDate.Before(filtered[j].ManufactureDate)
		}
		return filtered[i].ReceivedDate.Before(filtered[j].ReceivedDate)
	})

	return selectFromBatches(filtered, selCtx.Quantity), nil
}

// ConsidersExpiry returns true as FEFO orders by expiry dates
func (s *FEFOBatchStrategy) ConsidersExpiry() bool {
	return true
}

var _ strategy.BatchAllocationStrategy = (*FEFOBatchStrategy)(nil)
