package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StockLevel is the aggregated stock position of one medicine
type StockLevel struct {
	MedicineID        uuid.UUID
	TotalQuantity     int
	MinimumStockLevel int
	BatchCount        int
	NearestExpiry     time.Time
}

// IsLow reports whether total stock is at or below the reorder threshold
func (l StockLevel) IsLow() bool {
	return l.TotalQuantity <= l.MinimumStockLevel
}

// BatchRepository defines persistence for the batch ledger.
// Update and Delete take a batch after it was mutated and check the version it was loaded with
// (Version-1), returning shared.ErrConcurrencyConflict when another transaction changed it first.
type BatchRepository interface {
	// FindByID returns shared.ErrNotFound when the batch does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindByMedicine returns the medicine's batches ordered by expiry date ascending
	FindByMedicine(ctx context.Context, medicineID uuid.UUID) ([]Batch, error)

	// FindByMedicineForUpdate is FindByMedicine with the rows locked until the surrounding transaction ends
	FindByMedicineForUpdate(ctx context.Context, medicineID uuid.UUID) ([]*Batch, error)

	// FindByKey looks up a batch by its unique key. Returns shared.ErrNotFound when absent.
	FindByKey(ctx context.Context, medicineID uuid.UUID, batchNumber string, expiryDate time.Time) (*Batch, error)

	// FindLatestByBatchNumber returns the most recently received batch with the given number
	FindLatestByBatchNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*Batch, error)

	// FindAll returns every batch ordered by medicine then expiry
	FindAll(ctx context.Context) ([]Batch, error)

	// FindExpiringBefore returns batches whose expiry is before t, soonest first
	FindExpiringBefore(ctx context.Context, t time.Time) ([]Batch, error)

	// StockLevels aggregates stock per medicine. No IDs means every medicine that has batches.
	StockLevels(ctx context.Context, medicineIDs ...uuid.UUID) ([]StockLevel, error)

	Create(ctx context.Context, batch *Batch) error
	Update(ctx context.Context, batch *Batch) error
	Delete(ctx context.Context, batch *Batch) error
}
