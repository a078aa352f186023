package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBatchRepository implements inventory.BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMedicine returns the batches of one medicine, earliest expiry first
func (r *GormBatchRepository) FindByMedicine(ctx context.Context, medicineID uuid.UUID) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.byMedicine(ctx, medicineID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return batchesToDomain(rows), nil
}

// FindByMedicineForUpdate loads the medicine's batches with SELECT ... FOR UPDATE.
// The row locks are held until the surrounding transaction commits or rolls back,
// so a concurrent settlement of the same medicine waits instead of reading stale stock.
func (r *GormBatchRepository) FindByMedicineForUpdate(ctx context.Context, medicineID uuid.UUID) ([]*inventory.Batch, error) {
	var rows []models.BatchModel
	err := r.byMedicine(ctx, medicineID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	out := make([]*inventory.Batch, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindByKey looks up a batch by (medicine, batch number, expiry date)
func (r *GormBatchRepository) FindByKey(ctx context.Context, medicineID uuid.UUID, batchNumber string, expiryDate time.Time) (*inventory.Batch, error) {
	var model models.BatchModel
	err := r.db.WithContext(ctx).
		Where("medicine_id = ? AND batch_number = ? AND expiry_date = ?", medicineID, batchNumber, expiryDate).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestByBatchNumber returns the most recently received batch carrying batchNumber
func (r *GormBatchRepository) FindLatestByBatchNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*inventory.Batch, error) {
	var model models.BatchModel
	err := r.db.WithContext(ctx).
		Where("medicine_id = ? AND batch_number = ?", medicineID, batchNumber).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every batch ordered by medicine then expiry
func (r *GormBatchRepository) FindAll(ctx context.Context) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Order("medicine_id").Order("expiry_date ASC").Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return batchesToDomain(rows), nil
}

// FindExpiringBefore returns batches whose expiry date is before t, soonest first
func (r *GormBatchRepository) FindExpiringBefore(ctx context.Context, t time.Time) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Where("expiry_date < ?", t).
		Order("expiry_date ASC").Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return batchesToDomain(rows), nil
}

// StockLevels aggregates batches per medicine. The aggregation runs in Go so the
// nearest expiry keeps its time type on every driver.
func (r *GormBatchRepository) StockLevels(ctx context.Context, medicineIDs ...uuid.UUID) ([]inventory.StockLevel, error) {
	var rows []models.BatchModel
	query := r.db.WithContext(ctx).
		Select("medicine_id", "expiry_date", "quantity_in_stock", "minimum_stock_level").
		Order("medicine_id").Order("expiry_date ASC")
	if len(medicineIDs) > 0 {
		query = query.Where("medicine_id IN ?", medicineIDs)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	levels := make([]inventory.StockLevel, 0)
	index := make(map[uuid.UUID]int)
	for _, row := range rows {
		i, ok := index[row.MedicineID]
		if !ok {
			index[row.MedicineID] = len(levels)
			levels = append(levels, inventory.StockLevel{MedicineID: row.MedicineID, NearestExpiry: row.ExpiryDate})
			i = len(levels) - 1
		}
		lvl := &levels[i]
		lvl.TotalQuantity += row.QuantityInStock
		lvl.BatchCount++
		if row.MinimumStockLevel > lvl.MinimumStockLevel {
			lvl.MinimumStockLevel = row.MinimumStockLevel
		}
		if row.ExpiryDate.Before(lvl.NearestExpiry) {
			lvl.NearestExpiry = row.ExpiryDate
		}
	}
	return levels, nil
}

// Create inserts a new batch
func (r *GormBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	return classify(r.db.WithContext(ctx).Create(models.BatchModelFromDomain(batch)).Error)
}

// Update writes the batch if the stored version is still the one it was loaded with
func (r *GormBatchRepository) Update(ctx context.Context, batch *inventory.Batch) error {
	result := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]any{
			"manufacture_date":    batch.ManufactureDate,
			"mrp":                 batch.MRP,
			"purchase_price":      batch.PurchasePrice,
			"selling_price":       batch.SellingPrice,
			"quantity_in_stock":   batch.QuantityInStock,
			"minimum_stock_level": batch.MinimumStockLevel,
			"shelf_location":      batch.ShelfLocation,
			"version":             batch.Version,
			"updated_at":          batch.UpdatedAt,
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes an exhausted batch under the same version check as Update
func (r *GormBatchRepository) Delete(ctx context.Context, batch *inventory.Batch) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Delete(&models.BatchModel{})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormBatchRepository) byMedicine(ctx context.Context, medicineID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("medicine_id = ?", medicineID).
		Order("expiry_date ASC").Order("created_at ASC")
}

func batchesToDomain(rows []models.BatchModel) []inventory.Batch {
	out := make([]inventory.Batch, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
