package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMedicineRepository implements catalog.MedicineRepository using GORM
type GormMedicineRepository struct {
	db *gorm.DB
}

// NewGormMedicineRepository creates a new GormMedicineRepository
func NewGormMedicineRepository(db *gorm.DB) *GormMedicineRepository {
	return &GormMedicineRepository{db: db}
}

// FindByID finds a medicine by its ID
func (r *GormMedicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	var model models.MedicineModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the medicines that exist among ids
func (r *GormMedicineRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Medicine, error) {
	if len(ids) == 0 {
		return []catalog.Medicine{}, nil
	}
	var rows []models.MedicineModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return medicinesToDomain(rows), nil
}

// FindAll lists medicines matching filter
func (r *GormMedicineRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Medicine, error) {
	var rows []models.MedicineModel
	query := paginate(r.filtered(ctx, filter), filter, MedicineSortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return medicinesToDomain(rows), nil
}

// Count counts medicines matching filter
func (r *GormMedicineRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a medicine
func (r *GormMedicineRepository) Save(ctx context.Context, medicine *catalog.Medicine) error {
	return r.db.WithContext(ctx).Save(models.MedicineModelFromDomain(medicine)).Error
}

func (r *GormMedicineRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.MedicineModel{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(generic_name) LIKE ? OR LOWER(manufacturer) LIKE ?", like, like, like)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "category":
			query = query.Where("category = ?", value)
		}
	}
	return query
}

func medicinesToDomain(rows []models.MedicineModel) []catalog.Medicine {
	out := make([]catalog.Medicine, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ catalog.MedicineRepository = (*GormMedicineRepository)(nil)
