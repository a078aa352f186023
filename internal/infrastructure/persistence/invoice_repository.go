package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements sales.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts the invoice and its line items
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *sales.Invoice) error {
	return classify(r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error)
}

// FindByNumber finds an invoice by its invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*sales.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withItems(ctx).First(&model, "invoice_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the invoices with the given IDs in the order of ids. Unknown IDs are skipped.
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]sales.Invoice, error) {
	if len(ids) == 0 {
		return []sales.Invoice{}, nil
	}
	var rows []models.InvoiceModel
	if err := r.withItems(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.InvoiceModel, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	out := make([]sales.Invoice, 0, len(rows))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, *m.ToDomain())
		}
	}
	return out, nil
}

// FindAll returns every invoice, newest first
func (r *GormInvoiceRepository) FindAll(ctx context.Context) ([]sales.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.withItems(ctx).Order("created_at DESC").Order("invoice_number DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sales.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormInvoiceRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

var _ sales.InvoiceRepository = (*GormInvoiceRepository)(nil)
