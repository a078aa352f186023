package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/customer"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements customer.CustomerRepository using GORM.
// Invoice references are stored one row per position in customer_invoices.
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by ID together with its invoice references
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByContact finds a customer by contact number
func (r *GormCustomerRepository) FindByContact(ctx context.Context, contact string) (*customer.Customer, error) {
	return r.findOne(ctx, "contact = ?", contact)
}

// FindByInvoiceIDs maps each invoice ID to the customer whose history contains it
func (r *GormCustomerRepository) FindByInvoiceIDs(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]customer.Customer, error) {
	out := make(map[uuid.UUID]customer.Customer)
	if len(invoiceIDs) == 0 {
		return out, nil
	}

	var links []models.CustomerInvoiceModel
	if err := r.db.WithContext(ctx).Where("invoice_id IN ?", invoiceIDs).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return out, nil
	}

	customerIDs := make([]uuid.UUID, 0, len(links))
	seen := make(map[uuid.UUID]bool)
	for _, l := range links {
		if !seen[l.CustomerID] {
			seen[l.CustomerID] = true
			customerIDs = append(customerIDs, l.CustomerID)
		}
	}
	customers, err := r.loadMany(ctx, r.db.WithContext(ctx).Where("id IN ?", customerIDs))
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]customer.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	for _, l := range links {
		if c, ok := byID[l.CustomerID]; ok {
			out[l.InvoiceID] = c
		}
	}
	return out, nil
}

// FindAll lists customers, newest first unless filter says otherwise
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]customer.Customer, error) {
	return r.loadMany(ctx, paginate(r.filtered(ctx, filter), filter, CustomerSortFields))
}

// Count counts customers matching filter
func (r *GormCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts a new customer or updates an existing one whose stored version still matches,
// then appends the invoice references added since it was loaded.
func (r *GormCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	db := r.db.WithContext(ctx)
	model := models.CustomerModelFromDomain(c)

	if c.IsNew() {
		if err := db.Create(model).Error; err != nil {
			return classify(err)
		}
	} else {
		result := db.Model(&models.CustomerModel{}).
			Where("id = ? AND version = ?", c.ID, c.PersistedVersion()).
			Updates(map[string]any{
				"name":            model.Name,
				"email":           model.Email,
				"date_of_birth":   model.DateOfBirth,
				"gender":          model.Gender,
				"address":         model.Address,
				"medical_history": model.MedicalHistory,
				"version":         model.Version,
				"updated_at":      model.UpdatedAt,
			})
		if result.Error != nil {
			return classify(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
	}

	first, pending := c.PendingInvoices()
	if len(pending) > 0 {
		now := time.Now()
		links := make([]models.CustomerInvoiceModel, len(pending))
		for i, invoiceID := range pending {
			links[i] = models.CustomerInvoiceModel{
				CustomerID: c.ID,
				Position:   first + i,
				InvoiceID:  invoiceID,
				CreatedAt:  now,
			}
		}
		if err := db.Create(&links).Error; err != nil {
			return classify(err)
		}
	}

	c.MarkPersisted()
	return nil
}

func (r *GormCustomerRepository) findOne(ctx context.Context, query string, args ...any) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	refs, err := r.invoiceRefs(ctx, []uuid.UUID{model.ID})
	if err != nil {
		return nil, err
	}
	return model.ToDomain(refs[model.ID]), nil
}

func (r *GormCustomerRepository) loadMany(ctx context.Context, query *gorm.DB) ([]customer.Customer, error) {
	var rows []models.CustomerModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	refs, err := r.invoiceRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]customer.Customer, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain(refs[rows[i].ID])
	}
	return out, nil
}

// invoiceRefs loads invoice references grouped by customer, in position order
func (r *GormCustomerRepository) invoiceRefs(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(customerIDs))
	if len(customerIDs) == 0 {
		return out, nil
	}
	var links []models.CustomerInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id IN ?", customerIDs).
		Order("customer_id").Order("position ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.CustomerID] = append(out[l.CustomerID], l.InvoiceID)
	}
	return out, nil
}

func (r *GormCustomerRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR contact LIKE ? OR LOWER(code) LIKE ?", like, like, like)
	}
	return query
}

var _ customer.CustomerRepository = (*GormCustomerRepository)(nil)
