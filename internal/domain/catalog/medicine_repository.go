package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// MedicineRepository defines the interface for medicine persistence
type MedicineRepository interface {
	// FindByID returns shared.ErrNotFound when the medicine does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Medicine, error)

	// FindByIDs returns the medicines that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Medicine, error)

	// FindAll lists medicines. Supported filters: "status", "category".
	FindAll(ctx context.Context, filter shared.Filter) ([]Medicine, error)

	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a medicine
	Save(ctx context.Context, medicine *Medicine) error
}
