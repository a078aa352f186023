package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// MedicineService handles catalog operations
type MedicineService struct {
	medicineRepo catalog.MedicineRepository
}

// NewMedicineService creates a new MedicineService
func NewMedicineService(medicineRepo catalog.MedicineRepository) *MedicineService {
	return &MedicineService{medicineRepo: medicineRepo}
}

// Create adds an active medicine to the catalog
func (s *MedicineService) Create(ctx context.Context, req MedicineRequest) (*MedicineResponse, error) {
	medicine, err := catalog.NewMedicine(req.details())
	if err != nil {
		return nil, err
	}
	if err := s.medicineRepo.Save(ctx, medicine); err != nil {
		return nil, fmt.Errorf("failed to save medicine: %w", err)
	}
	resp := ToMedicineResponse(medicine)
	return &resp, nil
}

// GetByID returns one medicine. A missing medicine yields sales.MedicineNotFoundError.
func (s *MedicineService) GetByID(ctx context.Context, id uuid.UUID) (*MedicineResponse, error) {
	medicine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMedicineResponse(medicine)
	return &resp, nil
}

// List returns one page of medicines matching the filter
func (s *MedicineService) List(ctx context.Context, f MedicineListFilter) (shared.Paginated[MedicineResponse], error) {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
		filter.OrderDir = f.OrderDir
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.Category != "" {
		filter.Filters["category"] = f.Category
	}
	filter.Normalize()

	medicines, err := s.medicineRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[MedicineResponse]{}, fmt.Errorf("failed to list medicines: %w", err)
	}
	total, err := s.medicineRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[MedicineResponse]{}, fmt.Errorf("failed to count medicines: %w", err)
	}

	items := make([]MedicineResponse, len(medicines))
	for i := range medicines {
		items[i] = ToMedicineResponse(&medicines[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update replaces the descriptive attributes of a medicine
func (s *MedicineService) Update(ctx context.Context, id uuid.UUID, req MedicineRequest) (*MedicineResponse, error) {
	return s.mutate(ctx, id, func(m *catalog.Medicine) error {
		return m.Update(req.details())
	})
}

// Activate returns a medicine to the active catalog
func (s *MedicineService) Activate(ctx context.Context, id uuid.UUID) (*MedicineResponse, error) {
	return s.mutate(ctx, id, (*catalog.Medicine).Activate)
}

// Deactivate hides a medicine from the active catalog. Existing batches remain sellable.
func (s *MedicineService) Deactivate(ctx context.Context, id uuid.UUID) (*MedicineResponse, error) {
	return s.mutate(ctx, id, (*catalog.Medicine).Deactivate)
}

func (s *MedicineService) mutate(ctx context.Context, id uuid.UUID, fn func(*catalog.Medicine) error) (*MedicineResponse, error) {
	medicine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(medicine); err != nil {
		return nil, err
	}
	if err := s.medicineRepo.Save(ctx, medicine); err != nil {
		return nil, fmt.Errorf("failed to save medicine: %w", err)
	}
	resp := ToMedicineResponse(medicine)
	return &resp, nil
}

func (s *MedicineService) load(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	medicine, err := s.medicineRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, sales.NewMedicineNotFoundError(id)
		}
		return nil, err
	}
	return medicine, nil
}
