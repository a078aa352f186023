package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMedicineRepository is a mock implementation of catalog.MedicineRepository
type MockMedicineRepository struct {
	mock.Mock
}

func (m *MockMedicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Medicine, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Medicine, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMedicineRepository) Save(ctx context.Context, medicine *catalog.Medicine) error {
	return m.Called(ctx, medicine).Error(0)
}

func newTestMedicine(t *testing.T) *catalog.Medicine {
	t.Helper()
	m, err := catalog.NewMedicine(catalog.MedicineDetails{Name: "Paracetamol", Category: "Analgesic"})
	require.NoError(t, err)
	return m
}

func TestMedicineService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(MockMedicineRepository)
		svc := NewMedicineService(repo)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Medicine")).Return(nil)

		resp, err := svc.Create(ctx, MedicineRequest{Name: " Ibuprofen ", Strength: "400mg"})
		require.NoError(t, err)
		assert.Equal(t, "Ibuprofen", resp.Name)
		assert.Equal(t, "active", resp.Status)
		assert.Equal(t, 1, resp.Version)
		repo.AssertExpectations(t)
	})

	t.Run("blank name", func(t *testing.T) {
		repo := new(MockMedicineRepository)
		svc := NewMedicineService(repo)

		_, err := svc.Create(ctx, MedicineRequest{Name: "   "})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_NAME", domainErr.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := new(MockMedicineRepository)
		svc := NewMedicineService(repo)
		boom := errors.New("disk full")
		repo.On("Save", ctx, mock.Anything).Return(boom)

		_, err := svc.Create(ctx, MedicineRequest{Name: "Ibuprofen"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestMedicineService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMedicineRepository)
	svc := NewMedicineService(repo)
	id := uuid.New()
	repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	_, err := svc.GetByID(ctx, id)
	var notFound *sales.MedicineNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, id, notFound.MedicineID)
}

func TestMedicineService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMedicineRepository)
	svc := NewMedicineService(repo)
	med := newTestMedicine(t)

	matches := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Search == "para" && f.Filters["status"] == "active" && f.Page == 2 && f.PageSize == 5
	})
	repo.On("FindAll", ctx, matches).Return([]catalog.Medicine{*med}, nil)
	repo.On("Count", ctx, matches).Return(int64(6), nil)

	page, err := svc.List(ctx, MedicineListFilter{Search: "para", Status: "active", Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(6), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	repo.AssertExpectations(t)
}

func TestMedicineService_StatusTransitions(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMedicineRepository)
	svc := NewMedicineService(repo)
	med := newTestMedicine(t)
	repo.On("FindByID", ctx, med.ID).Return(med, nil)
	repo.On("Save", ctx, med).Return(nil)

	resp, err := svc.Deactivate(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, "inactive", resp.Status)
	assert.Equal(t, 2, resp.Version)

	_, err = svc.Deactivate(ctx, med.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_INACTIVE", domainErr.Code)

	resp, err = svc.Activate(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Status)
}

func TestMedicineService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMedicineRepository)
	svc := NewMedicineService(repo)
	med := newTestMedicine(t)
	repo.On("FindByID", ctx, med.ID).Return(med, nil)
	repo.On("Save", ctx, med).Return(nil)

	resp, err := svc.Update(ctx, med.ID, MedicineRequest{Name: "Paracetamol 650", Form: "tablet"})
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol 650", resp.Name)
	assert.Equal(t, "tablet", resp.Form)
	assert.Empty(t, resp.Category)
}
