package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/infrastructure/strategy/batch"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByMedicine(ctx context.Context, medicineID uuid.UUID) ([]inventory.Batch, error) {
	args := m.Called(ctx, medicineID)
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByMedicineForUpdate(ctx context.Context, medicineID uuid.UUID) ([]*inventory.Batch, error) {
	args := m.Called(ctx, medicineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByKey(ctx context.Context, medicineID uuid.UUID, batchNumber string, expiryDate time.Time) (*inventory.Batch, error) {
	args := m.Called(ctx, medicineID, batchNumber, expiryDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindLatestByBatchNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*inventory.Batch, error) {
	args := m.Called(ctx, medicineID, batchNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindAll(ctx context.Context) ([]inventory.Batch, error) {
	args := m.Called(ctx)
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindExpiringBefore(ctx context.Context, t time.Time) ([]inventory.Batch, error) {
	args := m.Called(ctx, t)
	return args.Get(0).([]inventory.Batch), args.Error(1)
}

func (m *MockBatchRepository) StockLevels(ctx context.Context, medicineIDs ...uuid.UUID) ([]inventory.StockLevel, error) {
	args := m.Called(ctx, medicineIDs)
	return args.Get(0).([]inventory.StockLevel), args.Error(1)
}

func (m *MockBatchRepository) Create(ctx context.Context, b *inventory.Batch) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBatchRepository) Update(ctx context.Context, b *inventory.Batch) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBatchRepository) Delete(ctx context.Context, b *inventory.Batch) error {
	return m.Called(ctx, b).Error(0)
}

func testMedicine(t *testing.T) *catalog.Medicine {
	t.Helper()
	m, err := catalog.NewMedicine(catalog.MedicineDetails{Name: "Paracetamol"})
	require.NoError(t, err)
	return m
}

func testBatch(t *testing.T, medicineID uuid.UUID, number string, expiryDays, qty int, price int64) *inventory.Batch {
	t.Helper()
	b, err := inventory.NewBatch(medicineID, number, time.Now().AddDate(0, 0, expiryDays), inventory.BatchAttributes{
		SellingPrice:    decimal.NewFromInt(price),
		QuantityInStock: qty,
	})
	require.NoError(t, err)
	return b
}

func TestAllocator_SpansBatchesInExpiryOrder(t *testing.T) {
	med := testMedicine(t)
	late := testBatch(t, med.ID, "LATE", 90, 10, 30)
	early := testBatch(t, med.ID, "EARLY", 10, 4, 10)
	mid := testBatch(t, med.ID, "MID", 30, 5, 20)

	repo := new(MockBatchRepository)
	repo.On("FindByMedicineForUpdate", mock.Anything, med.ID).Return([]*inventory.Batch{late, early, mid}, nil)
	repo.On("Delete", mock.Anything, early).Return(nil).Once()
	repo.On("Update", mock.Anything, mid).Return(nil).Once()

	line, err := NewAllocator(batch.NewFEFOBatchStrategy(), false).Allocate(context.Background(), repo, med, 6)
	require.NoError(t, err)

	assert.Equal(t, 6, line.Quantity)
	assert.True(t, decimal.NewFromInt(4*10+2*20).Equal(line.LineTotal))
	assert.True(t, decimal.NewFromInt(20).Equal(line.UnitPrice), "unit price is the last batch drawn from")
	require.Len(t, line.Allocations, 2)
	assert.Equal(t, "EARLY", line.Allocations[0].BatchNumber)
	assert.Equal(t, 4, line.Allocations[0].Quantity)
	assert.Equal(t, "MID", line.Allocations[1].BatchNumber)
	assert.Equal(t, 2, line.Allocations[1].Quantity)

	assert.Equal(t, 0, early.QuantityInStock)
	assert.Equal(t, 3, mid.QuantityInStock)
	assert.Equal(t, 10, late.QuantityInStock)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Update", mock.Anything, late)
}

func TestAllocator_ExactStockIsFullConsumption(t *testing.T) {
	med := testMedicine(t)
	only := testBatch(t, med.ID, "B1", 10, 5, 10)

	repo := new(MockBatchRepository)
	repo.On("FindByMedicineForUpdate", mock.Anything, med.ID).Return([]*inventory.Batch{only}, nil)
	repo.On("Delete", mock.Anything, only).Return(nil).Once()

	line, err := NewAllocator(batch.NewFEFOBatchStrategy(), false).Allocate(context.Background(), repo, med, 5)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(line.LineTotal))
	repo.AssertExpectations(t)
}

func TestAllocator_ShortfallMutatesNothing(t *testing.T) {
	med := testMedicine(t)
	a := testBatch(t, med.ID, "A", 10, 2, 10)
	b := testBatch(t, med.ID, "B", 20, 3, 10)

	repo := new(MockBatchRepository)
	repo.On("FindByMedicineForUpdate", mock.Anything, med.ID).Return([]*inventory.Batch{a, b}, nil)

	_, err := NewAllocator(batch.NewFEFOBatchStrategy(), false).Allocate(context.Background(), repo, med, 6)

	var stockErr *sales.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, med.ID, stockErr.MedicineID)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 1, stockErr.Shortfall())
	assert.Equal(t, 2, a.QuantityInStock)
	assert.Equal(t, 3, b.QuantityInStock)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAllocator_SkipExpired(t *testing.T) {
	med := testMedicine(t)
	expired := testBatch(t, med.ID, "OLD", -3, 10, 1)
	fresh := testBatch(t, med.ID, "NEW", 30, 10, 2)

	repo := new(MockBatchRepository)
	repo.On("FindByMedicineForUpdate", mock.Anything, med.ID).Return([]*inventory.Batch{expired, fresh}, nil)
	repo.On("Update", mock.Anything, fresh).Return(nil).Once()

	line, err := NewAllocator(batch.NewFEFOBatchStrategy(), true).Allocate(context.Background(), repo, med, 4)
	require.NoError(t, err)
	assert.Equal(t, "NEW", line.Allocations[0].BatchNumber)
	assert.Equal(t, 10, expired.QuantityInStock)
	repo.AssertExpectations(t)
}

func TestAllocator_RejectsNonPositiveQuantity(t *testing.T) {
	repo := new(MockBatchRepository)
	_, err := NewAllocator(batch.NewFEFOBatchStrategy(), false).Allocate(context.Background(), repo, testMedicine(t), 0)

	var validation *sales.ValidationError
	assert.ErrorAs(t, err, &validation)
	repo.AssertNotCalled(t, "FindByMedicineForUpdate", mock.Anything, mock.Anything)
}

func TestAllocator_PropagatesWriteErrors(t *testing.T) {
	med := testMedicine(t)
	b := testBatch(t, med.ID, "B1", 10, 5, 10)
	boom := errors.New("write failed")

	repo := new(MockBatchRepository)
	repo.On("FindByMedicineForUpdate", mock.Anything, med.ID).Return([]*inventory.Batch{b}, nil)
	repo.On("Update", mock.Anything, b).Return(boom)

	_, err := NewAllocator(batch.NewFEFOBatchStrategy(), false).Allocate(context.Background(), repo, med, 1)
	assert.ErrorIs(t, err, boom)
}
