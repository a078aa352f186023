package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormBatchRepository_FindByMedicine_ExpiryOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()
	med := seedMedicine(t, db, "Paracetamol")
	other := seedMedicine(t, db, "Ibuprofen")

	seedBatch(t, db, med.ID, "B3", day(90), 10, "3.00")
	seedBatch(t, db, med.ID, "B1", day(10), 10, "1.00")
	seedBatch(t, db, med.ID, "B2", day(30), 10, "2.00")
	seedBatch(t, db, other.ID, "X1", day(5), 10, "9.00")

	batches, err := repo.FindByMedicine(ctx, med.ID)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"B1", "B2", "B3"}, []string{batches[0].BatchNumber, batches[1].BatchNumber, batches[2].BatchNumber})

	locked, err := repo.FindByMedicineForUpdate(ctx, med.ID)
	require.NoError(t, err)
	require.Len(t, locked, 3)
	assert.Equal(t, "B1", locked[0].BatchNumber)
	assert.True(t, locked[0].SellingPrice.Equal(batches[0].SellingPrice))
}

func TestGormBatchRepository_FindByKey(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()
	med := seedMedicine(t, db, "Paracetamol")
	created := seedBatch(t, db, med.ID, "B1", day(10), 10, "1.00")

	found, err := repo.FindByKey(ctx, med.ID, "B1", day(10))
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, 1, found.Version)

	_, err = repo.FindByKey(ctx, med.ID, "B1", day(11))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormBatchRepository_DuplicateKeyIsConflict(t *testing.T) {
	db := newTestDB(t)
	med := seedMedicine(t, db, "Paracetamol")
	seedBatch(t, db, med.ID, "B1", day(10), 10, "1.00")

	dup := *seedBatchValue(t, med.ID, "B1", day(10))
	err := NewGormBatchRepository(db).Create(context.Background(), &dup)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormBatchRepository_UpdateChecksVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()
	med := seedMedicine(t, db, "Paracetamol")
	seedBatch(t, db, med.ID, "B1", day(10), 10, "1.00")

	first, err := repo.FindByMedicineForUpdate(ctx, med.ID)
	require.NoError(t, err)
	stale, err := repo.FindByMedicineForUpdate(ctx, med.ID)
	require.NoError(t, err)

	require.NoError(t, first[0].Deduct(4))
	require.NoError(t, repo.Update(ctx, first[0]))

	require.NoError(t, stale[0].Deduct(4))
	err = repo.Update(ctx, stale[0])
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.QuantityInStock)
	assert.Equal(t, 2, stored.Version)
}

func TestGormBatchRepository_DeleteChecksVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()
	med := seedMedicine(t, db, "Paracetamol")
	seedBatch(t, db, med.ID, "B1", day(10), 5, "1.00")

	loaded, err := repo.FindByMedicineForUpdate(ctx, med.ID)
	require.NoError(t, err)
	stale, err := repo.FindByMedicineForUpdate(ctx, med.ID)
	require.NoError(t, err)

	require.NoError(t, loaded[0].Deduct(1))
	require.NoError(t, repo.Update(ctx, loaded[0]))

	require.NoError(t, stale[0].Deduct(5))
	assert.ErrorIs(t, repo.Delete(ctx, stale[0]), shared.ErrConcurrencyConflict)

	require.NoError(t, loaded[0].Deduct(4))
	require.NoError(t, repo.Delete(ctx, loaded[0]))

	remaining, err := repo.FindByMedicine(ctx, med.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestGormBatchRepository_StockLevels(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()
	a := seedMedicine(t, db, "A")
	b := seedMedicine(t, db, "B")

	seedBatch(t, db, a.ID, "A1", day(20), 3, "1.00")
	seedBatch(t, db, a.ID, "A2", day(5), 1, "1.00")
	seedBatch(t, db, b.ID, "B1", day(40), 50, "1.00")

	levels, err := repo.StockLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 2)

	byID := map[uuid.UUID]int{}
	for i, l := range levels {
		byID[l.MedicineID] = i
	}
	la := levels[byID[a.ID]]
	assert.Equal(t, 4, la.TotalQuantity)
	assert.Equal(t, 2, la.BatchCount)
	assert.True(t, la.NearestExpiry.Equal(day(5)))
	assert.True(t, la.IsLow())
	assert.False(t, levels[byID[b.ID]].IsLow())

	only, err := repo.StockLevels(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, 50, only[0].TotalQuantity)
}

func TestGormBatchRepository_FindExpiringBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	med := seedMedicine(t, db, "A")
	seedBatch(t, db, med.ID, "LATE", day(100), 1, "1.00")
	seedBatch(t, db, med.ID, "SOON", day(3), 1, "1.00")
	seedBatch(t, db, med.ID, "PAST", day(-2), 1, "1.00")

	got, err := repo.FindExpiringBefore(context.Background(), day(30))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "PAST", got[0].BatchNumber)
	assert.Equal(t, "SOON", got[1].BatchNumber)
}
