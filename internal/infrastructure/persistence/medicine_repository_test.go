package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormMedicineRepository_SaveUpdateFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMedicineRepository(db)
	ctx := context.Background()

	m := seedMedicine(t, db, "Paracetamol")
	require.NoError(t, m.Deactivate())
	require.NoError(t, repo.Save(ctx, m))

	got, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.MedicineStatusInactive, got.Status)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormMedicineRepository_FindByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMedicineRepository(db)
	a := seedMedicine(t, db, "A")
	b := seedMedicine(t, db, "B")

	got, err := repo.FindByIDs(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGormMedicineRepository_FindAllFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMedicineRepository(db)
	ctx := context.Background()

	seedMedicine(t, db, "Paracetamol")
	seedMedicine(t, db, "Amoxicillin")
	inactive := seedMedicine(t, db, "Aspirin")
	require.NoError(t, inactive.Deactivate())
	require.NoError(t, repo.Save(ctx, inactive))

	filter := shared.DefaultFilter()
	filter.Search = "AMOX"
	found, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Amoxicillin", found[0].Name)

	filter = shared.DefaultFilter()
	filter.Filters["status"] = string(catalog.MedicineStatusActive)
	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	filter = shared.DefaultFilter()
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	filter.PageSize = 2
	page, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Amoxicillin", page[0].Name)
	assert.Equal(t, "Aspirin", page[1].Name)
}
