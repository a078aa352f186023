package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewSQLiteDB(t)
}

func day(offset int) time.Time {
	return inventory.DateOnly(time.Now().AddDate(0, 0, offset))
}

func seedMedicine(t *testing.T, db *gorm.DB, name string) *catalog.Medicine {
	t.Helper()
	m, err := catalog.NewMedicine(catalog.MedicineDetails{Name: name, Category: "tablet", Form: "tablet", Strength: "500mg", Unit: "strip"})
	require.NoError(t, err)
	require.NoError(t, NewGormMedicineRepository(db).Save(context.Background(), m))
	return m
}

func seedBatch(t *testing.T, db *gorm.DB, medicineID uuid.UUID, number string, expiry time.Time, qty int, price string) *inventory.Batch {
	t.Helper()
	b, err := inventory.NewBatch(medicineID, number, expiry, inventory.BatchAttributes{
		SellingPrice:      decimal.RequireFromString(price),
		MRP:               decimal.RequireFromString(price),
		PurchasePrice:     decimal.RequireFromString(price),
		QuantityInStock:   qty,
		MinimumStockLevel: 5,
	})
	require.NoError(t, err)
	require.NoError(t, NewGormBatchRepository(db).Create(context.Background(), b))
	return b
}

func seedBatchValue(t *testing.T, medicineID uuid.UUID, number string, expiry time.Time) *inventory.Batch {
	t.Helper()
	b, err := inventory.NewBatch(medicineID, number, expiry, inventory.BatchAttributes{QuantityInStock: 1})
	require.NoError(t, err)
	return b
}
