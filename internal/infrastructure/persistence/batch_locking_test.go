package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockBatch(t *testing.T) *inventory.Batch {
	t.Helper()
	b, err := inventory.NewBatch(uuid.New(), "B1", time.Now().AddDate(0, 1, 0), inventory.BatchAttributes{
		SellingPrice:    decimal.NewFromInt(10),
		QuantityInStock: 10,
	})
	require.NoError(t, err)
	return b
}

func TestGormBatchRepository_FindByMedicineForUpdate_LocksRows(t *testing.T) {
	m := testutil.NewMockDB(t)
	defer m.Close()
	medicineID := uuid.New()

	m.Mock.ExpectQuery(`SELECT \* FROM "inventory_batches" WHERE medicine_id = \$1 ORDER BY expiry_date ASC.*FOR UPDATE`).
		WithArgs(medicineID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "medicine_id", "batch_number", "quantity_in_stock", "version"}).
			AddRow(uuid.New().String(), medicineID.String(), "B1", 4, 3))

	batches, err := NewGormBatchRepository(m.DB).FindByMedicineForUpdate(context.Background(), medicineID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 4, batches[0].QuantityInStock)
	assert.Equal(t, 3, batches[0].Version)
	m.ExpectationsWereMet(t)
}

func TestGormBatchRepository_FindByMedicineForUpdate_LockTimeoutIsConflict(t *testing.T) {
	m := testutil.NewMockDB(t)
	defer m.Close()

	m.Mock.ExpectQuery(`FOR UPDATE`).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "could not obtain lock"})

	_, err := NewGormBatchRepository(m.DB).FindByMedicineForUpdate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	m.ExpectationsWereMet(t)
}

func TestGormBatchRepository_Update_VersionGuard(t *testing.T) {
	b := mockBatch(t)
	require.NoError(t, b.Deduct(3))

	t.Run("stale version affects no rows", func(t *testing.T) {
		m := testutil.NewMockDB(t)
		defer m.Close()

		m.Mock.ExpectExec(`UPDATE "inventory_batches" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewGormBatchRepository(m.DB).Update(context.Background(), b)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		m.ExpectationsWereMet(t)
	})

	t.Run("serialization failure", func(t *testing.T) {
		m := testutil.NewMockDB(t)
		defer m.Close()

		m.Mock.ExpectExec(`UPDATE "inventory_batches" SET`).
			WillReturnError(&pgconn.PgError{Code: "40001"})

		err := NewGormBatchRepository(m.DB).Update(context.Background(), b)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		var pgErr *pgconn.PgError
		assert.True(t, errors.As(err, &pgErr), "original error stays reachable")
		m.ExpectationsWereMet(t)
	})

	t.Run("success", func(t *testing.T) {
		m := testutil.NewMockDB(t)
		defer m.Close()

		m.Mock.ExpectExec(`UPDATE "inventory_batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewGormBatchRepository(m.DB).Update(context.Background(), b))
		m.ExpectationsWereMet(t)
	})
}

func TestGormBatchRepository_Delete_VersionGuard(t *testing.T) {
	b := mockBatch(t)
	require.NoError(t, b.Deduct(10))

	m := testutil.NewMockDB(t)
	defer m.Close()

	m.Mock.ExpectExec(`DELETE FROM "inventory_batches" WHERE id = \$1 AND version = \$2`).
		WithArgs(b.ID, b.Version-1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGormBatchRepository(m.DB).Delete(context.Background(), b)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	m.ExpectationsWereMet(t)
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique", &pgconn.PgError{Code: "23505"}, true},
		{"fk violation", &pgconn.PgError{Code: "23503"}, false},
		{"domain conflict", shared.ErrConcurrencyConflict, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConflict(tt.err))
		})
	}
}
