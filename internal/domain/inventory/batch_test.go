package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch(t *testing.T, qty int) *Batch {
	t.Helper()
	b, err := NewBatch(uuid.New(), "B-001", time.Now().AddDate(1, 0, 0), BatchAttributes{
		SellingPrice:      decimal.NewFromInt(10),
		MRP:               decimal.NewFromInt(12),
		PurchasePrice:     decimal.NewFromInt(7),
		QuantityInStock:   qty,
		MinimumStockLevel: 3,
	})
	require.NoError(t, err)
	return b
}

func TestNewBatch(t *testing.T) {
	medicineID := uuid.New()
	expiry := time.Now().AddDate(0, 6, 0)

	t.Run("creates batch", func(t *testing.T) {
		b, err := NewBatch(medicineID, " LOT-9 ", expiry, BatchAttributes{QuantityInStock: 10, SellingPrice: decimal.NewFromInt(5)})
		require.NoError(t, err)
		assert.Equal(t, "LOT-9", b.BatchNumber)
		assert.Equal(t, 10, b.QuantityInStock)
		assert.Equal(t, 1, b.GetVersion())
	})

	t.Run("requires batch number", func(t *testing.T) {
		_, err := NewBatch(medicineID, "", expiry, BatchAttributes{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Batch number is required")
	})

	t.Run("requires expiry date", func(t *testing.T) {
		_, err := NewBatch(medicineID, "B", time.Time{}, BatchAttributes{})
		require.Error(t, err)
	})

	t.Run("rejects negative quantity and prices", func(t *testing.T) {
		_, err := NewBatch(medicineID, "B", expiry, BatchAttributes{QuantityInStock: -1})
		require.Error(t, err)

		_, err = NewBatch(medicineID, "B", expiry, BatchAttributes{SellingPrice: decimal.NewFromInt(-1)})
		require.Error(t, err)
	})

	t.Run("rejects manufacture after expiry", func(t *testing.T) {
		late := expiry.AddDate(0, 1, 0)
		_, err := NewBatch(medicineID, "B", expiry, BatchAttributes{ManufactureDate: &late})
		require.Error(t, err)
	})
}

func TestBatch_Deduct(t *testing.T) {
	t.Run("decrements and bumps version", func(t *testing.T) {
		b := newTestBatch(t, 10)
		require.NoError(t, b.Deduct(4))
		assert.Equal(t, 6, b.QuantityInStock)
		assert.Equal(t, 2, b.GetVersion())
		assert.False(t, b.IsExhausted())
	})

	t.Run("equal quantity exhausts the batch", func(t *testing.T) {
		b := newTestBatch(t, 5)
		require.NoError(t, b.Deduct(5))
		assert.True(t, b.IsExhausted())
	})

	t.Run("never goes negative", func(t *testing.T) {
		b := newTestBatch(t, 5)
		err := b.Deduct(6)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 5, b.QuantityInStock)
		assert.Equal(t, 1, b.GetVersion())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		b := newTestBatch(t, 5)
		assert.Error(t, b.Deduct(0))
		assert.Error(t, b.Deduct(-2))
	})
}

func TestBatch_ExpiryAndThresholds(t *testing.T) {
	now := time.Now()
	b := newTestBatch(t, 3)
	b.ExpiryDate = now.AddDate(0, 0, 10)

	assert.False(t, b.IsExpired(now))
	assert.True(t, b.IsExpired(now.AddDate(0, 0, 11)))
	assert.True(t, b.IsBelowMinimum())
	assert.True(t, b.StockValue().Equal(decimal.NewFromInt(30)))
}

func TestStockLevel_IsLow(t *testing.T) {
	assert.True(t, StockLevel{TotalQuantity: 5, MinimumStockLevel: 5}.IsLow())
	assert.False(t, StockLevel{TotalQuantity: 6, MinimumStockLevel: 5}.IsLow())
}
