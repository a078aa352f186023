package sales

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleRequest_Validate(t *testing.T) {
	valid := SaleRequest{
		CustomerName:    "Asha",
		CustomerContact: "9876543210",
		Items:           []SaleItem{{MedicineID: uuid.New(), Quantity: 2}},
	}

	t.Run("accepts a valid request", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	tests := []struct {
		name  string
		req   SaleRequest
		field string
	}{
		{"empty items", SaleRequest{CustomerContact: "9876543210"}, "items"},
		{"zero quantity", SaleRequest{CustomerContact: "9876543210", Items: []SaleItem{{MedicineID: uuid.New(), Quantity: 0}}}, "items[0].quantity"},
		{"negative quantity", SaleRequest{CustomerContact: "9876543210", Items: []SaleItem{{MedicineID: uuid.New(), Quantity: -3}}}, "items[0].quantity"},
		{"missing medicine", SaleRequest{CustomerContact: "9876543210", Items: []SaleItem{{Quantity: 1}}}, "items[0].medicineId"},
		{"missing contact", SaleRequest{Items: []SaleItem{{MedicineID: uuid.New(), Quantity: 1}}}, "customerContact"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			fields := make([]string, 0, len(vErr.Violations))
			for _, v := range vErr.Violations {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tt.field)

			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, CodeValidation, domainErr.Code)
		})
	}
}

func TestSaleRequest_MedicineIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	req := SaleRequest{Items: []SaleItem{{MedicineID: a}, {MedicineID: b}, {MedicineID: a}}}
	assert.Equal(t, []uuid.UUID{a, b}, req.MedicineIDs())
}

func TestNewInvoice(t *testing.T) {
	soldBy := uuid.New()
	items := []LineItem{
		{MedicineID: uuid.New(), Quantity: 5, UnitPrice: decimal.NewFromInt(10), LineTotal: decimal.NewFromInt(50)},
		{MedicineID: uuid.New(), Quantity: 3, UnitPrice: decimal.NewFromInt(12), LineTotal: decimal.NewFromInt(34)},
	}

	t.Run("total is the sum of line totals", func(t *testing.T) {
		inv, err := NewInvoice("INV-1", soldBy, items)
		require.NoError(t, err)

		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(84)))
		assert.Equal(t, 8, inv.TotalQuantity())
		assert.Equal(t, 1, inv.Items[0].LineNo)
		assert.Equal(t, 2, inv.Items[1].LineNo)
		assert.Nil(t, inv.CustomerID)
	})

	t.Run("requires number and items", func(t *testing.T) {
		_, err := NewInvoice("", soldBy, items)
		assert.Error(t, err)
		_, err = NewInvoice("INV-1", soldBy, nil)
		assert.Error(t, err)
	})

	t.Run("completed event carries lines and customer", func(t *testing.T) {
		inv, err := NewInvoice("INV-2", soldBy, items)
		require.NoError(t, err)
		customerID := uuid.New()
		inv.LinkCustomer(customerID)

		ev := NewSaleCompletedEvent(inv)
		assert.Equal(t, EventTypeSaleCompleted, ev.EventType())
		assert.Equal(t, inv.ID, ev.AggregateID())
		assert.Equal(t, &customerID, ev.CustomerID)
		assert.Len(t, ev.Lines, 2)
	})
}

func TestSettlementErrors(t *testing.T) {
	medicineID := uuid.New()

	t.Run("medicine not found", func(t *testing.T) {
		err := fmt.Errorf("allocate: %w", NewMedicineNotFoundError(medicineID))

		var nf *MedicineNotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, medicineID, nf.MedicineID)
		assert.True(t, errors.Is(err, ErrMedicineNotFound))
	})

	t.Run("insufficient stock carries shortfall", func(t *testing.T) {
		err := NewInsufficientStockError(medicineID, "Paracetamol", 7, 5)
		assert.Equal(t, 2, err.Shortfall())
		assert.Contains(t, err.Error(), "Paracetamol")
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

		var domainErr *shared.DomainError
		require.True(t, errors.As(error(err), &domainErr))
		assert.Equal(t, CodeInsufficientStock, domainErr.Code)
	})

	t.Run("settlement conflict keeps cause", func(t *testing.T) {
		cause := errors.New("deadlock detected")
		err := NewSettlementConflictError(cause)

		assert.True(t, errors.Is(err, ErrSettlementConflict))
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "deadlock detected")
	})
}
