package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appsales "github.com/pharmacy/backend/internal/application/sales"
	"github.com/pharmacy/backend/internal/domain/customer"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) Create(ctx context.Context, inv *sales.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *mockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*sales.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]sales.Invoice, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]sales.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindAll(ctx context.Context) ([]sales.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Invoice), args.Error(1)
}

type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *mockCustomerRepository) FindByContact(ctx context.Context, contact string) (*customer.Customer, error) {
	args := m.Called(ctx, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *mockCustomerRepository) FindByInvoiceIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]customer.Customer, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]customer.Customer), args.Error(1)
}

func (m *mockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]customer.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *mockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func invoiceAt(t *testing.T, number string, at time.Time, amount int64) sales.Invoice {
	t.Helper()
	inv, err := sales.NewInvoice(number, uuid.New(), []sales.LineItem{{
		MedicineID:   uuid.New(),
		MedicineName: "M",
		Quantity:     1,
		UnitPrice:    decimal.NewFromInt(amount),
		LineTotal:    decimal.NewFromInt(amount),
	}})
	require.NoError(t, err)
	inv.CreatedAt = at
	return *inv
}

func TestQueryService_MonthlySales(t *testing.T) {
	invoices := new(mockInvoiceRepository)
	customers := new(mockCustomerRepository)
	svc := appsales.NewQueryService(invoices, customers)
	ctx := context.Background()

	// newest first, as the repository returns them
	march2 := invoiceAt(t, "INV-4", time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC), 30)
	march1 := invoiceAt(t, "INV-3", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), 20)
	feb := invoiceAt(t, "INV-2", time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC), 5)
	dec := invoiceAt(t, "INV-1", time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC), 7)
	all := []sales.Invoice{march2, march1, feb, dec}

	buyer, err := customer.NewCustomer("CUST-1", "9876543210", "Ravi")
	require.NoError(t, err)
	march2.LinkCustomer(buyer.ID)

	invoices.On("FindAll", ctx).Return(all, nil)
	customers.On("FindByInvoiceIDs", ctx, []uuid.UUID{march2.ID, march1.ID, feb.ID, dec.ID}).
		Return(map[uuid.UUID]customer.Customer{march2.ID: *buyer}, nil)

	groups, err := svc.MonthlySales(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, 2026, groups[0].Year)
	assert.Equal(t, 3, groups[0].Month)
	assert.True(t, decimal.NewFromInt(50).Equal(groups[0].TotalTransaction))
	require.Len(t, groups[0].Sales, 2)
	assert.Equal(t, "INV-4", groups[0].Sales[0].InvoiceNumber)
	assert.Equal(t, "Ravi", groups[0].Sales[0].CustomerName)
	assert.Equal(t, "9876543210", groups[0].Sales[0].CustomerContact)
	assert.Equal(t, appsales.NotAvailable, groups[0].Sales[1].CustomerName)
	assert.Equal(t, appsales.NotAvailable, groups[0].Sales[1].CustomerContact)

	assert.Equal(t, 2, groups[1].Month)
	assert.Equal(t, 2025, groups[2].Year)
	assert.Equal(t, 12, groups[2].Month)
	assert.True(t, decimal.NewFromInt(7).Equal(groups[2].TotalTransaction))

	invoices.AssertExpectations(t)
	customers.AssertExpectations(t)
}

func TestQueryService_MonthlySalesEmpty(t *testing.T) {
	invoices := new(mockInvoiceRepository)
	customers := new(mockCustomerRepository)
	svc := appsales.NewQueryService(invoices, customers)
	ctx := context.Background()

	invoices.On("FindAll", ctx).Return([]sales.Invoice{}, nil)
	customers.On("FindByInvoiceIDs", ctx, []uuid.UUID{}).Return(map[uuid.UUID]customer.Customer{}, nil)

	groups, err := svc.MonthlySales(ctx)
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestQueryService_MonthlySalesStorageError(t *testing.T) {
	invoices := new(mockInvoiceRepository)
	svc := appsales.NewQueryService(invoices, new(mockCustomerRepository))
	boom := errors.New("connection reset")
	invoices.On("FindAll", mock.Anything).Return(nil, boom)

	_, err := svc.MonthlySales(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestQueryService_GetInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("without customer", func(t *testing.T) {
		invoices := new(mockInvoiceRepository)
		customers := new(mockCustomerRepository)
		svc := appsales.NewQueryService(invoices, customers)
		inv := invoiceAt(t, "INV-9", time.Now(), 12)
		invoices.On("FindByNumber", ctx, "INV-9").Return(&inv, nil)

		resp, err := svc.GetInvoice(ctx, "INV-9")
		require.NoError(t, err)
		assert.Equal(t, appsales.NotAvailable, resp.CustomerName)
		assert.Equal(t, 1, resp.TotalQuantity)
		assert.Empty(t, resp.Items[0].Batches)
		assert.NotNil(t, resp.Items[0].Batches)
		customers.AssertNotCalled(t, "FindByInvoiceIDs", mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		invoices := new(mockInvoiceRepository)
		svc := appsales.NewQueryService(invoices, new(mockCustomerRepository))
		invoices.On("FindByNumber", ctx, "INV-0").Return(nil, shared.ErrNotFound)

		_, err := svc.GetInvoice(ctx, "INV-0")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
