package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcustomer "github.com/pharmacy/backend/internal/application/customer"
	appsales "github.com/pharmacy/backend/internal/application/sales"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/customer"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/infrastructure/cache"
	"github.com/pharmacy/backend/internal/infrastructure/idgen"
	"github.com/pharmacy/backend/internal/infrastructure/persistence"
	"github.com/pharmacy/backend/internal/infrastructure/strategy/batch"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
	"github.com/pharmacy/backend/internal/interfaces/http/handler"
	"github.com/pharmacy/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withID(id string) func(t *testing.T, tc *testutil.TestContext) {
	return func(t *testing.T, tc *testutil.TestContext) {
		tc.Context.Params = gin.Params{{Key: "id", Value: id}}
	}
}

func dependencies(t *testing.T, tc *testutil.TestContext) map[string]any {
	t.Helper()
	resp := testutil.JSONResponse(t, tc)
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "expected data object")
	deps, ok := data["dependencies"].(map[string]any)
	require.True(t, ok, "expected dependencies object")
	return deps
}

func TestHealthHandler(t *testing.T) {
	up := handler.HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	down := handler.HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	t.Run("healthy", func(t *testing.T) {
		h := handler.NewHealthHandler(handler.BaseHandler{}, "1.2.3", up)
		testutil.RunHTTPTestCase(t, h.Health, testutil.HTTPTestCase{
			Path:           "/health",
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   map[string]any{"success": true},
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				testutil.AssertSuccessResponse(t, tc)
				assert.Equal(t, "up", dependencies(t, tc)["database"])
			},
		})
	})

	t.Run("degraded hides error detail in production", func(t *testing.T) {
		h := handler.NewHealthHandler(handler.BaseHandler{Production: true}, "1.2.3", up, down)
		testutil.RunHTTPTestCase(t, h.Health, testutil.HTTPTestCase{
			Path:           "/health",
			ExpectedStatus: http.StatusServiceUnavailable,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				testutil.AssertErrorResponse(t, tc, dto.ErrCodeUnavailable)
				deps := dependencies(t, tc)
				assert.Equal(t, "up", deps["database"])
				assert.Equal(t, "down", deps["redis"])
			},
		})
	})

	t.Run("degraded shows error detail in development", func(t *testing.T) {
		h := handler.NewHealthHandler(handler.BaseHandler{}, "1.2.3", down)
		testutil.RunHTTPTestCase(t, h.Health, testutil.HTTPTestCase{
			Path:           "/health",
			ExpectedStatus: http.StatusServiceUnavailable,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				assert.Equal(t, "down: dial tcp: refused", dependencies(t, tc)["redis"])
			},
		})
	})
}

func TestCustomerHandler_Get(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	customers := persistence.NewGormCustomerRepository(db)
	svc := appcustomer.NewCustomerService(customers, persistence.NewGormInvoiceRepository(db))
	h := handler.NewCustomerHandler(handler.BaseHandler{}, svc)

	existing, err := customer.NewCustomer("CUST-0001", "9000000001", "Ravi")
	require.NoError(t, err)
	require.NoError(t, customers.Save(context.Background(), existing))

	testutil.RunHTTPTestCases(t, h.Get, []testutil.HTTPTestCase{
		{
			Name:           "malformed id",
			Setup:          withID("not-a-uuid"),
			ExpectedStatus: http.StatusBadRequest,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				testutil.AssertErrorResponse(t, tc, dto.ErrCodeValidation)
			},
		},
		{
			Name:           "unknown customer",
			Setup:          withID(uuid.NewString()),
			ExpectedStatus: http.StatusNotFound,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				testutil.AssertErrorResponse(t, tc, dto.ErrCodeCustomerNotFound)
			},
		},
		{
			Name:           "found",
			Setup:          withID(existing.ID.String()),
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				resp := testutil.JSONResponseAs[dto.Response](t, tc)
				data, ok := resp.Data.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "Ravi", data["name"])
				assert.Equal(t, "9000000001", data["contact"])
			},
		},
	})
}

func TestSalesHandler_Create(t *testing.T) {
	db := testutil.NewMigratedSQLiteDB(t)
	ctx := context.Background()
	medicines := persistence.NewGormMedicineRepository(db)
	batches := persistence.NewGormBatchRepository(db)
	invoices := persistence.NewGormInvoiceRepository(db)
	customers := persistence.NewGormCustomerRepository(db)

	numbers, err := idgen.NewInvoiceNumbers(1)
	require.NoError(t, err)
	settlement := appsales.NewSettlementService(
		persistence.NewGormTransactionScope(db),
		appsales.NewAllocator(batch.NewFEFOBatchStrategy(), false),
		numbers,
		idgen.NewCustomerCodes(),
		appsales.DefaultSettlementConfig(),
		nil,
	)
	store := cache.NewInMemoryReplayStore()
	t.Cleanup(func() { _ = store.Close() })
	settlement.SetReplayStore(store, invoices)
	h := handler.NewSalesHandler(handler.BaseHandler{}, settlement, appsales.NewQueryService(invoices, customers))

	med, err := catalog.NewMedicine(catalog.MedicineDetails{Name: "Paracetamol"})
	require.NoError(t, err)
	require.NoError(t, medicines.Save(ctx, med))
	b, err := inventory.NewBatch(med.ID, "PCM-1", time.Now().AddDate(0, 6, 0), inventory.BatchAttributes{
		SellingPrice:    decimal.NewFromInt(5),
		QuantityInStock: 10,
	})
	require.NoError(t, err)
	require.NoError(t, batches.Create(ctx, b))

	operator := testutil.TestUserID()
	asOperator := func(key string) func(t *testing.T, tc *testutil.TestContext) {
		return func(t *testing.T, tc *testutil.TestContext) {
			tc.SetUserID(operator.String())
			if key != "" {
				tc.SetHeader(handler.IdempotencyKeyHeader, key)
			}
		}
	}
	body := map[string]any{
		"customerName":    "Meera",
		"customerContact": "9123456780",
		"items":           []map[string]any{{"medicineId": med.ID.String(), "quantity": 3}},
	}

	var firstNumber string
	testutil.RunHTTPTestCases(t, h.Create, []testutil.HTTPTestCase{
		{
			Name:           "first sale creates the customer",
			Method:         http.MethodPost,
			Path:           "/sales",
			Body:           body,
			Setup:          asOperator("order-1"),
			ExpectedStatus: http.StatusCreated,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				resp := testutil.JSONResponse(t, tc)
				data := resp["data"].(map[string]any)
				firstNumber, _ = data["invoiceNumber"].(string)
				assert.NotEmpty(t, firstNumber)
				assert.Equal(t, operator.String(), data["soldBy"])
				assert.Equal(t, "Meera", data["customerName"])
				assert.Empty(t, tc.Recorder.Header().Get(handler.IdempotentReplayedHeader))
			},
		},
		{
			Name:           "same key replays",
			Method:         http.MethodPost,
			Path:           "/sales",
			Body:           body,
			Setup:          asOperator("order-1"),
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				assert.Equal(t, "true", tc.Recorder.Header().Get(handler.IdempotentReplayedHeader))
				data := testutil.JSONResponse(t, tc)["data"].(map[string]any)
				assert.Equal(t, firstNumber, data["invoiceNumber"])
			},
		},
		{
			Name:   "shortfall",
			Method: http.MethodPost,
			Path:   "/sales",
			Body: map[string]any{
				"customerContact": "9123456780",
				"items":           []map[string]any{{"medicineId": med.ID.String(), "quantity": 50}},
			},
			Setup: asOperator(""),
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				assert.Equal(t, http.StatusBadRequest, tc.ResponseCode())
				testutil.AssertErrorResponse(t, tc, dto.ErrCodeInsufficientStock)
			},
		},
	})

	stored, err := customers.FindByContact(ctx, "9123456780")
	require.NoError(t, err)
	assert.Len(t, stored.InvoiceIDs, 1)
}
