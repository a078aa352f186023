package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	appsales "github.com/pharmacy/backend/internal/application/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Idempotency headers of POST /sales
const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLength  = 255
)

// SalesHandler serves sale settlement and invoice queries
type SalesHandler struct {
	BaseHandler
	settlement *appsales.SettlementService
	query      *appsales.QueryService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(base BaseHandler, settlement *appsales.SettlementService, query *appsales.QueryService) *SalesHandler {
	return &SalesHandler{BaseHandler: base, settlement: settlement, query: query}
}

// Create settles a sale and answers 201 with the invoice. A request repeating an
// Idempotency-Key that already succeeded answers 200 with the original invoice.
func (h *SalesHandler) Create(c *gin.Context) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.ValidationError(c, IdempotencyKeyHeader, "Must be at most 255 characters")
		return
	}

	var req appsales.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	invoice, replayed, err := h.settlement.CreateSaleIdempotent(ctx, key, middleware.GetJWTUserID(c), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.query.GetInvoice(ctx, invoice.InvoiceNumber)
	if err != nil {
		// the sale is committed; answer with what settlement returned
		logger.L(ctx).Warn("failed to reload settled invoice",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err),
		)
		fallback := appsales.ToInvoiceResponse(invoice, nil)
		resp = &fallback
	}

	if replayed {
		c.Header(IdempotentReplayedHeader, "true")
		h.Success(c, http.StatusOK, "Sale already completed", resp)
		return
	}
	h.Success(c, http.StatusCreated, "Sale completed", resp)
}

// List returns invoices grouped by calendar month, newest month first
func (h *SalesHandler) List(c *gin.Context) {
	months, err := h.query.MonthlySales(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Sales retrieved", months)
}

// Get returns one invoice by its number
func (h *SalesHandler) Get(c *gin.Context) {
	number := c.Param("invoiceNumber")
	invoice, err := h.query.GetInvoice(c.Request.Context(), number)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			err = shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice "+number+" not found")
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Invoice retrieved", invoice)
}
