package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appcustomer "github.com/pharmacy/backend/internal/application/customer"
)

// CustomerHandler serves customer lookups
type CustomerHandler struct {
	BaseHandler
	customers *appcustomer.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(base BaseHandler, customers *appcustomer.CustomerService) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, customers: customers}
}

// List returns a page of customers
func (h *CustomerHandler) List(c *gin.Context) {
	var filter appcustomer.CustomerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.customers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Customers retrieved", page)
}

// Get returns one customer
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Customer retrieved", customer)
}

// PurchaseHistory returns a customer with their invoices
func (h *CustomerHandler) PurchaseHistory(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	history, err := h.customers.PurchaseHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Purchase history retrieved", history)
}
