package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	appinventory "github.com/pharmacy/backend/internal/application/inventory"
)

// maxExpiringDays bounds the expiring report window
const maxExpiringDays = 365

// InventoryHandler serves batch intake and stock reports
type InventoryHandler struct {
	BaseHandler
	inventory *appinventory.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(base BaseHandler, inventory *appinventory.InventoryService) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, inventory: inventory}
}

// Intake records a delivery. A new batch answers 201, a revised one 200.
func (h *InventoryHandler) Intake(c *gin.Context) {
	var req appinventory.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.inventory.Intake(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Created {
		h.Success(c, http.StatusCreated, "Inventory batch created", result.Batch)
		return
	}
	h.Success(c, http.StatusOK, "Inventory batch updated", result.Batch)
}

// List returns stock grouped by medicine
func (h *InventoryHandler) List(c *gin.Context) {
	groups, err := h.inventory.ListGrouped(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Inventory retrieved", groups)
}

// LowStock lists medicines at or below their reorder level
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.inventory.LowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Low stock items retrieved", items)
}

// Expiring lists batches expiring within ?days (default 30)
func (h *InventoryHandler) Expiring(c *gin.Context) {
	days := appinventory.DefaultExpiringWithinDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxExpiringDays {
			h.ValidationError(c, "days", "Must be a whole number between 1 and "+strconv.Itoa(maxExpiringDays))
			return
		}
		days = n
	}
	batches, err := h.inventory.Expiring(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Expiring batches retrieved", batches)
}
