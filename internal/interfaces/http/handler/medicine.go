package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appcatalog "github.com/pharmacy/backend/internal/application/catalog"
	appinventory "github.com/pharmacy/backend/internal/application/inventory"
)

// MedicineHandler serves the medicine catalog
type MedicineHandler struct {
	BaseHandler
	medicines *appcatalog.MedicineService
	inventory *appinventory.InventoryService
}

// NewMedicineHandler creates a new MedicineHandler
func NewMedicineHandler(base BaseHandler, medicines *appcatalog.MedicineService, inventory *appinventory.InventoryService) *MedicineHandler {
	return &MedicineHandler{BaseHandler: base, medicines: medicines, inventory: inventory}
}

// Create adds a medicine to the catalog
func (h *MedicineHandler) Create(c *gin.Context) {
	var req appcatalog.MedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	medicine, err := h.medicines.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Medicine created", medicine)
}

// List returns a page of medicines
func (h *MedicineHandler) List(c *gin.Context) {
	var filter appcatalog.MedicineListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.medicines.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Medicines retrieved", page)
}

// Get returns one medicine
func (h *MedicineHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	medicine, err := h.medicines.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Medicine retrieved", medicine)
}

// Update replaces the descriptive fields of a medicine
func (h *MedicineHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.MedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	medicine, err := h.medicines.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Medicine updated", medicine)
}

// Activate puts a medicine back on sale
func (h *MedicineHandler) Activate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	medicine, err := h.medicines.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Medicine activated", medicine)
}

// Deactivate withdraws a medicine from sale
func (h *MedicineHandler) Deactivate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	medicine, err := h.medicines.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Medicine deactivated", medicine)
}

// Batches lists the stock batches of a medicine
func (h *MedicineHandler) Batches(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	stock, err := h.inventory.MedicineBatches(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Medicine batches retrieved", stock)
}
