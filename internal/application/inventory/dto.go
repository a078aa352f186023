package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CodeDuplicateBatch is returned when an intake repeats the stored quantity of an existing batch
const CodeDuplicateBatch = "DUPLICATE_BATCH"

var ErrDuplicateBatch = shared.NewDomainError(CodeDuplicateBatch, "Inventory already exists with the same quantity")

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// IntakeRequest is the body of POST /inventory. Nil fields are left unchanged on update
// and inherited from an earlier batch with the same number on create.
type IntakeRequest struct {
	MedicineID        uuid.UUID        `json:"medicineId" binding:"required"`
	BatchNumber       string           `json:"batchNumber" binding:"required,max=50"`
	ExpiryDate        string           `json:"expiryDate" binding:"required"`
	ManufactureDate   *string          `json:"manufactureDate"`
	MRP               *decimal.Decimal `json:"mrp"`
	PurchasePrice     *decimal.Decimal `json:"purchasePrice"`
	SellingPrice      *decimal.Decimal `json:"sellingPrice"`
	QuantityInStock   *int             `json:"quantityInStock" binding:"required,gte=0"`
	MinimumStockLevel *int             `json:"minimumStockLevel" binding:"omitempty,gte=0"`
	ShelfLocation     *string          `json:"shelfLocation" binding:"omitempty,max=50"`
}

type intakeDates struct {
	expiry      time.Time
	manufacture *time.Time
}

func (r IntakeRequest) dates() (intakeDates, error) {
	var out intakeDates
	expiry, err := parseDate(r.ExpiryDate)
	if err != nil {
		return out, sales.NewValidationError(sales.Violation{Field: "expiryDate", Message: "Expiry date must be YYYY-MM-DD"})
	}
	out.expiry = expiry
	if r.ManufactureDate != nil && strings.TrimSpace(*r.ManufactureDate) != "" {
		mfg, err := parseDate(*r.ManufactureDate)
		if err != nil {
			return out, sales.NewValidationError(sales.Violation{Field: "manufactureDate", Message: "Manufacture date must be YYYY-MM-DD"})
		}
		out.manufacture = &mfg
	}
	return out, nil
}

// merge overlays the request on base
func (r IntakeRequest) merge(base inventory.BatchAttributes, manufacture *time.Time) inventory.BatchAttributes {
	attrs := base
	if manufacture != nil {
		attrs.ManufactureDate = manufacture
	}
	if r.MRP != nil {
		attrs.MRP = *r.MRP
	}
	if r.PurchasePrice != nil {
		attrs.PurchasePrice = *r.PurchasePrice
	}
	if r.SellingPrice != nil {
		attrs.SellingPrice = *r.SellingPrice
	}
	if r.QuantityInStock != nil {
		attrs.QuantityInStock = *r.QuantityInStock
	}
	if r.MinimumStockLevel != nil {
		attrs.MinimumStockLevel = *r.MinimumStockLevel
	}
	if r.ShelfLocation != nil {
		attrs.ShelfLocation = *r.ShelfLocation
	}
	return attrs
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func attributesOf(b *inventory.Batch) inventory.BatchAttributes {
	return inventory.BatchAttributes{
		ManufactureDate:   b.ManufactureDate,
		MRP:               b.MRP,
		PurchasePrice:     b.PurchasePrice,
		SellingPrice:      b.SellingPrice,
		QuantityInStock:   b.QuantityInStock,
		MinimumStockLevel: b.MinimumStockLevel,
		ShelfLocation:     b.ShelfLocation,
	}
}

// BatchResponse is the API view of a batch
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	MedicineID        uuid.UUID       `json:"medicineId"`
	BatchNumber       string          `json:"batchNumber"`
	ManufactureDate   *time.Time      `json:"manufactureDate,omitempty"`
	ExpiryDate        time.Time       `json:"expiryDate"`
	MRP               decimal.Decimal `json:"mrp"`
	PurchasePrice     decimal.Decimal `json:"purchasePrice"`
	SellingPrice      decimal.Decimal `json:"sellingPrice"`
	QuantityInStock   int             `json:"quantityInStock"`
	MinimumStockLevel int             `json:"minimumStockLevel"`
	ShelfLocation     string          `json:"shelfLocation"`
	Expired           bool            `json:"expired"`
	BelowMinimum      bool            `json:"belowMinimum"`
	StockValue        decimal.Decimal `json:"stockValue"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ToBatchResponse converts a batch. now decides the expired flag.
func ToBatchResponse(b *inventory.Batch, now time.Time) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		MedicineID:        b.MedicineID,
		BatchNumber:       b.BatchNumber,
		ManufactureDate:   b.ManufactureDate,
		ExpiryDate:        b.ExpiryDate,
		MRP:               b.MRP,
		PurchasePrice:     b.PurchasePrice,
		SellingPrice:      b.SellingPrice,
		QuantityInStock:   b.QuantityInStock,
		MinimumStockLevel: b.MinimumStockLevel,
		ShelfLocation:     b.ShelfLocation,
		Expired:           b.IsExpired(inventory.DateOnly(now)),
		BelowMinimum:      b.IsBelowMinimum(),
		StockValue:        b.StockValue(),
		Version:           b.Version,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// IntakeResult reports whether the intake created a new batch
type IntakeResult struct {
	Batch   BatchResponse `json:"batch"`
	Created bool          `json:"created"`
}

// MedicineStock groups the batches of one medicine
type MedicineStock struct {
	MedicineID    uuid.UUID       `json:"medicineId"`
	MedicineName  string          `json:"medicineName"`
	TotalQuantity int             `json:"totalQuantity"`
	Batches       []BatchResponse `json:"batches"`
}

// LowStockItem is one medicine at or below its reorder level
type LowStockItem struct {
	MedicineID        uuid.UUID `json:"medicineId"`
	MedicineName      string    `json:"medicineName"`
	TotalQuantity     int       `json:"totalQuantity"`
	MinimumStockLevel int       `json:"minimumStockLevel"`
	BatchCount        int       `json:"batchCount"`
	NearestExpiry     time.Time `json:"nearestExpiry"`
}
