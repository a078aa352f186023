package sales

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/customer"
)

// SaleItem is one requested (medicine, quantity) pair
type SaleItem struct {
	MedicineID uuid.UUID
	Quantity   int
}

// SaleRequest is the transient input of a settlement
type SaleRequest struct {
	CustomerName    string
	CustomerContact string
	Items           []SaleItem
}

// Validate checks the request shape. It never touches storage.
func (r SaleRequest) Validate() error {
	var violations []Violation

	if len(r.Items) == 0 {
		violations = append(violations, Violation{Field: "items", Message: "No items in the sale"})
	}
	for i, item := range r.Items {
		if item.MedicineID == uuid.Nil {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("items[%d].medicineId", i),
				Message: fmt.Sprintf("Item %d has no medicine", i+1),
			})
		}
		if item.Quantity <= 0 {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: fmt.Sprintf("Item %d quantity must be a positive integer", i+1),
			})
		}
	}
	if err := customer.ValidateContact(customer.NormalizeContact(r.CustomerContact)); err != nil {
		violations = append(violations, Violation{Field: "customerContact", Message: err.Error()})
	}

	if len(violations) > 0 {
		return NewValidationError(violations...)
	}
	return nil
}

// MedicineIDs returns the distinct medicine IDs in request order
func (r SaleRequest) MedicineIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(r.Items))
	ids := make([]uuid.UUID, 0, len(r.Items))
	for _, item := range r.Items {
		if _, ok := seen[item.MedicineID]; ok {
			continue
		}
		seen[item.MedicineID] = struct{}{}
		ids = append(ids, item.MedicineID)
	}
	return ids
}
