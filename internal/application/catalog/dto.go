package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
)

// MedicineRequest is the body of medicine create and update
type MedicineRequest struct {
	Name                 string `json:"name" binding:"required,max=200"`
	GenericName          string `json:"genericName" binding:"max=200"`
	Manufacturer         string `json:"manufacturer" binding:"max=200"`
	Category             string `json:"category" binding:"max=100"`
	Form                 string `json:"form" binding:"max=50"`
	Strength             string `json:"strength" binding:"max=50"`
	Unit                 string `json:"unit" binding:"max=20"`
	PrescriptionRequired bool   `json:"prescriptionRequired"`
	Notes                string `json:"notes" binding:"max=2000"`
}

func (r MedicineRequest) details() catalog.MedicineDetails {
	return catalog.MedicineDetails{
		Name:                 r.Name,
		GenericName:          r.GenericName,
		Manufacturer:         r.Manufacturer,
		Category:             r.Category,
		Form:                 r.Form,
		Strength:             r.Strength,
		Unit:                 r.Unit,
		PrescriptionRequired: r.PrescriptionRequired,
		Notes:                r.Notes,
	}
}

// MedicineListFilter holds query parameters of the medicine list
type MedicineListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"orderBy"`
	OrderDir string `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// MedicineResponse is the API view of a medicine
type MedicineResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	GenericName          string    `json:"genericName"`
	Manufacturer         string    `json:"manufacturer"`
	Category             string    `json:"category"`
	Form                 string    `json:"form"`
	Strength             string    `json:"strength"`
	Unit                 string    `json:"unit"`
	PrescriptionRequired bool      `json:"prescriptionRequired"`
	Notes                string    `json:"notes"`
	Status               string    `json:"status"`
	Version              int       `json:"version"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// ToMedicineResponse converts a domain medicine
func ToMedicineResponse(m *catalog.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		GenericName:          m.GenericName,
		Manufacturer:         m.Manufacturer,
		Category:             m.Category,
		Form:                 m.Form,
		Strength:             m.Strength,
		Unit:                 m.Unit,
		PrescriptionRequired: m.PrescriptionRequired,
		Notes:                m.Notes,
		Status:               string(m.Status),
		Version:              m.Version,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
