package models

import (
	"github.com/pharmacy/backend/internal/domain/catalog"
)

// MedicineModel is the persistence model for the Medicine aggregate root.
type MedicineModel struct {
	AggregateModel
	Name                 string `gorm:"type:varchar(200);not null;index"`
	GenericName          string `gorm:"type:varchar(200)"`
	Manufacturer         string `gorm:"type:varchar(200)"`
	Category             string `gorm:"type:varchar(100);index"`
	Form                 string `gorm:"type:varchar(50)"`
	Strength             string `gorm:"type:varchar(50)"`
	Unit                 string `gorm:"type:varchar(20)"`
	PrescriptionRequired bool   `gorm:"not null;default:false"`
	Notes                string `gorm:"type:text"`
	Status               string `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (MedicineModel) TableName() string {
	return "medicines"
}

// ToDomain converts the persistence model to a domain Medicine
func (m *MedicineModel) ToDomain() *catalog.Medicine {
	return &catalog.Medicine{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		Name:                 m.Name,
		GenericName:          m.GenericName,
		Manufacturer:         m.Manufacturer,
		Category:             m.Category,
		Form:                 m.Form,
		Strength:             m.Strength,
		Unit:                 m.Unit,
		PrescriptionRequired: m.PrescriptionRequired,
		Notes:                m.Notes,
		Status:               catalog.MedicineStatus(m.Status),
	}
}

// MedicineModelFromDomain creates a persistence model from a domain Medicine
func MedicineModelFromDomain(med *catalog.Medicine) *MedicineModel {
	m := &MedicineModel{
		Name:                 med.Name,
		GenericName:          med.GenericName,
		Manufacturer:         med.Manufacturer,
		Category:             med.Category,
		Form:                 med.Form,
		Strength:             med.Strength,
		Unit:                 med.Unit,
		PrescriptionRequired: med.PrescriptionRequired,
		Notes:                med.Notes,
		Status:               string(med.Status),
	}
	m.FromDomainAggregateRoot(med.BaseAggregateRoot)
	return m
}
