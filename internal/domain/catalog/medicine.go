package catalog

import (
	"strings"

	"github.com/pharmacy/backend/internal/domain/shared"
)

// MedicineStatus represents the catalog status of a medicine
type MedicineStatus string

const (
	MedicineStatusActive   MedicineStatus = "active"
	MedicineStatusInactive MedicineStatus = "inactive"
)

// IsValid reports whether the status is a known value
func (s MedicineStatus) IsValid() bool {
	return s == MedicineStatusActive || s == MedicineStatusInactive
}

// Medicine is a catalog entry. Inventory batches and invoice lines reference it by ID.
type Medicine struct {
	shared.BaseAggregateRoot
	Name                 string
	GenericName          string
	Manufacturer         string
	Category             string
	Form                 string
	Strength             string
	Unit                 string
	PrescriptionRequired bool
	Notes                string
	Status               MedicineStatus
}

// MedicineDetails holds the editable descriptive attributes of a medicine
type MedicineDetails struct {
	Name                 string
	GenericName          string
	Manufacturer         string
	Category             string
	Form                 string
	Strength             string
	Unit                 string
	PrescriptionRequired bool
	Notes                string
}

// NewMedicine creates an active medicine
func NewMedicine(details MedicineDetails) (*Medicine, error) {
	m := &Medicine{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            MedicineStatusActive,
	}
	if err := m.apply(details); err != nil {
		return nil, err
	}
	return m, nil
}

// Update replaces the descriptive attributes of the medicine
func (m *Medicine) Update(details MedicineDetails) error {
	if err := m.apply(details); err != nil {
		return err
	}
	m.IncrementVersion()
	return nil
}

// Activate makes the medicine available in the catalog again
func (m *Medicine) Activate() error {
	if m.Status == MedicineStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Medicine is already active")
	}
	m.Status = MedicineStatusActive
	m.IncrementVersion()
	return nil
}

// Deactivate hides the medicine from the active catalog
func (m *Medicine) Deactivate() error {
	if m.Status == MedicineStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Medicine is already inactive")
	}
	m.Status = MedicineStatusInactive
	m.IncrementVersion()
	return nil
}

// IsActive returns true if the medicine is active
func (m *Medicine) IsActive() bool {
	return m.Status == MedicineStatusActive
}

func (m *Medicine) apply(d MedicineDetails) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Medicine name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Medicine name cannot exceed 200 characters")
	}

	m.Name = name
	m.GenericName = strings.TrimSpace(d.GenericName)
	m.Manufacturer = strings.TrimSpace(d.Manufacturer)
	m.Category = strings.TrimSpace(d.Category)
	m.Form = strings.TrimSpace(d.Form)
	m.Strength = strings.TrimSpace(d.Strength)
	m.Unit = strings.TrimSpace(d.Unit)
	m.PrescriptionRequired = d.PrescriptionRequired
	m.Notes = strings.TrimSpace(d.Notes)
	return nil
}
