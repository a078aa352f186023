package customer

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// Gender of a customer
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// IsValid reports whether g is empty or a known value
func (g Gender) IsValid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

var contactPattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// Customer is identified by contact number and keeps an append-only list of invoice references
type Customer struct {
	shared.BaseAggregateRoot
	Code           string
	Name           string
	Contact        string
	Email          string
	DateOfBirth    *time.Time
	Gender         Gender
	Address        string
	MedicalHistory []string
	InvoiceIDs     []uuid.UUID

	persisted        bool
	persistedVersion int
	// loaded is the number of invoice references already stored
	loaded int
}

// NewCustomer creates a customer with no purchase history
func NewCustomer(code, contact, name string) (*Customer, error) {
	contact = NormalizeContact(contact)
	if err := ValidateContact(contact); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              strings.TrimSpace(name),
		Contact:           contact,
		MedicalHistory:    []string{},
		InvoiceIDs:        []uuid.UUID{},
	}, nil
}

// Restore marks the customer and its invoice references as stored. Used by repositories when loading.
func (c *Customer) Restore(invoiceIDs []uuid.UUID) {
	if invoiceIDs == nil {
		invoiceIDs = []uuid.UUID{}
	}
	c.InvoiceIDs = invoiceIDs
	c.loaded = len(invoiceIDs)
	c.persisted = true
	c.persistedVersion = c.Version
}

// AppendInvoice records a new purchase at the end of the history
func (c *Customer) AppendInvoice(invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if slices.Contains(c.InvoiceIDs, invoiceID) {
		return shared.NewDomainError("DUPLICATE_INVOICE", "Invoice is already linked to this customer")
	}
	c.InvoiceIDs = append(c.InvoiceIDs, invoiceID)
	if c.persisted && c.Version == c.persistedVersion {
		c.IncrementVersion()
	}
	return nil
}

// PendingInvoices returns the invoice references appended since the customer was loaded,
// together with the 1-based position of the first one.
func (c *Customer) PendingInvoices() (firstPosition int, ids []uuid.UUID) {
	return c.loaded + 1, c.InvoiceIDs[c.loaded:]
}

// MarkPersisted records that the customer and every invoice reference have been stored
func (c *Customer) MarkPersisted() {
	c.loaded = len(c.InvoiceIDs)
	c.persisted = true
	c.persistedVersion = c.Version
}

// IsNew returns true for a customer that has never been saved
func (c *Customer) IsNew() bool {
	return !c.persisted
}

// PersistedVersion is the version the stored row is expected to have
func (c *Customer) PersistedVersion() int {
	return c.persistedVersion
}

// NormalizeContact strips spaces and dashes from a phone number
func NormalizeContact(contact string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return r.Replace(strings.TrimSpace(contact))
}

// ValidateContact checks the phone number format
func ValidateContact(contact string) error {
	if contact == "" {
		return shared.NewDomainError("INVALID_CONTACT", "Customer contact is required")
	}
	if !contactPattern.MatchString(contact) {
		return shared.NewDomainError("INVALID_CONTACT", contact+" is not a valid mobile number")
	}
	return nil
}
