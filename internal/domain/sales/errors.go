package sales

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// Error codes of the sale settlement taxonomy
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeMedicineNotFound   = "MEDICINE_NOT_FOUND"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeSettlementConflict = "SETTLEMENT_CONFLICT"
	CodeRequestInProgress  = "REQUEST_IN_PROGRESS"
)

// Sentinels for errors.Is. The typed errors below match them by code.
var (
	ErrInvalidSale        = shared.NewDomainError(CodeValidation, "Sale request is invalid")
	ErrMedicineNotFound   = shared.NewDomainError(CodeMedicineNotFound, "Medicine not found")
	ErrSettlementConflict = shared.NewDomainError(CodeSettlementConflict, "Sale could not be settled because of a concurrent update, retry the request")
	ErrRequestInProgress  = shared.NewDomainError(CodeRequestInProgress, "A request with this idempotency key is still being processed")
)

// Violation is one rejected field of a sale request
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before any ledger is touched
type ValidationError struct {
	*shared.DomainError
	Violations []Violation
}

// NewValidationError builds a validation error from its violations
func NewValidationError(violations ...Violation) *ValidationError {
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.Message)
	}
	return &ValidationError{
		DomainError: shared.NewDomainError(CodeValidation, strings.Join(msgs, "; ")),
		Violations:  violations,
	}
}

func (e *ValidationError) Unwrap() error { return e.DomainError }

// MedicineNotFoundError names the medicine ID a sale line referenced
type MedicineNotFoundError struct {
	*shared.DomainError
	MedicineID uuid.UUID
}

// NewMedicineNotFoundError creates a MedicineNotFoundError
func NewMedicineNotFoundError(id uuid.UUID) *MedicineNotFoundError {
	return &MedicineNotFoundError{
		DomainError: shared.NewDomainError(CodeMedicineNotFound, fmt.Sprintf("Medicine with ID %s not found", id)),
		MedicineID:  id,
	}
}

func (e *MedicineNotFoundError) Unwrap() error { return e.DomainError }

// InsufficientStockError reports the medicine that could not be fully allocated
type InsufficientStockError struct {
	*shared.DomainError
	MedicineID   uuid.UUID
	MedicineName string
	Requested    int
	Available    int
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(medicineID uuid.UUID, name string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		DomainError: shared.NewDomainError(CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for medicine %s: requested %d, available %d", name, requested, available)),
		MedicineID:   medicineID,
		MedicineName: name,
		Requested:    requested,
		Available:    available,
	}
}

// Shortfall is the quantity that could not be allocated
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Unwrap() error { return e.DomainError }

// SettlementConflictError is a transient storage conflict. The whole sale may be retried.
type SettlementConflictError struct {
	*shared.DomainError
	Cause error
}

// NewSettlementConflictError wraps the storage error that aborted the settlement
func NewSettlementConflictError(cause error) *SettlementConflictError {
	return &SettlementConflictError{
		DomainError: ErrSettlementConflict,
		Cause:       cause,
	}
}

func (e *SettlementConflictError) Error() string {
	if e.Cause == nil {
		return e.DomainError.Error()
	}
	return fmt.Sprintf("%s: %v", e.DomainError.Message, e.Cause)
}

func (e *SettlementConflictError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.DomainError}
	}
	return []error{e.DomainError, e.Cause}
}
