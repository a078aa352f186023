package dto

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// Error codes returned in the error block of the envelope
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRouteNotFound   = "ERR_ROUTE_NOT_FOUND"
	ErrCodeUnavailable     = "ERR_SERVICE_UNAVAILABLE"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenMissing = "ERR_TOKEN_MISSING"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeAccountDeactivated = "ERR_ACCOUNT_DEACTIVATED"
	ErrCodeUserNotFound       = "ERR_USER_NOT_FOUND"
	ErrCodeUsernameTaken      = "ERR_USERNAME_TAKEN"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"

	ErrCodeMedicineNotFound   = "ERR_MEDICINE_NOT_FOUND"
	ErrCodeCustomerNotFound   = "ERR_CUSTOMER_NOT_FOUND"
	ErrCodeInsufficientStock  = "ERR_INSUFFICIENT_STOCK"
	ErrCodeSettlementConflict = "ERR_SETTLEMENT_CONFLICT"
	ErrCodeRequestInProgress  = "ERR_REQUEST_IN_PROGRESS"
	ErrCodeDuplicateBatch     = "ERR_DUPLICATE_BATCH"
	ErrCodeAlreadyActive      = "ERR_ALREADY_ACTIVE"
	ErrCodeAlreadyInactive    = "ERR_ALREADY_INACTIVE"
)

// InternalErrorMessage replaces the detail of server errors in production
const InternalErrorMessage = "Internal server error"

// ErrorCodeHTTPStatus maps envelope codes to HTTP status
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRouteNotFound:   http.StatusNotFound,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenMissing: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountDeactivated: http.StatusForbidden,
	ErrCodeUserNotFound:       http.StatusNotFound,
	ErrCodeUsernameTaken:      http.StatusConflict,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeMedicineNotFound:   http.StatusNotFound,
	ErrCodeCustomerNotFound:   http.StatusNotFound,
	ErrCodeInsufficientStock:  http.StatusBadRequest,
	ErrCodeSettlementConflict: http.StatusConflict,
	ErrCodeRequestInProgress:  http.StatusConflict,
	ErrCodeDuplicateBatch:     http.StatusBadRequest,
	ErrCodeAlreadyActive:      http.StatusUnprocessableEntity,
	ErrCodeAlreadyInactive:    http.StatusUnprocessableEntity,
}

// domainCodeMapping covers domain codes whose envelope code is not simply prefixed
var domainCodeMapping = map[string]string{
	sales.CodeValidation: ErrCodeValidation,
	"INTERNAL_ERROR":     ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to its envelope code
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeInternal
	}
	if mapped, ok := domainCodeMapping[code]; ok {
		return mapped
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}

// GetHTTPStatus returns the status of an envelope code. Unlisted ERR_INVALID_* codes are
// client errors and unlisted *_NOT_FOUND codes are 404. Anything else is a rule violation.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "ERR_INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

// FromError builds the error envelope of err. Errors outside the domain taxonomy are 500s;
// in production their message is replaced so storage detail never reaches the client.
func FromError(err error, production bool) Response {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		message := InternalErrorMessage
		if !production && err != nil {
			message = err.Error()
		}
		return NewErrorResponse(http.StatusInternalServerError, ErrCodeInternal, message)
	}

	code := NormalizeErrorCode(domainErr.Code)
	status := GetHTTPStatus(code)
	resp := NewErrorResponse(status, code, domainErr.Message)
	if status >= http.StatusInternalServerError && production {
		resp.Message = InternalErrorMessage
		resp.Error.Message = InternalErrorMessage
		return resp
	}
	if details := errorDetails(err); details != nil {
		resp.Error.Details = details
	}
	return resp
}

// InsufficientStockDetail names the line that could not be fully allocated
type InsufficientStockDetail struct {
	MedicineID   string `json:"medicineId"`
	MedicineName string `json:"medicineName"`
	Requested    int    `json:"requested"`
	Available    int    `json:"available"`
	Shortfall    int    `json:"shortfall"`
}

func errorDetails(err error) any {
	var validationErr *sales.ValidationError
	if errors.As(err, &validationErr) {
		details := make([]ValidationDetail, len(validationErr.Violations))
		for i, v := range validationErr.Violations {
			details[i] = ValidationDetail{Field: v.Field, Message: v.Message}
		}
		return details
	}

	var stockErr *sales.InsufficientStockError
	if errors.As(err, &stockErr) {
		return InsufficientStockDetail{
			MedicineID:   stockErr.MedicineID.String(),
			MedicineName: stockErr.MedicineName,
			Requested:    stockErr.Requested,
			Available:    stockErr.Available,
			Shortfall:    stockErr.Shortfall(),
		}
	}

	var notFoundErr *sales.MedicineNotFoundError
	if errors.As(err, &notFoundErr) {
		return map[string]string{"medicineId": notFoundErr.MedicineID.String()}
	}
	return nil
}
