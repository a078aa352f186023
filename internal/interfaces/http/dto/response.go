package dto

import "net/http"

// Response is the envelope of every API response
type Response struct {
	Success bool       `json:"success"`
	Status  int        `json:"status"`
	Message string     `json:"message"`
	Data    any        `json:"data"`
	Error   *ErrorInfo `json:"error"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ValidationDetail is one rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewSuccessResponse wraps data in a successful envelope
func NewSuccessResponse(status int, message string, data any) Response {
	return Response{
		Success: true,
		Status:  status,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse creates an error envelope. The envelope message repeats the error message.
func NewErrorResponse(status int, code, message string) Response {
	return Response{
		Status:  status,
		Message: message,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewValidationErrorResponse creates a 400 envelope listing the rejected fields
func NewValidationErrorResponse(message string, details []ValidationDetail) Response {
	resp := NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, message)
	if len(details) > 0 {
		resp.Error.Details = details
	}
	return resp
}

// WithRequestID attaches the request ID to the error block
func (r Response) WithRequestID(id string) Response {
	if r.Error != nil && id != "" {
		r.Error.RequestID = id
	}
	return r
}
