// Package errors provides the structured error taxonomy shared by the backend
// client and the workflows built on it.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeTransport: the connection could not be made or timed out.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeHTTPStatus: the backend answered with a non-2xx status.
	ErrCodeHTTPStatus ErrorCode = "HTTP_STATUS_ERROR"
	// ErrCodeConflict: HTTP 409, a menu already exists for the week.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeDecode: the response body did not match the expected schema.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
	// ErrCodeValidation: rejected on the caller side before any request.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeInternal: anything that did not come from the categories above.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured client error. Status and Body are set
// for HTTP status errors; Body is the verbatim response text.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Status    int                    `json:"status,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Err       error                  `json:"-"`
}

func (e *StandardError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: %s (status %d): %s", e.Code, e.Message, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
	case e.Details != "":
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *StandardError) Unwrap() error {
	return e.Err
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTransportError wraps a failure to reach the backend.
func NewTransportError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransport,
		Message:   fmt.Sprintf("%s: backend unreachable", op),
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewHTTPStatusError builds the error for a non-success response. A 409 is
// reported with ErrCodeConflict but keeps its status and body.
func NewHTTPStatusError(op string, status int, body string) *StandardError {
	code := ErrCodeHTTPStatus
	if status == http.StatusConflict {
		code = ErrCodeConflict
	}
	return &StandardError{
		Code:      code,
		Message:   fmt.Sprintf("%s failed", op),
		Status:    status,
		Body:      body,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecodeError wraps a response body that could not be parsed.
func NewDecodeError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecode,
		Message:   fmt.Sprintf("%s: unable to decode response", op),
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewValidationError creates a caller-side validation failure.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError normalizes an arbitrary error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "unexpected error",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard returns the first StandardError in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always returns a StandardError, wrapping unknown errors as internal.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the error code of err, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Status
	}
	return 0
}

// IsHTTPStatus reports whether err is a non-success response, conflicts included.
func IsHTTPStatus(err error) bool {
	return StatusCode(err) != 0
}

func IsConflict(err error) bool {
	return CodeOf(err) == ErrCodeConflict
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func IsTransport(err error) bool {
	return CodeOf(err) == ErrCodeTransport
}

func IsDecode(err error) bool {
	return CodeOf(err) == ErrCodeDecode
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// Category returns the coarse category of err for failure logs.
func Category(err error) string {
	return GetErrorCategory(CodeOf(err))
}

// GetErrorCategory maps a code to a coarse label.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeTransport:
		return "TRANSPORT"
	case ErrCodeHTTPStatus, ErrCodeConflict:
		return "BACKEND"
	case ErrCodeDecode:
		return "CONTRACT"
	case ErrCodeValidation:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
