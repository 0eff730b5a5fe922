package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsCode reports whether err is an AppError carrying the given code,
// at any level of the wrap chain.
func IsCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeSchemaError        = "SCHEMA_ERROR"
	CodeGenerationError    = "GENERATION_ERROR"
	CodeValidationRejected = "VALIDATION_REJECTED"
	CodeTransportError     = "TRANSPORT_ERROR"
	CodeQuotaExhausted     = "QUOTA_EXHAUSTED"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// SchemaError marks a candidate that is missing required fields or names
// an unknown category. Such candidates are dropped, never coerced.
func SchemaError(message string) *AppError {
	return New(CodeSchemaError, message)
}

// GenerationError marks a malformed or unparseable response from the
// text-generation service.
func GenerationError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeGenerationError,
		Message: message,
		Cause:   cause,
	}
}

// ValidationRejected marks a candidate rejected by a plausibility stage.
func ValidationRejected(stage, reason string) *AppError {
	return New(CodeValidationRejected, fmt.Sprintf("rejected at %s: %s", stage, reason))
}

// TransportError marks an I/O failure talking to an external collaborator.
func TransportError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeTransportError,
		Message: fmt.Sprintf("%s transport error", service),
		Cause:   cause,
	}
}

// QuotaExhausted aborts the whole run; only this and setup errors do.
func QuotaExhausted(message string) *AppError {
	return New(CodeQuotaExhausted, message)
}

// InvariantViolation marks corrupted per-unit state. Fatal for the unit,
// never silently continued.
func InvariantViolation(message string) *AppError {
	return New(CodeInvariantViolation, message)
}
