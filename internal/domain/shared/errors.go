package shared

import "fmt"

// Error codes used across the service. The HTTP layer maps these to status
// codes; everything below the interface layer deals in codes only.
const (
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeProvisioning  = "PROVISIONING_ERROR"
	CodePersistence   = "PERSISTENCE_ERROR"
	CodeAccessDenied  = "ACCESS_DENIED"
	CodePoolExhausted = "POOL_EXHAUSTED"
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidInput  = "INVALID_INPUT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches on error code so that errors.Is(err, shared.ErrNotFound) works
// for any DomainError carrying the same code, regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapDomainError attaches a cause to a new domain error so the storage-level
// failure stays inspectable via errors.Unwrap while callers match on the code.
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput  = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConfiguration = NewDomainError(CodeConfiguration, "Invalid configuration")
	ErrProvisioning  = NewDomainError(CodeProvisioning, "Namespace provisioning failed")
	ErrPersistence   = NewDomainError(CodePersistence, "Storage operation failed")
	ErrAccessDenied  = NewDomainError(CodeAccessDenied, "Access denied")
	ErrPoolExhausted = NewDomainError(CodePoolExhausted, "Connection pool exhausted")
)
