package dto

import (
	"net/http"

	"github.com/invtrack/backend/internal/domain/shared"
)

// Error code constants exposed by the API
// Format: ERR_<CATEGORY>
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAccessDenied is used when the license gate rejects a tenant
	ErrCodeAccessDenied = "ERR_ACCESS_DENIED"
	// ErrCodePoolExhausted is used when no shard connection became free in time
	ErrCodePoolExhausted = "ERR_POOL_EXHAUSTED"
	// ErrCodeProvisioning is used when namespace provisioning fails
	ErrCodeProvisioning = "ERR_PROVISIONING"
	// ErrCodePersistence is used for storage failures
	ErrCodePersistence = "ERR_PERSISTENCE"
	// ErrCodeConfiguration is used for shard topology and pool setup failures
	ErrCodeConfiguration = "ERR_CONFIGURATION"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeAccessDenied: http.StatusForbidden,
	// The pool being saturated is a transient service condition, not a
	// client mistake.
	ErrCodePoolExhausted: http.StatusServiceUnavailable,
	ErrCodeProvisioning:  http.StatusInternalServerError,
	ErrCodePersistence:   http.StatusInternalServerError,
	ErrCodeConfiguration: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping translates domain error codes to API error codes
var domainErrorCodeMapping = map[string]string{
	shared.CodeNotFound:      ErrCodeNotFound,
	shared.CodeInvalidInput:  ErrCodeInvalidInput,
	shared.CodeAccessDenied:  ErrCodeAccessDenied,
	shared.CodePoolExhausted: ErrCodePoolExhausted,
	shared.CodeProvisioning:  ErrCodeProvisioning,
	shared.CodePersistence:   ErrCodePersistence,
	shared.CodeConfiguration: ErrCodeConfiguration,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes map to the internal error code rather than leaking through.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return ErrCodeInternal
}
