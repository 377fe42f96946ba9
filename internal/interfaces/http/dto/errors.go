package dto

import (
	"net/http"
	"time"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// Idempotency error codes
const (
	// ErrCodeIdempotencyKeyMissing is used when a mutating request lacks an Idempotency-Key
	ErrCodeIdempotencyKeyMissing = "ERR_IDEMPOTENCY_KEY_MISSING"
	// ErrCodeIdempotencyConflict is used when a key is replayed with a different payload
	ErrCodeIdempotencyConflict = "ERR_IDEMPOTENCY_CONFLICT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Domain codes raised by the posting engine map alongside the generic
// transport codes so handlers can translate any error in one lookup.
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,

	// Idempotency
	ErrCodeIdempotencyKeyMissing: http.StatusBadRequest,
	ErrCodeIdempotencyConflict:   http.StatusConflict,

	// Journal validation failures -> 400 Bad Request
	"UNBALANCED_JOURNAL":   http.StatusBadRequest,
	"INVALID_LINE":         http.StatusBadRequest,
	"MIN_LINES":            http.StatusBadRequest,
	"ACCOUNT_INACTIVE":     http.StatusBadRequest,
	"ACCOUNT_NOT_POSTABLE": http.StatusBadRequest,
	"MISSING_DIMENSION":    http.StatusBadRequest,
	"INVALID_JOURNAL_DATE": http.StatusBadRequest,
	"INVALID_JOURNAL_TYPE": http.StatusBadRequest,
	"INVALID_USER":         http.StatusBadRequest,
	"INVALID_PERIOD_CODE":  http.StatusBadRequest,
	"INVALID_PERIOD_TYPE":  http.StatusBadRequest,
	"INVALID_PERIOD_SPAN":  http.StatusBadRequest,

	// Financial control denials -> 403 Forbidden
	"NO_PERIOD":         http.StatusForbidden,
	"PERIOD_CLOSED":     http.StatusForbidden,
	"CUTOVER_VIOLATION": http.StatusForbidden,
	"SOD_VIOLATION":     http.StatusForbidden,

	// Budget block -> 409 Conflict
	"BUDGET_BLOCKED": http.StatusConflict,

	// Override without justification -> 422 Unprocessable Entity
	"JUSTIFICATION_REQUIRED": http.StatusUnprocessableEntity,
	"OPENING_ACCOUNT_TYPE":   http.StatusUnprocessableEntity,

	// Workflow conflicts -> 409 Conflict
	"ALREADY_POSTED":           http.StatusConflict,
	"REVERSAL_EXISTS":          http.StatusConflict,
	"PERIOD_OVERLAP":           http.StatusConflict,
	"CHECKLIST_INCOMPLETE":     http.StatusConflict,
	"PERIOD_HAS_OPEN_JOURNALS": http.StatusConflict,
	"PERIOD_ORDER":             http.StatusConflict,

	// Reversal dimension gaps -> 422 Unprocessable Entity
	"REVERSAL_DIMENSION_GAP": http.StatusUnprocessableEntity,

	// State machine violations -> 422 Unprocessable Entity
	"INVALID_STATE": http.StatusUnprocessableEntity,

	// Persisted state contradicts the transition table -> 500 with a
	// distinct code so operators can tell corruption from bad requests
	"WORKFLOW_CORRUPTED": http.StatusInternalServerError,

	// Generic domain codes
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"INVALID_INPUT":        http.StatusBadRequest,
	"UNAUTHORIZED":         http.StatusUnauthorized,
	"FORBIDDEN":            http.StatusForbidden,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ValidationDetail describes a single field-level validation failure
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewErrorResponseWithRequestID creates an error response carrying the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now(),
		},
	}
}

// NewErrorResponseWithHelp creates an error response with a documentation link
func NewErrorResponseWithHelp(code, message, requestID, help string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Help:      help,
			Timestamp: time.Now(),
		},
	}
}

// NewDomainErrorResponse creates an error response carrying structured details
// from a domain error (e.g. line-level budget impacts or the SoD rule code)
func NewDomainErrorResponse(code, message, requestID string, details map[string]any) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Details:   details,
			Timestamp: time.Now(),
		},
	}
}

// NewValidationErrorResponse creates a 400 response with field-level details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:       ErrCodeValidation,
			Message:    message,
			RequestID:  requestID,
			Validation: details,
			Timestamp:  time.Now(),
		},
	}
}
