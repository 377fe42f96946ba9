package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithDetails creates a domain error carrying a structured payload,
// e.g. line-level budget flags or field-level validation failures
func NewDomainErrorWithDetails(code, message string, details map[string]any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// BlockedActionError is a domain error raised by a financial control
// (period gating, cutover, segregation of duties). Callers audit these as
// BLOCKED before propagating them.
type BlockedActionError struct {
	DomainError
	RuleCode string `json:"rule_code,omitempty"`
}

// NewBlockedActionError creates a control-failure error with an optional rule code
func NewBlockedActionError(code, message, ruleCode string) *BlockedActionError {
	return &BlockedActionError{
		DomainError: DomainError{Code: code, Message: message},
		RuleCode:    ruleCode,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrWorkflowCorrupted   = NewDomainError("WORKFLOW_CORRUPTED", "Workflow state is internally inconsistent")
)
