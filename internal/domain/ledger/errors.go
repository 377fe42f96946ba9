package ledger

// Stable domain error codes surfaced to the HTTP layer and written into the
// audit trail. Codes never change once released; clients key remediation
// guidance off them.
const (
	ErrCodeUnbalanced           = "UNBALANCED_JOURNAL"
	ErrCodeInvalidLine          = "INVALID_LINE"
	ErrCodeMinLines             = "MIN_LINES"
	ErrCodeAccountInactive      = "ACCOUNT_INACTIVE"
	ErrCodeAccountNotPostable   = "ACCOUNT_NOT_POSTABLE"
	ErrCodeMissingDimension     = "MISSING_DIMENSION"
	ErrCodeNoPeriod             = "NO_PERIOD"
	ErrCodePeriodClosed         = "PERIOD_CLOSED"
	ErrCodeCutoverViolation     = "CUTOVER_VIOLATION"
	ErrCodeSoDViolation         = "SOD_VIOLATION"
	ErrCodeBudgetBlocked        = "BUDGET_BLOCKED"
	ErrCodeJustificationNeeded  = "JUSTIFICATION_REQUIRED"
	ErrCodeAlreadyPosted        = "ALREADY_POSTED"
	ErrCodeReversalExists       = "REVERSAL_EXISTS"
	ErrCodeReversalDimensionGap = "REVERSAL_DIMENSION_GAP"
	ErrCodeOpeningAccountType   = "OPENING_ACCOUNT_TYPE"
	ErrCodeChecklistIncomplete  = "CHECKLIST_INCOMPLETE"
	ErrCodePeriodHasOpenDrafts  = "PERIOD_HAS_OPEN_JOURNALS"
	ErrCodePeriodOrder          = "PERIOD_ORDER"
)
