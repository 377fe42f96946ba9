package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openledger/backend/internal/domain/shared"
)

// JournalType classifies a journal entry
type JournalType string

const (
	JournalTypeStandard  JournalType = "STANDARD"
	JournalTypeAdjusting JournalType = "ADJUSTING"
	JournalTypeAccrual   JournalType = "ACCRUAL"
	JournalTypeReversing JournalType = "REVERSING"
)

// IsValid checks if the journal type is valid
func (t JournalType) IsValid() bool {
	switch t {
	case JournalTypeStandard, JournalTypeAdjusting, JournalTypeAccrual, JournalTypeReversing:
		return true
	}
	return false
}

// String returns the string representation
func (t JournalType) String() string {
	return string(t)
}

// JournalStatus represents the workflow state of a journal entry
type JournalStatus string

const (
	JournalStatusDraft     JournalStatus = "DRAFT"
	JournalStatusSubmitted JournalStatus = "SUBMITTED"
	JournalStatusReviewed  JournalStatus = "REVIEWED"
	JournalStatusRejected  JournalStatus = "REJECTED"
	JournalStatusParked    JournalStatus = "PARKED"
	JournalStatusPosted    JournalStatus = "POSTED"
)

// IsValid checks if the status is valid
func (s JournalStatus) IsValid() bool {
	switch s {
	case JournalStatusDraft, JournalStatusSubmitted, JournalStatusReviewed,
		JournalStatusRejected, JournalStatusParked, JournalStatusPosted:
		return true
	}
	return false
}

// IsEditable returns true if lines and header may still be changed
func (s JournalStatus) IsEditable() bool {
	return s == JournalStatusDraft || s == JournalStatusRejected
}

// String returns the string representation
func (s JournalStatus) String() string {
	return string(s)
}

// JournalAction names a lifecycle transition. The same action names are used
// by the segregation-of-duties policy and the audit trail.
type JournalAction string

const (
	ActionSubmit         JournalAction = "GL_JOURNAL_SUBMIT"
	ActionReview         JournalAction = "GL_JOURNAL_REVIEW"
	ActionReject         JournalAction = "GL_JOURNAL_REJECT"
	ActionReturnToReview JournalAction = "GL_JOURNAL_RETURN_TO_REVIEW"
	ActionPost           JournalAction = "GL_JOURNAL_POST"
	ActionPark           JournalAction = "GL_JOURNAL_PARK"
	ActionReverse        JournalAction = "GL_JOURNAL_REVERSE"
)

// transitionTable is the closed set of legal (from-state, action) -> to-state
// triples. Any transition not listed here is rejected before business rules run.
var transitionTable = map[JournalStatus]map[JournalAction]JournalStatus{
	JournalStatusDraft: {
		ActionSubmit: JournalStatusSubmitted,
		ActionPark:   JournalStatusParked,
	},
	JournalStatusRejected: {
		ActionSubmit: JournalStatusSubmitted,
	},
	JournalStatusSubmitted: {
		ActionReview: JournalStatusReviewed,
		ActionReject: JournalStatusRejected,
	},
	JournalStatusReviewed: {
		ActionPost:           JournalStatusPosted,
		ActionReturnToReview: JournalStatusSubmitted,
	},
	JournalStatusPosted: {
		ActionReverse: JournalStatusPosted, // reversal creates a new journal, original stays POSTED
	},
}

// NextStatus resolves the target state for an action from the given state.
// Returns false if the transition is not in the table.
func NextStatus(from JournalStatus, action JournalAction) (JournalStatus, bool) {
	actions, ok := transitionTable[from]
	if !ok {
		return "", false
	}
	to, ok := actions[action]
	return to, ok
}

// BudgetStatus classifies the budget impact of a journal or a single line
type BudgetStatus string

const (
	BudgetStatusOK    BudgetStatus = "OK"
	BudgetStatusWarn  BudgetStatus = "WARN"
	BudgetStatusBlock BudgetStatus = "BLOCK"
)

// IsValid checks if the budget status is valid
func (s BudgetStatus) IsValid() bool {
	return s == BudgetStatusOK || s == BudgetStatusWarn || s == BudgetStatusBlock
}

// Severity orders budget statuses: BLOCK > WARN > OK
func (s BudgetStatus) Severity() int {
	switch s {
	case BudgetStatusBlock:
		return 2
	case BudgetStatusWarn:
		return 1
	default:
		return 0
	}
}

// WorstBudgetStatus returns the more severe of two statuses
func WorstBudgetStatus(a, b BudgetStatus) BudgetStatus {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// JournalLine is owned exclusively by one JournalEntry. While the entry is
// editable the whole line set is replaced on update and cascade-deleted with
// the entry.
type JournalLine struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	JournalEntryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber     int             `gorm:"not null"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	LegalEntityID  *uuid.UUID      `gorm:"type:uuid;index"`
	DepartmentID   *uuid.UUID      `gorm:"type:uuid;index"`
	ProjectID      *uuid.UUID      `gorm:"type:uuid;index"`
	FundID         *uuid.UUID      `gorm:"type:uuid;index"`
	Debit          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Credit         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description    string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (JournalLine) TableName() string {
	return "journal_lines"
}

// Amount returns the line magnitude, max(debit, credit)
func (l *JournalLine) Amount() decimal.Decimal {
	if l.Debit.GreaterThan(l.Credit) {
		return l.Debit
	}
	return l.Credit
}

// IsDebit returns true if the line carries a debit amount
func (l *JournalLine) IsDebit() bool {
	return l.Debit.IsPositive()
}

// validate enforces the per-line XOR rule: exactly one of debit/credit
// must be positive, neither may be negative
func (l *JournalLine) validate() error {
	if l.AccountID == uuid.Nil {
		return shared.NewDomainError(ErrCodeInvalidLine, fmt.Sprintf("Line %d: account is required", l.LineNumber))
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return shared.NewDomainError(ErrCodeInvalidLine, fmt.Sprintf("Line %d: amounts cannot be negative", l.LineNumber))
	}
	if l.Debit.IsPositive() == l.Credit.IsPositive() {
		return shared.NewDomainError(ErrCodeInvalidLine, fmt.Sprintf("Line %d: exactly one of debit or credit must be positive", l.LineNumber))
	}
	return nil
}

// StringList is persisted as a JSON array (risk and budget flag sets)
type StringList []string

// Contains reports whether the list holds the given value
func (s StringList) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// JournalEntry is the tenant-scoped aggregate root of the posting workflow
type JournalEntry struct {
	shared.TenantAggregateRoot
	JournalNumber *int64        `gorm:"uniqueIndex:idx_journal_tenant_number,priority:2"`
	JournalDate   time.Time     `gorm:"type:date;not null;index"`
	Type          JournalType   `gorm:"type:varchar(20);not null"`
	Reference     string        `gorm:"type:varchar(100)"`
	Description   string        `gorm:"type:varchar(1000)"`
	Status        JournalStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`

	CreatedByID uuid.UUID `gorm:"type:uuid;not null;index"`

	SubmittedByID *uuid.UUID `gorm:"type:uuid"`
	SubmittedAt   *time.Time

	ReviewedByID *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt   *time.Time

	RejectedByID    *uuid.UUID `gorm:"type:uuid"`
	RejectedAt      *time.Time
	RejectionReason string     `gorm:"type:varchar(500)"`

	PostedByID *uuid.UUID `gorm:"type:uuid"`
	PostedAt   *time.Time

	ReturnedByPosterID *uuid.UUID `gorm:"type:uuid"`
	ReturnedAt         *time.Time
	ReturnReason       string     `gorm:"type:varchar(500)"`

	ReversalOfID          *uuid.UUID `gorm:"type:uuid;index"`
	ReversalInitiatedByID *uuid.UUID `gorm:"type:uuid"`
	ReversalInitiatedAt   *time.Time

	CorrectsJournalID *uuid.UUID `gorm:"type:uuid;index"`

	PeriodID *uuid.UUID `gorm:"type:uuid;index"`

	RiskScore      int        `gorm:"not null;default:0"`
	RiskFlags      StringList `gorm:"serializer:json"`
	RiskComputedAt *time.Time

	BudgetStatus                BudgetStatus `gorm:"type:varchar(10)"`
	BudgetFlags                 StringList   `gorm:"serializer:json"`
	BudgetCheckedAt             *time.Time
	BudgetOverrideJustification string       `gorm:"type:varchar(1000)"`

	Lines []JournalLine `gorm:"foreignKey:JournalEntryID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// NewJournalEntry creates a journal entry in DRAFT with the given lines.
// Line numbers are assigned in order starting from 1.
func NewJournalEntry(
	tenantID uuid.UUID,
	createdBy uuid.UUID,
	journalType JournalType,
	journalDate time.Time,
	reference string,
	description string,
	lines []JournalLine,
) (*JournalEntry, error) {
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Creating user ID is required")
	}
	if !journalType.IsValid() {
		return nil, shared.NewDomainError("INVALID_JOURNAL_TYPE", fmt.Sprintf("Journal type %q is not valid", journalType))
	}
	if journalDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_JOURNAL_DATE", "Journal date is required")
	}

	je := &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		JournalDate:         journalDate,
		Type:                journalType,
		Reference:           reference,
		Description:         description,
		Status:              JournalStatusDraft,
		CreatedByID:         createdBy,
		RiskFlags:           StringList{},
		BudgetFlags:         StringList{},
	}
	if err := je.setLines(lines); err != nil {
		return nil, err
	}

	je.AddDomainEvent(NewJournalCreatedEvent(je))

	return je, nil
}

// setLines validates and attaches a full replacement line set
func (je *JournalEntry) setLines(lines []JournalLine) error {
	if len(lines) < 2 {
		return shared.NewDomainError(ErrCodeMinLines, "A journal entry requires at least 2 lines")
	}
	attached := make([]JournalLine, 0, len(lines))
	for i, line := range lines {
		line.LineNumber = i + 1
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.JournalEntryID = je.ID
		if err := line.validate(); err != nil {
			return err
		}
		attached = append(attached, line)
	}
	je.Lines = attached
	return nil
}

// TotalDebit returns the sum of all debit amounts
func (je *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range je.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit returns the sum of all credit amounts
func (je *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range je.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// AssertBalanced verifies sum(debit) == sum(credit) at 2 decimal places and > 0
func (je *JournalEntry) AssertBalanced() error {
	debit := je.TotalDebit().Round(2)
	credit := je.TotalCredit().Round(2)
	if !debit.Equal(credit) {
		return shared.NewDomainErrorWithDetails(ErrCodeUnbalanced,
			"Journal debits and credits do not balance",
			map[string]any{"total_debit": debit.String(), "total_credit": credit.String()})
	}
	if !debit.IsPositive() {
		return shared.NewDomainError(ErrCodeUnbalanced, "Journal total must be greater than zero")
	}
	return nil
}

// IsReversal returns true for REVERSING-type entries
func (je *JournalEntry) IsReversal() bool {
	return je.Type == JournalTypeReversing
}

// guardTransition rejects any action not present in the transition table for
// the entry's current state. This runs before any business rule.
func (je *JournalEntry) guardTransition(action JournalAction) (JournalStatus, error) {
	to, ok := NextStatus(je.Status, action)
	if !ok {
		return "", shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Action %s is not allowed while journal is %s", action, je.Status))
	}
	return to, nil
}

// UpdateDraft replaces the header and all lines of an editable entry. Only the
// creator may update; rejection metadata is cleared so the entry returns to a
// clean editable state. Reversal entries accept header-only edits, their line
// contents are immutable.
func (je *JournalEntry) UpdateDraft(actorID uuid.UUID, journalDate time.Time, reference, description string, lines []JournalLine) error {
	if !je.Status.IsEditable() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot update journal in %s status", je.Status))
	}
	if actorID != je.CreatedByID {
		return shared.NewBlockedActionError(ErrCodeSoDViolation,
			"Only the creator may edit a draft journal", RuleCreatorOnlyEdit)
	}
	if journalDate.IsZero() {
		return shared.NewDomainError("INVALID_JOURNAL_DATE", "Journal date is required")
	}

	je.JournalDate = journalDate
	je.Reference = reference
	je.Description = description

	if !je.IsReversal() {
		if err := je.setLines(lines); err != nil {
			return err
		}
	}

	// returning to a clean editable state clears the rejection stamp only;
	// history before it is append-only and stays in the audit trail
	if je.Status == JournalStatusRejected {
		je.RejectedByID = nil
		je.RejectedAt = nil
		je.RejectionReason = ""
		je.Status = JournalStatusDraft
	}

	je.UpdatedAt = time.Now()
	je.IncrementVersion()
	return nil
}

// SetBudgetOverrideJustification records the preparer's justification for
// proceeding past a budget WARN
func (je *JournalEntry) SetBudgetOverrideJustification(actorID uuid.UUID, justification string) error {
	if !je.Status.IsEditable() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot set justification while journal is %s", je.Status))
	}
	if actorID != je.CreatedByID {
		return shared.NewBlockedActionError(ErrCodeSoDViolation,
			"Only the creator may justify a budget exception", RuleCreatorOnlyEdit)
	}
	je.BudgetOverrideJustification = justification
	je.UpdatedAt = time.Now()
	return nil
}

// Submit moves DRAFT or REJECTED to SUBMITTED. Balance must hold; prior
// review/rejection stamps are cleared so reviewers see a clean submission.
func (je *JournalEntry) Submit(actorID uuid.UUID) error {
	to, err := je.guardTransition(ActionSubmit)
	if err != nil {
		return err
	}
	if actorID != je.CreatedByID {
		return shared.NewBlockedActionError(ErrCodeSoDViolation,
			"Only the creator may submit a journal", RuleCreatorOnlySubmit)
	}
	if err := je.AssertBalanced(); err != nil {
		return err
	}

	now := time.Now()
	je.Status = to
	je.SubmittedByID = &actorID
	je.SubmittedAt = &now
	je.ReviewedByID = nil
	je.ReviewedAt = nil
	je.RejectedByID = nil
	je.RejectedAt = nil
	je.RejectionReason = ""
	je.ReturnedByPosterID = nil
	je.ReturnedAt = nil
	je.ReturnReason = ""
	je.UpdatedAt = now
	je.IncrementVersion()

	je.AddDomainEvent(NewJournalSubmittedEvent(je, actorID))

	return nil
}

// Review moves SUBMITTED to REVIEWED
func (je *JournalEntry) Review(actorID uuid.UUID) error {
	to, err := je.guardTransition(ActionReview)
	if err != nil {
		return err
	}
	if je.SubmittedByID == nil || je.SubmittedAt == nil {
		return shared.NewDomainError("WORKFLOW_CORRUPTED",
			"Submitted journal is missing submission metadata")
	}

	now := time.Now()
	je.Status = to
	je.ReviewedByID = &actorID
	je.ReviewedAt = &now
	je.UpdatedAt = now
	je.IncrementVersion()

	je.AddDomainEvent(NewJournalReviewedEvent(je, actorID))

	return nil
}

// Reject moves SUBMITTED to REJECTED with a mandatory reason. Submission
// metadata is kept; only forward-looking review fields are cleared.
func (je *JournalEntry) Reject(actorID uuid.UUID, reason string) error {
	to, err := je.guardTransition(ActionReject)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Rejection reason is required")
	}

	now := time.Now()
	je.Status = to
	je.RejectedByID = &actorID
	je.RejectedAt = &now
	je.RejectionReason = reason
	je.ReviewedByID = nil
	je.ReviewedAt = nil
	je.UpdatedAt = now
	je.IncrementVersion()

	je.AddDomainEvent(NewJournalRejectedEvent(je, actorID, reason))

	return nil
}

// ReturnToReview moves REVIEWED back to SUBMITTED, stamping the returning
// poster's identity and reason
func (je *JournalEntry) ReturnToReview(actorID uuid.UUID, reason string) error {
	to, err := je.guardTransition(ActionReturnToReview)
	if err != nil {
		return err
	}
	if len(reason) < 3 {
		return shared.NewDomainError("INVALID_INPUT", "Return reason must be at least 3 characters")
	}

	now := time.Now()
	je.Status = to
	je.ReturnedByPosterID = &actorID
	je.ReturnedAt = &now
	je.ReturnReason = reason
	je.ReviewedByID = nil
	je.ReviewedAt = nil
	je.UpdatedAt = now
	je.IncrementVersion()

	je.AddDomainEvent(NewJournalReturnedEvent(je, actorID, reason))

	return nil
}

// Post moves REVIEWED to POSTED, assigning the journal number and period
// exactly once. The caller allocates the number inside the same transaction
// that persists this state change.
func (je *JournalEntry) Post(actorID uuid.UUID, journalNumber int64, periodID uuid.UUID) error {
	to, err := je.guardTransition(ActionPost)
	if err != nil {
		if je.Status == JournalStatusPosted {
			return shared.NewDomainError(ErrCodeAlreadyPosted, "Journal has already been posted")
		}
		return err
	}
	if je.ReviewedByID == nil || je.ReviewedAt == nil {
		return shared.NewDomainError("WORKFLOW_CORRUPTED",
			"Reviewed journal is missing review metadata")
	}
	if je.JournalNumber != nil {
		return shared.NewDomainError("WORKFLOW_CORRUPTED",
			"Journal already carries a number but is not posted")
	}
	if journalNumber <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Journal number must be positive")
	}
	if err := je.AssertBalanced(); err != nil {
		return err
	}

	now := time.Now()
	je.Status = to
	je.JournalNumber = &journalNumber
	je.PeriodID = &periodID
	je.PostedByID = &actorID
	je.PostedAt = &now
	je.UpdatedAt = now
	je.IncrementVersion()

	je.AddDomainEvent(NewJournalPostedEvent(je, actorID))

	return nil
}

// Park moves a balanced DRAFT to the PARKED dead-end state
func (je *JournalEntry) Park(actorID uuid.UUID) error {
	to, err := je.guardTransition(ActionPark)
	if err != nil {
		return err
	}
	if actorID != je.CreatedByID {
		return shared.NewBlockedActionError(ErrCodeSoDViolation,
			"Only the creator may park a journal", RuleCreatorOnlyPark)
	}
	if err := je.AssertBalanced(); err != nil {
		return err
	}

	now := time.Now()
	je.Status = to
	je.UpdatedAt = now
	je.IncrementVersion()

	je.AddDomainEvent(NewJournalParkedEvent(je, actorID))

	return nil
}

// BuildReversal constructs a new DRAFT journal of type REVERSING with
// debit/credit mirrored and all dimensions preserved. The new entry is owned
// by the original preparer so its later review and posting stay independent
// of the reversal initiator.
func (je *JournalEntry) BuildReversal(initiatorID uuid.UUID, reversalDate time.Time, reference, description string) (*JournalEntry, error) {
	if _, err := je.guardTransition(ActionReverse); err != nil {
		return nil, err
	}
	if je.PostedAt == nil || je.JournalNumber == nil {
		return nil, shared.NewDomainError("WORKFLOW_CORRUPTED",
			"Posted journal is missing posting metadata")
	}

	mirrored := make([]JournalLine, 0, len(je.Lines))
	for _, l := range je.Lines {
		if l.LegalEntityID == nil {
			// legacy rows predating mandatory legal-entity tagging cannot be
			// reversed mechanically; this is not retryable
			return nil, shared.NewDomainErrorWithDetails(ErrCodeReversalDimensionGap,
				fmt.Sprintf("Original line %d is missing a now-mandatory legal entity", l.LineNumber),
				map[string]any{"line_number": l.LineNumber})
		}
		mirrored = append(mirrored, JournalLine{
			AccountID:     l.AccountID,
			LegalEntityID: l.LegalEntityID,
			DepartmentID:  l.DepartmentID,
			ProjectID:     l.ProjectID,
			FundID:        l.FundID,
			Debit:         l.Credit,
			Credit:        l.Debit,
			Description:   l.Description,
		})
	}

	if reference == "" {
		reference = fmt.Sprintf("REV-%d", *je.JournalNumber)
	}
	if description == "" {
		description = fmt.Sprintf("Reversal of journal %d", *je.JournalNumber)
	}

	reversal, err := NewJournalEntry(je.TenantID, je.CreatedByID, JournalTypeReversing, reversalDate, reference, description, mirrored)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reversal.ReversalOfID = &je.ID
	reversal.ReversalInitiatedByID = &initiatorID
	reversal.ReversalInitiatedAt = &now

	reversal.AddDomainEvent(NewJournalReversalInitiatedEvent(reversal, je, initiatorID))

	return reversal, nil
}

// SetRiskAssessment overwrites the persisted risk score and flag set. Called
// at every SUBMIT, REVIEW and POST; scores never accumulate across stages.
func (je *JournalEntry) SetRiskAssessment(score int, flags []string) {
	now := time.Now()
	je.RiskScore = score
	je.RiskFlags = StringList(flags)
	je.RiskComputedAt = &now
}

// SetBudgetOutcome overwrites the persisted budget status and flag set
func (je *JournalEntry) SetBudgetOutcome(status BudgetStatus, flags []string) {
	now := time.Now()
	je.BudgetStatus = status
	je.BudgetFlags = StringList(flags)
	je.BudgetCheckedAt = &now
}

// IsBackdated reports whether the journal date falls before the creation day.
// The comparison is on the calendar day, not the instant.
func (je *JournalEntry) IsBackdated() bool {
	return je.JournalDate.Format("2006-01-02") < je.CreatedAt.Format("2006-01-02")
}
