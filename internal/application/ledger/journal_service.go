package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
	"github.com/openledger/backend/internal/infrastructure/telemetry"
)

// JournalLineInput carries one line of a create or update request
type JournalLineInput struct {
	AccountID     uuid.UUID       `json:"account_id"`
	LegalEntityID *uuid.UUID      `json:"legal_entity_id,omitempty"`
	DepartmentID  *uuid.UUID      `json:"department_id,omitempty"`
	ProjectID     *uuid.UUID      `json:"project_id,omitempty"`
	FundID        *uuid.UUID      `json:"fund_id,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Description   string          `json:"description"`
}

// CreateJournalInput carries a create-draft request
type CreateJournalInput struct {
	Type              ledger.JournalType `json:"type"`
	JournalDate       time.Time          `json:"journal_date"`
	Reference         string             `json:"reference"`
	Description       string             `json:"description"`
	CorrectsJournalID *uuid.UUID         `json:"corrects_journal_id,omitempty"`
	Lines             []JournalLineInput `json:"lines"`
}

// UpdateJournalInput carries an update-draft request
type UpdateJournalInput struct {
	JournalDate                 time.Time          `json:"journal_date"`
	Reference                   string             `json:"reference"`
	Description                 string             `json:"description"`
	BudgetOverrideJustification string             `json:"budget_override_justification"`
	Lines                       []JournalLineInput `json:"lines"`
}

// ReverseJournalInput carries a reverse request; zero values fall back to the
// original journal's date and generated reference/description
type ReverseJournalInput struct {
	Reason       string     `json:"reason"`
	ReversalDate *time.Time `json:"reversal_date,omitempty"`
	Reference    string     `json:"reference"`
	Description  string     `json:"description"`
}

// JournalService orchestrates the journal lifecycle. Every transition runs its
// guards (period gating, cutover, segregation of duties, budget impact), then
// persists the new state, risk assessment and any sequence allocation in one
// transaction, and finally appends audit events.
type JournalService struct {
	journals ledger.JournalRepository
	accounts ledger.AccountRepository
	dims     ledger.DimensionRepository
	resolver *ledger.PeriodResolver
	budget   *ledger.BudgetImpactCalculator
	seq      ledger.SequenceAllocator
	audit    ledger.AuditSink
	tx       shared.TransactionManager
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewJournalService creates a new JournalService
func NewJournalService(
	journals ledger.JournalRepository,
	accounts ledger.AccountRepository,
	dims ledger.DimensionRepository,
	resolver *ledger.PeriodResolver,
	budget *ledger.BudgetImpactCalculator,
	seq ledger.SequenceAllocator,
	audit ledger.AuditSink,
	tx shared.TransactionManager,
	events shared.EventPublisher,
	logger *zap.Logger,
) *JournalService {
	return &JournalService{
		journals: journals,
		accounts: accounts,
		dims:     dims,
		resolver: resolver,
		budget:   budget,
		seq:      seq,
		audit:    audit,
		tx:       tx,
		events:   events,
		logger:   logger,
	}
}

// auditOutcome appends an audit event, logging rather than failing on error:
// an audit-write failure must never mask the business outcome it records.
func (s *JournalService) auditOutcome(ctx context.Context, tenantID uuid.UUID, eventType string, entityID, actorID uuid.UUID, outcome ledger.AuditOutcome, reason string, metadata map[string]any) {
	event := ledger.NewAuditEvent(tenantID, eventType, "JournalEntry", entityID, actorID, outcome, reason, metadata)
	if err := s.audit.Append(ctx, event); err != nil {
		s.logger.Error("audit append failed",
			zap.String("event_type", eventType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
	}
}

// auditBlocked records a blocked control decision before the error is raised
func (s *JournalService) auditBlocked(ctx context.Context, tenantID uuid.UUID, eventType string, entityID, actorID uuid.UUID, err error) {
	metadata := map[string]any{}
	var blocked *shared.BlockedActionError
	if errors.As(err, &blocked) {
		metadata["code"] = blocked.Code
		if blocked.RuleCode != "" {
			metadata["rule_code"] = blocked.RuleCode
		}
	}
	s.auditOutcome(ctx, tenantID, eventType, entityID, actorID, ledger.AuditOutcomeBlocked, err.Error(), metadata)
}

// publishEvents drains and publishes the aggregate's domain events after commit
func (s *JournalService) publishEvents(ctx context.Context, je *ledger.JournalEntry) {
	events := je.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish domain events",
			zap.String("journal_id", je.ID.String()),
			zap.Error(err),
		)
	}
	je.ClearDomainEvents()
}

func buildLines(inputs []JournalLineInput) []ledger.JournalLine {
	lines := make([]ledger.JournalLine, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, ledger.JournalLine{
			AccountID:     in.AccountID,
			LegalEntityID: in.LegalEntityID,
			DepartmentID:  in.DepartmentID,
			ProjectID:     in.ProjectID,
			FundID:        in.FundID,
			Debit:         in.Debit,
			Credit:        in.Credit,
			Description:   in.Description,
		})
	}
	return lines
}

// loadJournal fetches the entry or returns NOT_FOUND
func (s *JournalService) loadJournal(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	je, err := s.journals.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if je == nil {
		return nil, shared.ErrNotFound
	}
	return je, nil
}

// accountsForLines loads and indexes every account referenced by the lines
func (s *JournalService) accountsForLines(ctx context.Context, tenantID uuid.UUID, lines []ledger.JournalLine) (map[uuid.UUID]*ledger.Account, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	accounts, err := s.accounts.FindByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*ledger.Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}
	return byID, nil
}

func accountCodes(accounts map[uuid.UUID]*ledger.Account) map[uuid.UUID]string {
	codes := make(map[uuid.UUID]string, len(accounts))
	for id, a := range accounts {
		codes[id] = a.Code
	}
	return codes
}

// validateAccounts verifies every line references an existing, active,
// posting-allowed account
func validateAccounts(lines []ledger.JournalLine, accounts map[uuid.UUID]*ledger.Account) error {
	failures := make([]map[string]any, 0)
	for _, l := range lines {
		account, ok := accounts[l.AccountID]
		switch {
		case !ok:
			failures = append(failures, map[string]any{
				"line_number": l.LineNumber, "field": "account_id", "code": "NOT_FOUND",
			})
		case !account.Active:
			failures = append(failures, map[string]any{
				"line_number": l.LineNumber, "field": "account_id", "code": ledger.ErrCodeAccountInactive,
			})
		case !account.AllowPosting:
			failures = append(failures, map[string]any{
				"line_number": l.LineNumber, "field": "account_id", "code": ledger.ErrCodeAccountNotPostable,
			})
		}
	}
	if len(failures) > 0 {
		return shared.NewDomainErrorWithDetails(ledger.ErrCodeInvalidLine,
			"One or more lines reference unusable accounts",
			map[string]any{"lines": failures})
	}
	return nil
}

// validateDimensions enforces dimensional completeness per line: legal entity
// always required and effective-dated, department per account policy, project
// and fund per account and restricted-project demands, fund tied to project.
func (s *JournalService) validateDimensions(ctx context.Context, tenantID uuid.UUID, journalDate time.Time, lines []ledger.JournalLine, accounts map[uuid.UUID]*ledger.Account) error {
	failures := make([]map[string]any, 0)
	fail := func(lineNumber int, field, code string) {
		failures = append(failures, map[string]any{
			"line_number": lineNumber, "field": field, "code": code,
		})
	}

	for _, l := range lines {
		account := accounts[l.AccountID]
		if account == nil {
			fail(l.LineNumber, "account_id", "NOT_FOUND")
			continue
		}

		if l.LegalEntityID == nil {
			fail(l.LineNumber, "legal_entity_id", ledger.ErrCodeMissingDimension)
		} else {
			le, err := s.dims.FindLegalEntityForTenant(ctx, tenantID, *l.LegalEntityID)
			if err != nil {
				return err
			}
			if le == nil || !le.EffectiveOn(journalDate) {
				fail(l.LineNumber, "legal_entity_id", "DIMENSION_NOT_EFFECTIVE")
			}
		}

		switch account.DepartmentRequirement() {
		case ledger.DimensionRequired:
			if l.DepartmentID == nil {
				fail(l.LineNumber, "department_id", ledger.ErrCodeMissingDimension)
			}
		case ledger.DimensionForbidden:
			if l.DepartmentID != nil {
				fail(l.LineNumber, "department_id", "DIMENSION_FORBIDDEN")
			}
		}
		if l.DepartmentID != nil {
			dept, err := s.dims.FindDepartmentForTenant(ctx, tenantID, *l.DepartmentID)
			if err != nil {
				return err
			}
			if dept == nil || !dept.Active {
				fail(l.LineNumber, "department_id", "DIMENSION_INACTIVE")
			}
		}

		var project *ledger.Project
		if l.ProjectID != nil {
			var err error
			project, err = s.dims.FindProjectForTenant(ctx, tenantID, *l.ProjectID)
			if err != nil {
				return err
			}
			if project == nil || !project.Active {
				fail(l.LineNumber, "project_id", "DIMENSION_INACTIVE")
			}
		} else if account.RequireProject {
			fail(l.LineNumber, "project_id", ledger.ErrCodeMissingDimension)
		}

		fundRequired := account.RequireFund || (project != nil && project.Restricted)
		if l.FundID == nil {
			if fundRequired {
				fail(l.LineNumber, "fund_id", ledger.ErrCodeMissingDimension)
			}
		} else {
			fund, err := s.dims.FindFundForTenant(ctx, tenantID, *l.FundID)
			if err != nil {
				return err
			}
			switch {
			case fund == nil || !fund.Active:
				fail(l.LineNumber, "fund_id", "DIMENSION_INACTIVE")
			case l.ProjectID == nil || fund.ProjectID != *l.ProjectID:
				// a fund is only valid alongside its own project
				fail(l.LineNumber, "fund_id", "FUND_PROJECT_MISMATCH")
			}
		}
	}

	if len(failures) > 0 {
		return shared.NewDomainErrorWithDetails(ledger.ErrCodeMissingDimension,
			"One or more lines fail dimensional completeness",
			map[string]any{"lines": failures})
	}
	return nil
}

// checkPostingWindow verifies the date has an OPEN period and respects cutover
func (s *JournalService) checkPostingWindow(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.AccountingPeriod, error) {
	period, err := s.resolver.ResolveOpenPeriod(ctx, tenantID, date)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.CheckCutover(ctx, tenantID, date); err != nil {
		return nil, err
	}
	return period, nil
}

// gateBudget applies the stage-dependent budget gating rules and stores the
// outcome on the entry. BLOCK always halts; WARN demands a justification at
// SUBMIT and REVIEW but not at POST.
func (s *JournalService) gateBudget(ctx context.Context, je *ledger.JournalEntry, actorID uuid.UUID, stage ledger.BudgetCheckStage) (*ledger.BudgetImpactResult, error) {
	result, err := s.budget.Evaluate(ctx, je.TenantID, actorID, je.ID, je.JournalDate, je.Lines, stage)
	if err != nil {
		return nil, err
	}
	je.SetBudgetOutcome(result.Status, result.Flags)

	switch result.Status {
	case ledger.BudgetStatusBlock:
		return nil, shared.NewDomainErrorWithDetails(ledger.ErrCodeBudgetBlocked,
			"Budget availability check blocks this journal",
			map[string]any{"line_impacts": result.LineImpacts})
	case ledger.BudgetStatusWarn:
		if stage != ledger.BudgetStagePost && je.BudgetOverrideJustification == "" {
			return nil, shared.NewDomainErrorWithDetails(ledger.ErrCodeJustificationNeeded,
				"A budget exception justification is required before proceeding",
				map[string]any{"line_impacts": result.LineImpacts})
		}
	}
	return result, nil
}

// scoreAndStamp recomputes and overwrites the entry's risk assessment
func scoreAndStamp(je *ledger.JournalEntry, stage ledger.RiskStage, codes map[uuid.UUID]string, budget *ledger.BudgetImpactResult, periodEnd *time.Time) {
	in := ledger.RiskInput{
		Journal:       je,
		Stage:         stage,
		AccountCodes:  codes,
		EffectiveDate: time.Now(),
		PeriodEndDate: periodEnd,
	}
	if budget != nil {
		in.BudgetStatus = budget.Status
		in.RepeatWarnUplift = budget.RepeatWarnUplift
	}
	assessment := ledger.ScoreRisk(in)
	je.SetRiskAssessment(assessment.Score, assessment.Flags)
}

// CreateDraft creates a journal entry in DRAFT after validating lines,
// accounts and the posting window
func (s *JournalService) CreateDraft(ctx context.Context, tenantID, actorID uuid.UUID, input CreateJournalInput) (*ledger.JournalEntry, error) {
	lines := buildLines(input.Lines)

	journalType := input.Type
	if journalType == "" {
		journalType = ledger.JournalTypeStandard
	}

	je, err := ledger.NewJournalEntry(tenantID, actorID, journalType, input.JournalDate, input.Reference, input.Description, lines)
	if err != nil {
		return nil, err
	}
	je.CorrectsJournalID = input.CorrectsJournalID

	accounts, err := s.accountsForLines(ctx, tenantID, je.Lines)
	if err != nil {
		return nil, err
	}
	if err := validateAccounts(je.Lines, accounts); err != nil {
		return nil, err
	}

	if _, err := s.checkPostingWindow(ctx, tenantID, je.JournalDate); err != nil {
		s.auditBlocked(ctx, tenantID, "GL_JOURNAL_CREATE", je.ID, actorID, err)
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.journals.Save(txCtx, je)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, "GL_JOURNAL_CREATE", je.ID, actorID, ledger.AuditOutcomeSuccess, "", nil)
	s.publishEvents(ctx, je)
	return je, nil
}

// UpdateDraft replaces the header and lines of an editable entry
func (s *JournalService) UpdateDraft(ctx context.Context, tenantID, actorID, journalID uuid.UUID, input UpdateJournalInput) (*ledger.JournalEntry, error) {
	je, err := s.loadJournal(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	lines := buildLines(input.Lines)
	if err := je.UpdateDraft(actorID, input.JournalDate, input.Reference, input.Description, lines); err != nil {
		var blocked *shared.BlockedActionError
		if errors.As(err, &blocked) {
			s.auditBlocked(ctx, tenantID, "GL_JOURNAL_UPDATE", je.ID, actorID, err)
		}
		return nil, err
	}
	if input.BudgetOverrideJustification != "" {
		if err := je.SetBudgetOverrideJustification(actorID, input.BudgetOverrideJustification); err != nil {
			return nil, err
		}
	}

	accounts, err := s.accountsForLines(ctx, tenantID, je.Lines)
	if err != nil {
		return nil, err
	}
	if err := validateAccounts(je.Lines, accounts); err != nil {
		return nil, err
	}
	if _, err := s.checkPostingWindow(ctx, tenantID, je.JournalDate); err != nil {
		s.auditBlocked(ctx, tenantID, "GL_JOURNAL_UPDATE", je.ID, actorID, err)
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if !je.IsReversal() {
			if err := s.journals.DeleteLines(txCtx, je.ID); err != nil {
				return err
			}
		}
		return s.journals.Save(txCtx, je)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, "GL_JOURNAL_UPDATE", je.ID, actorID, ledger.AuditOutcomeSuccess, "", nil)
	return je, nil
}

// Submit moves an editable entry to SUBMITTED, enforcing balance, dimensional
// completeness and budget gating, and stamping a fresh risk assessment
func (s *JournalService) Submit(ctx context.Context, tenantID, actorID, journalID uuid.UUID) (*ledger.JournalEntry, error) {
	je, err := s.loadJournal(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountsForLines(ctx, tenantID, je.Lines)
	if err != nil {
		return nil, err
	}
	if err := validateAccounts(je.Lines, accounts); err != nil {
		return nil, err
	}
	if err := s.validateDimensions(ctx, tenantID, je.JournalDate, je.Lines, accounts); err != nil {
		return nil, err
	}
	if _, err := s.checkPostingWindow(ctx, tenantID, je.JournalDate); err != nil {
		s.auditBlocked(ctx, tenantID, string(ledger.ActionSubmit), je.ID, actorID, err)
		return nil, err
	}

	budget, err := s.gateBudget(ctx, je, actorID, ledger.BudgetStageSubmit)
	if err != nil {
		return nil, err
	}
	scoreAndStamp(je, ledger.RiskStageSubmit, accountCodes(accounts), budget, nil)

	if err := je.Submit(actorID); err != nil {
		var blocked *shared.BlockedActionError
		if errors.As(err, &blocked) {
			s.auditBlocked(ctx, tenantID, string(ledger.ActionSubmit), je.ID, actorID, err)
		}
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.journals.Save(txCtx, je)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, string(ledger.ActionSubmit), je.ID, actorID, ledger.AuditOutcomeSuccess, "",
		map[string]any{"risk_score": je.RiskScore, "budget_status": je.BudgetStatus})
	s.publishEvents(ctx, je)
	return je, nil
}

// sodParticipants assembles the recorded participant set for an entry
func sodParticipants(je *ledger.JournalEntry) ledger.SoDParticipants {
	return ledger.SoDParticipants{
		CreatorID:           je.CreatedByID,
		SubmitterID:         je.SubmittedByID,
		ReviewerID:          je.ReviewedByID,
		ReversalInitiatorID: je.ReversalInitiatedByID,
	}
}

// checkSoD evaluates the policy and audits a denial as BLOCKED
func (s *JournalService) checkSoD(ctx context.Context, je *ledger.JournalEntry, action string, actorID uuid.UUID) error {
	decision := ledger.EvaluateSoD(action, actorID, sodParticipants(je))
	if decision.Allowed {
		return nil
	}
	err := shared.NewBlockedActionError(ledger.ErrCodeSoDViolation, decision.Reason, decision.RuleCode)
	s.auditBlocked(ctx, je.TenantID, action, je.ID, actorID, err)
	return err
}

// Review approves a submission into REVIEWED
func (s *JournalService) Review(ctx context.Context, tenantID, actorID, journalID uuid.UUID) (*ledger.JournalEntry, error) {
	je, err := s.loadJournal(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	if err := s.checkSoD(ctx, je, string(ledger.ActionReview), actorID); err != nil {
		return nil, err
	}
	if _, err := s.checkPostingWindow(ctx, tenantID, je.JournalDate); err != nil {
		s.auditBlocked(ctx, tenantID, string(ledger.ActionReview), je.ID, actorID, err)
		return nil, err
	}

	accounts, err := s.accountsForLines(ctx, tenantID, je.Lines)
	if err != nil {
		return nil, err
	}
	budget, err := s.gateBudget(ctx, je, actorID, ledger.BudgetStageReview)
	if err != nil {
		return nil, err
	}
	scoreAndStamp(je, ledger.RiskStageReview, accountCodes(accounts), budget, nil)

	if err := je.Review(actorID); err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.journals.Save(txCtx, je)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, string(ledger.ActionReview), je.ID, actorID, ledger.AuditOutcomeSuccess, "",
		map[string]any{"risk_score": je.RiskScore, "budget_status": je.BudgetStatus})
	s.publishEvents(ctx, je)
	return je, nil
}

// Reject sends a submission back to the preparer with a reason
func (s *JournalService) Reject(ctx context.Context, tenantID, actorID, journalID uuid.UUID, reason string) (*ledger.JournalEntry, error) {
	je, err := s.loadJournal(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	if err := s.checkSoD(ctx, je, string(ledger.ActionReject), actorID); err != nil {
		return nil, err
	}
	if err := je.Reject(actorID, reason); err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.journals.Save(txCtx, je)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, string(ledger.ActionReject), je.ID, actorID, ledger.AuditOutcomeSuccess, reason, nil)
	s.publishEvents(ctx, je)
	return je, nil
}

// ReturnToReview sends a reviewed entry back to SUBMITTED
func (s *JournalService) ReturnToReview(ctx context.Context, tenantID, actorID, journalID uuid.UUID, reason string) (*ledger.JournalEntry, error) {
	je, err := s.loadJournal(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	if err := s.checkSoD(ctx, je, string(ledger.ActionReturnToReview), actorID); err != nil {
		return nil, err
	}
	if err := je.ReturnToReview(actorID, reason); err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.journals.Save(txCtx, je)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, string(ledger.ActionReturnToReview), je.ID, actorID, ledger.AuditOutcomeSuccess, reason, nil)
	s.publishEvents(ctx, je)
	return je, nil
}

// Post finalizes a reviewed entry: all guards re-run, the tenant's next
// journal number is allocated inside the same transaction as the status flip,
// and the risk assessment is recomputed with the posting period's end date.
func (s *JournalService) Post(ctx context.Context, tenantID, actorID, journalID uuid.UUID) (*ledger.JournalEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "journal", "post")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrActorID, actorID.String(),
		telemetry.SpanAttrJournalID, journalID.String(),
	)

	je, err := s.post(ctx, tenantID, actorID, journalID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrJournalNumber, *je.JournalNumber,
		telemetry.SpanAttrJournalStatus, string(je.Status),
	)
	return je, nil
}

func (s *JournalService) post(ctx context.Context, tenantID, actorID, journalID uuid.UUID) (*ledger.JournalEntry, error) {
	je, err := s.loadJournal(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	// re-posting is rejected idempotently, no audit BLOCKED, no side effects
	if je.Status == ledger.JournalStatusPosted {
		return nil, shared.NewDomainError(ledger.ErrCodeAlreadyPosted, "Journal has already been posted")
	}

	if err := s.checkSoD(ctx, je, string(ledger.ActionPost), actorID); err != nil {
		return nil, err
	}
	if err := je.AssertBalanced(); err != nil {
		return nil, err
	}

	period, err := s.checkPostingWindow(ctx, tenantID, je.JournalDate)
	if err != nil {
		s.auditBlocked(ctx, tenantID, string(ledger.ActionPost), je.ID, actorID, err)
		return nil, err
	}

	accounts, err := s.accountsForLines(ctx, tenantID, je.Lines)
	if err != nil {
		return nil, err
	}
	if period.Type == ledger.PeriodTypeOpening {
		if err := validateOpeningPeriodAccounts(je.Lines, accounts); err != nil {
			s.auditBlocked(ctx, tenantID, string(ledger.ActionPost), je.ID, actorID, err)
			return nil, err
		}
	}

	budget, err := s.gateBudget(ctx, je, actorID, ledger.BudgetStagePost)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		number, err := s.seq.Next(txCtx, tenantID, ledger.SequenceJournalEntry)
		if err != nil {
			return err
		}
		if err := je.Post(actorID, number, period.ID); err != nil {
			return err
		}
		periodEnd := period.EndDate
		scoreAndStamp(je, ledger.RiskStagePost, accountCodes(accounts), budget, &periodEnd)
		return s.journals.Save(txCtx, je)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, string(ledger.ActionPost), je.ID, actorID, ledger.AuditOutcomeSuccess, "",
		map[string]any{"journal_number": je.JournalNumber, "risk_score": je.RiskScore})
	s.publishEvents(ctx, je)
	return je, nil
}

// validateOpeningPeriodAccounts restricts OPENING-period journals to
// balance-sheet accounts and the designated retained-earnings account
func validateOpeningPeriodAccounts(lines []ledger.JournalLine, accounts map[uuid.UUID]*ledger.Account) error {
	for _, l := range lines {
		account := accounts[l.AccountID]
		if account == nil {
			continue
		}
		if !account.PostableInOpeningPeriod() {
			return shared.NewBlockedActionError(ledger.ErrCodeOpeningAccountType,
				"Opening entries may only touch balance-sheet accounts or retained earnings", "")
		}
	}
	return nil
}

// Park moves a balanced draft into the PARKED dead-end
func (s *JournalService) Park(ctx context.Context, tenantID, actorID, journalID uuid.UUID) (*ledger.JournalEntry, error) {
	je, err := s.loadJournal(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	if err := je.Park(actorID); err != nil {
		var blocked *shared.BlockedActionError
		if errors.As(err, &blocked) {
			s.auditBlocked(ctx, tenantID, string(ledger.ActionPark), je.ID, actorID, err)
		}
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.journals.Save(txCtx, je)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, string(ledger.ActionPark), je.ID, actorID, ledger.AuditOutcomeSuccess, "", nil)
	s.publishEvents(ctx, je)
	return je, nil
}

// Reverse creates a mirrored REVERSING draft for a posted journal. The new
// entry is owned by the original preparer; the initiator is recorded for the
// later segregation checks on its independent review and posting.
func (s *JournalService) Reverse(ctx context.Context, tenantID, actorID, journalID uuid.UUID, input ReverseJournalInput) (*ledger.JournalEntry, error) {
	original, err := s.loadJournal(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	if err := s.checkSoD(ctx, original, string(ledger.ActionReverse), actorID); err != nil {
		return nil, err
	}

	exists, err := s.journals.ExistsNonRejectedReversal(ctx, tenantID, original.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(ledger.ErrCodeReversalExists,
			"A reversal already exists for this journal")
	}

	// resolve a postable date: the requested or original date when its period
	// is OPEN, otherwise the start of the next OPEN period
	requested := original.JournalDate
	if input.ReversalDate != nil {
		requested = *input.ReversalDate
	}
	reversalDate := requested
	if _, err := s.resolver.ResolveOpenPeriod(ctx, tenantID, requested); err != nil {
		next, nextErr := s.resolver.NextOpenPeriodStart(ctx, tenantID, requested)
		if nextErr != nil {
			s.auditBlocked(ctx, tenantID, string(ledger.ActionReverse), original.ID, actorID, nextErr)
			return nil, nextErr
		}
		reversalDate = next.StartDate
	}
	if err := s.resolver.CheckCutover(ctx, tenantID, reversalDate); err != nil {
		s.auditBlocked(ctx, tenantID, string(ledger.ActionReverse), original.ID, actorID, err)
		return nil, err
	}

	reversal, err := original.BuildReversal(actorID, reversalDate, input.Reference, input.Description)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.journals.Save(txCtx, reversal)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, string(ledger.ActionReverse), original.ID, actorID, ledger.AuditOutcomeSuccess, input.Reason,
		map[string]any{"reversal_id": reversal.ID})
	s.publishEvents(ctx, reversal)
	return reversal, nil
}

// Get returns one journal entry with lines
func (s *JournalService) Get(ctx context.Context, tenantID, journalID uuid.UUID) (*ledger.JournalEntry, error) {
	return s.loadJournal(ctx, tenantID, journalID)
}

// List returns a filtered, paginated journal listing
func (s *JournalService) List(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalListFilter) (shared.Paginated[ledger.JournalEntry], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.journals.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[ledger.JournalEntry]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}
