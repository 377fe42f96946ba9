package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
	"github.com/openledger/backend/internal/infrastructure/telemetry"
)

// CreatePeriodInput carries a period creation request
type CreatePeriodInput struct {
	Code      string            `json:"code"`
	Type      ledger.PeriodType `json:"type"`
	StartDate time.Time         `json:"start_date"`
	EndDate   time.Time         `json:"end_date"`
}

// OpeningBalanceInput is one staged opening balance row
type OpeningBalanceInput struct {
	AccountID     uuid.UUID       `json:"account_id"`
	LegalEntityID *uuid.UUID      `json:"legal_entity_id,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// PeriodService manages accounting periods: creation, the close/reopen
// workflow with its checklist and ordering rules, and opening balances.
type PeriodService struct {
	periods  ledger.PeriodRepository
	journals ledger.JournalRepository
	opening  ledger.OpeningBalanceRepository
	audit    ledger.AuditSink
	tx       shared.TransactionManager
	logger   *zap.Logger
}

// NewPeriodService creates a new PeriodService
func NewPeriodService(
	periods ledger.PeriodRepository,
	journals ledger.JournalRepository,
	opening ledger.OpeningBalanceRepository,
	audit ledger.AuditSink,
	tx shared.TransactionManager,
	logger *zap.Logger,
) *PeriodService {
	return &PeriodService{
		periods:  periods,
		journals: journals,
		opening:  opening,
		audit:    audit,
		tx:       tx,
		logger:   logger,
	}
}

func (s *PeriodService) auditOutcome(ctx context.Context, tenantID uuid.UUID, eventType string, entityID, actorID uuid.UUID, outcome ledger.AuditOutcome, reason string, metadata map[string]any) {
	event := ledger.NewAuditEvent(tenantID, eventType, "AccountingPeriod", entityID, actorID, outcome, reason, metadata)
	if err := s.audit.Append(ctx, event); err != nil {
		s.logger.Error("audit append failed",
			zap.String("event_type", eventType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
	}
}

// Create creates a new OPEN accounting period, enforcing non-overlap, the
// single-OPENING rule and the OPENING-first ordering
func (s *PeriodService) Create(ctx context.Context, tenantID, actorID uuid.UUID, input CreatePeriodInput) (*ledger.AccountingPeriod, error) {
	period, err := ledger.NewAccountingPeriod(tenantID, input.Code, input.Type, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	if existing, err := s.periods.FindByCodeForTenant(ctx, tenantID, period.Code); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Period %s already exists", period.Code))
	}

	if overlap, err := s.periods.FindOverlappingForTenant(ctx, tenantID, period.StartDate, period.EndDate); err != nil {
		return nil, err
	} else if overlap != nil {
		return nil, shared.NewDomainError("PERIOD_OVERLAP",
			fmt.Sprintf("Span overlaps period %s", overlap.Code))
	}

	opening, err := s.periods.FindOpeningForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if period.Type == ledger.PeriodTypeOpening {
		if opening != nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "The tenant already has an OPENING period")
		}
		// the OPENING period must be chronologically first
		if earlier, err := s.periods.FindNextOpenForTenant(ctx, tenantID, time.Time{}); err != nil {
			return nil, err
		} else if earlier != nil && earlier.StartDate.Before(period.StartDate) {
			return nil, shared.NewDomainError(ledger.ErrCodePeriodOrder,
				"The OPENING period must precede every other period")
		}
	} else if opening != nil && period.StartDate.Before(opening.StartDate) {
		return nil, shared.NewDomainError(ledger.ErrCodePeriodOrder,
			"Normal periods cannot start before the OPENING period")
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.periods.Save(txCtx, period)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, "GL_PERIOD_CREATE", period.ID, actorID, ledger.AuditOutcomeSuccess, "", nil)
	return period, nil
}

// AddChecklistItem registers a close-procedure task on a period
func (s *PeriodService) AddChecklistItem(ctx context.Context, tenantID, actorID, periodID uuid.UUID, code, description string, required bool) (*ledger.AccountingPeriod, error) {
	period, err := s.loadPeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if _, err := period.AddChecklistItem(code, description, required); err != nil {
		return nil, err
	}
	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.periods.Save(txCtx, period)
	}); err != nil {
		return nil, err
	}
	return period, nil
}

// CompleteChecklistItem signs off a checklist task exactly once
func (s *PeriodService) CompleteChecklistItem(ctx context.Context, tenantID, actorID, periodID uuid.UUID, code string) (*ledger.AccountingPeriod, error) {
	period, err := s.loadPeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if err := period.CompleteChecklistItem(code, actorID); err != nil {
		return nil, err
	}
	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.periods.Save(txCtx, period)
	}); err != nil {
		return nil, err
	}
	s.auditOutcome(ctx, tenantID, "GL_PERIOD_CHECKLIST_COMPLETE", period.ID, actorID, ledger.AuditOutcomeSuccess, code, nil)
	return period, nil
}

// Close closes a period. The closer must not have completed any required
// checklist item; earlier periods must already be closed; no DRAFT or PARKED
// journal may remain dated inside the span.
func (s *PeriodService) Close(ctx context.Context, tenantID, actorID, periodID uuid.UUID) (*ledger.AccountingPeriod, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "period", "close")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPeriodID, periodID.String(),
	)

	period, err := s.close(ctx, tenantID, actorID, periodID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrPeriodCode, period.Code)
	return period, nil
}

func (s *PeriodService) close(ctx context.Context, tenantID, actorID, periodID uuid.UUID) (*ledger.AccountingPeriod, error) {
	period, err := s.loadPeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	decision := ledger.EvaluateSoD(ledger.SoDActionPeriodCloseApprove, actorID, ledger.SoDParticipants{
		ChecklistCompleters: period.ChecklistCompleters(),
	})
	if !decision.Allowed {
		blockErr := shared.NewBlockedActionError(ledger.ErrCodeSoDViolation, decision.Reason, decision.RuleCode)
		s.auditOutcome(ctx, tenantID, "GL_PERIOD_CLOSE", period.ID, actorID, ledger.AuditOutcomeBlocked,
			blockErr.Error(), map[string]any{"rule_code": decision.RuleCode})
		return nil, blockErr
	}

	// periods close in chronological order
	if earlierOpen, err := s.periods.ExistsEarlierWithStatus(ctx, tenantID, period.StartDate, ledger.PeriodStatusOpen); err != nil {
		return nil, err
	} else if earlierOpen {
		return nil, shared.NewDomainError(ledger.ErrCodePeriodOrder,
			"An earlier period is still open")
	}

	draftCount, err := s.journals.CountByStatusInDateRange(ctx, tenantID, ledger.JournalStatusDraft, period.StartDate, period.EndDate)
	if err != nil {
		return nil, err
	}
	parkedCount, err := s.journals.CountByStatusInDateRange(ctx, tenantID, ledger.JournalStatusParked, period.StartDate, period.EndDate)
	if err != nil {
		return nil, err
	}
	if draftCount > 0 || parkedCount > 0 {
		blockErr := shared.NewDomainErrorWithDetails(ledger.ErrCodePeriodHasOpenDrafts,
			fmt.Sprintf("Period has %d draft and %d parked journals", draftCount, parkedCount),
			map[string]any{"draft_count": draftCount, "parked_count": parkedCount})
		s.auditOutcome(ctx, tenantID, "GL_PERIOD_CLOSE", period.ID, actorID, ledger.AuditOutcomeBlocked, blockErr.Error(), nil)
		return nil, blockErr
	}

	if err := period.Close(actorID); err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == ledger.ErrCodeChecklistIncomplete {
			s.auditOutcome(ctx, tenantID, "GL_PERIOD_CLOSE", period.ID, actorID, ledger.AuditOutcomeBlocked, err.Error(), nil)
		}
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.periods.Save(txCtx, period)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, "GL_PERIOD_CLOSE", period.ID, actorID, ledger.AuditOutcomeSuccess, "", nil)
	return period, nil
}

// SoftClose restricts posting into an open period without the full close
// checks; the close checklist keeps accumulating while soft-closed.
func (s *PeriodService) SoftClose(ctx context.Context, tenantID, actorID, periodID uuid.UUID) (*ledger.AccountingPeriod, error) {
	period, err := s.loadPeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	if err := period.SoftClose(); err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.periods.Save(txCtx, period)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, "GL_PERIOD_SOFT_CLOSE", period.ID, actorID, ledger.AuditOutcomeSuccess, "", nil)
	return period, nil
}

// Reopen reopens a closed period; later periods must not still be closed
func (s *PeriodService) Reopen(ctx context.Context, tenantID, actorID, periodID uuid.UUID) (*ledger.AccountingPeriod, error) {
	period, err := s.loadPeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	if laterClosed, err := s.periods.ExistsLaterWithStatus(ctx, tenantID, period.StartDate, ledger.PeriodStatusClosed); err != nil {
		return nil, err
	} else if laterClosed {
		return nil, shared.NewDomainError(ledger.ErrCodePeriodOrder,
			"A later period is still closed; reopen newest first")
	}

	if err := period.Reopen(); err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.periods.Save(txCtx, period)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, "GL_PERIOD_REOPEN", period.ID, actorID, ledger.AuditOutcomeSuccess, "", nil)
	return period, nil
}

// Get returns one period with its checklist
func (s *PeriodService) Get(ctx context.Context, tenantID, periodID uuid.UUID) (*ledger.AccountingPeriod, error) {
	return s.loadPeriod(ctx, tenantID, periodID)
}

// List returns periods for the tenant
func (s *PeriodService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.AccountingPeriod, error) {
	return s.periods.FindAllForTenant(ctx, tenantID, filter)
}

func (s *PeriodService) loadPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*ledger.AccountingPeriod, error) {
	period, err := s.periods.FindByIDForTenant(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, shared.ErrNotFound
	}
	return period, nil
}

// GetOpeningBalances returns the staged opening balance set
func (s *PeriodService) GetOpeningBalances(ctx context.Context, tenantID uuid.UUID) ([]ledger.OpeningBalanceLine, error) {
	return s.opening.FindAllForTenant(ctx, tenantID)
}

// UpsertOpeningBalances replaces the staged opening balance set. Staging is
// only possible while the OPENING period is still open.
func (s *PeriodService) UpsertOpeningBalances(ctx context.Context, tenantID, actorID uuid.UUID, inputs []OpeningBalanceInput) ([]ledger.OpeningBalanceLine, error) {
	opening, err := s.periods.FindOpeningForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if opening == nil {
		return nil, shared.NewDomainError(ledger.ErrCodeNoPeriod, "The tenant has no OPENING period")
	}
	if !opening.IsOpen() {
		return nil, shared.NewDomainError(ledger.ErrCodePeriodClosed, "The OPENING period is already closed")
	}

	now := time.Now()
	lines := make([]ledger.OpeningBalanceLine, 0, len(inputs))
	for _, in := range inputs {
		if in.Debit.IsNegative() || in.Credit.IsNegative() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Opening balance amounts cannot be negative")
		}
		lines = append(lines, ledger.OpeningBalanceLine{
			ID:            uuid.New(),
			TenantID:      tenantID,
			AccountID:     in.AccountID,
			LegalEntityID: in.LegalEntityID,
			Debit:         in.Debit,
			Credit:        in.Credit,
			UpdatedByID:   actorID,
			UpdatedAt:     now,
		})
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.opening.ReplaceForTenant(txCtx, tenantID, lines)
	}); err != nil {
		return nil, err
	}
	return lines, nil
}

// PostOpeningBalances turns the staged set into a DRAFT journal dated on the
// OPENING period, owned by the actor, and clears the staging area. The draft
// then flows through the normal submit/review/post pipeline, including the
// balance-sheet-only account restriction at post time.
func (s *PeriodService) PostOpeningBalances(ctx context.Context, tenantID, actorID uuid.UUID) (*ledger.JournalEntry, error) {
	opening, err := s.periods.FindOpeningForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if opening == nil {
		return nil, shared.NewDomainError(ledger.ErrCodeNoPeriod, "The tenant has no OPENING period")
	}
	if !opening.IsOpen() {
		return nil, shared.NewDomainError(ledger.ErrCodePeriodClosed, "The OPENING period is already closed")
	}

	staged, err := s.opening.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(staged) < 2 {
		return nil, shared.NewDomainError(ledger.ErrCodeMinLines, "At least 2 opening balance rows are required")
	}

	lines := make([]ledger.JournalLine, 0, len(staged))
	for _, ob := range staged {
		lines = append(lines, ledger.JournalLine{
			AccountID:     ob.AccountID,
			LegalEntityID: ob.LegalEntityID,
			Debit:         ob.Debit,
			Credit:        ob.Credit,
			Description:   "Opening balance",
		})
	}

	je, err := ledger.NewJournalEntry(tenantID, actorID, ledger.JournalTypeStandard,
		opening.StartDate, fmt.Sprintf("OPENING-%s", opening.Code), "Opening balances", lines)
	if err != nil {
		return nil, err
	}
	if err := je.AssertBalanced(); err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.journals.Save(txCtx, je); err != nil {
			return err
		}
		return s.opening.DeleteAllForTenant(txCtx, tenantID)
	}); err != nil {
		return nil, err
	}

	s.auditOutcome(ctx, tenantID, "GL_OPENING_BALANCES_POST", je.ID, actorID, ledger.AuditOutcomeSuccess, "",
		map[string]any{"journal_id": je.ID})
	return je, nil
}
