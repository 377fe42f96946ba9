package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Budget impact flags
const (
	BudgetFlagNoLineFound = "NO_BUDGET_LINE_FOUND"
	BudgetFlagExceeded    = "BUDGET_EXCEEDED"
)

// repeatWarnWindow is the trailing window over which prior WARN outcomes by
// the same actor uplift the risk score
const repeatWarnWindow = 30 * 24 * time.Hour

// Repeat-WARN uplift: 5 points per prior WARN, capped at 20
const (
	repeatWarnPointsPer = 5
	repeatWarnCap       = 20
)

// BudgetLineImpact is the per-line outcome of a budget impact check
type BudgetLineImpact struct {
	LineNumber     int              `json:"line_number"`
	AccountID      uuid.UUID        `json:"account_id"`
	Status         BudgetStatus     `json:"status"`
	Flags          []string         `json:"flags,omitempty"`
	LineAmount     decimal.Decimal  `json:"line_amount"`
	BudgetedAmount *decimal.Decimal `json:"budgeted_amount,omitempty"`
}

// BudgetImpactResult is the journal-level outcome: the worst line status, the
// union of line flags, and the repeat-exception uplift that feeds the risk
// scorer (never the budget status itself).
type BudgetImpactResult struct {
	Status           BudgetStatus
	Flags            []string
	LineImpacts      []BudgetLineImpact
	RepeatWarnUplift int
}

// BudgetCheckStage identifies which transition requested the check
type BudgetCheckStage string

const (
	BudgetStageSubmit BudgetCheckStage = "SUBMIT"
	BudgetStageReview BudgetCheckStage = "REVIEW"
	BudgetStagePost   BudgetCheckStage = "POST"
)

// BudgetWarnCounter counts an actor's prior WARN outcomes, the input to the
// repeat-exception uplift
type BudgetWarnCounter interface {
	// CountRecentWarnsByActor counts journals other than excludeJournalID with
	// a WARN budget status whose budget check was recorded for the actor since
	// the given instant
	CountRecentWarnsByActor(ctx context.Context, tenantID, actorID, excludeJournalID uuid.UUID, since time.Time) (int64, error)
}

// BudgetImpactCalculator matches journal lines against the active budget and
// classifies the journal OK, WARN or BLOCK. It reads master data and budgets
// but mutates nothing.
type BudgetImpactCalculator struct {
	accounts AccountRepository
	budgets  BudgetRepository
	warns    BudgetWarnCounter
	resolver *PeriodResolver
}

// NewBudgetImpactCalculator creates a budget impact calculator
func NewBudgetImpactCalculator(
	accounts AccountRepository,
	budgets BudgetRepository,
	warns BudgetWarnCounter,
	resolver *PeriodResolver,
) *BudgetImpactCalculator {
	return &BudgetImpactCalculator{
		accounts: accounts,
		budgets:  budgets,
		warns:    warns,
		resolver: resolver,
	}
}

// Evaluate runs the budget impact check for one journal at one stage.
//
// The repeat-WARN uplift is recomputed against "now" on every call, so the
// value can differ between stages when other journals are submitted
// concurrently; the uplift feeds only the risk score, never the budget status.
func (c *BudgetImpactCalculator) Evaluate(
	ctx context.Context,
	tenantID uuid.UUID,
	actorID uuid.UUID,
	journalID uuid.UUID,
	journalDate time.Time,
	lines []JournalLine,
	stage BudgetCheckStage,
) (*BudgetImpactResult, error) {
	period, err := c.resolver.ResolveOpenPeriod(ctx, tenantID, journalDate)
	if err != nil {
		return nil, err
	}

	// A missing or never-approved budget behaves exactly like per-line
	// no-match: budget-relevant lines WARN with NO_BUDGET_LINE_FOUND.
	var budgetLines []BudgetLine
	budget, err := c.budgets.FindActiveForFiscalYear(ctx, tenantID, period.StartDate.Year())
	if err != nil {
		return nil, err
	}
	if budget != nil {
		if rev := budget.LatestRevision(); rev != nil {
			budgetLines = rev.Lines
		}
	}

	accountIDs := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		accountIDs = append(accountIDs, l.AccountID)
	}
	accounts, err := c.accounts.FindByIDsForTenant(ctx, tenantID, accountIDs)
	if err != nil {
		return nil, err
	}
	accountsByID := make(map[uuid.UUID]*Account, len(accounts))
	for i := range accounts {
		accountsByID[accounts[i].ID] = &accounts[i]
	}

	result := &BudgetImpactResult{
		Status:      BudgetStatusOK,
		Flags:       make([]string, 0),
		LineImpacts: make([]BudgetLineImpact, 0, len(lines)),
	}
	flagSeen := make(map[string]struct{})
	addFlag := func(flag string) {
		if _, ok := flagSeen[flag]; ok {
			return
		}
		flagSeen[flag] = struct{}{}
		result.Flags = append(result.Flags, flag)
	}

	for _, line := range lines {
		impact := BudgetLineImpact{
			LineNumber: line.LineNumber,
			AccountID:  line.AccountID,
			Status:     BudgetStatusOK,
			LineAmount: line.Amount(),
		}

		account := accountsByID[line.AccountID]
		if account == nil || !account.BudgetRelevant {
			result.LineImpacts = append(result.LineImpacts, impact)
			continue
		}

		matched := matchBudgetLine(budgetLines, line, period.ID)
		switch {
		case matched == nil:
			impact.Status = BudgetStatusWarn
			impact.Flags = append(impact.Flags, BudgetFlagNoLineFound)
			addFlag(BudgetFlagNoLineFound)
		case line.Amount().GreaterThan(matched.Amount):
			amount := matched.Amount
			impact.BudgetedAmount = &amount
			impact.Flags = append(impact.Flags, BudgetFlagExceeded)
			addFlag(BudgetFlagExceeded)
			if account.BudgetControlMode == BudgetControlBlock {
				impact.Status = BudgetStatusBlock
			} else {
				impact.Status = BudgetStatusWarn
			}
		default:
			amount := matched.Amount
			impact.BudgetedAmount = &amount
		}

		result.Status = WorstBudgetStatus(result.Status, impact.Status)
		result.LineImpacts = append(result.LineImpacts, impact)
	}

	if result.Status == BudgetStatusWarn {
		uplift, err := c.repeatWarnUplift(ctx, tenantID, actorID, journalID)
		if err != nil {
			return nil, err
		}
		result.RepeatWarnUplift = uplift
	}

	return result, nil
}

// matchBudgetLine looks up a budget line for the exact dimension tuple, then
// falls back to the line with all optional dimensions empty
func matchBudgetLine(budgetLines []BudgetLine, line JournalLine, periodID uuid.UUID) *BudgetLine {
	for i := range budgetLines {
		if budgetLines[i].matchesTuple(line.AccountID, periodID,
			line.LegalEntityID, line.DepartmentID, line.ProjectID, line.FundID) {
			return &budgetLines[i]
		}
	}
	for i := range budgetLines {
		bl := &budgetLines[i]
		if bl.AccountID == line.AccountID && bl.PeriodID == periodID && bl.isFallback() {
			return bl
		}
	}
	return nil
}

// repeatWarnUplift awards 5 points per prior WARN by the actor over the
// trailing 30 days, capped at 20, excluding the journal under evaluation
func (c *BudgetImpactCalculator) repeatWarnUplift(ctx context.Context, tenantID, actorID, journalID uuid.UUID) (int, error) {
	since := time.Now().Add(-repeatWarnWindow)
	count, err := c.warns.CountRecentWarnsByActor(ctx, tenantID, actorID, journalID, since)
	if err != nil {
		return 0, err
	}
	uplift := int(count) * repeatWarnPointsPer
	if uplift > repeatWarnCap {
		uplift = repeatWarnCap
	}
	return uplift, nil
}
