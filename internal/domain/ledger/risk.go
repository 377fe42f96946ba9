package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Risk flags attached to a journal to support audit review prioritization
const (
	RiskFlagManualJournal         = "MANUAL_JOURNAL"
	RiskFlagReversal              = "REVERSAL"
	RiskFlagCorrecting            = "CORRECTING"
	RiskFlagHighValue             = "HIGH_VALUE"
	RiskFlagBackdated             = "BACKDATED"
	RiskFlagLatePosting           = "LATE_POSTING"
	RiskFlagSensitiveAccount      = "SENSITIVE_ACCOUNT"
	RiskFlagBudgetException       = "BUDGET_EXCEPTION"
	RiskFlagBudgetRepeatException = "BUDGET_REPEAT_EXCEPTION"
)

// Risk point values. The score is additive with no upper clamp.
const (
	riskPointsManualJournal    = 10
	riskPointsReversal         = 20
	riskPointsCorrecting       = 15
	riskPointsHighValue        = 15
	riskPointsBackdated        = 10
	riskPointsLatePosting      = 10
	riskPointsSensitiveAccount = 15
	riskPointsBudgetException  = 15
)

// highValueThreshold is the sum of line magnitudes at which HIGH_VALUE fires
var highValueThreshold = decimal.NewFromInt(100000)

// sensitiveAccountCodes is the fixed set of account codes whose presence on
// any line flags the journal
var sensitiveAccountCodes = map[string]struct{}{
	"RETAINED_EARNINGS": {},
	"3000":              {},
	"SUSPENSE":          {},
	"TAX":               {},
}

// RiskStage identifies which lifecycle transition the score is computed for
type RiskStage string

const (
	RiskStageSubmit RiskStage = "SUBMIT"
	RiskStageReview RiskStage = "REVIEW"
	RiskStagePost   RiskStage = "POST"
)

// RiskInput bundles everything the scorer looks at. The scorer itself does no
// I/O; callers resolve account codes and the posting period up front.
type RiskInput struct {
	Journal *JournalEntry
	Stage   RiskStage
	// AccountCodes maps every account referenced by the lines to its code
	AccountCodes map[uuid.UUID]string
	// BudgetStatus is the journal-level outcome of the budget impact check
	BudgetStatus BudgetStatus
	// RepeatWarnUplift is the repeat-exception uplift computed by the budget
	// impact calculator, 0 when the actor has no recent prior WARNs
	RepeatWarnUplift int
	// PeriodEndDate is the posting period's end date; only consulted at POST
	PeriodEndDate *time.Time
	// EffectiveDate is the posting instant at POST stage, "now" otherwise
	EffectiveDate time.Time
}

// RiskAssessment is the scorer's result
type RiskAssessment struct {
	Score int
	Flags []string
}

// ScoreRisk computes the additive risk score and flag set for one lifecycle
// transition. Every call stands alone; the result overwrites any previously
// persisted assessment for the journal.
func ScoreRisk(in RiskInput) RiskAssessment {
	je := in.Journal
	score := 0
	flags := make([]string, 0, 4)

	add := func(flag string, points int) {
		score += points
		flags = append(flags, flag)
	}

	if je.IsReversal() {
		add(RiskFlagReversal, riskPointsReversal)
	} else {
		// every non-reversal entry counts as a manual journal, bulk-loaded
		// ones included
		add(RiskFlagManualJournal, riskPointsManualJournal)
	}

	if je.CorrectsJournalID != nil {
		add(RiskFlagCorrecting, riskPointsCorrecting)
	}

	total := decimal.Zero
	sensitive := false
	for _, line := range je.Lines {
		total = total.Add(line.Amount())
		if code, ok := in.AccountCodes[line.AccountID]; ok {
			if _, hit := sensitiveAccountCodes[code]; hit {
				sensitive = true
			}
		}
	}
	if total.GreaterThanOrEqual(highValueThreshold) {
		add(RiskFlagHighValue, riskPointsHighValue)
	}
	if sensitive {
		add(RiskFlagSensitiveAccount, riskPointsSensitiveAccount)
	}

	if je.IsBackdated() {
		add(RiskFlagBackdated, riskPointsBackdated)
	}

	if in.Stage == RiskStagePost && in.PeriodEndDate != nil {
		if in.EffectiveDate.Format("2006-01-02") > in.PeriodEndDate.Format("2006-01-02") {
			add(RiskFlagLatePosting, riskPointsLatePosting)
		}
	}

	if in.BudgetStatus == BudgetStatusWarn {
		add(RiskFlagBudgetException, riskPointsBudgetException)
		if in.RepeatWarnUplift > 0 {
			add(RiskFlagBudgetRepeatException, in.RepeatWarnUplift)
		}
	}

	return RiskAssessment{Score: score, Flags: flags}
}
