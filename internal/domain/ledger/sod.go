package ledger

import (
	"github.com/google/uuid"
)

// Segregation-of-duties rule codes. Each denial carries exactly one stable
// code so audits and tests can assert which rule fired.
const (
	RuleReviewerIsCreator            = "SOD_REVIEWER_IS_CREATOR"
	RuleReviewerIsSubmitter          = "SOD_REVIEWER_IS_SUBMITTER"
	RuleReviewerIsReversalInitiator  = "SOD_REVIEWER_IS_REVERSAL_INITIATOR"
	RulePosterIsCreator              = "SOD_POSTER_IS_CREATOR"
	RulePosterIsReviewer             = "SOD_POSTER_IS_REVIEWER"
	RulePosterIsReversalInitiator    = "SOD_POSTER_IS_REVERSAL_INITIATOR"
	RuleReturnerIsCreator            = "SOD_RETURNER_IS_CREATOR"
	RuleReturnerIsReviewer           = "SOD_RETURNER_IS_REVIEWER"
	RuleReverserIsCreator            = "SOD_REVERSER_IS_CREATOR"
	RuleCloseApproverDidChecklist    = "SOD_CLOSE_APPROVER_COMPLETED_CHECKLIST"
	RuleCreatorOnlyEdit              = "SOD_EDIT_NOT_CREATOR"
	RuleCreatorOnlySubmit            = "SOD_SUBMIT_NOT_CREATOR"
	RuleCreatorOnlyPark              = "SOD_PARK_NOT_CREATOR"
)

// SoDAction is the action name evaluated by the policy. Journal lifecycle
// action names double as SoD action names; period close approval has its own.
const (
	SoDActionApprove            = "APPROVE"
	SoDActionPost               = "POST"
	SoDActionPeriodCloseApprove = "PERIOD_CLOSE_APPROVE"
)

// SoDParticipants carries the recorded participant ids a rule compares the
// actor against. Nil pointers mean the role was never filled.
type SoDParticipants struct {
	CreatorID           uuid.UUID
	SubmitterID         *uuid.UUID
	ReviewerID          *uuid.UUID
	ReversalInitiatorID *uuid.UUID
	// ChecklistCompleters are users who completed any required close-checklist
	// item for the period under approval
	ChecklistCompleters []uuid.UUID
}

// SoDDecision is the outcome of a policy evaluation
type SoDDecision struct {
	Allowed  bool
	RuleCode string
	Reason   string
}

// Allowed is the positive decision
func allowed() SoDDecision {
	return SoDDecision{Allowed: true}
}

func denied(ruleCode, reason string) SoDDecision {
	return SoDDecision{Allowed: false, RuleCode: ruleCode, Reason: reason}
}

// EvaluateSoD is the pure maker/checker decision function. It performs no I/O
// and depends only on its arguments; callers resolve participants beforehand.
func EvaluateSoD(action string, actorID uuid.UUID, p SoDParticipants) SoDDecision {
	switch action {
	case SoDActionApprove, string(ActionReview), string(ActionReject):
		if actorID == p.CreatorID {
			return denied(RuleReviewerIsCreator, "The journal creator cannot review their own entry")
		}
		if p.SubmitterID != nil && actorID == *p.SubmitterID {
			return denied(RuleReviewerIsSubmitter, "The submitter cannot review their own submission")
		}
		if p.ReversalInitiatorID != nil && actorID == *p.ReversalInitiatorID {
			return denied(RuleReviewerIsReversalInitiator, "The reversal initiator cannot review the reversal")
		}
		return allowed()

	case SoDActionPost, string(ActionPost):
		if actorID == p.CreatorID {
			return denied(RulePosterIsCreator, "The journal creator cannot post their own entry")
		}
		if p.ReviewerID != nil && actorID == *p.ReviewerID {
			return denied(RulePosterIsReviewer, "The reviewer cannot also post the entry")
		}
		if p.ReversalInitiatorID != nil && actorID == *p.ReversalInitiatorID {
			return denied(RulePosterIsReversalInitiator, "The reversal initiator cannot post the reversal")
		}
		return allowed()

	case string(ActionReturnToReview):
		if actorID == p.CreatorID {
			return denied(RuleReturnerIsCreator, "The journal creator cannot return the entry to review")
		}
		if p.ReviewerID != nil && actorID == *p.ReviewerID {
			return denied(RuleReturnerIsReviewer, "The reviewer cannot return their own review")
		}
		return allowed()

	case string(ActionReverse):
		if actorID == p.CreatorID {
			return denied(RuleReverserIsCreator, "The journal creator cannot initiate the reversal")
		}
		return allowed()

	case SoDActionPeriodCloseApprove:
		for _, completer := range p.ChecklistCompleters {
			if actorID == completer {
				return denied(RuleCloseApproverDidChecklist, "A user who completed a checklist item cannot approve the close")
			}
		}
		return allowed()
	}

	// unknown actions are allowed; the transition table already rejects
	// actions the engine does not define
	return allowed()
}
