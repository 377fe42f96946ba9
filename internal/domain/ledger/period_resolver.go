package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openledger/backend/internal/domain/shared"
)

// PeriodResolver answers the two date-gating questions of the engine: which
// OPEN period encloses a date, and where the tenant's cutover boundary lies.
// It is read-only; callers fail their own operation on a negative answer.
type PeriodResolver struct {
	periods PeriodRepository
}

// NewPeriodResolver creates a period resolver backed by the given repository
func NewPeriodResolver(periods PeriodRepository) *PeriodResolver {
	return &PeriodResolver{periods: periods}
}

// ResolveOpenPeriod finds the period enclosing date and verifies it is OPEN
func (r *PeriodResolver) ResolveOpenPeriod(ctx context.Context, tenantID uuid.UUID, date time.Time) (*AccountingPeriod, error) {
	period, err := r.periods.FindByDateForTenant(ctx, tenantID, date)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, shared.NewBlockedActionError(ErrCodeNoPeriod,
			fmt.Sprintf("No accounting period covers %s", date.Format("2006-01-02")), "")
	}
	if !period.IsOpen() {
		return nil, shared.NewBlockedActionError(ErrCodePeriodClosed,
			fmt.Sprintf("Period %s is %s", period.Code, period.Status), "")
	}
	return period, nil
}

// CutoverDate returns the start date of the most recently closed OPENING
// period, or nil when the tenant has not completed cutover. Journals dated
// strictly before this date are rejected regardless of period status.
func (r *PeriodResolver) CutoverDate(ctx context.Context, tenantID uuid.UUID) (*time.Time, error) {
	period, err := r.periods.FindLatestClosedOpeningForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, nil
	}
	d := period.StartDate
	return &d, nil
}

// CheckCutover rejects dates strictly before the tenant's cutover boundary
func (r *PeriodResolver) CheckCutover(ctx context.Context, tenantID uuid.UUID, date time.Time) error {
	cutover, err := r.CutoverDate(ctx, tenantID)
	if err != nil {
		return err
	}
	if cutover == nil {
		return nil
	}
	if date.Format("2006-01-02") < cutover.Format("2006-01-02") {
		return shared.NewBlockedActionError(ErrCodeCutoverViolation,
			fmt.Sprintf("Date %s precedes the cutover boundary %s",
				date.Format("2006-01-02"), cutover.Format("2006-01-02")), "")
	}
	return nil
}

// NextOpenPeriodStart finds the earliest OPEN period starting on or after the
// given date, used when advancing a reversal into a postable period
func (r *PeriodResolver) NextOpenPeriodStart(ctx context.Context, tenantID uuid.UUID, after time.Time) (*AccountingPeriod, error) {
	period, err := r.periods.FindNextOpenForTenant(ctx, tenantID, after)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, shared.NewBlockedActionError(ErrCodeNoPeriod,
			fmt.Sprintf("No open period exists on or after %s", after.Format("2006-01-02")), "")
	}
	return period, nil
}
