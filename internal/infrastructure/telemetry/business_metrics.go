// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the ledger engine.
// It tracks journal posting activity, control outcomes, and approval backlog.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	journalPostedTotal *Counter
	journalAmountTotal *Counter
	controlBlockTotal  *Counter
	budgetWarnTotal    *Counter

	// Histogram metrics
	riskScore *Histogram

	// Gauge metrics (point-in-time values)
	pendingApprovalCount *Gauge
	openPeriodCount      *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	ledgerProvider LedgerMetricsProvider
}

// LedgerMetricsProvider provides ledger data for periodic metrics collection.
// This interface allows the telemetry layer to query posting state without
// depending on the ledger domain directly.
type LedgerMetricsProvider interface {
	// GetPendingApprovalCount returns the number of journals awaiting review for a tenant
	GetPendingApprovalCount(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// GetOpenPeriodCount returns the number of currently open accounting periods for a tenant
	GetOpenPeriodCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	LedgerProvider  LedgerMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		ledgerProvider: cfg.LedgerProvider,
	}

	// Initialize counter metrics
	var err error

	// Journal metrics
	bm.journalPostedTotal, err = NewCounter(
		cfg.Meter,
		"ledger_journal_posted_total",
		"Total number of journal entries posted",
		"{journals}",
	)
	if err != nil {
		return nil, err
	}

	bm.journalAmountTotal, err = NewCounter(
		cfg.Meter,
		"ledger_journal_amount_total",
		"Total posted debit amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	// Control metrics
	bm.controlBlockTotal, err = NewCounter(
		cfg.Meter,
		"ledger_control_block_total",
		"Total number of postings rejected by a financial control",
		"{blocks}",
	)
	if err != nil {
		return nil, err
	}

	bm.budgetWarnTotal, err = NewCounter(
		cfg.Meter,
		"ledger_budget_warn_total",
		"Total number of postings that generated a budget warning",
		"{warnings}",
	)
	if err != nil {
		return nil, err
	}

	bm.riskScore, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "ledger_journal_risk_score",
		Description: "Risk score assigned to journals at posting",
		Unit:        "{points}",
		Boundaries:  []float64{0, 10, 25, 50, 75, 100},
	})
	if err != nil {
		return nil, err
	}

	// Backlog gauge metrics
	bm.pendingApprovalCount, err = NewGauge(
		cfg.Meter,
		"ledger_pending_approval_count",
		"Number of journals awaiting review",
		"{journals}",
	)
	if err != nil {
		return nil, err
	}

	bm.openPeriodCount, err = NewGauge(
		cfg.Meter,
		"ledger_open_period_count",
		"Number of currently open accounting periods",
		"{periods}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Journal Metrics
// =============================================================================

// RecordJournalPosted records a successful journal posting.
// This should be called from the application layer after the posting transaction commits.
func (bm *BusinessMetrics) RecordJournalPosted(ctx context.Context, tenantID uuid.UUID, sourceModule string) {
	bm.journalPostedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrSourceModule.String(sourceModule),
	)
}

// RecordJournalAmount records the posted debit total.
// Amount should be in the smallest currency unit (cents).
func (bm *BusinessMetrics) RecordJournalAmount(ctx context.Context, tenantID uuid.UUID, sourceModule string, amountCents int64) {
	bm.journalAmountTotal.Add(ctx, amountCents,
		AttrTenantID.String(tenantID.String()),
		AttrSourceModule.String(sourceModule),
	)
}

// RecordJournalWithAmount is a convenience method that records both journal count and amount.
func (bm *BusinessMetrics) RecordJournalWithAmount(ctx context.Context, tenantID uuid.UUID, sourceModule string, debitTotal decimal.Decimal) {
	bm.RecordJournalPosted(ctx, tenantID, sourceModule)

	// Convert to cents (multiply by 100)
	amountCents := debitTotal.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordJournalAmount(ctx, tenantID, sourceModule, amountCents)
}

// RecordRiskScore records the risk score assigned to a journal at posting.
func (bm *BusinessMetrics) RecordRiskScore(ctx context.Context, tenantID uuid.UUID, score int64) {
	bm.riskScore.Record(ctx, float64(score),
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Control Metrics
// =============================================================================

// ControlKind identifies the financial control that produced an outcome.
type ControlKind string

const (
	ControlPeriod        ControlKind = "period"
	ControlBudget        ControlKind = "budget"
	ControlSoD           ControlKind = "sod"
	ControlJustification ControlKind = "justification"
)

// RecordControlBlock records a posting rejected by a financial control.
func (bm *BusinessMetrics) RecordControlBlock(ctx context.Context, tenantID uuid.UUID, control ControlKind) {
	bm.controlBlockTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrControl.String(string(control)),
	)
}

// RecordBudgetWarn records a posting that went through with a budget warning.
func (bm *BusinessMetrics) RecordBudgetWarn(ctx context.Context, tenantID uuid.UUID) {
	bm.budgetWarnTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Backlog Metrics
// =============================================================================

// RecordPendingApprovalCount records the number of journals awaiting review.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordPendingApprovalCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.pendingApprovalCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordOpenPeriodCount records the number of currently open accounting periods.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOpenPeriodCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.openPeriodCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects backlog metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectBacklogMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectBacklogMetrics(ctx, tenantProvider)
		}
	}
}

// collectBacklogMetrics collects backlog gauge metrics for all tenants.
func (bm *BusinessMetrics) collectBacklogMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.ledgerProvider == nil {
		bm.logger.Debug("No ledger provider configured, skipping backlog metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantBacklogMetrics(ctx, tenantID)
	}
}

// collectTenantBacklogMetrics collects backlog metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantBacklogMetrics(ctx context.Context, tenantID uuid.UUID) {
	// Collect pending approval count
	pending, err := bm.ledgerProvider.GetPendingApprovalCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get pending approval count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordPendingApprovalCount(ctx, tenantID, pending)
	}

	// Collect open period count
	openPeriods, err := bm.ledgerProvider.GetOpenPeriodCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get open period count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOpenPeriodCount(ctx, tenantID, openPeriods)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	// Additional business attributes can be added here
	AttrActorRole = attribute.Key("actor_role")
)
