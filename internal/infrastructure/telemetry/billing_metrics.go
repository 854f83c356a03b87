package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the billing metrics.
const MeterName = "billing"

// BillingMetrics records completion and generation activity.
type BillingMetrics struct {
	linesCompleted   *Counter
	linesFailed      *Counter
	linesUnmatched   *Counter
	invoicesCreated  *Counter
	groupsGenerated  *Counter
	groupDuration    *Histogram
	invoicesCanceled *Counter
}

// NewBillingMetrics creates the billing instruments on the meter.
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BillingMetrics{}
	var err error

	if bm.linesCompleted, err = NewCounter(meter,
		"billing_statement_lines_completed_total",
		"Statement lines completed by a completion rule",
		"{lines}"); err != nil {
		return nil, err
	}
	if bm.linesFailed, err = NewCounter(meter,
		"billing_statement_lines_failed_total",
		"Statement lines whose completion could not be stored",
		"{lines}"); err != nil {
		return nil, err
	}
	if bm.linesUnmatched, err = NewCounter(meter,
		"billing_statement_lines_unmatched_total",
		"Statement lines no completion rule matched",
		"{lines}"); err != nil {
		return nil, err
	}
	if bm.invoicesCreated, err = NewCounter(meter,
		"billing_invoices_generated_total",
		"Invoices created by recurring generation or statement completion",
		"{invoices}"); err != nil {
		return nil, err
	}
	if bm.groupsGenerated, err = NewCounter(meter,
		"billing_contract_groups_generated_total",
		"Contract groups processed by recurring generation",
		"{groups}"); err != nil {
		return nil, err
	}
	if bm.groupDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "billing_contract_group_generation_duration_seconds",
		Description: "Time spent generating the invoices of one contract group",
		Unit:        "s",
		Boundaries:  GenerationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.invoicesCanceled, err = NewCounter(meter,
		"billing_invoices_cancelled_total",
		"Generated invoices cancelled by clean and regenerate",
		"{invoices}"); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordLineCompleted counts a completed statement line per strategy.
func (bm *BillingMetrics) RecordLineCompleted(ctx context.Context, strategy string) {
	if bm == nil {
		return
	}
	bm.linesCompleted.Inc(ctx, AttrStrategy.String(strategy))
}

// RecordLineUnmatched counts a line left untouched.
func (bm *BillingMetrics) RecordLineUnmatched(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.linesUnmatched.Inc(ctx)
}

// RecordLineFailed counts a line whose completion failed.
func (bm *BillingMetrics) RecordLineFailed(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.linesFailed.Inc(ctx)
}

// RecordInvoicesCreated counts invoices created from a source.
func (bm *BillingMetrics) RecordInvoicesCreated(ctx context.Context, source string, n int) {
	if bm == nil || n == 0 {
		return
	}
	bm.invoicesCreated.Add(ctx, int64(n), AttrSource.String(source))
}

// RecordGroupGenerated records one processed contract group.
func (bm *BillingMetrics) RecordGroupGenerated(ctx context.Context, d time.Duration, failed bool) {
	if bm == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	bm.groupsGenerated.Inc(ctx, AttrOutcome.String(outcome))
	bm.groupDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}

// RecordInvoicesCancelled counts invoices cancelled by a clean.
func (bm *BillingMetrics) RecordInvoicesCancelled(ctx context.Context, n int) {
	if bm == nil || n == 0 {
		return
	}
	bm.invoicesCanceled.Add(ctx, int64(n))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBillingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
