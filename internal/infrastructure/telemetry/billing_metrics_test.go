package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/erp/billing/internal/infrastructure/telemetry"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestBillingMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	bm, err := telemetry.NewBillingMetrics(provider.Meter(telemetry.MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordLineCompleted(ctx, "from_bvr_ref")
	bm.RecordLineCompleted(ctx, "from_bvr_ref")
	bm.RecordLineCompleted(ctx, "sponsor_name")
	bm.RecordLineUnmatched(ctx)
	bm.RecordLineFailed(ctx)
	bm.RecordInvoicesCreated(ctx, "contract_group", 4)
	bm.RecordInvoicesCreated(ctx, "contract_group", 0)
	bm.RecordGroupGenerated(ctx, 150*time.Millisecond, false)
	bm.RecordGroupGenerated(ctx, time.Second, true)
	bm.RecordInvoicesCancelled(ctx, 2)

	metrics := collect(t, reader)

	completed := metrics["billing_statement_lines_completed_total"]
	assert.Equal(t, int64(3), sumOf(t, completed))
	assert.Len(t, completed.Data.(metricdata.Sum[int64]).DataPoints, 2, "one series per strategy")

	assert.Equal(t, int64(1), sumOf(t, metrics["billing_statement_lines_unmatched_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["billing_statement_lines_failed_total"]))
	assert.Equal(t, int64(4), sumOf(t, metrics["billing_invoices_generated_total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["billing_contract_groups_generated_total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["billing_invoices_cancelled_total"]))

	hist, ok := metrics["billing_contract_group_generation_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
}

func TestBillingMetrics_NilSafe(t *testing.T) {
	var bm *telemetry.BillingMetrics
	assert.NotPanics(t, func() {
		bm.RecordLineCompleted(context.Background(), "from_amount")
		bm.RecordGroupGenerated(context.Background(), time.Second, false)
	})
}

func TestNewBillingMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewBillingMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)

	_, err = telemetry.NewBillingMetrics(noop.NewMeterProvider().Meter("test"))
	assert.NoError(t, err)
}
