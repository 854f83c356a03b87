package recurring

import (
	"context"
	"testing"

	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type registration struct {
	executor scheduler.JobExecutor
	related  scheduler.RelatedActionFunc
}

type fakeRegistrar map[string]registration

func (r fakeRegistrar) Register(method string, executor scheduler.JobExecutor, related scheduler.RelatedActionFunc) {
	r[method] = registration{executor: executor, related: related}
}

func registeredJobs(t *testing.T, f *fixture) fakeRegistrar {
	reg := fakeRegistrar{}
	RegisterJobs(reg, f.svc, zaptest.NewLogger(t))
	require.Contains(t, reg, MethodGenerateInvoices)
	require.Contains(t, reg, MethodCleanGenerateInvoices)
	return reg
}

func newJob(t *testing.T, method string, args any) *scheduler.Job {
	job, err := scheduler.NewJob(JobChannel, JobModel, method, args, 0)
	require.NoError(t, err)
	return job
}

func TestGenerateJob(t *testing.T) {
	ctx := context.Background()

	t.Run("generates and validates into the requested invoicer", func(t *testing.T) {
		f := newFixture(t)
		reg := registeredJobs(t, f)
		g := f.addGroup(t)
		f.addContract(g, day(2024, 1, 1))
		invoicerID := uuid.New()

		job := newJob(t, MethodGenerateInvoices, GenerateJobArgs{GroupIDs: []uuid.UUID{g.ID}, InvoicerID: invoicerID, Validate: true})
		require.NoError(t, reg[MethodGenerateInvoices].executor.Execute(ctx, job))

		open := f.invoices.inState(invoicing.StateOpen)
		require.Len(t, open, 2)
		assert.Equal(t, invoicerID, *open[0].InvoicerID)
	})

	t.Run("fails when a group failed", func(t *testing.T) {
		f := newFixture(t)
		reg := registeredJobs(t, f)
		g := f.addGroup(t)
		f.addContract(g, day(2024, 1, 1))

		job := newJob(t, MethodGenerateInvoices, GenerateJobArgs{GroupIDs: []uuid.UUID{g.ID, uuid.New()}, InvoicerID: uuid.New()})
		err := reg[MethodGenerateInvoices].executor.Execute(ctx, job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 contract groups failed")
		assert.Len(t, f.invoices.invoices, 2)
	})

	t.Run("related action opens the invoicer", func(t *testing.T) {
		f := newFixture(t)
		reg := registeredJobs(t, f)
		invoicerID := uuid.New()

		job := newJob(t, MethodGenerateInvoices, GenerateJobArgs{InvoicerID: invoicerID})
		action, err := reg[MethodGenerateInvoices].related(job)
		require.NoError(t, err)
		assert.Equal(t, InvoicerModel, action.Model)
		assert.Equal(t, invoicerID, action.ResourceID)
		assert.Equal(t, "open invoicer "+invoicerID.String(), action.Label)
		assert.Nil(t, reg[MethodCleanGenerateInvoices].related)
	})

	t.Run("malformed arguments", func(t *testing.T) {
		f := newFixture(t)
		reg := registeredJobs(t, f)
		job := newJob(t, MethodGenerateInvoices, "not an object")

		assert.Error(t, reg[MethodGenerateInvoices].executor.Execute(ctx, job))
	})
}

func TestCleanJob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg := registeredJobs(t, f)
	g := f.addGroup(t)
	f.addContract(g, day(2024, 1, 1))
	_, err := f.svc.GenerateAndValidate(ctx, []uuid.UUID{g.ID}, GenerateOptions{})
	require.NoError(t, err)

	job := newJob(t, MethodCleanGenerateInvoices, CleanJobArgs{GroupIDs: []uuid.UUID{g.ID}})
	require.NoError(t, reg[MethodCleanGenerateInvoices].executor.Execute(ctx, job))

	assert.Len(t, f.invoices.inState(invoicing.StateCancel), 1)
	assert.Len(t, f.invoices.inState(invoicing.StateOpen), 2)
}
