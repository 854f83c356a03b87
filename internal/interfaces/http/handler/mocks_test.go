package handler

import (
	"context"
	"time"

	completionapp "github.com/erp/billing/internal/application/completion"
	recurringapp "github.com/erp/billing/internal/application/recurring"
	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockStatementImporter struct{ mock.Mock }

func (m *mockStatementImporter) Import(ctx context.Context, req completionapp.ImportStatementRequest) (*completionapp.ImportStatementResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*completionapp.ImportStatementResult)
	return result, args.Error(1)
}

func (m *mockStatementImporter) Complete(ctx context.Context, statementID uuid.UUID) (*completionapp.ImportResult, error) {
	args := m.Called(ctx, statementID)
	result, _ := args.Get(0).(*completionapp.ImportResult)
	return result, args.Error(1)
}

type mockRuleManager struct{ mock.Mock }

func (m *mockRuleManager) List(ctx context.Context, journalID uuid.UUID) ([]completionapp.RuleResponse, error) {
	args := m.Called(ctx, journalID)
	rules, _ := args.Get(0).([]completionapp.RuleResponse)
	return rules, args.Error(1)
}

func (m *mockRuleManager) Create(ctx context.Context, input completionapp.CreateRuleInput) (*completionapp.RuleResponse, error) {
	args := m.Called(ctx, input)
	rule, _ := args.Get(0).(*completionapp.RuleResponse)
	return rule, args.Error(1)
}

func (m *mockRuleManager) Strategies() []completionapp.StrategyResponse {
	args := m.Called()
	return args.Get(0).([]completionapp.StrategyResponse)
}

type mockInvoiceGenerator struct{ mock.Mock }

func (m *mockInvoiceGenerator) RequestGeneration(ctx context.Context, req recurringapp.GenerationRequest) (*recurringapp.GenerationTicket, error) {
	args := m.Called(ctx, req)
	ticket, _ := args.Get(0).(*recurringapp.GenerationTicket)
	return ticket, args.Error(1)
}

func (m *mockInvoiceGenerator) RequestClean(ctx context.Context, groupIDs []uuid.UUID, async bool) (*uuid.UUID, []invoicing.Invoice, error) {
	args := m.Called(ctx, groupIDs, async)
	jobID, _ := args.Get(0).(*uuid.UUID)
	cancelled, _ := args.Get(1).([]invoicing.Invoice)
	return jobID, cancelled, args.Error(2)
}

func (m *mockInvoiceGenerator) ValidateInvoices(ctx context.Context, invoicerID uuid.UUID) (int, error) {
	args := m.Called(ctx, invoicerID)
	return args.Int(0), args.Error(1)
}

type mockGroupUpdater struct{ mock.Mock }

func (m *mockGroupUpdater) Get(ctx context.Context, groupID uuid.UUID) (*contract.Group, error) {
	args := m.Called(ctx, groupID)
	group, _ := args.Get(0).(*contract.Group)
	return group, args.Error(1)
}

func (m *mockGroupUpdater) Update(ctx context.Context, groupID uuid.UUID, changes contract.GroupChanges, async bool) (*recurringapp.UpdateGroupResult, error) {
	args := m.Called(ctx, groupID, changes, async)
	result, _ := args.Get(0).(*recurringapp.UpdateGroupResult)
	return result, args.Error(1)
}

type mockInvoicerExporter struct{ mock.Mock }

func (m *mockInvoicerExporter) Export(ctx context.Context, invoicerID uuid.UUID) (*recurringapp.InvoicerReport, error) {
	args := m.Called(ctx, invoicerID)
	report, _ := args.Get(0).(*recurringapp.InvoicerReport)
	return report, args.Error(1)
}

func (m *mockInvoicerExporter) ExportAndArchive(ctx context.Context, invoicerID uuid.UUID, linkTTL time.Duration) (*recurringapp.InvoicerReport, error) {
	args := m.Called(ctx, invoicerID, linkTTL)
	report, _ := args.Get(0).(*recurringapp.InvoicerReport)
	return report, args.Error(1)
}

type mockJobBrowser struct{ mock.Mock }

func (m *mockJobBrowser) Get(ctx context.Context, id uuid.UUID) (*scheduler.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*scheduler.Job)
	return job, args.Error(1)
}

func (m *mockJobBrowser) List(ctx context.Context, filter scheduler.JobFilter) ([]*scheduler.Job, error) {
	args := m.Called(ctx, filter)
	jobs, _ := args.Get(0).([]*scheduler.Job)
	return jobs, args.Error(1)
}

func (m *mockJobBrowser) RelatedAction(ctx context.Context, id uuid.UUID) (*scheduler.RelatedAction, error) {
	args := m.Called(ctx, id)
	action, _ := args.Get(0).(*scheduler.RelatedAction)
	return action, args.Error(1)
}
