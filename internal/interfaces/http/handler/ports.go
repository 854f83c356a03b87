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
)

// StatementImporter imports statement files and completes their lines
type StatementImporter interface {
	Import(ctx context.Context, req completionapp.ImportStatementRequest) (*completionapp.ImportStatementResult, error)
	Complete(ctx context.Context, statementID uuid.UUID) (*completionapp.ImportResult, error)
}

// RuleManager lists and creates completion rules
type RuleManager interface {
	List(ctx context.Context, journalID uuid.UUID) ([]completionapp.RuleResponse, error)
	Create(ctx context.Context, input completionapp.CreateRuleInput) (*completionapp.RuleResponse, error)
	Strategies() []completionapp.StrategyResponse
}

// InvoiceGenerator generates, cleans and validates recurring invoices
type InvoiceGenerator interface {
	RequestGeneration(ctx context.Context, req recurringapp.GenerationRequest) (*recurringapp.GenerationTicket, error)
	RequestClean(ctx context.Context, groupIDs []uuid.UUID, async bool) (*uuid.UUID, []invoicing.Invoice, error)
	ValidateInvoices(ctx context.Context, invoicerID uuid.UUID) (int, error)
}

// GroupUpdater updates contract groups
type GroupUpdater interface {
	Get(ctx context.Context, groupID uuid.UUID) (*contract.Group, error)
	Update(ctx context.Context, groupID uuid.UUID, changes contract.GroupChanges, async bool) (*recurringapp.UpdateGroupResult, error)
}

// InvoicerExporter exports invoicer workbooks
type InvoicerExporter interface {
	Export(ctx context.Context, invoicerID uuid.UUID) (*recurringapp.InvoicerReport, error)
	ExportAndArchive(ctx context.Context, invoicerID uuid.UUID, linkTTL time.Duration) (*recurringapp.InvoicerReport, error)
}

// JobBrowser reads background jobs
type JobBrowser interface {
	Get(ctx context.Context, id uuid.UUID) (*scheduler.Job, error)
	List(ctx context.Context, filter scheduler.JobFilter) ([]*scheduler.Job, error)
	RelatedAction(ctx context.Context, id uuid.UUID) (*scheduler.RelatedAction, error)
}
