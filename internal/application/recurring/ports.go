package recurring

import (
	"context"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/google/uuid"
)

// GroupReader loads contract groups outside of a unit of work
type GroupReader interface {
	FindGroupByID(ctx context.Context, id uuid.UUID) (*contract.Group, error)
	ListGroupIDs(ctx context.Context) ([]uuid.UUID, error)
}

// PartnerFinder loads the payer of a group
type PartnerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error)
}

// JournalFinder finds the sale journal
type JournalFinder interface {
	FindFirstByType(ctx context.Context, t invoicing.JournalType) (*invoicing.Journal, error)
	FindByCode(ctx context.Context, code string) (*invoicing.Journal, error)
}

// InvoiceWorkflow validates draft invoices
type InvoiceWorkflow interface {
	Open(ctx context.Context, inv *invoicing.Invoice) error
}

// JobQuery counts background jobs
type JobQuery interface {
	CountByChannelAndState(ctx context.Context, channel string, state scheduler.JobState) (int, error)
}

// JobDispatcher enqueues background jobs
type JobDispatcher interface {
	Delay(ctx context.Context, channel, model, method string, args any) (*scheduler.Job, error)
}
