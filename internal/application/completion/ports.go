package completion

import (
	"context"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/google/uuid"
)

// ProductFinder finds the product a payment reference designates
type ProductFinder interface {
	FindByName(ctx context.Context, name string) (*invoicing.Product, error)
	FindByFundCode(ctx context.Context, fundCode int) (*invoicing.Product, error)
}

// GiftContractFinder finds the sponsorship a gift payment is meant for
type GiftContractFinder interface {
	FindForGift(ctx context.Context, partnerID uuid.UUID, number int) ([]contract.Contract, error)
}

// StatementInvoicers reads and records the invoicer of a statement
type StatementInvoicers interface {
	FindByID(ctx context.Context, id uuid.UUID) (*completion.Statement, error)
	SetInvoicer(ctx context.Context, statementID, invoicerID uuid.UUID) error
}

// JournalFinder finds the sale journal
type JournalFinder interface {
	FindFirstByType(ctx context.Context, t invoicing.JournalType) (*invoicing.Journal, error)
	FindByCode(ctx context.Context, code string) (*invoicing.Journal, error)
}

// PaymentTermFinder finds payment terms by name
type PaymentTermFinder interface {
	FindByName(ctx context.Context, name string) (*invoicing.PaymentTerm, error)
}

// AnalyticDefaultFinder lists analytic defaults for a product and partner
type AnalyticDefaultFinder interface {
	FindCandidates(ctx context.Context, productID, partnerID uuid.UUID) ([]invoicing.AnalyticDefault, error)
}

// InvoiceWorkflow validates draft invoices
type InvoiceWorkflow interface {
	Open(ctx context.Context, inv *invoicing.Invoice) error
}

// LineCompleter proposes the completion of a statement line
type LineCompleter interface {
	Complete(ctx context.Context, line completion.StatementLine) (completion.Match, error)
}

// StatementStore persists statements and line completions
type StatementStore interface {
	Create(ctx context.Context, s *completion.Statement) error
	FindByID(ctx context.Context, id uuid.UUID) (*completion.Statement, error)
	UpdateLine(ctx context.Context, lineID uuid.UUID, update completion.FieldUpdate) error
}

// UnitOfWork runs fn in a transaction. Repositories called with the context
// handed to fn take part in it.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoOpUnitOfWork runs fn without a transaction
type NoOpUnitOfWork struct{}

// Do calls fn(ctx)
func (NoOpUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
