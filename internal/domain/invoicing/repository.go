package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Criteria filters invoices. Zero-valued fields are ignored.
type Criteria struct {
	Type          Type
	States        []State
	BVRReference  string
	ReferenceType ReferenceType
	Reference     string
	AmountTotal   *decimal.Decimal
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// Create inserts the invoice and its lines
	Create(ctx context.Context, inv *Invoice) error

	// Save updates the invoice header and replaces its lines
	Save(ctx context.Context, inv *Invoice) error

	// Delete removes the invoice and its lines
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds an invoice with its lines, nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByInvoicer lists the invoices attached to an invoicer
	FindByInvoicer(ctx context.Context, invoicerID uuid.UUID) ([]Invoice, error)

	// FindUnpaidByContractsAfter lists draft/open customer invoices dated strictly
	// after the given day that carry a line for one of the contracts
	FindUnpaidByContractsAfter(ctx context.Context, contractIDs []uuid.UUID, after time.Time) ([]Invoice, error)

	// Query lists invoices matching the criteria in creation order
	Query(ctx context.Context, c Criteria) ([]Invoice, error)
}

// InvoicerRepository defines the interface for invoicer persistence
type InvoicerRepository interface {
	Create(ctx context.Context, inv *Invoicer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoicer, error)
}

// ProductRepository defines product lookups
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	FindByFundCode(ctx context.Context, fundCode int) (*Product, error)
	Save(ctx context.Context, p *Product) error
}

// AccountRepository defines ledger account lookups
type AccountRepository interface {
	FindByCode(ctx context.Context, code string) (*Account, error)
	Save(ctx context.Context, a *Account) error
}

// JournalRepository defines journal lookups
type JournalRepository interface {
	FindFirstByType(ctx context.Context, t JournalType) (*Journal, error)
	FindByCode(ctx context.Context, code string) (*Journal, error)
	Save(ctx context.Context, j *Journal) error
}

// PaymentTermRepository defines payment term lookups
type PaymentTermRepository interface {
	FindByName(ctx context.Context, name string) (*PaymentTerm, error)
	Save(ctx context.Context, pt *PaymentTerm) error
}

// AnalyticDefaultRepository lists analytic defaults that may apply to a product
// and partner; final selection is done by SelectAnalyticDefault
type AnalyticDefaultRepository interface {
	FindCandidates(ctx context.Context, productID, partnerID uuid.UUID) ([]AnalyticDefault, error)
	Save(ctx context.Context, d *AnalyticDefault) error
}
