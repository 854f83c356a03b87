package invoicing

import (
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type distinguishes customer from supplier invoices
type Type string

const (
	TypeOutInvoice Type = "out_invoice" // customer invoice
	TypeInInvoice  Type = "in_invoice"  // supplier invoice
)

// State is the lifecycle state of an invoice
type State string

const (
	StateDraft  State = "draft"
	StateOpen   State = "open"
	StatePaid   State = "paid"
	StateCancel State = "cancel"
)

// ReferenceType qualifies the supplier-side Reference field
type ReferenceType string

const (
	ReferenceNone ReferenceType = "none"
	ReferenceBVR  ReferenceType = "bvr"
)

// Errors raised by invoice transitions
var (
	ErrInvoiceNotDraft = shared.NewDomainError("INVOICE_NOT_DRAFT", "Invoice is not in draft state")
	ErrInvoiceNoLines  = shared.NewDomainError("INVOICE_NO_LINES", "Invoice has no lines")
	ErrInvoicePaid     = shared.NewDomainError("INVOICE_PAID", "A paid invoice cannot be cancelled")
	ErrInvoiceNotOpen  = shared.NewDomainError("INVOICE_NOT_OPEN", "Invoice is not open")
)

// Line is one invoice line
type Line struct {
	ID                uuid.UUID
	InvoiceID         uuid.UUID
	Name              string
	ProductID         *uuid.UUID
	ContractID        *uuid.UUID
	AccountID         *uuid.UUID
	AnalyticAccountID *uuid.UUID
	PriceUnit         decimal.Decimal
	Quantity          decimal.Decimal
}

// Subtotal returns price × quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.PriceUnit.Mul(l.Quantity)
}

// Invoice is the invoice aggregate root
type Invoice struct {
	shared.BaseAggregateRoot
	Type          Type
	State         State
	PartnerID     uuid.UUID
	AccountID     *uuid.UUID
	JournalID     *uuid.UUID
	PaymentTermID *uuid.UUID
	DateInvoice   time.Time
	BVRReference  string
	ReferenceType ReferenceType
	Reference     string
	InvoicerID    *uuid.UUID
	AmountTotal   decimal.Decimal
	Lines         []Line
}

// NewCustomerInvoice creates a draft out_invoice for the partner
func NewCustomerInvoice(partnerID uuid.UUID, date time.Time) *Invoice {
	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              TypeOutInvoice,
		State:             StateDraft,
		PartnerID:         partnerID,
		DateInvoice:       shared.Day(date),
		ReferenceType:     ReferenceNone,
		AmountTotal:       decimal.Zero,
	}
}

// AddLine appends a line to a draft invoice
func (i *Invoice) AddLine(line Line) error {
	if i.State != StateDraft {
		return ErrInvoiceNotDraft
	}
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	line.InvoiceID = i.ID
	i.Lines = append(i.Lines, line)
	return nil
}

// HasLines reports whether the invoice carries at least one line
func (i *Invoice) HasLines() bool {
	return len(i.Lines) > 0
}

// ComputeTotal recomputes AmountTotal from the lines
func (i *Invoice) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range i.Lines {
		total = total.Add(l.Subtotal())
	}
	i.AmountTotal = total
	return total
}

// Open validates a draft invoice
func (i *Invoice) Open() error {
	if i.State != StateDraft {
		return ErrInvoiceNotDraft
	}
	if !i.HasLines() {
		return ErrInvoiceNoLines
	}
	i.ComputeTotal()
	i.State = StateOpen
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// Cancel cancels a draft or open invoice. Cancelling twice is a no-op.
func (i *Invoice) Cancel() error {
	switch i.State {
	case StateCancel:
		return nil
	case StatePaid:
		return ErrInvoicePaid
	}
	i.State = StateCancel
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// MarkPaid records full payment of an open invoice
func (i *Invoice) MarkPaid() error {
	if i.State != StateOpen {
		return ErrInvoiceNotOpen
	}
	i.State = StatePaid
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// IsUnpaid reports whether the invoice is still draft or open
func (i *Invoice) IsUnpaid() bool {
	return i.State == StateDraft || i.State == StateOpen
}

// ContractIDs returns the distinct contracts referenced by the lines
func (i *Invoice) ContractIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, l := range i.Lines {
		if l.ContractID == nil {
			continue
		}
		if _, ok := seen[*l.ContractID]; ok {
			continue
		}
		seen[*l.ContractID] = struct{}{}
		ids = append(ids, *l.ContractID)
	}
	return ids
}
