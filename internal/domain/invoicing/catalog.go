package invoicing

import (
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// Product is a sellable item referenced by contract and invoice lines
type Product struct {
	shared.BaseEntity
	Name            string
	Category        string
	FundCode        int // 0 when the product is not a fund donation
	IncomeAccountID *uuid.UUID
}

// InCategory reports whether the product belongs to the named category
func (p *Product) InCategory(category string) bool {
	return p.Category == category
}

// Account is a ledger account identified by its chart code
type Account struct {
	shared.BaseEntity
	Code string
	Name string
}

// JournalType classifies journals
type JournalType string

const (
	JournalSale JournalType = "sale"
	JournalBank JournalType = "bank"
)

// Journal is an accounting journal
type Journal struct {
	shared.BaseEntity
	Code string
	Name string
	Type JournalType
}

// PaymentTerm names the due-date policy of an invoice
type PaymentTerm struct {
	shared.BaseEntity
	Name string
}
