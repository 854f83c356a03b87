package models

import (
	"time"

	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	Type          invoicing.Type          `gorm:"type:varchar(20);not null;index"`
	State         invoicing.State         `gorm:"type:varchar(20);not null;default:'draft';index"`
	PartnerID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	AccountID     *uuid.UUID              `gorm:"type:uuid"`
	JournalID     *uuid.UUID              `gorm:"type:uuid"`
	PaymentTermID *uuid.UUID              `gorm:"type:uuid"`
	DateInvoice   time.Time               `gorm:"type:date;not null;index"`
	BVRReference  string                  `gorm:"type:varchar(32);index"`
	ReferenceType invoicing.ReferenceType `gorm:"type:varchar(10);not null;default:'none'"`
	Reference     string                  `gorm:"type:varchar(64);index"`
	InvoicerID    *uuid.UUID              `gorm:"type:uuid;index"`
	AmountTotal   decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Lines         []InvoiceLineModel      `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Type:              m.Type,
		State:             m.State,
		PartnerID:         m.PartnerID,
		AccountID:         m.AccountID,
		JournalID:         m.JournalID,
		PaymentTermID:     m.PaymentTermID,
		DateInvoice:       shared.Day(m.DateInvoice),
		BVRReference:      m.BVRReference,
		ReferenceType:     m.ReferenceType,
		Reference:         m.Reference,
		InvoicerID:        m.InvoicerID,
		AmountTotal:       m.AmountTotal,
	}
	if len(m.Lines) > 0 {
		inv.Lines = make([]invoicing.Line, len(m.Lines))
		for i := range m.Lines {
			inv.Lines[i] = m.Lines[i].ToDomain()
		}
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.Type = inv.Type
	m.State = inv.State
	m.PartnerID = inv.PartnerID
	m.AccountID = inv.AccountID
	m.JournalID = inv.JournalID
	m.PaymentTermID = inv.PaymentTermID
	m.DateInvoice = shared.Day(inv.DateInvoice)
	m.BVRReference = inv.BVRReference
	m.ReferenceType = inv.ReferenceType
	m.Reference = inv.Reference
	m.InvoicerID = inv.InvoicerID
	m.AmountTotal = inv.AmountTotal
	m.Lines = make([]InvoiceLineModel, len(inv.Lines))
	for i, l := range inv.Lines {
		m.Lines[i].FromDomain(inv.ID, i+1, l)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineModel is the persistence model for an invoice line.
type InvoiceLineModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Sequence          int             `gorm:"not null;default:0"`
	Name              string          `gorm:"type:varchar(255);not null"`
	ProductID         *uuid.UUID      `gorm:"type:uuid"`
	ContractID        *uuid.UUID      `gorm:"type:uuid;index"`
	AccountID         *uuid.UUID      `gorm:"type:uuid"`
	AnalyticAccountID *uuid.UUID      `gorm:"type:uuid"`
	PriceUnit         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain invoice line.
func (m *InvoiceLineModel) ToDomain() invoicing.Line {
	return invoicing.Line{
		ID:                m.ID,
		InvoiceID:         m.InvoiceID,
		Name:              m.Name,
		ProductID:         m.ProductID,
		ContractID:        m.ContractID,
		AccountID:         m.AccountID,
		AnalyticAccountID: m.AnalyticAccountID,
		PriceUnit:         m.PriceUnit,
		Quantity:          m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain invoice line.
func (m *InvoiceLineModel) FromDomain(invoiceID uuid.UUID, sequence int, l invoicing.Line) {
	m.ID = l.ID
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.InvoiceID = invoiceID
	m.Sequence = sequence
	m.Name = l.Name
	m.ProductID = l.ProductID
	m.ContractID = l.ContractID
	m.AccountID = l.AccountID
	m.AnalyticAccountID = l.AnalyticAccountID
	m.PriceUnit = l.PriceUnit
	m.Quantity = l.Quantity
}

// InvoicerModel is the persistence model for an Invoicer.
type InvoicerModel struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key"`
	Source    invoicing.Source `gorm:"type:varchar(30);not null"`
	CreatedAt time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoicerModel) TableName() string {
	return "invoicers"
}

// ToDomain converts the persistence model to a domain Invoicer.
func (m *InvoicerModel) ToDomain() *invoicing.Invoicer {
	return &invoicing.Invoicer{ID: m.ID, Source: m.Source, CreatedAt: m.CreatedAt}
}

// InvoicerModelFromDomain creates a new persistence model from a domain Invoicer.
func InvoicerModelFromDomain(inv *invoicing.Invoicer) *InvoicerModel {
	return &InvoicerModel{ID: inv.ID, Source: inv.Source, CreatedAt: inv.CreatedAt}
}

// ProductModel is the persistence model for a Product.
type ProductModel struct {
	BaseModel
	Name            string     `gorm:"type:varchar(200);not null;index"`
	Category        string     `gorm:"type:varchar(100);index"`
	FundCode        int        `gorm:"not null;default:0;index"`
	IncomeAccountID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *invoicing.Product {
	return &invoicing.Product{
		BaseEntity:      m.BaseModel.ToDomain(),
		Name:            m.Name,
		Category:        m.Category,
		FundCode:        m.FundCode,
		IncomeAccountID: m.IncomeAccountID,
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *invoicing.Product) *ProductModel {
	m := &ProductModel{
		Name:            p.Name,
		Category:        p.Category,
		FundCode:        p.FundCode,
		IncomeAccountID: p.IncomeAccountID,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// AccountModel is the persistence model for a ledger Account.
type AccountModel struct {
	BaseModel
	Code string `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account.
func (m *AccountModel) ToDomain() *invoicing.Account {
	return &invoicing.Account{BaseEntity: m.BaseModel.ToDomain(), Code: m.Code, Name: m.Name}
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *invoicing.Account) *AccountModel {
	m := &AccountModel{Code: a.Code, Name: a.Name}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// JournalModel is the persistence model for a Journal.
type JournalModel struct {
	BaseModel
	Code string                `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name string                `gorm:"type:varchar(200)"`
	Type invoicing.JournalType `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (JournalModel) TableName() string {
	return "journals"
}

// ToDomain converts the persistence model to a domain Journal.
func (m *JournalModel) ToDomain() *invoicing.Journal {
	return &invoicing.Journal{BaseEntity: m.BaseModel.ToDomain(), Code: m.Code, Name: m.Name, Type: m.Type}
}

// JournalModelFromDomain creates a new persistence model from a domain Journal.
func JournalModelFromDomain(j *invoicing.Journal) *JournalModel {
	m := &JournalModel{Code: j.Code, Name: j.Name, Type: j.Type}
	m.FromDomainBaseEntity(j.BaseEntity)
	return m
}

// PaymentTermModel is the persistence model for a PaymentTerm.
type PaymentTermModel struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (PaymentTermModel) TableName() string {
	return "payment_terms"
}

// ToDomain converts the persistence model to a domain PaymentTerm.
func (m *PaymentTermModel) ToDomain() *invoicing.PaymentTerm {
	return &invoicing.PaymentTerm{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// PaymentTermModelFromDomain creates a new persistence model from a domain PaymentTerm.
func PaymentTermModelFromDomain(pt *invoicing.PaymentTerm) *PaymentTermModel {
	m := &PaymentTermModel{Name: pt.Name}
	m.FromDomainBaseEntity(pt.BaseEntity)
	return m
}

// AnalyticDefaultModel is the persistence model for an AnalyticDefault rule.
type AnalyticDefaultModel struct {
	BaseModel
	ProductID         *uuid.UUID `gorm:"type:uuid;index"`
	PartnerID         *uuid.UUID `gorm:"type:uuid;index"`
	DateStart         *time.Time `gorm:"type:date"`
	DateStop          *time.Time `gorm:"type:date"`
	Sequence          int        `gorm:"not null;default:10"`
	AnalyticAccountID uuid.UUID  `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (AnalyticDefaultModel) TableName() string {
	return "analytic_defaults"
}

// ToDomain converts the persistence model to a domain AnalyticDefault.
func (m *AnalyticDefaultModel) ToDomain() *invoicing.AnalyticDefault {
	return &invoicing.AnalyticDefault{
		BaseEntity:        m.BaseModel.ToDomain(),
		ProductID:         m.ProductID,
		PartnerID:         m.PartnerID,
		DateStart:         m.DateStart,
		DateStop:          m.DateStop,
		Sequence:          m.Sequence,
		AnalyticAccountID: m.AnalyticAccountID,
	}
}

// AnalyticDefaultModelFromDomain creates a new persistence model from a domain AnalyticDefault.
func AnalyticDefaultModelFromDomain(d *invoicing.AnalyticDefault) *AnalyticDefaultModel {
	m := &AnalyticDefaultModel{
		ProductID:         d.ProductID,
		PartnerID:         d.PartnerID,
		DateStart:         d.DateStart,
		DateStop:          d.DateStop,
		Sequence:          d.Sequence,
		AnalyticAccountID: d.AnalyticAccountID,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}
