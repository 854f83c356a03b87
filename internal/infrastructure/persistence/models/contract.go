package models

import (
	"time"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractGroupModel is the persistence model for the contract Group aggregate root.
type ContractGroupModel struct {
	AggregateModel
	PartnerID            uuid.UUID              `gorm:"type:uuid;not null;index"`
	Ref                  string                 `gorm:"type:varchar(100);not null;default:'/'"`
	BVRReference         string                 `gorm:"type:varchar(32);index"`
	PaymentTermID        *uuid.UUID             `gorm:"type:uuid"`
	AdvanceBillingMonths int                    `gorm:"not null;default:1"`
	ChangeMethod         contract.ChangeMethod  `gorm:"type:varchar(20);not null;default:'do_nothing'"`
	RecurringUnit        contract.RecurringUnit `gorm:"type:varchar(10);not null;default:'month'"`
	RecurringValue       int                    `gorm:"not null;default:1"`
	Contracts            []ContractModel        `gorm:"foreignKey:GroupID;references:ID"`
}

// TableName returns the table name for GORM
func (ContractGroupModel) TableName() string {
	return "contract_groups"
}

// ToDomain converts the persistence model to a domain Group. Contracts are
// only mapped when they were preloaded.
func (m *ContractGroupModel) ToDomain() *contract.Group {
	g := &contract.Group{
		BaseAggregateRoot:    m.ToAggregateRoot(),
		PartnerID:            m.PartnerID,
		Ref:                  m.Ref,
		BVRReference:         m.BVRReference,
		PaymentTermID:        m.PaymentTermID,
		AdvanceBillingMonths: m.AdvanceBillingMonths,
		ChangeMethod:         m.ChangeMethod,
		RecurringUnit:        m.RecurringUnit,
		RecurringValue:       m.RecurringValue,
	}
	for i := range m.Contracts {
		g.Contracts = append(g.Contracts, m.Contracts[i].ToDomain())
	}
	return g
}

// FromDomain populates the header fields from a domain Group. Contracts are
// persisted separately.
func (m *ContractGroupModel) FromDomain(g *contract.Group) {
	m.FromDomainAggregateRoot(g.BaseAggregateRoot)
	m.PartnerID = g.PartnerID
	m.Ref = g.Ref
	m.BVRReference = g.BVRReference
	m.PaymentTermID = g.PaymentTermID
	m.AdvanceBillingMonths = g.AdvanceBillingMonths
	m.ChangeMethod = g.ChangeMethod
	m.RecurringUnit = g.RecurringUnit
	m.RecurringValue = g.RecurringValue
}

// ContractGroupModelFromDomain creates a new persistence model from a domain Group.
func ContractGroupModelFromDomain(g *contract.Group) *ContractGroupModel {
	m := &ContractGroupModel{}
	m.FromDomain(g)
	return m
}

// ContractModel is the persistence model for a Contract.
type ContractModel struct {
	BaseModel
	GroupID             uuid.UUID           `gorm:"type:uuid;not null;index"`
	PartnerID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	CorrespondentID     *uuid.UUID          `gorm:"type:uuid;index"`
	Number              int                 `gorm:"not null;index"`
	ChildCode           string              `gorm:"type:varchar(20)"`
	ChildBirthdate      *time.Time          `gorm:"type:date"`
	State               contract.State      `gorm:"type:varchar(20);not null;default:'draft';index"`
	NextInvoiceDate     *time.Time          `gorm:"type:date"`
	EndDate             *time.Time          `gorm:"type:date"`
	LastPaidInvoiceDate *time.Time          `gorm:"type:date"`
	Lines               []ContractLineModel `gorm:"foreignKey:ContractID;references:ID"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *contract.Contract {
	c := &contract.Contract{
		BaseEntity:          m.BaseModel.ToDomain(),
		GroupID:             m.GroupID,
		PartnerID:           m.PartnerID,
		CorrespondentID:     m.CorrespondentID,
		Number:              m.Number,
		ChildCode:           m.ChildCode,
		ChildBirthdate:      dayPtr(m.ChildBirthdate),
		State:               m.State,
		NextInvoiceDate:     dayPtr(m.NextInvoiceDate),
		EndDate:             dayPtr(m.EndDate),
		LastPaidInvoiceDate: dayPtr(m.LastPaidInvoiceDate),
	}
	for i := range m.Lines {
		c.Lines = append(c.Lines, m.Lines[i].ToDomain())
	}
	return c
}

// FromDomain populates the persistence model from a domain Contract.
func (m *ContractModel) FromDomain(c *contract.Contract) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.GroupID = c.GroupID
	m.PartnerID = c.PartnerID
	m.CorrespondentID = c.CorrespondentID
	m.Number = c.Number
	m.ChildCode = c.ChildCode
	m.ChildBirthdate = dayPtr(c.ChildBirthdate)
	m.State = c.State
	m.NextInvoiceDate = dayPtr(c.NextInvoiceDate)
	m.EndDate = dayPtr(c.EndDate)
	m.LastPaidInvoiceDate = dayPtr(c.LastPaidInvoiceDate)
	m.Lines = make([]ContractLineModel, len(c.Lines))
	for i, l := range c.Lines {
		m.Lines[i].FromDomain(c.ID, i+1, l)
	}
}

// ContractModelFromDomain creates a new persistence model from a domain Contract.
func ContractModelFromDomain(c *contract.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// ContractLineModel is the persistence model for a contract line.
type ContractLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	ContractID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Sequence        int             `gorm:"not null;default:0"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName     string          `gorm:"type:varchar(200);not null"`
	IncomeAccountID *uuid.UUID      `gorm:"type:uuid"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
}

// TableName returns the table name for GORM
func (ContractLineModel) TableName() string {
	return "contract_lines"
}

// ToDomain converts the persistence model to a domain contract line.
func (m *ContractLineModel) ToDomain() contract.Line {
	return contract.Line{
		ID:              m.ID,
		ContractID:      m.ContractID,
		ProductID:       m.ProductID,
		ProductName:     m.ProductName,
		IncomeAccountID: m.IncomeAccountID,
		Amount:          m.Amount,
		Quantity:        m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain contract line.
func (m *ContractLineModel) FromDomain(contractID uuid.UUID, sequence int, l contract.Line) {
	m.ID = l.ID
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.ContractID = contractID
	m.Sequence = sequence
	m.ProductID = l.ProductID
	m.ProductName = l.ProductName
	m.IncomeAccountID = l.IncomeAccountID
	m.Amount = l.Amount
	m.Quantity = l.Quantity
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := shared.Day(*t)
	return &d
}
