package models

import (
	"github.com/erp/billing/internal/domain/partner"
	"github.com/google/uuid"
)

// PartnerModel is the persistence model for the Partner domain entity.
type PartnerModel struct {
	AggregateModel
	Ref                 string     `gorm:"type:varchar(20);index"`
	FirstName           string     `gorm:"type:varchar(200)"`
	LastName            string     `gorm:"type:varchar(200);not null"`
	LastNameKey         string     `gorm:"type:varchar(200);not null;index"`
	IsCompany           bool       `gorm:"not null;default:false"`
	ParentID            *uuid.UUID `gorm:"type:uuid;index"`
	ReceivableAccountID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PartnerModel) TableName() string {
	return "partners"
}

// ToDomain converts the persistence model to a domain Partner entity.
func (m *PartnerModel) ToDomain() *partner.Partner {
	return &partner.Partner{
		BaseAggregateRoot:   m.ToAggregateRoot(),
		Ref:                 m.Ref,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		IsCompany:           m.IsCompany,
		ParentID:            m.ParentID,
		ReceivableAccountID: m.ReceivableAccountID,
	}
}

// FromDomain populates the persistence model from a domain Partner entity.
// LastNameKey holds the folded last name used by name searches.
func (m *PartnerModel) FromDomain(p *partner.Partner) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Ref = p.Ref
	m.FirstName = p.FirstName
	m.LastName = p.LastName
	m.LastNameKey = partner.NameKey(p.LastName)
	m.IsCompany = p.IsCompany
	m.ParentID = p.ParentID
	m.ReceivableAccountID = p.ReceivableAccountID
}

// PartnerModelFromDomain creates a new persistence model from a domain Partner entity.
func PartnerModelFromDomain(p *partner.Partner) *PartnerModel {
	m := &PartnerModel{}
	m.FromDomain(p)
	return m
}
