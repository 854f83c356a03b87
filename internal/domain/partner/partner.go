package partner

import (
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// Partner is a donor, sponsor, company or contact that statement lines and
// invoices are attached to.
type Partner struct {
	shared.BaseAggregateRoot
	Ref                 string // numeric partner code, without leading zeros
	FirstName           string
	LastName            string
	IsCompany           bool
	ParentID            *uuid.UUID // commercial entity for contacts of a company
	ReceivableAccountID *uuid.UUID
}

// NewPartner creates a partner with the given code and names
func NewPartner(ref, firstName, lastName string, isCompany bool) (*Partner, error) {
	if strings.TrimSpace(lastName) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Partner last name cannot be empty")
	}
	return &Partner{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Ref:               strings.TrimLeft(strings.TrimSpace(ref), "0"),
		FirstName:         strings.TrimSpace(firstName),
		LastName:          strings.TrimSpace(lastName),
		IsCompany:         isCompany,
	}, nil
}

// DisplayName returns "Lastname Firstname" the way names appear on statements
func (p *Partner) DisplayName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return p.LastName + " " + p.FirstName
}

// AccountingPartnerID returns the partner that carries the accounting entries:
// the parent company for a contact, the partner itself otherwise.
func (p *Partner) AccountingPartnerID() uuid.UUID {
	if !p.IsCompany && p.ParentID != nil {
		return *p.ParentID
	}
	return p.ID
}

// AttachTo makes the partner a contact of the given company
func (p *Partner) AttachTo(parentID uuid.UUID) error {
	if parentID == p.ID {
		return shared.NewDomainError("INVALID_PARENT", "A partner cannot be its own parent")
	}
	p.ParentID = &parentID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetReceivableAccount sets the account used on customer invoices
func (p *Partner) SetReceivableAccount(accountID uuid.UUID) {
	p.ReceivableAccountID = &accountID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
