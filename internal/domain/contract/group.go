package contract

import (
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// ChangeMethod is applied after a group's billing terms change
type ChangeMethod string

const (
	ChangeDoNothing     ChangeMethod = "do_nothing"
	ChangeCleanInvoices ChangeMethod = "clean_invoices"
)

// ErrInvalidChangeMethod is returned for unknown change methods
var ErrInvalidChangeMethod = shared.NewDomainError("INVALID_CHANGE_METHOD", "Change method must be do_nothing or clean_invoices")

// ChangeMethods lists the available change methods in display order
func ChangeMethods() []ChangeMethod {
	return []ChangeMethod{ChangeDoNothing, ChangeCleanInvoices}
}

// IsValid reports whether m is a known change method
func (m ChangeMethod) IsValid() bool {
	return m == ChangeDoNothing || m == ChangeCleanInvoices
}

// Label returns the human label
func (m ChangeMethod) Label() string {
	switch m {
	case ChangeDoNothing:
		return "Nothing"
	case ChangeCleanInvoices:
		return "Clean invoices"
	}
	return string(m)
}

// Group bundles the contracts of one payer under a common billing cadence.
// One invoice is produced per group per due date.
type Group struct {
	shared.BaseAggregateRoot
	PartnerID            uuid.UUID
	Ref                  string
	BVRReference         string
	PaymentTermID        *uuid.UUID
	AdvanceBillingMonths int
	ChangeMethod         ChangeMethod
	RecurringUnit        RecurringUnit
	RecurringValue       int
	Contracts            []*Contract
}

// NewGroup creates a group with monthly billing one month in advance
func NewGroup(partnerID uuid.UUID) *Group {
	return &Group{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		PartnerID:            partnerID,
		Ref:                  "/",
		AdvanceBillingMonths: 1,
		ChangeMethod:         ChangeDoNothing,
		RecurringUnit:        UnitMonth,
		RecurringValue:       1,
	}
}

// NextInvoiceDate is the earliest cursor among contracts in the given states,
// nil when none has one.
func (g *Group) NextInvoiceDate(states []State) *time.Time {
	var next *time.Time
	for _, c := range g.Contracts {
		if c.NextInvoiceDate == nil || !c.InState(states) {
			continue
		}
		if next == nil || c.NextInvoiceDate.Before(*next) {
			d := *c.NextInvoiceDate
			next = &d
		}
	}
	return next
}

// LastPaidInvoiceDate is the latest paid invoice date across all contracts
func (g *Group) LastPaidInvoiceDate() *time.Time {
	var last *time.Time
	for _, c := range g.Contracts {
		if c.LastPaidInvoiceDate == nil {
			continue
		}
		if last == nil || c.LastPaidInvoiceDate.After(*last) {
			d := *c.LastPaidInvoiceDate
			last = &d
		}
	}
	return last
}

// Horizon is the last due date that may be invoiced today
func (g *Group) Horizon(today time.Time) time.Time {
	months := g.AdvanceBillingMonths
	if months <= 0 {
		months = 1
	}
	return AddMonths(shared.Day(today), months)
}

// DueContracts returns the contracts to bill on the due date, in group order
func (g *Group) DueContracts(due time.Time, states []State) []*Contract {
	var contracts []*Contract
	for _, c := range g.Contracts {
		if c.IsDue(due, states) {
			contracts = append(contracts, c)
		}
	}
	return contracts
}

// AdvanceContract moves a contract's cursor forward by one billing period
func (g *Group) AdvanceContract(c *Contract) {
	if c.NextInvoiceDate == nil {
		return
	}
	value := g.RecurringValue
	if value <= 0 {
		value = 1
	}
	next := Step(*c.NextInvoiceDate, g.RecurringUnit, value)
	c.NextInvoiceDate = &next
	c.UpdatedAt = time.Now()
}

// ContractIDs returns the IDs of all contracts of the group
func (g *Group) ContractIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Contracts))
	for _, c := range g.Contracts {
		ids = append(ids, c.ID)
	}
	return ids
}

// Contract returns the group's contract with the given ID
func (g *Group) Contract(id uuid.UUID) *Contract {
	for _, c := range g.Contracts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// GroupChanges is a partial update of a group. Nil fields are left untouched.
type GroupChanges struct {
	Ref                  *string
	BVRReference         *string
	PaymentTermID        *uuid.UUID
	AdvanceBillingMonths *int
	ChangeMethod         *ChangeMethod
	RecurringUnit        *RecurringUnit
	RecurringValue       *int
	// NextInvoiceDate moves the cursor of every contract in a generation state
	NextInvoiceDate *time.Time
}

// TouchesNextInvoiceDate reports whether the change sets the cursor explicitly
func (ch GroupChanges) TouchesNextInvoiceDate() bool {
	return ch.NextInvoiceDate != nil
}

// Validate checks the changed values
func (ch GroupChanges) Validate() error {
	if ch.ChangeMethod != nil && !ch.ChangeMethod.IsValid() {
		return ErrInvalidChangeMethod
	}
	if ch.RecurringUnit != nil && !ch.RecurringUnit.IsValid() {
		return ErrInvalidRecurringUnit
	}
	if ch.RecurringValue != nil && *ch.RecurringValue < 1 {
		return shared.ErrInvalidInput.WithMessage("Recurring value must be at least 1")
	}
	if ch.AdvanceBillingMonths != nil && *ch.AdvanceBillingMonths < 0 {
		return shared.ErrInvalidInput.WithMessage("Advance billing months cannot be negative")
	}
	return nil
}

// Apply validates and applies the changes. It returns the contracts whose
// cursor moved so the caller can persist them.
func (g *Group) Apply(ch GroupChanges, states []State) ([]*Contract, error) {
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	if ch.Ref != nil {
		g.Ref = strings.TrimSpace(*ch.Ref)
	}
	if ch.BVRReference != nil {
		g.BVRReference = strings.TrimSpace(*ch.BVRReference)
	}
	if ch.PaymentTermID != nil {
		id := *ch.PaymentTermID
		g.PaymentTermID = &id
	}
	if ch.AdvanceBillingMonths != nil {
		g.AdvanceBillingMonths = *ch.AdvanceBillingMonths
	}
	if ch.ChangeMethod != nil {
		g.ChangeMethod = *ch.ChangeMethod
	}
	if ch.RecurringUnit != nil {
		g.RecurringUnit = *ch.RecurringUnit
	}
	if ch.RecurringValue != nil {
		g.RecurringValue = *ch.RecurringValue
	}

	var moved []*Contract
	if ch.NextInvoiceDate != nil {
		day := shared.Day(*ch.NextInvoiceDate)
		for _, c := range g.Contracts {
			if !c.InState(states) {
				continue
			}
			d := day
			c.NextInvoiceDate = &d
			c.UpdatedAt = time.Now()
			moved = append(moved, c)
		}
	}

	g.UpdatedAt = time.Now()
	g.IncrementVersion()
	return moved, nil
}
