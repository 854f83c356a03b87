package contract

import (
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State is the lifecycle state of a contract
type State string

const (
	StateDraft      State = "draft"
	StateActive     State = "active"
	StateTerminated State = "terminated"
	StateCancelled  State = "cancelled"
)

// DefaultGenerationStates are the contract states eligible for invoicing
var DefaultGenerationStates = []State{StateActive}

// ErrInvalidState is returned for state names outside the contract lifecycle
var ErrInvalidState = shared.NewDomainError("INVALID_CONTRACT_STATE", "Contract state must be one of draft, active, terminated, cancelled")

// ParseStates converts configured state names, rejecting unknown ones
func ParseStates(names []string) ([]State, error) {
	states := make([]State, 0, len(names))
	for _, name := range names {
		switch s := State(name); s {
		case StateDraft, StateActive, StateTerminated, StateCancelled:
			states = append(states, s)
		default:
			return nil, ErrInvalidState.WithMessage("Unknown contract state: " + name)
		}
	}
	return states, nil
}

// Line is a billable line of a contract
type Line struct {
	ID              uuid.UUID
	ContractID      uuid.UUID
	ProductID       uuid.UUID
	ProductName     string
	IncomeAccountID *uuid.UUID
	Amount          decimal.Decimal
	Quantity        decimal.Decimal
}

// Contract is a recurring subscription (e.g. a child sponsorship) billed
// through its group
type Contract struct {
	shared.BaseEntity
	GroupID             uuid.UUID
	PartnerID           uuid.UUID
	CorrespondentID     *uuid.UUID
	Number              int // contract number embedded in payment references
	ChildCode           string
	ChildBirthdate      *time.Time
	State               State
	NextInvoiceDate     *time.Time
	EndDate             *time.Time
	LastPaidInvoiceDate *time.Time
	Lines               []Line
}

// NewContract creates a draft contract in the group starting at the given date
func NewContract(groupID, partnerID uuid.UUID, number int, start time.Time) *Contract {
	next := shared.Day(start)
	return &Contract{
		BaseEntity:      shared.NewBaseEntity(),
		GroupID:         groupID,
		PartnerID:       partnerID,
		Number:          number,
		State:           StateDraft,
		NextInvoiceDate: &next,
	}
}

// AddLine appends a billable line
func (c *Contract) AddLine(productID uuid.UUID, productName string, amount, quantity decimal.Decimal) {
	c.Lines = append(c.Lines, Line{
		ID:          uuid.New(),
		ContractID:  c.ID,
		ProductID:   productID,
		ProductName: productName,
		Amount:      amount,
		Quantity:    quantity,
	})
}

// Activate moves a draft contract to active
func (c *Contract) Activate() error {
	if c.State != StateDraft {
		return shared.ErrInvalidState.WithMessage("Only draft contracts can be activated")
	}
	c.State = StateActive
	c.UpdatedAt = time.Now()
	return nil
}

// InState reports whether the contract is in one of the states
func (c *Contract) InState(states []State) bool {
	for _, s := range states {
		if c.State == s {
			return true
		}
	}
	return false
}

// IsDue reports whether the contract must be billed on the due date: its
// cursor is on or before due, it has not ended at its cursor, and it is in a
// generation state.
func (c *Contract) IsDue(due time.Time, states []State) bool {
	if c.NextInvoiceDate == nil || c.NextInvoiceDate.After(due) {
		return false
	}
	if c.EndDate != nil && !c.EndDate.After(*c.NextInvoiceDate) {
		return false
	}
	return c.InState(states)
}

// RewindTo moves the cursor back to date when it currently lies after it
func (c *Contract) RewindTo(date time.Time) bool {
	day := shared.Day(date)
	if c.NextInvoiceDate != nil && !c.NextInvoiceDate.After(day) {
		return false
	}
	c.NextInvoiceDate = &day
	c.UpdatedAt = time.Now()
	return true
}

// RecordPayment tracks the latest paid invoice date
func (c *Contract) RecordPayment(invoiceDate time.Time) {
	day := shared.Day(invoiceDate)
	if c.LastPaidInvoiceDate == nil || day.After(*c.LastPaidInvoiceDate) {
		c.LastPaidInvoiceDate = &day
	}
}

// IsGiftRecipientOf reports whether the partner pays or corresponds for the contract
func (c *Contract) IsGiftRecipientOf(partnerID uuid.UUID) bool {
	if c.PartnerID == partnerID {
		return true
	}
	return c.CorrespondentID != nil && *c.CorrespondentID == partnerID
}
