package completion

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// placeholderName is the label banks put on lines without a description
const placeholderName = "/"

// StatementLine is one bank movement awaiting completion
type StatementLine struct {
	ID          uuid.UUID
	StatementID uuid.UUID
	JournalID   uuid.UUID
	Sequence    int
	Name        string
	Ref         string
	Amount      decimal.Decimal
	Date        time.Time
	PartnerID   *uuid.UUID
	AccountID   *uuid.UUID
}

// Label is the free-text description used by text-matching strategies: the
// name with newlines flattened, or the reference when the name is a placeholder.
func (l *StatementLine) Label() string {
	src := l.Name
	if src == placeholderName {
		src = l.Ref
	}
	return strings.ReplaceAll(src, "\n", " ")
}

// IsCompleted reports whether the line already has a partner or an account
func (l *StatementLine) IsCompleted() bool {
	return l.PartnerID != nil || l.AccountID != nil
}

// Statement is an imported bank statement
type Statement struct {
	ID         uuid.UUID
	JournalID  uuid.UUID
	Name       string
	ImportedAt time.Time
	// InvoicerID collects the invoices synthesized while completing the lines
	InvoicerID *uuid.UUID
	Lines      []StatementLine
}

// NewStatement creates an empty statement for a bank journal
func NewStatement(journalID uuid.UUID, name string) *Statement {
	return &Statement{
		ID:         uuid.New(),
		JournalID:  journalID,
		Name:       name,
		ImportedAt: time.Now(),
	}
}

// AddLine appends a line and links it to the statement
func (s *Statement) AddLine(line StatementLine) *StatementLine {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	line.StatementID = s.ID
	line.JournalID = s.JournalID
	line.Sequence = len(s.Lines) + 1
	s.Lines = append(s.Lines, line)
	return &s.Lines[len(s.Lines)-1]
}

// FieldUpdate is the partial update a strategy proposes for a line. Nil
// fields are left untouched.
type FieldUpdate struct {
	PartnerID *uuid.UUID
	AccountID *uuid.UUID
	Name      *string
}

// IsEmpty reports whether the update changes nothing
func (u FieldUpdate) IsEmpty() bool {
	return u.PartnerID == nil && u.AccountID == nil && u.Name == nil
}

// Merge overlays the non-nil fields of other
func (u FieldUpdate) Merge(other FieldUpdate) FieldUpdate {
	if other.PartnerID != nil {
		u.PartnerID = other.PartnerID
	}
	if other.AccountID != nil {
		u.AccountID = other.AccountID
	}
	if other.Name != nil {
		u.Name = other.Name
	}
	return u
}

// ApplyTo writes the update onto the line
func (u FieldUpdate) ApplyTo(line *StatementLine) {
	if u.PartnerID != nil {
		id := *u.PartnerID
		line.PartnerID = &id
	}
	if u.AccountID != nil {
		id := *u.AccountID
		line.AccountID = &id
	}
	if u.Name != nil {
		line.Name = *u.Name
	}
}

// MoveLine is the read model of a posted journal item
type MoveLine struct {
	ID        uuid.UUID
	Ref       string
	PartnerID *uuid.UUID
	Date      time.Time
}
