package models

import (
	"time"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementModel is the persistence model for an imported bank Statement.
type StatementModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	JournalID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Name       string               `gorm:"type:varchar(200);not null"`
	ImportedAt time.Time            `gorm:"not null"`
	InvoicerID *uuid.UUID           `gorm:"column:recurring_invoicer_id;type:uuid"`
	Lines      []StatementLineModel `gorm:"foreignKey:StatementID;references:ID"`
}

// TableName returns the table name for GORM
func (StatementModel) TableName() string {
	return "bank_statements"
}

// ToDomain converts the persistence model to a domain Statement.
func (m *StatementModel) ToDomain() *completion.Statement {
	s := &completion.Statement{
		ID:         m.ID,
		JournalID:  m.JournalID,
		Name:       m.Name,
		ImportedAt: m.ImportedAt,
		InvoicerID: m.InvoicerID,
	}
	if len(m.Lines) > 0 {
		s.Lines = make([]completion.StatementLine, len(m.Lines))
		for i := range m.Lines {
			s.Lines[i] = m.Lines[i].ToDomain()
		}
	}
	return s
}

// StatementModelFromDomain creates a new persistence model from a domain Statement.
func StatementModelFromDomain(s *completion.Statement) *StatementModel {
	m := &StatementModel{
		ID:         s.ID,
		JournalID:  s.JournalID,
		Name:       s.Name,
		ImportedAt: s.ImportedAt,
		InvoicerID: s.InvoicerID,
		Lines:      make([]StatementLineModel, len(s.Lines)),
	}
	for i := range s.Lines {
		m.Lines[i].FromDomain(&s.Lines[i])
		m.Lines[i].StatementID = s.ID
	}
	return m
}

// StatementLineModel is the persistence model for a bank statement line.
type StatementLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	StatementID uuid.UUID       `gorm:"type:uuid;not null;index"`
	JournalID   uuid.UUID       `gorm:"type:uuid;not null"`
	Sequence    int             `gorm:"not null;default:0"`
	Name        string          `gorm:"type:text;not null"`
	Ref         string          `gorm:"type:varchar(64);index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Date        time.Time       `gorm:"type:date;not null"`
	PartnerID   *uuid.UUID      `gorm:"type:uuid;index"`
	AccountID   *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StatementLineModel) TableName() string {
	return "bank_statement_lines"
}

// ToDomain converts the persistence model to a domain StatementLine.
func (m *StatementLineModel) ToDomain() completion.StatementLine {
	return completion.StatementLine{
		ID:          m.ID,
		StatementID: m.StatementID,
		JournalID:   m.JournalID,
		Sequence:    m.Sequence,
		Name:        m.Name,
		Ref:         m.Ref,
		Amount:      m.Amount,
		Date:        shared.Day(m.Date),
		PartnerID:   m.PartnerID,
		AccountID:   m.AccountID,
	}
}

// FromDomain populates the persistence model from a domain StatementLine.
func (m *StatementLineModel) FromDomain(l *completion.StatementLine) {
	m.ID = l.ID
	m.StatementID = l.StatementID
	m.JournalID = l.JournalID
	m.Sequence = l.Sequence
	m.Name = l.Name
	m.Ref = l.Ref
	m.Amount = l.Amount
	m.Date = shared.Day(l.Date)
	m.PartnerID = l.PartnerID
	m.AccountID = l.AccountID
}

// CompletionRuleModel is the persistence model for a CompletionRule.
type CompletionRuleModel struct {
	ID       uuid.UUID                    `gorm:"type:uuid;primary_key"`
	Sequence int                          `gorm:"not null;default:10"`
	Name     string                       `gorm:"type:varchar(200);not null"`
	Strategy completion.StrategyType      `gorm:"column:function_to_call;type:varchar(40);not null"`
	Journals []CompletionRuleJournalModel `gorm:"foreignKey:RuleID;references:ID"`
}

// TableName returns the table name for GORM
func (CompletionRuleModel) TableName() string {
	return "completion_rules"
}

// ToDomain converts the persistence model to a domain CompletionRule.
func (m *CompletionRuleModel) ToDomain() completion.CompletionRule {
	r := completion.CompletionRule{
		ID:       m.ID,
		Sequence: m.Sequence,
		Name:     m.Name,
		Strategy: m.Strategy,
	}
	for _, j := range m.Journals {
		r.JournalIDs = append(r.JournalIDs, j.JournalID)
	}
	return r
}

// CompletionRuleModelFromDomain creates a new persistence model from a domain CompletionRule.
func CompletionRuleModelFromDomain(r *completion.CompletionRule) *CompletionRuleModel {
	m := &CompletionRuleModel{
		ID:       r.ID,
		Sequence: r.Sequence,
		Name:     r.Name,
		Strategy: r.Strategy,
	}
	for _, id := range r.JournalIDs {
		m.Journals = append(m.Journals, CompletionRuleJournalModel{RuleID: r.ID, JournalID: id})
	}
	return m
}

// CompletionRuleJournalModel links a completion rule to a journal.
type CompletionRuleJournalModel struct {
	RuleID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	JournalID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (CompletionRuleJournalModel) TableName() string {
	return "completion_rule_journals"
}

// MoveLineModel is the persistence model for a posted journal item.
type MoveLineModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	Ref       string     `gorm:"type:varchar(64);index"`
	PartnerID *uuid.UUID `gorm:"type:uuid"`
	Date      time.Time  `gorm:"type:date;not null"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MoveLineModel) TableName() string {
	return "move_lines"
}

// ToDomain converts the persistence model to a domain MoveLine.
func (m *MoveLineModel) ToDomain() completion.MoveLine {
	return completion.MoveLine{ID: m.ID, Ref: m.Ref, PartnerID: m.PartnerID, Date: shared.Day(m.Date)}
}

// MoveLineModelFromDomain creates a new persistence model from a domain MoveLine.
func MoveLineModelFromDomain(ml *completion.MoveLine) *MoveLineModel {
	return &MoveLineModel{ID: ml.ID, Ref: ml.Ref, PartnerID: ml.PartnerID, Date: shared.Day(ml.Date)}
}
