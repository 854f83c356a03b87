package completion

import (
	"context"

	"github.com/google/uuid"
)

// StatementRepository defines persistence for statements and their lines
type StatementRepository interface {
	// Create inserts the statement with its lines
	Create(ctx context.Context, s *Statement) error

	// FindByID loads a statement with its lines in sequence order, nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Statement, error)

	// UpdateLine writes a completion result onto one line
	UpdateLine(ctx context.Context, lineID uuid.UUID, update FieldUpdate) error

	// SetInvoicer records the invoicer collecting the statement's invoices
	SetInvoicer(ctx context.Context, statementID, invoicerID uuid.UUID) error
}

// RuleRepository defines persistence for completion rules
type RuleRepository interface {
	// FindByJournal lists the rules configured for a journal
	FindByJournal(ctx context.Context, journalID uuid.UUID) ([]CompletionRule, error)

	// FindAll lists every rule
	FindAll(ctx context.Context) ([]CompletionRule, error)

	// Save creates or updates a rule and its journal links
	Save(ctx context.Context, r *CompletionRule) error
}

// MoveLineRepository defines lookups on posted journal items
type MoveLineRepository interface {
	// FindByRefWithPartner lists move lines with the reference and a partner set
	FindByRefWithPartner(ctx context.Context, ref string) ([]MoveLine, error)

	// Save creates a move line
	Save(ctx context.Context, ml *MoveLine) error
}
