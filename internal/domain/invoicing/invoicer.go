package invoicing

import (
	"time"

	"github.com/google/uuid"
)

// Source names the model that triggered an invoicer
type Source string

const (
	SourceContractGroup Source = "contract_group"
	SourceBankStatement Source = "bank_statement"
)

// Invoicer groups the invoices produced by one generation run or one
// statement completion, so they can be validated and reviewed together.
type Invoicer struct {
	ID        uuid.UUID
	Source    Source
	CreatedAt time.Time
}

// NewInvoicer creates an invoicer for the given source
func NewInvoicer(source Source) *Invoicer {
	return &Invoicer{
		ID:        uuid.New(),
		Source:    source,
		CreatedAt: time.Now(),
	}
}
