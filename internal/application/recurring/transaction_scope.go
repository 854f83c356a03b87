package recurring

import (
	"context"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
)

// TransactionScope runs a unit of work: every repository operation done
// through the repositories handed to fn is committed or rolled back together.
// Generation uses one scope per contract group, which is its checkpoint.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the repositories a generation
// step writes to, all bound to the same transaction.
type TransactionalRepositories interface {
	ContractRepo() contract.Repository
	InvoiceRepo() invoicing.InvoiceRepository
}

// NoOpTransactionScope runs the function on plain repositories without a
// transaction. Useful in tests.
type NoOpTransactionScope struct {
	contracts contract.Repository
	invoices  invoicing.InvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(contracts contract.Repository, invoices invoicing.InvoiceRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{contracts: contracts, invoices: invoices}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ContractRepo returns the contract repository.
func (s *NoOpTransactionScope) ContractRepo() contract.Repository {
	return s.contracts
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() invoicing.InvoiceRepository {
	return s.invoices
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
