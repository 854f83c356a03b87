package persistence

import (
	"context"

	"github.com/erp/billing/internal/application/recurring"
	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"gorm.io/gorm"
)

// GormTransactionScope implements recurring.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos recurring.TransactionalRepositories) error) error {
	return dbFor(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) ContractRepo() contract.Repository {
	return NewGormContractRepository(r.tx)
}

func (r *gormTransactionalRepositories) InvoiceRepo() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

var (
	_ recurring.TransactionScope          = (*GormTransactionScope)(nil)
	_ recurring.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
