package completion

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockProductFinder struct {
	mock.Mock
}

func (m *MockProductFinder) FindByName(ctx context.Context, name string) (*invoicing.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Product), args.Error(1)
}

func (m *MockProductFinder) FindByFundCode(ctx context.Context, fundCode int) (*invoicing.Product, error) {
	args := m.Called(ctx, fundCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Product), args.Error(1)
}

type MockGiftContractFinder struct {
	mock.Mock
}

func (m *MockGiftContractFinder) FindForGift(ctx context.Context, partnerID uuid.UUID, number int) ([]contract.Contract, error) {
	args := m.Called(ctx, partnerID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contract.Contract), args.Error(1)
}

type MockStatementStore struct {
	mock.Mock
}

func (m *MockStatementStore) Create(ctx context.Context, s *completion.Statement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStatementStore) FindByID(ctx context.Context, id uuid.UUID) (*completion.Statement, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(context.Context, uuid.UUID) *completion.Statement); ok {
		return fn(ctx, id), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*completion.Statement), args.Error(1)
}

func (m *MockStatementStore) UpdateLine(ctx context.Context, lineID uuid.UUID, update completion.FieldUpdate) error {
	args := m.Called(ctx, lineID, update)
	return args.Error(0)
}

func (m *MockStatementStore) SetInvoicer(ctx context.Context, statementID, invoicerID uuid.UUID) error {
	args := m.Called(ctx, statementID, invoicerID)
	return args.Error(0)
}

type MockInvoicerRepository struct {
	mock.Mock
}

func (m *MockInvoicerRepository) Create(ctx context.Context, inv *invoicing.Invoicer) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoicerRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoicer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoicer), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoicing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *invoicing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByInvoicer(ctx context.Context, invoicerID uuid.UUID) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, invoicerID)
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindUnpaidByContractsAfter(ctx context.Context, contractIDs []uuid.UUID, after time.Time) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, contractIDs, after)
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Query(ctx context.Context, c invoicing.Criteria) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

type MockJournalFinder struct {
	mock.Mock
}

func (m *MockJournalFinder) FindFirstByType(ctx context.Context, t invoicing.JournalType) (*invoicing.Journal, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Journal), args.Error(1)
}

func (m *MockJournalFinder) FindByCode(ctx context.Context, code string) (*invoicing.Journal, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Journal), args.Error(1)
}

type MockPaymentTermFinder struct {
	mock.Mock
}

func (m *MockPaymentTermFinder) FindByName(ctx context.Context, name string) (*invoicing.PaymentTerm, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.PaymentTerm), args.Error(1)
}

type MockAnalyticDefaultFinder struct {
	mock.Mock
}

func (m *MockAnalyticDefaultFinder) FindCandidates(ctx context.Context, productID, partnerID uuid.UUID) ([]invoicing.AnalyticDefault, error) {
	args := m.Called(ctx, productID, partnerID)
	return args.Get(0).([]invoicing.AnalyticDefault), args.Error(1)
}

type MockInvoiceWorkflow struct {
	mock.Mock
}

func (m *MockInvoiceWorkflow) Open(ctx context.Context, inv *invoicing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

type MockLineCompleter struct {
	mock.Mock
}

func (m *MockLineCompleter) Complete(ctx context.Context, line completion.StatementLine) (completion.Match, error) {
	args := m.Called(ctx, line)
	return args.Get(0).(completion.Match), args.Error(1)
}

type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) FindByJournal(ctx context.Context, journalID uuid.UUID) ([]completion.CompletionRule, error) {
	args := m.Called(ctx, journalID)
	return args.Get(0).([]completion.CompletionRule), args.Error(1)
}

func (m *MockRuleRepository) FindAll(ctx context.Context) ([]completion.CompletionRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]completion.CompletionRule), args.Error(1)
}

func (m *MockRuleRepository) Save(ctx context.Context, r *completion.CompletionRule) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// recordingUnitOfWork runs each unit with the caller's context and counts
// how units ended
type recordingUnitOfWork struct {
	committed  int
	rolledBack int
}

func (u *recordingUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		u.rolledBack++
		return err
	}
	u.committed++
	return nil
}
