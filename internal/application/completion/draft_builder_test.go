package completion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func paymentRef(partnerCode, contractNumber, paymentType, fundCode int) string {
	return fmt.Sprintf("000000000%07d%05d%d%04d0", partnerCode, contractNumber, paymentType, fundCode)
}

type draftFixture struct {
	products  *MockProductFinder
	contracts *MockGiftContractFinder
	stmts     *MockStatementStore
	invoicers *MockInvoicerRepository
	invoices  *MockInvoiceRepository
	journals  *MockJournalFinder
	terms     *MockPaymentTermFinder
	analytics *MockAnalyticDefaultFinder
	workflow  *MockInvoiceWorkflow
	uow       *recordingUnitOfWork
	builder   *InvoiceDraftBuilder
}

var draftToday = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newDraftFixture(t *testing.T) *draftFixture {
	f := &draftFixture{
		products:  new(MockProductFinder),
		contracts: new(MockGiftContractFinder),
		stmts:     new(MockStatementStore),
		invoicers: new(MockInvoicerRepository),
		invoices:  new(MockInvoiceRepository),
		journals:  new(MockJournalFinder),
		terms:     new(MockPaymentTermFinder),
		analytics: new(MockAnalyticDefaultFinder),
		workflow:  new(MockInvoiceWorkflow),
		uow:       &recordingUnitOfWork{},
	}
	f.builder = NewInvoiceDraftBuilder(DraftBuilderDeps{
		Products:  f.products,
		Contracts: f.contracts,
		Stmts:     f.stmts,
		Invoicers: f.invoicers,
		Invoices:  f.invoices,
		Journals:  f.journals,
		Terms:     f.terms,
		Analytics: f.analytics,
		Workflow:  f.workflow,

		UnitOfWork: f.uow,
	}, DraftBuilderConfig{
		Settings:             completion.DefaultSettings(),
		ImmediatePaymentTerm: "Immediate Payment",
	}, shared.FixedClock{At: draftToday}, zaptest.NewLogger(t))
	return f
}

func newSponsor(t *testing.T) *partner.Partner {
	p, err := partner.NewPartner("1234", "Anna", "Muster", false)
	require.NoError(t, err)
	receivable := uuid.New()
	p.ReceivableAccountID = &receivable
	return p
}

func giftProduct(name string) *invoicing.Product {
	return &invoicing.Product{BaseEntity: shared.NewBaseEntity(), Name: name, Category: completion.GiftCategory}
}

func TestInvoiceDraftBuilder_Gift(t *testing.T) {
	ctx := context.Background()
	birthdate := time.Date(2012, 2, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		paymentType int
		productName string
		contracts   []contract.Contract
		expected    string
	}{
		{
			name:        "birthday gift shows the birthdate",
			paymentType: 1,
			productName: "Birthday Gift",
			contracts:   []contract.Contract{{ChildCode: "PE3760136", ChildBirthdate: &birthdate}},
			expected:    "Birthday Gift[PE3760136 (07 Feb)]",
		},
		{
			name:        "other gift shows the child code",
			paymentType: 2,
			productName: "General Gift",
			contracts:   []contract.Contract{{ChildCode: "PE3760136", ChildBirthdate: &birthdate}},
			expected:    "General Gift[PE3760136]",
		},
		{
			name:        "no contract",
			paymentType: 3,
			productName: "Family Gift",
			contracts:   []contract.Contract{},
			expected:    "Family Gift [Child not found] ",
		},
		{
			name:        "several contracts",
			paymentType: 2,
			productName: "General Gift",
			contracts:   []contract.Contract{{ChildCode: "A"}, {ChildCode: "B"}},
			expected:    "General Gift [Child not found] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDraftFixture(t)
			p := newSponsor(t)
			line := completion.StatementLine{ID: uuid.New(), Ref: paymentRef(1234, 42, tt.paymentType, 0)}

			f.products.On("FindByName", ctx, tt.productName).Return(giftProduct(tt.productName), nil)
			f.contracts.On("FindForGift", ctx, p.ID, 42).Return(tt.contracts, nil)

			update, err := f.builder.Build(ctx, line, p)
			require.NoError(t, err)
			require.NotNil(t, update.Name)
			assert.Equal(t, tt.expected, *update.Name)
			assert.Nil(t, update.PartnerID)

			f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.products.AssertExpectations(t)
			f.contracts.AssertExpectations(t)
		})
	}
}

func TestInvoiceDraftBuilder_FundDonationCreatesInvoice(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)
	p := newSponsor(t)

	statementID := uuid.New()
	income := uuid.New()
	product := &invoicing.Product{BaseEntity: shared.NewBaseEntity(), Name: "Water Fund", FundCode: 17, IncomeAccountID: &income}
	journal := &invoicing.Journal{BaseEntity: shared.NewBaseEntity(), Code: "SAJ", Type: invoicing.JournalSale}
	term := &invoicing.PaymentTerm{BaseEntity: shared.NewBaseEntity(), Name: "Immediate Payment"}
	analytic := uuid.New()
	line := completion.StatementLine{
		ID:          uuid.New(),
		StatementID: statementID,
		Ref:         paymentRef(1234, 0, 6, 17),
		Amount:      decimal.NewFromInt(50),
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	f.products.On("FindByFundCode", ctx, 17).Return(product, nil)
	f.stmts.On("FindByID", ctx, statementID).Return(&completion.Statement{ID: statementID}, nil)
	f.invoicers.On("Create", ctx, mock.MatchedBy(func(inv *invoicing.Invoicer) bool {
		return inv.Source == invoicing.SourceBankStatement
	})).Return(nil)
	f.stmts.On("SetInvoicer", ctx, statementID, mock.AnythingOfType("uuid.UUID")).Return(nil)
	f.journals.On("FindFirstByType", ctx, invoicing.JournalSale).Return(journal, nil)
	f.terms.On("FindByName", ctx, "Immediate Payment").Return(term, nil)
	f.analytics.On("FindCandidates", ctx, product.ID, p.ID).Return([]invoicing.AnalyticDefault{
		{ProductID: &product.ID, AnalyticAccountID: analytic},
	}, nil)

	var created *invoicing.Invoice
	f.invoices.On("Create", ctx, mock.AnythingOfType("*invoicing.Invoice")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*invoicing.Invoice) }).
		Return(nil)
	f.workflow.On("Open", ctx, mock.AnythingOfType("*invoicing.Invoice")).Return(nil)

	update, err := f.builder.Build(ctx, line, p)
	require.NoError(t, err)
	require.NotNil(t, update.Name)
	assert.Equal(t, "Water Fund", *update.Name)

	require.NotNil(t, created)
	assert.Equal(t, invoicing.TypeOutInvoice, created.Type)
	assert.Equal(t, p.ID, created.PartnerID)
	assert.Equal(t, p.ReceivableAccountID, created.AccountID)
	assert.Equal(t, journal.ID, *created.JournalID)
	assert.Equal(t, term.ID, *created.PaymentTermID)
	assert.Equal(t, line.Ref, created.BVRReference)
	assert.Equal(t, line.Date, created.DateInvoice)
	require.NotNil(t, created.InvoicerID)
	assert.True(t, created.AmountTotal.Equal(decimal.NewFromInt(50)))

	require.Len(t, created.Lines, 1)
	l := created.Lines[0]
	assert.Equal(t, "Water Fund", l.Name)
	assert.Equal(t, product.ID, *l.ProductID)
	assert.Equal(t, income, *l.AccountID)
	assert.Equal(t, analytic, *l.AnalyticAccountID)
	assert.True(t, l.Quantity.Equal(decimal.NewFromInt(1)))

	f.stmts.AssertCalled(t, "SetInvoicer", ctx, statementID, *created.InvoicerID)
	f.workflow.AssertExpectations(t)
}

func TestInvoiceDraftBuilder_ReusesStatementInvoicer(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)
	p := newSponsor(t)

	statementID := uuid.New()
	invoicerID := uuid.New()
	product := &invoicing.Product{BaseEntity: shared.NewBaseEntity(), Name: "School Fund", FundCode: 3}
	line := completion.StatementLine{ID: uuid.New(), StatementID: statementID, Ref: paymentRef(1234, 0, 7, 3), Amount: decimal.NewFromInt(20)}

	f.products.On("FindByFundCode", ctx, 3).Return(product, nil)
	f.stmts.On("FindByID", ctx, statementID).Return(&completion.Statement{ID: statementID, InvoicerID: &invoicerID}, nil)
	f.journals.On("FindFirstByType", ctx, invoicing.JournalSale).Return(nil, nil)
	f.terms.On("FindByName", ctx, "Immediate Payment").Return(nil, nil)
	f.analytics.On("FindCandidates", ctx, product.ID, p.ID).Return([]invoicing.AnalyticDefault{}, nil)
	f.invoices.On("Create", ctx, mock.MatchedBy(func(inv *invoicing.Invoice) bool {
		return inv.InvoicerID != nil && *inv.InvoicerID == invoicerID && inv.Lines[0].AnalyticAccountID == nil
	})).Return(nil)
	f.workflow.On("Open", ctx, mock.Anything).Return(nil)

	_, err := f.builder.Build(ctx, line, p)
	require.NoError(t, err)

	f.invoicers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.stmts.AssertNotCalled(t, "SetInvoicer", mock.Anything, mock.Anything, mock.Anything)
	f.invoices.AssertExpectations(t)
}

func TestInvoiceDraftBuilder_NoProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown payment type", func(t *testing.T) {
		f := newDraftFixture(t)
		update, err := f.builder.Build(ctx, completion.StatementLine{Ref: paymentRef(1234, 1, 9, 0)}, newSponsor(t))
		require.NoError(t, err)
		assert.True(t, update.IsEmpty())
	})

	t.Run("fund product missing", func(t *testing.T) {
		f := newDraftFixture(t)
		f.products.On("FindByFundCode", ctx, 99).Return(nil, nil)
		update, err := f.builder.Build(ctx, completion.StatementLine{Ref: paymentRef(1234, 1, 6, 99)}, newSponsor(t))
		require.NoError(t, err)
		assert.True(t, update.IsEmpty())
	})

	t.Run("malformed reference", func(t *testing.T) {
		f := newDraftFixture(t)
		_, err := f.builder.Build(ctx, completion.StatementLine{Ref: "12345"}, newSponsor(t))
		assert.ErrorIs(t, err, completion.ErrMalformedReference)
	})
}

func TestInvoiceDraftBuilder_OpenFailure(t *testing.T) {
	ctx := context.Background()
	f := newDraftFixture(t)
	p := newSponsor(t)

	statementID := uuid.New()
	invoicerID := uuid.New()
	product := &invoicing.Product{BaseEntity: shared.NewBaseEntity(), Name: "School Fund", FundCode: 3}

	f.products.On("FindByFundCode", ctx, 3).Return(product, nil)
	f.stmts.On("FindByID", ctx, statementID).Return(&completion.Statement{ID: statementID, InvoicerID: &invoicerID}, nil)
	f.journals.On("FindFirstByType", ctx, invoicing.JournalSale).Return(nil, nil)
	f.terms.On("FindByName", ctx, "Immediate Payment").Return(nil, nil)
	f.analytics.On("FindCandidates", ctx, product.ID, p.ID).Return([]invoicing.AnalyticDefault{}, nil)
	f.invoices.On("Create", ctx, mock.Anything).Return(nil)
	f.workflow.On("Open", ctx, mock.Anything).Return(errors.New("boom"))

	_, err := f.builder.Build(ctx, completion.StatementLine{StatementID: statementID, Ref: paymentRef(1234, 0, 6, 3)}, p)
	assert.ErrorContains(t, err, "failed to open invoice")

	// the invoice was created inside the unit that got rolled back
	f.invoices.AssertCalled(t, "Create", ctx, mock.Anything)
	assert.Equal(t, 1, f.uow.rolledBack)
	assert.Zero(t, f.uow.committed)
}
