package completion

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const childNotFound = " [Child not found] "

// DraftBuilderConfig holds the catalog names the builder relies on
type DraftBuilderConfig struct {
	Settings             completion.Settings
	SaleJournalCode      string // empty picks the first sale journal
	ImmediatePaymentTerm string
}

// InvoiceDraftBuilder synthesizes the invoice backing a payment identified
// by a partner reference. Gift payments only get a descriptive label.
type InvoiceDraftBuilder struct {
	products  ProductFinder
	contracts GiftContractFinder
	stmts     StatementInvoicers
	invoicers invoicing.InvoicerRepository
	invoices  invoicing.InvoiceRepository
	journals  JournalFinder
	terms     PaymentTermFinder
	analytics AnalyticDefaultFinder
	workflow  InvoiceWorkflow
	uow       UnitOfWork
	cfg       DraftBuilderConfig
	clock     shared.Clock
	logger    *zap.Logger
}

// DraftBuilderDeps groups the repositories used by InvoiceDraftBuilder
type DraftBuilderDeps struct {
	Products  ProductFinder
	Contracts GiftContractFinder
	Stmts     StatementInvoicers
	Invoicers invoicing.InvoicerRepository
	Invoices  invoicing.InvoiceRepository
	Journals  JournalFinder
	Terms     PaymentTermFinder
	Analytics AnalyticDefaultFinder
	Workflow  InvoiceWorkflow
	// UnitOfWork scopes the invoicer and invoice writes of one payment;
	// nil writes without a transaction
	UnitOfWork UnitOfWork
}

// NewInvoiceDraftBuilder creates a new InvoiceDraftBuilder
func NewInvoiceDraftBuilder(deps DraftBuilderDeps, cfg DraftBuilderConfig, clock shared.Clock, logger *zap.Logger) *InvoiceDraftBuilder {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	uow := deps.UnitOfWork
	if uow == nil {
		uow = NoOpUnitOfWork{}
	}
	return &InvoiceDraftBuilder{
		products:  deps.Products,
		contracts: deps.Contracts,
		stmts:     deps.Stmts,
		invoicers: deps.Invoicers,
		invoices:  deps.Invoices,
		journals:  deps.Journals,
		terms:     deps.Terms,
		analytics: deps.Analytics,
		workflow:  deps.Workflow,
		uow:       uow,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

var _ completion.DraftBuilder = (*InvoiceDraftBuilder)(nil)

// Build returns the label (and creates the invoice) for a payment of p
func (b *InvoiceDraftBuilder) Build(ctx context.Context, line completion.StatementLine, p *partner.Partner) (completion.FieldUpdate, error) {
	product, err := b.findProduct(ctx, completion.Reference(line.Ref))
	if err != nil || product == nil {
		return completion.FieldUpdate{}, err
	}

	if product.InCategory(b.cfg.Settings.GiftCategory) {
		name, err := b.giftLabel(ctx, line, p, product)
		if err != nil {
			return completion.FieldUpdate{}, err
		}
		return completion.FieldUpdate{Name: &name}, nil
	}

	// an invoice that cannot be opened is not kept
	err = b.uow.Do(ctx, func(ctx context.Context) error {
		return b.createInvoice(ctx, line, p, product)
	})
	if err != nil {
		return completion.FieldUpdate{}, err
	}
	name := product.Name
	return completion.FieldUpdate{Name: &name}, nil
}

// findProduct maps the payment type: 1-5 are gifts, 6-7 fund donations
func (b *InvoiceDraftBuilder) findProduct(ctx context.Context, ref completion.Reference) (*invoicing.Product, error) {
	paymentType, err := ref.PaymentType()
	if err != nil {
		return nil, err
	}

	switch {
	case paymentType >= 1 && paymentType <= 5:
		name, ok := b.cfg.Settings.GiftName(paymentType)
		if !ok {
			return nil, nil
		}
		return b.products.FindByName(ctx, name)
	case paymentType == 6 || paymentType == 7:
		fund, err := ref.FundCode()
		if err != nil {
			return nil, err
		}
		return b.products.FindByFundCode(ctx, fund)
	}
	return nil, nil
}

func (b *InvoiceDraftBuilder) giftLabel(ctx context.Context, line completion.StatementLine, p *partner.Partner, product *invoicing.Product) (string, error) {
	number, err := completion.Reference(line.Ref).ContractNumber()
	if err != nil {
		return "", err
	}
	contracts, err := b.contracts.FindForGift(ctx, p.ID, number)
	if err != nil {
		return "", fmt.Errorf("failed to find gift contract: %w", err)
	}

	name := product.Name
	if len(contracts) != 1 {
		return name + childNotFound, nil
	}

	c := contracts[0]
	if b.cfg.Settings.IsBirthdayGift(product.Name) && c.ChildBirthdate != nil {
		return name + "[" + c.ChildCode + " (" + c.ChildBirthdate.Format("02 Jan") + ")]", nil
	}
	return name + "[" + c.ChildCode + "]", nil
}

func (b *InvoiceDraftBuilder) createInvoice(ctx context.Context, line completion.StatementLine, p *partner.Partner, product *invoicing.Product) error {
	invoicerID, err := b.statementInvoicer(ctx, line.StatementID)
	if err != nil {
		return err
	}

	journal, err := b.saleJournal(ctx)
	if err != nil {
		return err
	}
	term, err := b.terms.FindByName(ctx, b.cfg.ImmediatePaymentTerm)
	if err != nil {
		return fmt.Errorf("failed to find payment term: %w", err)
	}

	inv := invoicing.NewCustomerInvoice(p.ID, line.Date)
	inv.AccountID = p.ReceivableAccountID
	inv.BVRReference = line.Ref
	inv.InvoicerID = &invoicerID
	if journal != nil {
		inv.JournalID = &journal.ID
	}
	if term != nil {
		inv.PaymentTermID = &term.ID
	}

	productID := product.ID
	invLine := invoicing.Line{
		Name:      product.Name,
		ProductID: &productID,
		AccountID: product.IncomeAccountID,
		PriceUnit: line.Amount,
		Quantity:  decimal.NewFromInt(1),
	}
	rules, err := b.analytics.FindCandidates(ctx, product.ID, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load analytic defaults: %w", err)
	}
	if d := invoicing.SelectAnalyticDefault(rules, product.ID, p.ID, shared.Today(b.clock)); d != nil {
		analyticID := d.AnalyticAccountID
		invLine.AnalyticAccountID = &analyticID
	}
	if err := inv.AddLine(invLine); err != nil {
		return err
	}
	inv.ComputeTotal()

	if err := b.invoices.Create(ctx, inv); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	if err := b.workflow.Open(ctx, inv); err != nil {
		return fmt.Errorf("failed to open invoice: %w", err)
	}

	b.logger.Info("Invoice created from statement line",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoicer_id", invoicerID.String()),
		zap.String("partner_id", p.ID.String()),
		zap.String("product", product.Name),
		zap.String("amount", line.Amount.String()),
	)
	return nil
}

// statementInvoicer returns the statement's invoicer, creating it on first use
func (b *InvoiceDraftBuilder) statementInvoicer(ctx context.Context, statementID uuid.UUID) (uuid.UUID, error) {
	stmt, err := b.stmts.FindByID(ctx, statementID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load statement: %w", err)
	}
	if stmt == nil {
		return uuid.Nil, shared.ErrNotFound.WithMessage("Statement not found: " + statementID.String())
	}
	if stmt.InvoicerID != nil {
		return *stmt.InvoicerID, nil
	}

	invoicer := invoicing.NewInvoicer(invoicing.SourceBankStatement)
	if err := b.invoicers.Create(ctx, invoicer); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create invoicer: %w", err)
	}
	if err := b.stmts.SetInvoicer(ctx, statementID, invoicer.ID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to attach invoicer to statement: %w", err)
	}
	return invoicer.ID, nil
}

func (b *InvoiceDraftBuilder) saleJournal(ctx context.Context) (*invoicing.Journal, error) {
	var (
		j   *invoicing.Journal
		err error
	)
	if b.cfg.SaleJournalCode != "" {
		j, err = b.journals.FindByCode(ctx, b.cfg.SaleJournalCode)
	} else {
		j, err = b.journals.FindFirstByType(ctx, invoicing.JournalSale)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sale journal: %w", err)
	}
	return j, nil
}
