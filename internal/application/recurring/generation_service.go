package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerationConfig holds the generation defaults
type GenerationConfig struct {
	GenerationStates     []contract.State
	DefaultAdvanceMonths int
	SaleJournalCode      string // empty picks the first sale journal
}

// GroupCheckpoint is emitted once the unit of work of a group has ended:
// committed when Err is nil, rolled back otherwise
type GroupCheckpoint struct {
	GroupID    uuid.UUID   `json:"group_id"`
	InvoiceIDs []uuid.UUID `json:"invoice_ids"`
	Err        error       `json:"-"`
}

// GenerateOptions tune a generation run
type GenerateOptions struct {
	// GenerationStates overrides the contract states eligible for billing
	GenerationStates []contract.State
	// DeferNextDateUpdate leaves contract cursors untouched; each group then
	// gets a single invoice at most
	DeferNextDateUpdate bool
	// OnCheckpoint is called after every group, in input order
	OnCheckpoint func(GroupCheckpoint)
}

// GenerationReport summarizes a generation run
type GenerationReport struct {
	InvoicerID   uuid.UUID         `json:"invoicer_id"`
	Checkpoints  []GroupCheckpoint `json:"checkpoints"`
	InvoiceCount int               `json:"invoice_count"`
	FailedGroups int               `json:"failed_groups"`
}

// GenerationService generates the invoices of contract groups
type GenerationService struct {
	tx        TransactionScope
	groups    GroupReader
	partners  PartnerFinder
	journals  JournalFinder
	invoicers invoicing.InvoicerRepository
	invoices  invoicing.InvoiceRepository
	workflow  InvoiceWorkflow
	guard     *RegenerationGuard
	jobs      JobDispatcher
	metrics   *telemetry.BillingMetrics
	cfg       GenerationConfig
	clock     shared.Clock
	logger    *zap.Logger
}

// GenerationDeps groups the collaborators of GenerationService
type GenerationDeps struct {
	TX        TransactionScope
	Groups    GroupReader
	Partners  PartnerFinder
	Journals  JournalFinder
	Invoicers invoicing.InvoicerRepository
	Invoices  invoicing.InvoiceRepository
	Workflow  InvoiceWorkflow
	Guard     *RegenerationGuard
	Jobs      JobDispatcher
	Metrics   *telemetry.BillingMetrics
}

// NewGenerationService creates a new GenerationService. Jobs may be nil, in
// which case asynchronous requests run synchronously.
func NewGenerationService(deps GenerationDeps, cfg GenerationConfig, clock shared.Clock, logger *zap.Logger) *GenerationService {
	if len(cfg.GenerationStates) == 0 {
		cfg.GenerationStates = contract.DefaultGenerationStates
	}
	if cfg.DefaultAdvanceMonths <= 0 {
		cfg.DefaultAdvanceMonths = 1
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		tx:        deps.TX,
		groups:    deps.Groups,
		partners:  deps.Partners,
		journals:  deps.Journals,
		invoicers: deps.Invoicers,
		invoices:  deps.Invoices,
		workflow:  deps.Workflow,
		guard:     deps.Guard,
		jobs:      deps.Jobs,
		metrics:   deps.Metrics,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

// Generate creates the due invoices of every group into the invoicer,
// creating a contract_group invoicer when invoicerID is uuid.Nil. Each group
// runs in its own unit of work: a failing group is rolled back, recorded on
// its checkpoint and skipped. Only context cancellation aborts the run.
func (s *GenerationService) Generate(ctx context.Context, groupIDs []uuid.UUID, invoicerID uuid.UUID, opts GenerateOptions) (*GenerationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "generate", "groups", len(groupIDs))
	defer span.End()
	log := logger.WithLogger(ctx, s.logger)

	if invoicerID == uuid.Nil {
		invoicer, err := s.newInvoicer(ctx)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		invoicerID = invoicer.ID
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoicerID, invoicerID.String())

	states := opts.GenerationStates
	if len(states) == 0 {
		states = s.cfg.GenerationStates
	}
	journal, err := s.saleJournal(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("Invoice generation started",
		zap.String("invoicer_id", invoicerID.String()),
		zap.Int("groups", len(groupIDs)),
	)

	report := &GenerationReport{InvoicerID: invoicerID, Checkpoints: make([]GroupCheckpoint, 0, len(groupIDs))}
	today := shared.Today(s.clock)
	for i, groupID := range groupIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log.Info(fmt.Sprintf("Generating invoices for group %d/%d", i+1, len(groupIDs)),
			zap.String("group_id", groupID.String()))

		started := time.Now()
		var created []uuid.UUID
		err := s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			created, err = s.generateGroup(ctx, repos, groupID, invoicerID, journal, states, today, opts.DeferNextDateUpdate)
			return err
		})

		checkpoint := GroupCheckpoint{GroupID: groupID, InvoiceIDs: created, Err: err}
		if err != nil {
			checkpoint.InvoiceIDs = nil
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.FailedGroups++
			log.Error("Invoice generation failed for group",
				zap.String("group_id", groupID.String()),
				zap.Error(err),
			)
		} else {
			report.InvoiceCount += len(created)
			s.metrics.RecordInvoicesCreated(ctx, string(invoicing.SourceContractGroup), len(created))
		}
		s.metrics.RecordGroupGenerated(ctx, time.Since(started), err != nil)

		report.Checkpoints = append(report.Checkpoints, checkpoint)
		if opts.OnCheckpoint != nil {
			opts.OnCheckpoint(checkpoint)
		}
	}

	telemetry.SetAttributes(span, "invoices", report.InvoiceCount, "failed_groups", report.FailedGroups)
	log.Info("Invoice generation finished",
		zap.String("invoicer_id", invoicerID.String()),
		zap.Int("invoices", report.InvoiceCount),
		zap.Int("failed_groups", report.FailedGroups),
	)
	return report, nil
}

func (s *GenerationService) generateGroup(
	ctx context.Context,
	repos TransactionalRepositories,
	groupID, invoicerID uuid.UUID,
	journal *invoicing.Journal,
	states []contract.State,
	today time.Time,
	deferNextDate bool,
) ([]uuid.UUID, error) {
	contracts := repos.ContractRepo()
	invoices := repos.InvoiceRepo()

	group, err := contracts.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, shared.ErrNotFound.WithMessage("Contract group not found: " + groupID.String())
	}
	payer, err := s.partners.FindByID(ctx, group.PartnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group partner: %w", err)
	}
	if payer == nil {
		return nil, shared.ErrNotFound.WithMessage("Partner not found: " + group.PartnerID.String())
	}

	months := group.AdvanceBillingMonths
	if months <= 0 {
		months = s.cfg.DefaultAdvanceMonths
	}
	horizon := contract.AddMonths(today, months)

	var created []uuid.UUID
	for {
		due := group.NextInvoiceDate(states)
		if due == nil || due.After(horizon) {
			break
		}
		dueContracts := group.DueContracts(*due, states)
		if len(dueContracts) == 0 {
			break
		}

		inv := invoicing.NewCustomerInvoice(group.PartnerID, *due)
		inv.AccountID = payer.ReceivableAccountID
		inv.InvoicerID = &invoicerID
		inv.PaymentTermID = group.PaymentTermID
		inv.BVRReference = group.BVRReference
		if journal != nil {
			inv.JournalID = &journal.ID
		}

		for _, c := range dueContracts {
			if err := addContractLines(inv, c); err != nil {
				return nil, err
			}
			if deferNextDate {
				continue
			}
			group.AdvanceContract(c)
			if err := contracts.SaveContract(ctx, c); err != nil {
				return nil, fmt.Errorf("failed to advance contract %s: %w", c.ID, err)
			}
		}

		// an invoice without lines is discarded
		if inv.HasLines() {
			inv.ComputeTotal()
			if err := invoices.Create(ctx, inv); err != nil {
				return nil, fmt.Errorf("failed to create invoice: %w", err)
			}
			created = append(created, inv.ID)
		}

		if deferNextDate {
			break
		}
	}
	return created, nil
}

func addContractLines(inv *invoicing.Invoice, c *contract.Contract) error {
	for _, cl := range c.Lines {
		productID := cl.ProductID
		contractID := c.ID
		line := invoicing.Line{
			Name:       cl.ProductName,
			ProductID:  &productID,
			ContractID: &contractID,
			AccountID:  cl.IncomeAccountID,
			PriceUnit:  cl.Amount,
			Quantity:   cl.Quantity,
		}
		if err := inv.AddLine(line); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInvoices opens the draft invoices of an invoicer. It returns the
// number of invoices opened; an invoicer without invoices is left alone.
func (s *GenerationService) ValidateInvoices(ctx context.Context, invoicerID uuid.UUID) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "validate",
		telemetry.SpanAttrInvoicerID, invoicerID.String())
	defer span.End()

	invoices, err := s.invoices.FindByInvoicer(ctx, invoicerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to list invoicer invoices: %w", err)
	}
	if len(invoices) == 0 {
		return 0, nil
	}

	opened := 0
	var errs []error
	for i := range invoices {
		inv := &invoices[i]
		if inv.State != invoicing.StateDraft {
			continue
		}
		if err := s.workflow.Open(ctx, inv); err != nil {
			errs = append(errs, fmt.Errorf("invoice %s: %w", inv.ID, err))
			continue
		}
		opened++
	}

	s.logger.Info("Invoicer validated",
		zap.String("invoicer_id", invoicerID.String()),
		zap.Int("opened", opened),
		zap.Int("failed", len(errs)),
	)
	if len(errs) > 0 {
		err := errors.Join(errs...)
		telemetry.RecordError(span, err)
		return opened, err
	}
	return opened, nil
}

// GenerateAndValidate generates into a new invoicer and opens the result
func (s *GenerationService) GenerateAndValidate(ctx context.Context, groupIDs []uuid.UUID, opts GenerateOptions) (*GenerationReport, error) {
	report, err := s.Generate(ctx, groupIDs, uuid.Nil, opts)
	if err != nil {
		return report, err
	}
	if _, err := s.ValidateInvoices(ctx, report.InvoicerID); err != nil {
		return report, err
	}
	return report, nil
}

// GenerationRequest describes a generation requested by an operator or a trigger
type GenerationRequest struct {
	GroupIDs   []uuid.UUID
	InvoicerID uuid.UUID // uuid.Nil creates a new invoicer
	Async      bool
	Validate   bool
	Options    GenerateOptions
}

// GenerationTicket is the answer to a generation request: the job when it
// was queued, the report when it ran inline
type GenerationTicket struct {
	InvoicerID uuid.UUID         `json:"invoicer_id"`
	JobID      *uuid.UUID        `json:"job_id,omitempty"`
	Report     *GenerationReport `json:"report,omitempty"`
}

// GenerateJobArgs are the arguments of a generate_invoices job
type GenerateJobArgs struct {
	GroupIDs   []uuid.UUID `json:"group_ids"`
	InvoicerID uuid.UUID   `json:"invoicer_id"`
	Validate   bool        `json:"validate,omitempty"`
}

// RequestGeneration either queues a generate_invoices job or, after checking
// that no background generation is running, generates inline. The invoicer
// is created when none is given.
func (s *GenerationService) RequestGeneration(ctx context.Context, req GenerationRequest) (*GenerationTicket, error) {
	if len(req.GroupIDs) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("At least one contract group is required")
	}

	async := req.Async && s.jobs != nil
	if !async {
		if err := s.guard.Check(ctx); err != nil {
			return nil, err
		}
	}

	invoicerID := req.InvoicerID
	if invoicerID == uuid.Nil {
		invoicer, err := s.newInvoicer(ctx)
		if err != nil {
			return nil, err
		}
		invoicerID = invoicer.ID
	}
	ticket := &GenerationTicket{InvoicerID: invoicerID}

	if async {
		job, err := s.jobs.Delay(ctx, JobChannel, JobModel, MethodGenerateInvoices, GenerateJobArgs{
			GroupIDs:   req.GroupIDs,
			InvoicerID: invoicerID,
			Validate:   req.Validate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to queue generation: %w", err)
		}
		ticket.JobID = &job.ID
		s.logger.Info("Invoice generation queued",
			zap.String("job_id", job.ID.String()),
			zap.String("invoicer_id", invoicerID.String()),
			zap.Int("groups", len(req.GroupIDs)),
		)
		return ticket, nil
	}

	report, err := s.Generate(ctx, req.GroupIDs, invoicerID, req.Options)
	ticket.Report = report
	if err != nil {
		return ticket, err
	}
	if req.Validate {
		if _, err := s.ValidateInvoices(ctx, invoicerID); err != nil {
			return ticket, err
		}
	}
	return ticket, nil
}

// GenerateAll requests the generation of every contract group
func (s *GenerationService) GenerateAll(ctx context.Context, async bool) (*GenerationTicket, error) {
	ids, err := s.groups.ListGroupIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contract groups: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Info("No contract group to generate")
		return &GenerationTicket{}, nil
	}
	return s.RequestGeneration(ctx, GenerationRequest{GroupIDs: ids, Async: async, Validate: true})
}

// CleanAndRegenerate cancels the unpaid generated invoices of each group
// dated after max(today, last paid invoice date), rewinds the contract
// cursors to the earliest cancelled date, then generates into a fresh
// invoicer and validates it. It returns the cancelled invoices. A group that
// fails to clean is skipped and reported in the joined error; the others are
// still regenerated.
func (s *GenerationService) CleanAndRegenerate(ctx context.Context, groupIDs []uuid.UUID) ([]invoicing.Invoice, *GenerationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "clean_and_regenerate", "groups", len(groupIDs))
	defer span.End()

	today := shared.Today(s.clock)
	var (
		cancelled []invoicing.Invoice
		cleaned   []uuid.UUID
		failures  []error
	)
	for _, groupID := range groupIDs {
		if err := ctx.Err(); err != nil {
			return cancelled, nil, err
		}
		var groupCancelled []invoicing.Invoice
		err := s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			groupCancelled, err = s.cleanGroup(ctx, repos, groupID, today)
			return err
		})
		if err != nil {
			telemetry.RecordError(span, err)
			s.logger.Error("Failed to clean contract group",
				zap.String("group_id", groupID.String()),
				zap.Error(err),
			)
			failures = append(failures, fmt.Errorf("failed to clean group %s: %w", groupID, err))
			continue
		}
		cleaned = append(cleaned, groupID)
		cancelled = append(cancelled, groupCancelled...)
	}
	s.metrics.RecordInvoicesCancelled(ctx, len(cancelled))
	s.logger.Info("Generated invoices cleaned",
		zap.Int("groups", len(cleaned)),
		zap.Int("failed", len(failures)),
		zap.Int("cancelled", len(cancelled)),
	)

	if len(cleaned) == 0 {
		return cancelled, nil, errors.Join(failures...)
	}
	report, err := s.GenerateAndValidate(ctx, cleaned, GenerateOptions{})
	if err != nil {
		telemetry.RecordError(span, err)
		failures = append(failures, err)
	}
	return cancelled, report, errors.Join(failures...)
}

func (s *GenerationService) cleanGroup(ctx context.Context, repos TransactionalRepositories, groupID uuid.UUID, today time.Time) ([]invoicing.Invoice, error) {
	contracts := repos.ContractRepo()
	invoices := repos.InvoiceRepo()

	group, err := contracts.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, shared.ErrNotFound.WithMessage("Contract group not found: " + groupID.String())
	}

	since := today
	if last := group.LastPaidInvoiceDate(); last != nil && last.After(since) {
		since = *last
	}

	found, err := invoices.FindUnpaidByContractsAfter(ctx, group.ContractIDs(), since)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoices to clean: %w", err)
	}

	rewind := make(map[uuid.UUID]time.Time)
	for i := range found {
		inv := &found[i]
		if err := inv.Cancel(); err != nil {
			return nil, err
		}
		if err := invoices.Save(ctx, inv); err != nil {
			return nil, fmt.Errorf("failed to cancel invoice %s: %w", inv.ID, err)
		}
		for _, contractID := range inv.ContractIDs() {
			if d, ok := rewind[contractID]; !ok || inv.DateInvoice.Before(d) {
				rewind[contractID] = inv.DateInvoice
			}
		}
	}

	for _, c := range group.Contracts {
		date, ok := rewind[c.ID]
		if !ok || !c.RewindTo(date) {
			continue
		}
		if err := contracts.SaveContract(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to rewind contract %s: %w", c.ID, err)
		}
	}
	return found, nil
}

// RequestClean queues a clean_generate_invoices job, or cleans inline
func (s *GenerationService) RequestClean(ctx context.Context, groupIDs []uuid.UUID, async bool) (*uuid.UUID, []invoicing.Invoice, error) {
	if len(groupIDs) == 0 {
		return nil, nil, shared.ErrInvalidInput.WithMessage("At least one contract group is required")
	}
	if async && s.jobs != nil {
		job, err := s.jobs.Delay(ctx, JobChannel, JobModel, MethodCleanGenerateInvoices, CleanJobArgs{GroupIDs: groupIDs})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to queue clean: %w", err)
		}
		return &job.ID, nil, nil
	}
	cancelled, _, err := s.CleanAndRegenerate(ctx, groupIDs)
	return nil, cancelled, err
}

// CleanJobArgs are the arguments of a clean_generate_invoices job
type CleanJobArgs struct {
	GroupIDs []uuid.UUID `json:"group_ids"`
}

func (s *GenerationService) newInvoicer(ctx context.Context) (*invoicing.Invoicer, error) {
	invoicer := invoicing.NewInvoicer(invoicing.SourceContractGroup)
	if err := s.invoicers.Create(ctx, invoicer); err != nil {
		return nil, fmt.Errorf("failed to create invoicer: %w", err)
	}
	return invoicer, nil
}

func (s *GenerationService) saleJournal(ctx context.Context) (*invoicing.Journal, error) {
	var (
		j   *invoicing.Journal
		err error
	)
	if s.cfg.SaleJournalCode != "" {
		j, err = s.journals.FindByCode(ctx, s.cfg.SaleJournalCode)
	} else {
		j, err = s.journals.FindFirstByType(ctx, invoicing.JournalSale)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sale journal: %w", err)
	}
	return j, nil
}
