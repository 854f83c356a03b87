// Package bootstrap wires the billing services from configuration. The
// server and the operator CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	completionapp "github.com/erp/billing/internal/application/completion"
	recurringapp "github.com/erp/billing/internal/application/recurring"
	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/contract"
	"github.com/erp/billing/internal/domain/invoicing"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/auth"
	"github.com/erp/billing/internal/infrastructure/cache"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/erp/billing/internal/infrastructure/storage"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Options tune what New starts
type Options struct {
	// WithQueue creates the background job queue; without it asynchronous
	// requests run inline
	WithQueue bool
	// WithTelemetry starts the OTLP tracer and meter providers
	WithTelemetry bool
}

// App holds the wired services and the resources they own
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *persistence.Database
	Storage storage.ObjectStorage
	Jobs    scheduler.JobStore  // nil when jobs are disabled
	Queue   *scheduler.JobQueue // nil without WithQueue or when jobs are disabled
	JWT     *auth.JWTService
	Tracer  *telemetry.TracerProvider
	Meter   *telemetry.MeterProvider
	Metrics *telemetry.BillingMetrics

	Imports    *completionapp.ImportService
	Rules      *completionapp.RuleService
	Generation *recurringapp.GenerationService
	Groups     *recurringapp.GroupService
	Reports    *recurringapp.ReportService
}

// New connects to the database and wires every service. Close releases
// what New opened, also when New fails halfway.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (app *App, err error) {
	app = &App{Config: cfg, Logger: log, JWT: auth.NewJWTService(cfg.JWT)}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
			app = nil
		}
	}()

	if opts.WithTelemetry {
		if err = app.startTelemetry(ctx); err != nil {
			return app, err
		}
	}

	dbOpts := []persistence.Option{
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))),
	}
	if opts.WithTelemetry && cfg.Telemetry.DBTraceEnabled {
		dbSystem := "postgresql"
		if cfg.Database.Driver == "sqlite" {
			dbSystem = "sqlite"
		}
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem,
		}, log)))
	}
	if app.DB, err = persistence.NewDatabase(&cfg.Database, dbOpts...); err != nil {
		return app, err
	}

	if app.Storage, err = storage.New(&cfg.Storage, log); err != nil {
		return app, fmt.Errorf("failed to create object storage: %w", err)
	}

	// The store is opened even without a local queue: synchronous
	// generations check it for jobs started by other processes.
	if cfg.Jobs.Enabled {
		if app.Jobs, err = cache.NewJobStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(); err != nil {
			return app, err
		}
	}
	if opts.WithQueue && app.Jobs != nil {
		app.Queue, err = scheduler.NewJobQueue(scheduler.QueueConfig{
			Enabled:       true,
			Workers:       cfg.Jobs.Workers,
			QueueSize:     cfg.Jobs.QueueSize,
			JobTimeout:    cfg.Jobs.JobTimeout,
			RetryAttempts: cfg.Jobs.RetryAttempts,
			RetryDelay:    cfg.Jobs.RetryDelay,
		}, app.Jobs, log)
		if err != nil {
			return app, err
		}
	}

	return app, app.wireServices()
}

func (a *App) startTelemetry(ctx context.Context) error {
	tc := a.Config.Telemetry
	var err error
	a.Tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to start tracer provider: %w", err)
	}
	a.Meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to start meter provider: %w", err)
	}
	if a.Meter.IsEnabled() {
		if a.Metrics, err = telemetry.NewBillingMetrics(a.Meter.Meter("billing")); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) wireServices() error {
	cfg, log, db := a.Config, a.Logger, a.DB.DB
	clock := shared.SystemClock{}

	states, err := contract.ParseStates(cfg.Recurring.GenerationStates)
	if err != nil {
		return err
	}

	partners := persistence.NewGormPartnerRepository(db)
	contracts := persistence.NewGormContractRepository(db)
	invoices := persistence.NewGormInvoiceRepository(db)
	invoicers := persistence.NewGormInvoicerRepository(db)
	statements := persistence.NewGormStatementRepository(db)
	rules := persistence.NewGormRuleRepository(db)
	moveLines := persistence.NewGormMoveLineRepository(db)
	products := persistence.NewGormProductRepository(db)
	accounts := persistence.NewGormAccountRepository(db)
	journals := persistence.NewGormJournalRepository(db)
	terms := persistence.NewGormPaymentTermRepository(db)
	analytics := persistence.NewGormAnalyticDefaultRepository(db)
	workflow := invoicing.NewWorkflowService(invoices)
	uow := persistence.NewGormUnitOfWork(db)

	// Completion
	settings := completion.Settings{
		GiftNames:           cfg.Completion.GiftNames,
		GiftCategory:        cfg.Completion.GiftCategory,
		LSVDescriptors:      cfg.Completion.LSVDescriptors,
		ClearingAccountCode: cfg.Completion.ClearingAccountCode,
	}
	drafts := completionapp.NewInvoiceDraftBuilder(completionapp.DraftBuilderDeps{
		Products:  products,
		Contracts: contracts,
		Stmts:     statements,
		Invoicers: invoicers,
		Invoices:  invoices,
		Journals:  journals,
		Terms:     terms,
		Analytics: analytics,
		Workflow:  workflow,

		UnitOfWork: uow,
	}, completionapp.DraftBuilderConfig{
		Settings:             settings,
		SaleJournalCode:      cfg.Recurring.SaleJournalCode,
		ImmediatePaymentTerm: cfg.Recurring.ImmediatePaymentTerm,
	}, clock, log)
	resolver := completion.NewPartnerResolver(partners, contracts, invoices, moveLines)
	engine := completion.NewRuleEngine(rules, resolver, drafts, accounts, settings, log)
	hook := completionapp.NewStatementImportHook(statements, engine, uow, a.Metrics, log)

	a.Imports = completionapp.NewImportService(statements, hook, a.Storage, cfg.Storage.Prefix, log)
	a.Rules = completionapp.NewRuleService(rules, log)

	// Recurring generation
	tx := persistence.NewGormTransactionScope(db)
	deps := recurringapp.GenerationDeps{
		TX:        tx,
		Groups:    contracts,
		Partners:  partners,
		Journals:  journals,
		Invoicers: invoicers,
		Invoices:  invoices,
		Workflow:  workflow,
		Metrics:   a.Metrics,
	}
	if a.Jobs != nil {
		deps.Guard = recurringapp.NewRegenerationGuard(a.Jobs)
	}
	if a.Queue != nil {
		deps.Jobs = a.Queue
	}
	a.Generation = recurringapp.NewGenerationService(deps, recurringapp.GenerationConfig{
		GenerationStates:     states,
		DefaultAdvanceMonths: cfg.Recurring.DefaultAdvanceMonths,
		SaleJournalCode:      cfg.Recurring.SaleJournalCode,
	}, clock, log)
	a.Groups = recurringapp.NewGroupService(tx, contracts, a.Generation, states, log)
	a.Reports = recurringapp.NewReportService(invoicers, invoices, partners, a.Storage, cfg.Storage.Prefix, log)

	if a.Queue != nil {
		recurringapp.RegisterJobs(a.Queue, a.Generation, log)
	}
	return nil
}

// Close stops the queue, then closes the database and flushes telemetry
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Queue != nil && a.Queue.IsRunning() {
		errs = append(errs, a.Queue.Stop(ctx))
	}
	if closer, ok := a.Jobs.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Meter != nil {
		errs = append(errs, a.Meter.Shutdown(ctx))
	}
	if a.Tracer != nil {
		errs = append(errs, a.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
