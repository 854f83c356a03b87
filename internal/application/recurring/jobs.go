package recurring

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// JobRegistrar binds executors to job methods
type JobRegistrar interface {
	Register(method string, executor scheduler.JobExecutor, related scheduler.RelatedActionFunc)
}

// RegisterJobs registers the generate_invoices and clean_generate_invoices
// executors. Both call the synchronous service.
func RegisterJobs(q JobRegistrar, svc *GenerationService, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	q.Register(MethodGenerateInvoices, generateExecutor(svc, log), invoicerRelatedAction)
	q.Register(MethodCleanGenerateInvoices, cleanExecutor(svc, log), nil)
}

func generateExecutor(svc *GenerationService, log *zap.Logger) scheduler.JobExecutorFunc {
	return func(ctx context.Context, job *scheduler.Job) error {
		var args GenerateJobArgs
		if err := job.DecodeArgs(&args); err != nil {
			return err
		}
		ctx = logger.WithJobID(ctx, job.ID.String())

		report, err := svc.Generate(ctx, args.GroupIDs, args.InvoicerID, GenerateOptions{})
		if err != nil {
			return err
		}
		if args.Validate {
			if _, err := svc.ValidateInvoices(ctx, args.InvoicerID); err != nil {
				return err
			}
		}
		if report.FailedGroups > 0 {
			// committed groups are not generated twice on retry
			return fmt.Errorf("%d of %d contract groups failed", report.FailedGroups, len(args.GroupIDs))
		}
		logger.WithLogger(ctx, log).Info("Generation job finished",
			zap.Int("invoices", report.InvoiceCount))
		return nil
	}
}

func cleanExecutor(svc *GenerationService, log *zap.Logger) scheduler.JobExecutorFunc {
	return func(ctx context.Context, job *scheduler.Job) error {
		var args CleanJobArgs
		if err := job.DecodeArgs(&args); err != nil {
			return err
		}
		ctx = logger.WithJobID(ctx, job.ID.String())

		cancelled, report, err := svc.CleanAndRegenerate(ctx, args.GroupIDs)
		if err != nil {
			return err
		}
		logger.WithLogger(ctx, log).Info("Clean job finished",
			zap.Int("cancelled", len(cancelled)),
			zap.Int("invoices", report.InvoiceCount))
		return nil
	}
}

func invoicerRelatedAction(job *scheduler.Job) (*scheduler.RelatedAction, error) {
	var args GenerateJobArgs
	if err := job.DecodeArgs(&args); err != nil {
		return nil, err
	}
	return &scheduler.RelatedAction{
		Label:      "open invoicer " + args.InvoicerID.String(),
		Model:      InvoicerModel,
		ResourceID: args.InvoicerID,
	}, nil
}
