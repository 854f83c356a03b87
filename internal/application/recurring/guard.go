package recurring

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/scheduler"
)

// Background job identifiers
const (
	JobChannel = "root.recurring_invoicer"
	JobModel   = "recurring.contract.group"

	MethodGenerateInvoices      = "generate_invoices"
	MethodCleanGenerateInvoices = "clean_generate_invoices"

	// InvoicerModel is the model generation jobs point their related action at
	InvoicerModel = "recurring.invoicer"
)

// ErrGenerationAlreadyRunning is returned when a synchronous generation is
// requested while a background one is running
var ErrGenerationAlreadyRunning = shared.NewDomainError(
	"GENERATION_ALREADY_RUNNING",
	"Generation already running: a generation has already started in background, please wait for it to finish",
)

// RegenerationGuard prevents a synchronous generation from running alongside
// a background one. The check and the generation are not atomic: two
// requests arriving together may both pass.
type RegenerationGuard struct {
	jobs JobQuery
}

// NewRegenerationGuard creates a new RegenerationGuard
func NewRegenerationGuard(jobs JobQuery) *RegenerationGuard {
	return &RegenerationGuard{jobs: jobs}
}

// Check fails with ErrGenerationAlreadyRunning when a generation job has started
func (g *RegenerationGuard) Check(ctx context.Context) error {
	if g == nil || g.jobs == nil {
		return nil
	}
	n, err := g.jobs.CountByChannelAndState(ctx, JobChannel, scheduler.JobStateStarted)
	if err != nil {
		return fmt.Errorf("failed to count running generation jobs: %w", err)
	}
	if n > 0 {
		return ErrGenerationAlreadyRunning
	}
	return nil
}
