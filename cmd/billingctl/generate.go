package main

import (
	"context"
	"fmt"
	"os"
	"time"

	recurringapp "github.com/erp/billing/internal/application/recurring"
	"github.com/erp/billing/internal/bootstrap"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const jobPollInterval = 500 * time.Millisecond

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	var (
		groups   []string
		all      bool
		async    bool
		validate bool
		deferred bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the due invoices of contract groups",
		Long: `Generate the due invoices of the given contract groups into a new invoicer.

Each group is billed in its own transaction: a failing group is reported and
skipped. Invoices stay in draft unless --validate is given.

With --async the generation runs as a generate_invoices job on the
root.recurring_invoicer channel, so other instances sharing the job store
refuse to start a synchronous generation meanwhile. The command waits for the
job to finish.`,
		Example: `  billingctl generate --group 4b1c... --group 9e2f... --validate
  billingctl generate --all
  billingctl generate --group 4b1c... --async`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(groups) > 0) {
				return fmt.Errorf("give either --group or --all")
			}
			ids, err := parseUUIDs(groups)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := flags.openAppWith(ctx, bootstrap.Options{WithQueue: async})
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if async {
				if app.Queue == nil {
					return fmt.Errorf("--async needs jobs.enabled in the configuration")
				}
				if err := app.Queue.Start(ctx); err != nil {
					return err
				}
				defer app.Queue.Stop(context.WithoutCancel(ctx))
			}

			if all {
				ticket, err := app.Generation.GenerateAll(ctx, async)
				if err != nil {
					return err
				}
				return finishTicket(cmd, app, ticket)
			}

			if async {
				ticket, err := app.Generation.RequestGeneration(ctx, recurringapp.GenerationRequest{
					GroupIDs: ids,
					Async:    true,
					Validate: validate,
					Options:  recurringapp.GenerateOptions{DeferNextDateUpdate: deferred},
				})
				if err != nil {
					return err
				}
				return finishTicket(cmd, app, ticket)
			}

			return generateWithProgress(cmd, app, ids, validate, deferred)
		},
	}

	cmd.Flags().StringSliceVar(&groups, "group", nil, "Contract group id (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Generate and validate every contract group")
	cmd.Flags().BoolVar(&async, "async", false, "Run the generation as a background job and wait for it")
	cmd.Flags().BoolVar(&validate, "validate", false, "Open the generated invoices")
	cmd.Flags().BoolVar(&deferred, "defer-next-date", false, "Bill each group once without moving contract cursors")
	return cmd
}

func generateWithProgress(cmd *cobra.Command, app *bootstrap.App, ids []uuid.UUID, validate, deferred bool) error {
	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Generating invoices"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var failures []recurringapp.GroupCheckpoint
	ticket, err := app.Generation.RequestGeneration(cmd.Context(), recurringapp.GenerationRequest{
		GroupIDs: ids,
		Validate: validate,
		Options: recurringapp.GenerateOptions{
			DeferNextDateUpdate: deferred,
			OnCheckpoint: func(cp recurringapp.GroupCheckpoint) {
				if cp.Err != nil {
					failures = append(failures, cp)
				}
				_ = bar.Add(1)
			},
		},
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	printTicket(cmd, ticket)
	out := cmd.OutOrStdout()
	for _, cp := range failures {
		fmt.Fprintf(out, "  group %s failed: %v\n", cp.GroupID, cp.Err)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d contract groups failed", len(failures), len(ids))
	}
	return nil
}

// finishTicket prints a synchronous result or waits for the job of an
// asynchronous one.
func finishTicket(cmd *cobra.Command, app *bootstrap.App, ticket *recurringapp.GenerationTicket) error {
	if ticket.JobID == nil {
		printTicket(cmd, ticket)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Job %s queued for invoicer %s\n", *ticket.JobID, ticket.InvoicerID)
	job, err := waitForJob(cmd.Context(), app.Queue, *ticket.JobID)
	if err != nil {
		return err
	}
	if job.State == scheduler.JobStateFailed {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Job %s done\n", job.ID)
	return nil
}

func waitForJob(ctx context.Context, queue *scheduler.JobQueue, id uuid.UUID) (*scheduler.Job, error) {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Waiting for job"),
		progressbar.OptionSpinnerType(14),
	)
	defer func() {
		_ = spinner.Finish()
		fmt.Fprintln(os.Stderr)
	}()

	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()
	for {
		job, err := queue.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.State == scheduler.JobStateDone || job.State == scheduler.JobStateFailed {
			return job, nil
		}
		_ = spinner.Add(1)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printTicket(cmd *cobra.Command, ticket *recurringapp.GenerationTicket) {
	out := cmd.OutOrStdout()
	if ticket.Report == nil {
		fmt.Fprintln(out, "No contract group to generate")
		return
	}
	fmt.Fprintf(out, "Invoicer %s: %d invoice(s), %d failed group(s)\n",
		ticket.InvoicerID, ticket.Report.InvoiceCount, ticket.Report.FailedGroups)
}
