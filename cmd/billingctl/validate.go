package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var invoicer string

	cmd := &cobra.Command{
		Use:     "validate",
		Short:   "Open the draft invoices of an invoicer",
		Example: `  billingctl validate --invoicer 3f0a...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(invoicer)
			if err != nil {
				return fmt.Errorf("invalid invoicer id: %w", err)
			}

			ctx := cmd.Context()
			app, err := flags.openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			n, err := app.Generation.ValidateInvoices(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Validated %d invoice(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&invoicer, "invoicer", "", "Invoicer id")
	_ = cmd.MarkFlagRequired("invoicer")
	return cmd
}
