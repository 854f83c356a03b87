package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newExportInvoicerCmd(flags *globalFlags) *cobra.Command {
	var (
		invoicer string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "export-invoicer",
		Short: "Export the invoices of an invoicer to a spreadsheet",
		Example: `  billingctl export-invoicer --invoicer 3f0a...
  billingctl export-invoicer --invoicer 3f0a... --out september.xlsx`,
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

			report, err := app.Reports.Export(ctx, id)
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = report.Filename
			}
			if err := os.WriteFile(path, report.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d invoice(s) to %s\n", report.Invoices, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&invoicer, "invoicer", "", "Invoicer id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: the export file name)")
	_ = cmd.MarkFlagRequired("invoicer")
	return cmd
}
