package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	completionapp "github.com/erp/billing/internal/application/completion"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newImportStatementCmd(flags *globalFlags) *cobra.Command {
	var (
		journal string
		name    string
	)

	cmd := &cobra.Command{
		Use:   "import-statement FILE",
		Short: "Import a bank statement file and complete its lines",
		Long: `Import a CSV or XLSX bank statement into a journal, then run the
completion rules of that journal over the new lines.

A file with invalid rows is rejected as a whole and every row error is listed.`,
		Example: `  billingctl import-statement ./statement-2026-09.xlsx --journal 7c1d...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journalID, err := uuid.Parse(journal)
			if err != nil {
				return fmt.Errorf("invalid journal id: %w", err)
			}
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read statement file: %w", err)
			}

			ctx := cmd.Context()
			app, err := flags.openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			result, err := app.Imports.Import(ctx, completionapp.ImportStatementRequest{
				JournalID: journalID,
				Filename:  filepath.Base(path),
				Name:      name,
				Data:      data,
			})
			out := cmd.OutOrStdout()
			if errors.Is(err, completionapp.ErrStatementRejected) && result != nil {
				for _, rowErr := range result.Errors {
					fmt.Fprintf(out, "  row %d: %s\n", rowErr.Row, rowErr.Message)
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Statement %s: %d of %d line(s) imported (%s)\n",
				result.StatementID, result.Imported, result.TotalRows, result.Format)
			if c := result.Completion; c != nil {
				fmt.Fprintf(out, "Completed %d of %d line(s)\n", c.Completed, c.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&journal, "journal", "", "Bank journal id")
	cmd.Flags().StringVar(&name, "name", "", "Statement name (default: generated)")
	_ = cmd.MarkFlagRequired("journal")
	return cmd
}
