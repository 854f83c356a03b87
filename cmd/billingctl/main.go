// Command billingctl runs billing operations from a terminal: invoice
// generation and validation, statement imports, invoicer exports and
// operator tokens.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/erp/billing/internal/bootstrap"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

type globalFlags struct {
	configPath string
	logLevel   string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "billingctl",
		Short: "Operate statement completion and recurring invoicing",
		Long: `billingctl runs the billing service operations without the HTTP API.

Configuration is read from config.toml (or --config) and BILLING_* environment
variables. A .env file in the working directory is loaded first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load(flags.envFile)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config.toml (default: ./config.toml or /app/config.toml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Environment file loaded before the configuration")

	root.AddCommand(
		newGenerateCmd(flags),
		newValidateCmd(flags),
		newImportStatementCmd(flags),
		newExportInvoicerCmd(flags),
		newTokenCmd(flags),
	)
	return root
}

func (f *globalFlags) loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFile(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&logger.Config{
		Level:      f.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
		Service:    "billingctl",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// openApp wires the services against the configured database. The caller
// must Close the app.
func (f *globalFlags) openApp(ctx context.Context) (*bootstrap.App, error) {
	return f.openAppWith(ctx, bootstrap.Options{})
}

func (f *globalFlags) openAppWith(ctx context.Context, opts bootstrap.Options) (*bootstrap.App, error) {
	cfg, log, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, log, opts)
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
