package main

import (
	"fmt"
	"time"

	"github.com/erp/billing/internal/infrastructure/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token for the billing API",
		Long: `Issue a signed operator token with the configured JWT secret.

Without --scope the token carries every scope: billing:read,
billing:statements and billing:generate.`,
		Example: `  billingctl token --subject alice --scope billing:read --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := auth.ParseScopes(scopes)
			if err != nil {
				return err
			}
			cfg, _, err := flags.loadConfig()
			if err != nil {
				return err
			}

			token, err := auth.NewJWTService(cfg.JWT).GenerateToken(subject, parsed, ttl)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token.AccessToken)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s token for %s, expires %s\n",
				token.TokenType, subject, token.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Operator name")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Granted scope (repeatable, default: all)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: the configured expiration)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
