// ABOUTME: token subcommand
// ABOUTME: Mints a signed bearer token for the REST API
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/web"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject  string
		accounts []string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateAuth(); err != nil {
				return withCode(exitUsage, err)
			}
			if ttl == 0 {
				ttl = a.cfg.TokenTTL
			}
			if ttl < 0 {
				return withCode(exitUsage, fmt.Errorf("--ttl must be positive, got %s", ttl))
			}

			token, err := web.IssueToken([]byte(a.cfg.JWTSecret), subject, accounts, ttl, time.Now())
			if err != nil {
				return err
			}
			a.log.WithField("subject", subject).WithField("accounts", accounts).Info("token issued")
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject (required)")
	cmd.Flags().StringSliceVar(&accounts, "accounts", nil, "Account IDs the token may access (default: all)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: ORGMAP_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
