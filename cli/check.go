// ABOUTME: check subcommand
// ABOUTME: Audits reporting lines per account, prints chart stats and optionally repairs
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/viz"
)

// reportIssues prints the audit of one account and repairs it when fix is set.
// Unrepaired issues are returned as an exitIssues error.
func reportIssues(cmd *cobra.Command, svc *directory.Service, accountID string, fix bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	issues, err := svc.Audit(ctx, accountID)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return nil
	}
	for _, is := range issues {
		fmt.Fprintf(out, "  ⚠️  %s: %s\n", is.Kind, is.Message)
	}
	if !fix {
		return withCode(exitIssues, fmt.Errorf("%s: %d consistency issue(s), rerun with --fix to repair", accountID, len(issues)))
	}

	changed, err := svc.Repair(ctx, accountID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ %s: repaired %d record(s)\n", accountID, len(changed))
	return nil
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		accountID string
		fix       bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Audit reporting lines and show chart health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			accountIDs := []string{accountID}
			if accountID == "" {
				accounts, err := svc.ListAccounts(ctx)
				if err != nil {
					return err
				}
				accountIDs = accountIDs[:0]
				for _, acc := range accounts {
					accountIDs = append(accountIDs, acc.ID)
				}
			}

			var failed error
			for _, id := range accountIDs {
				persons, err := svc.ListPersons(ctx, id)
				if err != nil {
					return err
				}
				stats := viz.GenerateChartStats(id, persons, time.Now())
				fmt.Fprint(cmd.OutOrStdout(), viz.RenderChartStats(stats))
				if err := reportIssues(cmd, svc, id, fix); err != nil {
					if ExitCode(err) != exitIssues {
						return err
					}
					failed = err
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return failed
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID (default: every account)")
	cmd.Flags().BoolVar(&fix, "fix", false, "Repair reporting lines, treating each person's manager as authoritative")
	return cmd
}
