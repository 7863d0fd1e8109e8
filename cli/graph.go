// ABOUTME: graph subcommand
// ABOUTME: Writes Graphviz DOT for a focused chart or a whole account
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/viz"
)

func newGraphCmd(a *app) *cobra.Command {
	var accountID, focus, output string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate a Graphviz DOT org chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			generator := viz.NewGraphGenerator()
			var dot string
			if focus == "" {
				persons, err := svc.ListPersons(ctx, accountID)
				if err != nil {
					return err
				}
				dot, err = generator.GenerateAccountGraph(accountID, persons)
				if err != nil {
					return err
				}
			} else {
				tree, err := svc.ScopedTree(ctx, accountID, focus)
				if err != nil {
					return err
				}
				dot, err = generator.GenerateOrgChart(tree)
				if err != nil {
					return err
				}
			}

			if output != "" {
				return os.WriteFile(output, []byte(dot), 0644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dot)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID (required)")
	cmd.Flags().StringVar(&focus, "focus", "", "Email or name to centre on (default: whole account)")
	cmd.Flags().StringVar(&output, "output", "", "Output file (default: stdout)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
