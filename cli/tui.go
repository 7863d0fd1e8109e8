package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/tui"
)

func newTUICmd(a *app) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse and rearrange an account's org chart in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			// logs would draw over the full-screen UI
			a.log.SetOutput(io.Discard)
			return tui.Run(ctx, svc, accountID)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID (required)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
