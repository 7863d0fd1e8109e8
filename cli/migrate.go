// ABOUTME: migrate subcommand
// ABOUTME: Copies every account and person from the configured store to another backend
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/config"
	"github.com/harperreed/orgmap/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all data to another store backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch to {
			case config.StoreSQLite, config.StoreBadger, config.StoreMongo:
			default:
				return withCode(exitUsage, fmt.Errorf("invalid --to %q (expected sqlite|badger|mongo)", to))
			}
			if to == a.cfg.Store {
				return withCode(exitUsage, fmt.Errorf("--to %s is the current store", to))
			}

			src, err := openBackend(ctx, a.cfg, a.cfg.Store)
			if err != nil {
				return withCode(exitStore, fmt.Errorf("open %s store: %w", a.cfg.Store, err))
			}
			defer src.Close()

			dst, err := openBackend(ctx, a.cfg, to)
			if err != nil {
				return withCode(exitStore, fmt.Errorf("open %s store: %w", to, err))
			}
			defer dst.Close()

			accounts, persons, err := copyStore(cmd, src, dst)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"from":     a.cfg.Store,
				"to":       to,
				"accounts": accounts,
				"persons":  persons,
			}).Info("migration complete")
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Migrated %d account(s) and %d person(s) from %s to %s\n", accounts, persons, a.cfg.Store, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target backend: sqlite, badger or mongo (required)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// copyStore writes each account and then its persons as one batch.
func copyStore(cmd *cobra.Command, src, dst db.Store) (int, int, error) {
	ctx := cmd.Context()
	accounts, err := src.ListAccounts(ctx)
	if err != nil {
		return 0, 0, err
	}

	total := 0
	for i := range accounts {
		acc := accounts[i]
		if err := dst.SaveAccount(ctx, &acc); err != nil {
			return 0, 0, fmt.Errorf("account %s: %w", acc.ID, err)
		}
		persons, err := src.ListPersons(ctx, acc.ID)
		if err != nil {
			return 0, 0, err
		}
		if len(persons) == 0 {
			continue
		}
		if err := dst.SavePersons(ctx, acc.ID, persons); err != nil {
			return 0, 0, fmt.Errorf("persons of %s: %w", acc.ID, err)
		}
		total += len(persons)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d person(s)\n", acc.ID, len(persons))
	}
	return len(accounts), total, nil
}
