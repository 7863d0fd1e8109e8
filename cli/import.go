// ABOUTME: import subcommand
// ABOUTME: Loads accounts and persons from a JSON file, upserting each account's persons in one batch
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/models"
)

// importFile is the shape of an import document.
type importFile struct {
	Accounts []models.Account `json:"accounts"`
	Persons  []models.Person  `json:"persons"`
}

func readImportFile(path string) (*importFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc importFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

// groupByAccount splits persons per account, keeping first-seen account order.
func groupByAccount(persons []models.Person) ([]string, map[string][]models.Person) {
	var order []string
	groups := map[string][]models.Person{}
	for _, p := range persons {
		if _, ok := groups[p.AccountID]; !ok {
			order = append(order, p.AccountID)
		}
		groups[p.AccountID] = append(groups[p.AccountID], p)
	}
	return order, groups
}

func newImportCmd(a *app) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import accounts and persons from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := readImportFile(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}

			svc, store, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			for i := range doc.Accounts {
				if err := svc.SaveAccount(ctx, &doc.Accounts[i]); err != nil {
					return fmt.Errorf("account %q: %w", doc.Accounts[i].Name, err)
				}
				fmt.Fprintf(out, "✓ Account %s (%s)\n", doc.Accounts[i].Name, doc.Accounts[i].ID)
			}

			order, groups := groupByAccount(doc.Persons)
			for _, accountID := range order {
				if accountID == "" {
					return withCode(exitUsage, fmt.Errorf("%d person(s) have no accountId", len(groups[accountID])))
				}
				n, err := svc.ImportPersons(ctx, accountID, groups[accountID])
				if err != nil {
					return fmt.Errorf("account %s: %w", accountID, err)
				}
				fmt.Fprintf(out, "✓ %s: %d person(s) imported\n", accountID, n)

				if err := reportIssues(cmd, svc, accountID, fix); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Repair reporting lines after import")
	return cmd
}
