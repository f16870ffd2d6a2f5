package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vault2notion/internal/application/commands"
	"vault2notion/internal/domain"
)

var statusFilter string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what earlier migrations recorded for this vault",
	Long: `Status lists every note recorded in the migration ledger with its
outcome, Notion page and the links that could not be resolved.

Examples:
  vault2notion status
  vault2notion status --only failed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch domain.DocumentStatus(statusFilter) {
		case "", domain.StatusMigrated, domain.StatusPartial, domain.StatusFailed:
		default:
			return fmt.Errorf("unknown status %q: use migrated, partial or failed", statusFilter)
		}

		ledger, err := openLedger(cfg, vault.Root(), logger)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer ledger.Close()

		result, err := commands.NewStatusCommand(ledger, domain.DocumentStatus(statusFilter)).Execute(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(result.Counts) == 0 {
			fmt.Fprintln(out, "No migrations recorded for", vault.Root())
			return nil
		}

		for _, e := range result.Entries {
			page := "-"
			if e.PageID != "" {
				page = commands.PageURL(e.PageID)
			}
			fmt.Fprintf(out, "%-8s %s  %s\n", e.Status, e.RelPath, page)
			for _, l := range result.BrokenLinks[e.Slug] {
				fmt.Fprintf(out, "         broken: %s\n", l.LinkText)
			}
		}
		fmt.Fprintf(out, "\n%d migrated, %d partial, %d failed (ledger %s)\n",
			result.Counts[domain.StatusMigrated],
			result.Counts[domain.StatusPartial],
			result.Counts[domain.StatusFailed],
			ledger.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusFilter, "only", "", "only list notes with this status (migrated, partial, failed)")
}
