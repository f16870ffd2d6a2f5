package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vault2notion/internal/application/commands"
	"vault2notion/internal/ports"
)

var convertUseLedger bool

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Print the Notion blocks a note converts to",
	Long: `Convert one note and print the resulting Notion block objects as JSON.
Nothing is sent to Notion and attachments are not uploaded.

Links to other notes resolve only when --ledger is set and an earlier
migration recorded their pages.

Examples:
  vault2notion convert "Projects/Alpha.md"
  vault2notion convert --ledger Daily/2024-01-01.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ledger ports.Ledger
		if convertUseLedger {
			l, err := openLedger(cfg, vault.Root(), logger)
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer l.Close()
			ledger = l
		}

		parser := newParser(cfg, vault, assetHost(cfg, true), logger)
		result, err := commands.NewConvertCommand(vault, parser, ledger, args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Objects); err != nil {
			return fmt.Errorf("failed to encode blocks: %w", err)
		}

		r := result.Report
		fmt.Fprintf(os.Stderr, "%s: %d blocks, %d attachments, %d broken links, %d simplified\n",
			result.Document.RelPath, len(result.Objects),
			r.ImagesUploaded+r.PDFsUploaded+r.OthersUploaded, len(r.BrokenLinks), r.Degradations)
		for _, link := range r.BrokenLinks {
			fmt.Fprintf(os.Stderr, "  broken: %s\n", link)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().BoolVar(&convertUseLedger, "ledger", false, "resolve note links against pages recorded by earlier runs")
}
