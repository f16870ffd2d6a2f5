package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vault2notion/internal/adapters/editor"
	"vault2notion/internal/adapters/obsidian"
	"vault2notion/internal/adapters/report"
	"vault2notion/internal/adapters/tui"
	"vault2notion/internal/application"
	"vault2notion/internal/application/commands"
	"vault2notion/internal/application/retry"
	"vault2notion/internal/config"
	applog "vault2notion/internal/log"
	"vault2notion/internal/ports"
)

// dryRunDatabase stands in for the database id when none is configured
const dryRunDatabase = "dry-run"

var (
	migrateDatabase string
	migrateDryRun   bool
	migrateForce    bool
	migrateTUI      bool
	migrateReport   string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate every note of the vault into a Notion database",
	Long: `Migrate creates one Notion page per note in the target database and
appends the converted content. Attachments are uploaded to GitHub first.

Notes migrated by an earlier run are skipped while their content is
unchanged. Use --force to migrate them again.

Examples:
  vault2notion migrate --database 0123abcd456789abcdef0123456789ab
  vault2notion migrate --dry-run --report report.md
  vault2notion migrate --tui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database := cfg.DatabaseID
		if cmd.Flags().Changed("database") {
			database = migrateDatabase
		}
		cfg.DatabaseID = database
		cfg.DryRun = migrateDryRun

		if cfg.DryRun {
			if database == "" {
				database = dryRunDatabase
			}
		} else {
			if err := cfg.ValidateRemote(); err != nil {
				return err
			}
			if err := application.ValidateNotionID("database", database); err != nil {
				return err
			}
		}

		runLogger := logger
		if migrateTUI {
			f, err := openRunLog()
			if err != nil {
				return err
			}
			defer f.Close()
			runLogger = applog.NewSecureJSONLogger(f, cfg.Verbose)
		}

		// Dry runs leave the ledger untouched
		var ledger ports.Ledger
		if !cfg.DryRun {
			l, err := openLedger(cfg, vault.Root(), runLogger)
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer l.Close()
			ledger = l
		}

		migrate := commands.NewMigrateCommand(commands.MigrateDeps{
			Source:    vault,
			Pages:     pageClient(cfg, cfg.DryRun),
			Parser:    newParser(cfg, vault, assetHost(cfg, cfg.DryRun), runLogger),
			Ledger:    ledger,
			Policy:    retryPolicy(cfg),
			Pacer:     retry.NewPacer(cfg.RequestInterval),
			MaxBlocks: cfg.MaxBlocks,
			Logger:    runLogger,
		}, database)
		migrate.Force = migrateForce

		opener := obsidian.NewOpener(vault.Root())

		var (
			result *commands.MigrateResult
			err    error
		)
		if migrateTUI {
			opts := tui.Options{
				Database: database,
				DryRun:   cfg.DryRun,
				Opener:   opener,
				Editor:   editor.NewOpener(vault.Root()),
			}
			result, err = tui.Run(cmd.Context(), opts,
				func(ctx context.Context, observe commands.Observer) (*commands.MigrateResult, error) {
					migrate.SetObserver(observe)
					return migrate.Execute(ctx)
				})
		} else {
			migrate.SetObserver(printProgress(cmd.ErrOrStderr()))
			result, err = migrate.Execute(cmd.Context())
		}
		if result == nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprint(out, report.Summary(result.Stats))
		report.WriteOutcomes(out, result.Outcomes)

		if migrateReport != "" {
			if werr := writeReport(migrateReport, opener, database, result); werr != nil {
				runLogger.Error("failed to write report", "path", migrateReport, "error", werr)
			} else {
				fmt.Fprintf(out, "Report written to %s\n", migrateReport)
			}
		}

		if err != nil {
			return err
		}
		if n := result.Stats.Failed + result.Stats.Partial; n > 0 {
			return fmt.Errorf("%d documents did not migrate completely", n)
		}
		return nil
	},
}

func printProgress(w io.Writer) commands.Observer {
	return func(p commands.Progress) {
		if p.Outcome == nil {
			return
		}
		line := fmt.Sprintf("[%d/%d] %-8s %s", p.Done, p.Total, p.Outcome.Status, p.Outcome.Document.RelPath)
		if p.Outcome.Err != nil {
			line += ": " + applog.Scrub(p.Outcome.Err.Error())
		}
		fmt.Fprintln(w, line)
	}
}

// openRunLog opens the log file used while the TUI owns the terminal
func openRunLog() (*os.File, error) {
	dir := config.XDGDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dir, "last-run.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	return f, nil
}

func writeReport(path string, notes report.NoteLinker, database string, result *commands.MigrateResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return report.NewMarkdownWriter(f, notes).Write(report.Run{
		Vault:    vault.Root(),
		Database: database,
		DryRun:   cfg.DryRun,
		Result:   result,
	})
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVarP(&migrateDatabase, "database", "d", "", "target Notion database id or URL (default $"+config.EnvDatabaseID+")")
	migrateCmd.Flags().BoolVarP(&migrateDryRun, "dry-run", "n", false, "convert and count without calling Notion or GitHub")
	migrateCmd.Flags().BoolVarP(&migrateForce, "force", "f", false, "migrate notes the ledger marks as unchanged")
	migrateCmd.Flags().BoolVar(&migrateTUI, "tui", false, "show interactive progress")
	migrateCmd.Flags().StringVarP(&migrateReport, "report", "r", "", "write a markdown report to this file")
}
