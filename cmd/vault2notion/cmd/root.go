package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vault2notion/internal/adapters/filesystem"
	"vault2notion/internal/config"
	applog "vault2notion/internal/log"
)

var version = "dev"

var (
	vaultPath  string
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	vault  *filesystem.Vault
)

var rootCmd = &cobra.Command{
	Use:   "vault2notion",
	Short: "Migrate an Obsidian vault into a Notion database",
	Long: `vault2notion converts the markdown notes of an Obsidian vault into
Notion pages, one page per note, inside a single database.

Images, PDFs and other attachments are uploaded to a GitHub repository and
linked from the pages. Links between notes become links between pages.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("vault") {
			cfg.VaultPath = vaultPath
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = verbose
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger = applog.NewSecureLogger(os.Stderr, cfg.Verbose)

		vault, err = openVault(cfg, logger)
		return err
	},
}

// Execute runs the root command
func Execute() {
	// A missing .env file is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", applog.Scrub(err.Error()))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vaultPath, "vault", "v", config.VaultPath(), "path to the vault")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (default "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log debug output")
}
