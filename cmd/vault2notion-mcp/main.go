package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"vault2notion/internal/adapters/dryrun"
	"vault2notion/internal/adapters/filesystem"
	mcpadapter "vault2notion/internal/adapters/mcp"
	"vault2notion/internal/adapters/sqlite"
	"vault2notion/internal/application/linking"
	"vault2notion/internal/application/markdown"
	"vault2notion/internal/application/upload"
	"vault2notion/internal/config"
	applog "vault2notion/internal/log"
)

func main() {
	_ = godotenv.Load()

	vaultFlag := flag.String("vault", "", "path to the vault (default from configuration)")
	configFlag := flag.String("config", "", "configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("vault2notion-mcp: %v", err)
	}
	if *vaultFlag != "" {
		cfg.VaultPath = *vaultFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("vault2notion-mcp: %v", err)
	}

	// stdout carries the protocol
	logger := applog.NewSecureLogger(os.Stderr, cfg.Verbose)

	vault, err := filesystem.NewVault(cfg.ExpandedVaultPath(), filesystem.WithLogger(logger))
	if err != nil {
		log.Fatalf("vault2notion-mcp: %v", err)
	}

	uploader := upload.NewUploader(dryrun.NewAssets(), vault.Root(),
		upload.WithPrefix(cfg.UploadPrefix),
		upload.WithMaxSize(cfg.MaxUploadSize),
		upload.WithLogger(logger),
	)
	resolver := linking.NewResolver(vault.Catalog(), uploader, logger)
	deps := mcpadapter.Deps{
		Source:   vault,
		Resolver: resolver,
		Parser:   markdown.NewParser(resolver, markdown.WithIndentWidth(cfg.IndentWidth), markdown.WithLogger(logger)),
	}

	ledgerPath := cfg.LedgerPath
	if ledgerPath == "" {
		ledgerPath = sqlite.DefaultPath(vault.Root())
	}
	var ledger *sqlite.Ledger
	if _, err := os.Stat(ledgerPath); err == nil {
		ledger = sqlite.NewLedger()
		if err := ledger.Open(ledgerPath, vault.Root()); err != nil {
			log.Fatalf("vault2notion-mcp: %v", err)
		}
		if ledger.NeedsReset() {
			logger.Warn("ledger belongs to another vault, ignoring it", "path", ledgerPath)
			ledger.Close()
			ledger = nil
		} else {
			defer ledger.Close()
			deps.Ledger = ledger
		}
	}

	mcpServer := server.NewMCPServer(
		"vault2notion-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, deps)
	if ledger != nil {
		mcpadapter.RegisterLedgerTools(mcpServer, ledger)
	}

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("vault2notion-mcp: %v", err)
	}
}
