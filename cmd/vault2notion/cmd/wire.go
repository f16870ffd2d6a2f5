package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vault2notion/internal/adapters/dryrun"
	"vault2notion/internal/adapters/filesystem"
	"vault2notion/internal/adapters/github"
	"vault2notion/internal/adapters/notion"
	"vault2notion/internal/adapters/sqlite"
	"vault2notion/internal/application/linking"
	"vault2notion/internal/application/markdown"
	"vault2notion/internal/application/retry"
	"vault2notion/internal/application/upload"
	"vault2notion/internal/config"
	"vault2notion/internal/ports"
)

func openVault(c *config.Config, l *slog.Logger) (*filesystem.Vault, error) {
	opts := []filesystem.Option{filesystem.WithLogger(l)}
	if len(c.ExcludedDirs) > 0 {
		dirs := append(append([]string{}, filesystem.DefaultExcludedDirs...), c.ExcludedDirs...)
		opts = append(opts, filesystem.WithExcludedDirs(dirs...))
	}
	return filesystem.NewVault(c.ExpandedVaultPath(), opts...)
}

// openLedger opens the ledger of the vault, starting over when the file
// belongs to another vault or an older schema
func openLedger(c *config.Config, vaultRoot string, l *slog.Logger) (*sqlite.Ledger, error) {
	path := c.LedgerPath
	if path == "" {
		path = sqlite.DefaultPath(vaultRoot)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	ledger := sqlite.NewLedger()
	if err := ledger.Open(path, vaultRoot); err != nil {
		return nil, err
	}
	if ledger.NeedsReset() {
		l.Warn("ledger belongs to another vault or schema, starting over", "path", path)
		if err := ledger.Reset(); err != nil {
			ledger.Close()
			return nil, err
		}
	}
	return ledger, nil
}

func retryPolicy(c *config.Config) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = c.MaxAttempts
	return p
}

// assetHost returns the GitHub host, or a recording host for dry runs
func assetHost(c *config.Config, dryRun bool) ports.AssetHost {
	if dryRun {
		return dryrun.NewAssets()
	}
	return github.NewHost(c.GitHubToken, c.GitHubOwner, c.GitHubRepo, github.WithBranch(c.GitHubBranch))
}

// pageClient returns the Notion client, or a recording client for dry runs
func pageClient(c *config.Config, dryRun bool) ports.PageClient {
	if dryRun {
		return dryrun.NewPages()
	}
	return notion.NewClient(c.NotionToken, notion.WithTitleProperty(c.TitleProperty))
}

// newParser wires the link resolver and asset uploader behind a parser
func newParser(c *config.Config, v *filesystem.Vault, host ports.AssetHost, l *slog.Logger) *markdown.Parser {
	uploader := upload.NewUploader(host, v.Root(),
		upload.WithPrefix(c.UploadPrefix),
		upload.WithMaxSize(c.MaxUploadSize),
		upload.WithPolicy(retryPolicy(c)),
		upload.WithPacer(retry.NewPacer(c.UploadInterval)),
		upload.WithLogger(l),
	)
	resolver := linking.NewResolver(v.Catalog(), uploader, l)
	return markdown.NewParser(resolver,
		markdown.WithIndentWidth(c.IndentWidth),
		markdown.WithLogger(l),
	)
}
