package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// AppName is used for XDG directory paths
const AppName = "vault2notion"

const (
	DefaultVaultPath       = "~/Documents/vault"
	DefaultGitHubBranch    = "main"
	DefaultUploadPrefix    = "uploads"
	DefaultTitleProperty   = "Name"
	DefaultMaxUploadSize   = 100 * 1024 * 1024
	DefaultIndentWidth     = 2
	DefaultMaxBlocks       = 100
	DefaultRequestInterval = 350 * time.Millisecond
	DefaultUploadInterval  = 300 * time.Millisecond
	DefaultMaxAttempts     = 5
)

// Environment variables read by ApplyEnv
const (
	EnvVault        = "VAULT2NOTION_VAULT"
	EnvNotionToken  = "NOTION_TOKEN"
	EnvDatabaseID   = "NOTION_DATABASE_ID"
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvGitHubOwner  = "GITHUB_OWNER"
	EnvGitHubRepo   = "GITHUB_REPO"
	EnvGitHubBranch = "GITHUB_BRANCH"
	EnvLedger       = "VAULT2NOTION_LEDGER"
)

// Config holds every setting of a migration run. It is filled from
// defaults, then the YAML file, then the environment, then flags.
type Config struct {
	VaultPath    string   `yaml:"vault"`
	ExcludedDirs []string `yaml:"exclude"`
	LedgerPath   string   `yaml:"ledger"` // Empty selects a per-vault file

	NotionToken   string `yaml:"notion_token"`
	DatabaseID    string `yaml:"database_id"`
	TitleProperty string `yaml:"title_property"`

	GitHubToken  string `yaml:"github_token"`
	GitHubOwner  string `yaml:"github_owner"`
	GitHubRepo   string `yaml:"github_repo"`
	GitHubBranch string `yaml:"github_branch"`
	UploadPrefix string `yaml:"upload_prefix"`

	MaxUploadSize   int64         `yaml:"max_upload_size"`
	IndentWidth     int           `yaml:"indent_width"`
	MaxBlocks       int           `yaml:"max_blocks"`
	RequestInterval time.Duration `yaml:"request_interval"`
	UploadInterval  time.Duration `yaml:"upload_interval"`
	MaxAttempts     int           `yaml:"max_attempts"`

	DryRun  bool `yaml:"-"`
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		VaultPath:       DefaultVaultPath,
		TitleProperty:   DefaultTitleProperty,
		GitHubBranch:    DefaultGitHubBranch,
		UploadPrefix:    DefaultUploadPrefix,
		MaxUploadSize:   DefaultMaxUploadSize,
		IndentWidth:     DefaultIndentWidth,
		MaxBlocks:       DefaultMaxBlocks,
		RequestInterval: DefaultRequestInterval,
		UploadInterval:  DefaultUploadInterval,
		MaxAttempts:     DefaultMaxAttempts,
	}
}

// VaultPath returns the vault path from VAULT2NOTION_VAULT,
// falling back to DefaultVaultPath.
func VaultPath() string {
	if env := os.Getenv(EnvVault); env != "" {
		return env
	}
	return DefaultVaultPath
}

// ApplyEnv overrides settings with the non-empty environment variables
// returned by getenv
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.VaultPath, EnvVault)
	set(&c.LedgerPath, EnvLedger)
	set(&c.NotionToken, EnvNotionToken)
	set(&c.DatabaseID, EnvDatabaseID)
	set(&c.GitHubToken, EnvGitHubToken)
	set(&c.GitHubOwner, EnvGitHubOwner)
	set(&c.GitHubRepo, EnvGitHubRepo)
	set(&c.GitHubBranch, EnvGitHubBranch)

	if v, err := strconv.ParseBool(getenv("VAULT2NOTION_VERBOSE")); err == nil {
		c.Verbose = v
	}
}

// ExpandedVaultPath returns VaultPath with a leading ~ expanded
func (c *Config) ExpandedVaultPath() string {
	if strings.HasPrefix(c.VaultPath, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, c.VaultPath[1:])
		}
	}
	return c.VaultPath
}

// XDGConfigDir returns the XDG config directory for vault2notion
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGDataDir returns the XDG data directory for vault2notion
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultConfigPath returns where the configuration file is looked up
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigDir(), DefaultConfigFile)
}

// Validate checks the settings every command needs
func (c *Config) Validate() error {
	if strings.TrimSpace(c.VaultPath) == "" {
		return ErrNoVault
	}
	if c.IndentWidth <= 0 {
		return ErrInvalidIndentWidth
	}
	if c.MaxBlocks <= 0 || c.MaxBlocks > DefaultMaxBlocks {
		return ErrInvalidMaxBlocks
	}
	if c.MaxUploadSize <= 0 {
		return ErrInvalidMaxUploadSize
	}
	if c.RequestInterval < 0 || c.UploadInterval < 0 {
		return ErrInvalidInterval
	}
	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	return nil
}

// ValidateRemote checks the credentials a real migration needs. Dry runs
// skip it.
func (c *Config) ValidateRemote() error {
	if c.NotionToken == "" {
		return ErrNoNotionToken
	}
	if c.DatabaseID == "" {
		return ErrNoDatabase
	}
	if c.GitHubToken == "" {
		return ErrNoGitHubToken
	}
	if c.GitHubOwner == "" || c.GitHubRepo == "" {
		return ErrNoGitHubRepo
	}
	return nil
}
