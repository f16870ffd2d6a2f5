package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
	if cfg.MaxBlocks != 100 || cfg.IndentWidth != 2 || cfg.TitleProperty != "Name" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no vault", func(c *Config) { c.VaultPath = " " }, ErrNoVault},
		{"zero indent", func(c *Config) { c.IndentWidth = 0 }, ErrInvalidIndentWidth},
		{"too many blocks", func(c *Config) { c.MaxBlocks = 101 }, ErrInvalidMaxBlocks},
		{"no upload size", func(c *Config) { c.MaxUploadSize = 0 }, ErrInvalidMaxUploadSize},
		{"negative interval", func(c *Config) { c.UploadInterval = -time.Second }, ErrInvalidInterval},
		{"no attempts", func(c *Config) { c.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_ValidateRemote(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.ValidateRemote(); !errors.Is(err, ErrNoNotionToken) {
		t.Errorf("expected ErrNoNotionToken, got %v", err)
	}

	cfg.NotionToken = "secret_x"
	cfg.DatabaseID = "db"
	cfg.GitHubToken = "ghp_x"
	cfg.GitHubOwner = "me"
	if err := cfg.ValidateRemote(); !errors.Is(err, ErrNoGitHubRepo) {
		t.Errorf("expected ErrNoGitHubRepo, got %v", err)
	}

	cfg.GitHubRepo = "assets"
	if err := cfg.ValidateRemote(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `vault: /tmp/notes
database_id: abc
github_owner: me
request_interval: 1s
max_blocks: 50
exclude: [".obsidian", "Templates"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.VaultPath != "/tmp/notes" || cfg.DatabaseID != "abc" || cfg.GitHubOwner != "me" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.RequestInterval != time.Second || cfg.MaxBlocks != 50 {
		t.Errorf("interval = %v, max blocks = %d", cfg.RequestInterval, cfg.MaxBlocks)
	}
	if len(cfg.ExcludedDirs) != 2 || cfg.ExcludedDirs[1] != "Templates" {
		t.Errorf("excluded = %v", cfg.ExcludedDirs)
	}
	// Untouched keys keep defaults
	if cfg.IndentWidth != DefaultIndentWidth || cfg.GitHubBranch != DefaultGitHubBranch {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestConfig_LoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if err := NewConfig().LoadFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("vault: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewConfig().LoadFile(bad); err == nil {
		t.Error("expected parse error")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("explicit missing file should fail, got %v", err)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvVault:       "/env/vault",
		EnvNotionToken: "secret_env",
		EnvGitHubRepo:  " assets ",
		EnvDatabaseID:  "",
	}
	cfg := NewConfig()
	cfg.DatabaseID = "from-file"
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.VaultPath != "/env/vault" || cfg.NotionToken != "secret_env" || cfg.GitHubRepo != "assets" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.DatabaseID != "from-file" {
		t.Errorf("empty env var overrode database: %q", cfg.DatabaseID)
	}
}

func TestVaultPath(t *testing.T) {
	t.Setenv(EnvVault, "")
	if got := VaultPath(); got != DefaultVaultPath {
		t.Errorf("VaultPath() = %q, want %q", got, DefaultVaultPath)
	}

	t.Setenv(EnvVault, "/custom")
	if got := VaultPath(); got != "/custom" {
		t.Errorf("VaultPath() = %q, want %q", got, "/custom")
	}
}

func TestConfig_ExpandedVaultPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := NewConfig()
	cfg.VaultPath = "~/notes"
	if got := cfg.ExpandedVaultPath(); got != filepath.Join(home, "notes") {
		t.Errorf("ExpandedVaultPath() = %q", got)
	}
}
