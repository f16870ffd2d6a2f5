package config

import "errors"

// Configuration validation errors returned by Validate and ValidateRemote
var (
	ErrNoVault              = errors.New("no vault specified: use --vault or " + EnvVault)
	ErrInvalidIndentWidth   = errors.New("invalid indent width: must be positive")
	ErrInvalidMaxBlocks     = errors.New("invalid max blocks: must be between 1 and 100")
	ErrInvalidMaxUploadSize = errors.New("invalid max upload size: must be positive")
	ErrInvalidInterval      = errors.New("invalid request interval: must be non-negative")
	ErrInvalidMaxAttempts   = errors.New("invalid max attempts: must be positive")
	ErrNoNotionToken        = errors.New("no Notion token: set " + EnvNotionToken)
	ErrNoDatabase           = errors.New("no database specified: use --database or " + EnvDatabaseID)
	ErrNoGitHubToken        = errors.New("no GitHub token: set " + EnvGitHubToken)
	ErrNoGitHubRepo         = errors.New("no GitHub repository: set " + EnvGitHubOwner + " and " + EnvGitHubRepo)
)
