// Package config loads gdrive-go's TOML configuration. Values are layered
// defaults -> config file -> environment -> CLI flags; the file is strict
// (unknown keys are errors) and every invalid value is reported at once.
package config

import "time"

// Config is the on-disk configuration. Every section is optional.
type Config struct {
	Auth      AuthConfig      `toml:"auth"`
	Drive     DriveConfig     `toml:"drive"`
	Transfers TransfersConfig `toml:"transfers"`
	Logging   LoggingConfig   `toml:"logging"`
	Network   NetworkConfig   `toml:"network"`
}

// AuthConfig locates the OAuth client secrets and the saved token.
// Empty paths fall back to files under the platform config/data dirs.
type AuthConfig struct {
	ClientSecretsFile string `toml:"client_secrets_file"`
	TokenFile         string `toml:"token_file"`
}

// DriveConfig controls how paths map onto the Drive graph.
type DriveConfig struct {
	RootID            string `toml:"root_id"`
	SearchSharedRoots bool   `toml:"search_shared_roots"`
	StrictNames       bool   `toml:"strict_names"`
	UseTrash          bool   `toml:"use_trash"`
}

// TransfersConfig controls uploads and concurrent downloads. chunk_size
// must be a multiple of 256 KiB, the resumable upload granularity.
type TransfersConfig struct {
	ChunkSize         string `toml:"chunk_size"`
	ParallelDownloads int    `toml:"parallel_downloads"`
}

type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	UserAgent      string `toml:"user_agent"`
}

// CLIOverrides holds values from CLI flags. Pointer fields distinguish
// "not specified" (nil) from an explicit zero value: --trash=false must
// override use_trash = true in the file.
type CLIOverrides struct {
	ConfigPath string
	RootID     *string
	UseTrash   *bool
}

// Resolved is the effective configuration after all layers are applied,
// with paths expanded and sizes and durations parsed.
type Resolved struct {
	Config

	// Path is the config file that was read, or "" when defaults were used.
	Path string

	ChunkSizeBytes int64
	ConnectTimeout time.Duration
	DataTimeout    time.Duration
}
