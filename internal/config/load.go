package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads, checks, and validates a TOML config file. Unknown keys are
// errors: a misspelled option would otherwise be silently ignored.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults. The
// bool reports whether the file existed.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), false, nil
	}

	cfg, err := Load(path)

	return cfg, err == nil, err
}

// Resolve applies defaults -> file -> environment -> CLI flags and returns
// the effective configuration.
func Resolve(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*Resolved, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, found, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	if !found {
		logger.Debug("no config file, using defaults", slog.String("path", cfgPath))
		cfgPath = ""
	}

	if env.RootID != "" {
		cfg.Drive.RootID = env.RootID
	}

	if env.TokenFile != "" {
		cfg.Auth.TokenFile = env.TokenFile
	}

	if cli.RootID != nil {
		cfg.Drive.RootID = *cli.RootID
	}

	if cli.UseTrash != nil {
		cfg.Drive.UseTrash = *cli.UseTrash
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return finish(cfg, cfgPath)
}

// finish expands paths and parses values already checked by Validate.
func finish(cfg *Config, path string) (*Resolved, error) {
	if cfg.Auth.ClientSecretsFile == "" {
		cfg.Auth.ClientSecretsFile = DefaultSecretsPath()
	}

	if cfg.Auth.TokenFile == "" {
		cfg.Auth.TokenFile = DefaultTokenPath()
	}

	cfg.Auth.ClientSecretsFile = expandTilde(cfg.Auth.ClientSecretsFile)
	cfg.Auth.TokenFile = expandTilde(cfg.Auth.TokenFile)

	r := &Resolved{Config: *cfg, Path: path}

	var err error

	if r.ChunkSizeBytes, err = ParseSize(cfg.Transfers.ChunkSize); err != nil {
		return nil, err
	}

	if r.ConnectTimeout, err = parseDurationMin("network.connect_timeout", cfg.Network.ConnectTimeout, minConnectTimeout); err != nil {
		return nil, err
	}

	if r.DataTimeout, err = parseDurationMin("network.data_timeout", cfg.Network.DataTimeout, minDataTimeout); err != nil {
		return nil, err
	}

	return r, nil
}
