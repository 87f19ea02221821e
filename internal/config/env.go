package config

import (
	"log/slog"
	"os"
)

// Environment variable names for overrides.
const (
	EnvConfig    = "GDRIVE_GO_CONFIG"
	EnvRootID    = "GDRIVE_GO_ROOT_ID"
	EnvTokenFile = "GDRIVE_GO_TOKEN_FILE"
)

// EnvOverrides holds values read from the environment.
type EnvOverrides struct {
	ConfigPath string
	RootID     string
	TokenFile  string
}

// ReadEnvOverrides reads the override variables. Unset and empty are the same.
func ReadEnvOverrides(logger *slog.Logger) EnvOverrides {
	env := EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		RootID:     os.Getenv(EnvRootID),
		TokenFile:  os.Getenv(EnvTokenFile),
	}

	for name, val := range map[string]string{
		EnvConfig:    env.ConfigPath,
		EnvRootID:    env.RootID,
		EnvTokenFile: env.TokenFile,
	} {
		if val != "" {
			logger.Debug("environment override", slog.String("var", name), slog.String("value", val))
		}
	}

	return env
}
