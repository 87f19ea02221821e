package config

const (
	defaultSearchSharedRoots = true
	defaultChunkSize         = "16MiB"
	defaultParallelDownloads = 4
	defaultLogLevel          = "info"
	defaultLogFormat         = "auto"
	defaultConnectTimeout    = "10s"
	defaultDataTimeout       = "60s"
	defaultSecretsFileName   = "client_secret.json"
	defaultTokenFileName     = "token.json"
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for TOML decoding, so unset fields keep their default.
func DefaultConfig() *Config {
	return &Config{
		Drive: DriveConfig{
			SearchSharedRoots: defaultSearchSharedRoots,
		},
		Transfers: TransfersConfig{
			ChunkSize:         defaultChunkSize,
			ParallelDownloads: defaultParallelDownloads,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Network: NetworkConfig{
			ConnectTimeout: defaultConnectTimeout,
			DataTimeout:    defaultDataTimeout,
		},
	}
}
