package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration to w in TOML form, for
// "config show".
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	if r.Path != "" {
		ew.printf("# Effective configuration (file: %s)\n\n", r.Path)
	} else {
		ew.printf("# Effective configuration (defaults, no config file)\n\n")
	}

	ew.printf("[auth]\n")
	ew.printf("client_secrets_file = %q\n", r.Auth.ClientSecretsFile)
	ew.printf("token_file          = %q\n\n", r.Auth.TokenFile)

	ew.printf("[drive]\n")
	ew.printf("root_id             = %q\n", r.Drive.RootID)
	ew.printf("search_shared_roots = %t\n", r.Drive.SearchSharedRoots)
	ew.printf("strict_names        = %t\n", r.Drive.StrictNames)
	ew.printf("use_trash           = %t\n\n", r.Drive.UseTrash)

	ew.printf("[transfers]\n")
	ew.printf("chunk_size         = %q # %d bytes\n", r.Transfers.ChunkSize, r.ChunkSizeBytes)
	ew.printf("parallel_downloads = %d\n\n", r.Transfers.ParallelDownloads)

	ew.printf("[logging]\n")
	ew.printf("log_level  = %q\n", r.Logging.LogLevel)
	ew.printf("log_format = %q\n\n", r.Logging.LogFormat)

	ew.printf("[network]\n")
	ew.printf("connect_timeout = %q\n", r.Network.ConnectTimeout)
	ew.printf("data_timeout    = %q\n", r.Network.DataTimeout)

	if r.Network.UserAgent != "" {
		ew.printf("user_agent      = %q\n", r.Network.UserAgent)
	}

	return ew.err
}

// errWriter keeps the first write error; later writes are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
