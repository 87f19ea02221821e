package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/config"
	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// version is set at build time via ldflags.
var version = "dev"

// CLIFlags holds the persistent flags shared by every command.
type CLIFlags struct {
	ConfigPath string
	RootID     string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

// CLIContext is built once per invocation by the root pre-run and handed to
// subcommands through the command context.
type CLIContext struct {
	Flags    CLIFlags
	Cfg      *config.Resolved
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *graph.Metrics
	Stdout   io.Writer
	Stderr   io.Writer

	// statusMu serializes status lines from concurrent downloads.
	statusMu sync.Mutex
}

type cliContextKey struct{}

func withCLIContext(ctx context.Context, cc *CLIContext) context.Context {
	return context.WithValue(ctx, cliContextKey{}, cc)
}

// mustCLIContext returns the CLIContext installed by the root pre-run. It
// panics if called from a command that bypassed it, which is a wiring bug.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		panic("gdrive-go: command ran without CLIContext")
	}

	return cc
}

func newRootCmd() *cobra.Command {
	var flags CLIFlags

	cmd := &cobra.Command{
		Use:           "gdrive-go",
		Short:         "Google Drive by path",
		Long:          "Read, write, list, and delete Google Drive files with slash-delimited paths.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd, flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			reportCalls(mustCLIContext(cmd.Context()))
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "config file path")
	pf.StringVar(&flags.RootID, "root-id", "", "folder id the empty path refers to (default: My Drive)")
	pf.BoolVar(&flags.JSON, "json", false, "output in JSON format")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newLsCmd(),
		newStatCmd(),
		newCatCmd(),
		newGetCmd(),
		newPutCmd(),
		newMkdirCmd(),
		newRmCmd(),
		newConfigCmd(),
	)

	return cmd
}

// setup resolves configuration, builds the logger and metrics registry, and
// installs the CLIContext.
func setup(cmd *cobra.Command, flags CLIFlags) error {
	stderr := cmd.ErrOrStderr()
	bootstrap := buildLogger(nil, flags, stderr)

	cli := config.CLIOverrides{ConfigPath: flags.ConfigPath}

	if cmd.Flags().Changed("root-id") {
		cli.RootID = &flags.RootID
	}

	if f := cmd.Flags().Lookup("trash"); f != nil && f.Changed {
		trash, err := cmd.Flags().GetBool("trash")
		if err != nil {
			return err
		}

		cli.UseTrash = &trash
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(bootstrap), cli, bootstrap)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := buildLogger(resolved, flags, stderr)
	reg := prometheus.NewRegistry()

	cc := &CLIContext{
		Flags:    flags,
		Cfg:      resolved,
		Logger:   logger,
		Registry: reg,
		Metrics:  graph.NewMetrics(reg),
		Stdout:   cmd.OutOrStdout(),
		Stderr:   stderr,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(withCLIContext(ctx, cc))

	return nil
}

// buildLogger creates the process logger. The config file sets the baseline
// level and format; --verbose and --quiet override the level. With
// log_format "auto", a terminal gets text and anything else gets JSON.
func buildLogger(cfg *config.Resolved, flags CLIFlags, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	format := "auto"

	if cfg != nil {
		format = cfg.Logging.LogFormat

		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}

	if flags.Verbose {
		level = slog.LevelDebug
	}

	if flags.Quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if useTextLogs(format, w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}

func useTextLogs(format string, w io.Writer) bool {
	switch format {
	case "text":
		return true
	case "json":
		return false
	}

	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Statusf prints a status message to stderr unless --quiet is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	if cc.Flags.Quiet {
		return
	}

	cc.statusMu.Lock()
	defer cc.statusMu.Unlock()

	fmt.Fprintf(cc.Stderr, format, args...)
}

// notLoggedInHint is appended to auth failures that a login would fix.
const notLoggedInHint = "run 'gdrive-go login' first"
