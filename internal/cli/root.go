// Package cli provides the command-line interface for etcher-ng.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"etcherng/internal/app"
	"etcherng/internal/config"
	"etcherng/internal/infrastructure/logging"
	"etcherng/internal/instance"
	"etcherng/internal/platform"
)

// GUIRunner runs the desktop window for application until it quits
type GUIRunner func(application *app.App, logger logging.Logger) error

// BuildInfo is stamped at link time
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// Options configures the root command
type Options struct {
	Build BuildInfo
	// Argv is the raw launch argument vector, os.Args when empty
	Argv   []string
	RunGUI GUIRunner
	// Relaunch starts a new copy of the process, re-executing the binary when nil
	Relaunch func(argv []string) error
}

// NewRootCmd creates the root command for etcher-ng
func NewRootCmd(opts Options) *cobra.Command {
	if len(opts.Argv) == 0 {
		opts.Argv = os.Args
	}
	if opts.Relaunch == nil {
		opts.Relaunch = reexec
	}

	rootCmd := &cobra.Command{
		Use:   "etcher-ng [source]",
		Short: "Flash OS images to SD cards and USB drives",
		Long: `Starts the flasher window. The optional source is an image file, an
http(s) URL or an etcher:// link; if etcher-ng is already running the
source is handed to that window instead.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Desktop launchers and the webview runtime pass switches of their own
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGUI(cmd, opts)
		},
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(NewVersionCmd(opts.Build))
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewSettingsCmd())

	return rootCmd
}

// Execute runs the root command and returns the process exit status
func Execute(ctx context.Context, opts Options) int {
	rootCmd := NewRootCmd(opts)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return ExitCode(err)
}

// NewVersionCmd prints the build information
func NewVersionCmd(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  validateArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", config.AppName, orUnknown(build.Version))
			fmt.Fprintf(out, "commit: %s\n", orUnknown(build.Commit))
			fmt.Fprintf(out, "built: %s\n", orUnknown(build.BuildDate))
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func runGUI(cmd *cobra.Command, opts Options) error {
	if opts.RunGUI == nil {
		return fmt.Errorf("no GUI available in this build")
	}

	env, err := NewEnv(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if closeErr := env.Close(); closeErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close settings store: %v\n", closeErr)
		}
	}()

	ctx := cmd.Context()
	logger := env.Logger
	cfg := env.Config

	arbiter := instance.New(instance.Config{
		ID:         cfg.Instance.ID,
		RuntimeDir: cfg.Instance.RuntimeDir,
	}, logger)
	if arbiter.Acquire(ctx) == instance.RoleSecondary {
		return forwardActivation(ctx, arbiter, opts.Argv, logger)
	}
	defer func() {
		if err := arbiter.Release(); err != nil {
			logger.Warn("Failed to release instance lock", "error", err)
		}
	}()

	if cfg.Protocol.Register {
		registerProtocol(ctx, cfg, logger)
	}

	repo, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}

	env.Manager.OnConfigChange(func(c *config.Config) {
		logger.SetLevel(c.Log.Level)
		logger.Info("Configuration reloaded", "log_level", c.Log.Level)
	})
	env.Manager.Watch()

	application := app.New(app.Options{
		Config:     cfg,
		ConfigFile: env.Manager.ConfigFile(),
		Argv:       opts.Argv,
		Settings:   repo,
		Arbiter:    arbiter,
		Logger:     logger,
	})

	if err := opts.RunGUI(application, logger); err != nil {
		return fmt.Errorf("application error: %w", err)
	}

	if application.RelaunchRequested() {
		// the new process must be able to take the lock
		if err := arbiter.Release(); err != nil {
			logger.Warn("Failed to release instance lock", "error", err)
		}
		if err := opts.Relaunch(opts.Argv); err != nil {
			return fmt.Errorf("relaunch failed: %w", err)
		}
	}
	return nil
}

// forwardActivation hands argv to the running instance. The secondary exits
// successfully even when nothing could be forwarded.
func forwardActivation(ctx context.Context, arbiter *instance.Arbiter, argv []string, logger logging.Logger) error {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	if err := arbiter.Forward(ctx, instance.NewActivation(argv, wd)); err != nil {
		logger.Error("Could not reach the running instance", "error", err)
	}
	return nil
}

func registerProtocol(ctx context.Context, cfg *config.Config, logger logging.Logger) {
	registrar := platform.NewProtocolRegistrar(platform.ProtocolInfo{
		Scheme:  cfg.Protocol.Scheme,
		AppName: config.AppName,
	}, logger)
	if ok, err := registrar.IsRegistered(ctx); err == nil && ok {
		return
	}
	if err := registrar.RegisterProtocol(ctx); err != nil {
		logger.Warn("Failed to register URL scheme", "scheme", cfg.Protocol.Scheme, "error", err)
	}
}

func reexec(argv []string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	var args []string
	if len(argv) > 1 {
		args = argv[1:]
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}
