package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chatcheck/chatcheck/internal/chat"
	"github.com/chatcheck/chatcheck/internal/config"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitSetup = 2
)

type globalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// app carries what every subcommand shares.
type app struct {
	flags  globalFlags
	stdout io.Writer
	stderr io.Writer

	// newSession opens the session a run drives.
	newSession func(ctx context.Context, cfg *config.RuntimeConfig, opts chat.Options) (chat.Session, error)
}

// exitError carries a process exit code up through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func setupError(err error) error {
	return &exitError{code: exitSetup, err: err}
}

func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		newSession: func(ctx context.Context, cfg *config.RuntimeConfig, opts chat.Options) (chat.Session, error) {
			return chat.Open(ctx, cfg, opts)
		},
	}
	return a.execute(args)
}

func (a *app) execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(a.stderr, "chatcheck: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(a.stderr, "chatcheck: %v\n", err)
	return exitSetup
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chatcheck",
		Short: "End-to-end tests for chatbots, driven through a real browser",
		Long: `chatcheck logs into a chatbot's web page with Chrome, sends each message
from a cases file and checks the bot's reply against the expected text.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.setupLogging(config.LogConfig{Level: "info", Format: "text"})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.flags.ConfigPath, "config", "c", "", "config file path (default $CHATCHECK_CONFIG or chatcheck.yaml)")
	root.PersistentFlags().BoolVarP(&a.flags.Verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVarP(&a.flags.Quiet, "quiet", "q", false, "errors only")

	root.AddCommand(
		a.newRunCmd(),
		a.newValidateCmd(),
		a.newLoginCmd(),
		a.newScheduleCmd(),
		a.newConfigCmd(),
		a.newFakebotCmd(),
		a.newVersionCmd(),
	)
	return root
}

// loadConfig reads the config named by --config and applies its log
// settings. Any failure is a setup error.
func (a *app) loadConfig() (*config.RuntimeConfig, error) {
	cfg, err := config.Load(config.ResolvePath(a.flags.ConfigPath))
	if err != nil {
		return nil, setupError(err)
	}
	a.setupLogging(cfg.Log)
	return cfg, nil
}

func (a *app) setupLogging(lc config.LogConfig) {
	level := lc.Level
	switch {
	case a.flags.Verbose:
		level = "debug"
	case a.flags.Quiet:
		level = "error"
	}
	slog.SetDefault(newLogger(a.stderr, level, lc.Format))
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
