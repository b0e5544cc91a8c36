package main

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/chatcheck/chatcheck/internal/cases"
	"github.com/chatcheck/chatcheck/internal/chat"
	"github.com/chatcheck/chatcheck/internal/config"
	"github.com/chatcheck/chatcheck/internal/report"
	"github.com/chatcheck/chatcheck/internal/suite"
)

type runOptions struct {
	Reports    string
	OutDir     string
	CasesFile  string
	Filter     string
	FailFast   bool
	FreshLogin bool
	Headed     bool
}

func (o *runOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.Reports, "report", "console", "comma-separated report formats: console, json, junit, xlsx, metrics")
	f.StringVar(&o.OutDir, "out", "reports", "directory for file reports")
	f.StringVar(&o.CasesFile, "cases", "", "cases file (overrides cases_file)")
	f.StringVar(&o.Filter, "run", "", "only run cases whose name matches this regexp")
	f.BoolVar(&o.FailFast, "fail-fast", false, "skip remaining cases after the first failure")
	f.BoolVar(&o.FreshLogin, "fresh-login", false, "ignore saved storage state and log in through the form")
	f.BoolVar(&o.Headed, "headed", false, "show the browser window")
}

func (a *app) newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every case against the chatbot",
		Long: `Run logs in, sends each case's message and checks the reply.

Exit status is 0 when every case passes, 1 when any case fails or errors,
and 2 when setup fails (config, cases file, browser or login).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			run, err := a.runOnce(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			if !run.Passed() {
				return &exitError{code: exitFail}
			}
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

// runOnce runs the suite and writes the reports. The error is non-nil only
// for setup failures; case failures are in the returned run.
func (a *app) runOnce(ctx context.Context, cfg *config.RuntimeConfig, opts runOptions) (*suite.Run, error) {
	var filter *regexp.Regexp
	if opts.Filter != "" {
		re, err := regexp.Compile(opts.Filter)
		if err != nil {
			return nil, setupError(fmt.Errorf("bad --run pattern: %w", err))
		}
		filter = re
	}

	reporters, err := report.New(opts.Reports, opts.OutDir, &report.Console{W: a.stdout})
	if err != nil {
		return nil, setupError(err)
	}

	casesFile := cfg.CasesFile
	if opts.CasesFile != "" {
		casesFile = opts.CasesFile
	}
	cs, err := cases.Load(casesFile, cases.LoadOptions{Sheet: cfg.CasesSheet})
	if err != nil {
		return nil, setupError(err)
	}
	slog.Info("loaded cases", "file", casesFile, "count", len(cs))

	if opts.Headed {
		cfg.Headless = false
	}

	sess, err := a.newSession(ctx, cfg, chat.Options{FreshLogin: opts.FreshLogin})
	var run *suite.Run
	if err != nil {
		run = suite.Aborted(cs, err)
	} else {
		defer func() { _ = sess.Close() }()
		r := &suite.Runner{Session: sess, Cases: cs, FailFast: opts.FailFast, Filter: filter}
		run, err = r.Run(ctx)
	}

	if rerr := reporters.Report(run); rerr != nil {
		slog.Error("writing reports", "err", rerr)
	}
	if err != nil {
		return run, setupError(err)
	}
	return run, nil
}
