package main

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func (a *app) newScheduleCmd() *cobra.Command {
	var (
		opts runOptions
		now  bool
	)
	cmd := &cobra.Command{
		Use:   "schedule <cron>",
		Short: "Run the suite on a cron schedule until interrupted",
		Long: `Schedule runs the suite whenever the cron expression fires, for example
"*/30 * * * *" or "@hourly". A run still in progress when the next one is
due makes that one skip. Reports are rewritten after every run, so the
metrics format suits node_exporter's textfile collector.`,
		Example: `  chatcheck schedule "@every 15m" --report console,metrics --out /var/lib/node_exporter`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := cronParser.Parse(args[0])
			if err != nil {
				return setupError(fmt.Errorf("bad schedule %q: %w", args[0], err))
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			job := cron.FuncJob(func() {
				run, err := a.runOnce(ctx, cfg, opts)
				switch {
				case err != nil:
					slog.Error("scheduled run failed", "err", err)
				case !run.Passed():
					slog.Warn("scheduled run had failures", "id", run.ID)
				default:
					slog.Info("scheduled run passed", "id", run.ID)
				}
			})

			logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
			c := cron.New(
				cron.WithParser(cronParser),
				cron.WithLogger(logger),
				cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
			)
			entry := c.Schedule(sched, job)

			if now {
				// Through the entry's wrapped job, so a tick during this run skips.
				c.Entry(entry).WrappedJob.Run()
			}
			c.Start()
			slog.Info("schedule started", "spec", args[0], "next", c.Entry(entry).Next)

			<-ctx.Done()
			slog.Info("stopping schedule; waiting for the current run")
			<-c.Stop().Done()
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&now, "now", false, "also run once right away")
	return cmd
}
