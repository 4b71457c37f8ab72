// Package cli provides the command-line interface for the stock tracking application.
package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stock-sentry/internal/monitor"
	"stock-sentry/internal/web"
)

// addMonitorCommands adds the long-running monitor commands.
func addMonitorCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newCheckCmd(app))
}

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the price alert monitor",
		Long: `Start the periodic price monitor.

Each cycle fetches a fresh quote for every tracked symbol, fires alerts
when the move since the last observation exceeds the threshold, and
advances the baseline. Cycles never overlap; the next cycle is scheduled
after the previous one completes. A status web server and a daily
history sync run alongside unless disabled.`,
		Example: `  sentry run
  sentry run --interval 10 --threshold 3.5
  sentry run --no-web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			interval, _ := cmd.Flags().GetInt("interval")
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			noWeb, _ := cmd.Flags().GetBool("no-web")

			monCfg := monitor.Config{
				ThresholdPercent: app.Config.Monitor.ThresholdPercent,
				Interval:         app.Config.Monitor.Interval(),
			}
			if cmd.Flags().Changed("interval") {
				monCfg.Interval = time.Duration(interval) * time.Minute
			}
			if cmd.Flags().Changed("threshold") {
				monCfg.ThresholdPercent = threshold
			}

			mon := monitor.New(monCfg, app.Manager, app.Tracker, app.Notifier, app.Logger)
			if app.Store != nil {
				mon.SetJournal(app.Store)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			output.Info("Monitoring %d symbols every %s (threshold %.1f%%)",
				app.Tracker.Count(), monCfg.Interval, monCfg.ThresholdPercent)
			output.Dim("Press Ctrl+C to stop.")

			// Daily candle sync keeps the local history database warm.
			sync := monitor.NewHistorySync(app.Manager, app.Tracker, app.Logger)
			if app.Store != nil {
				if err := sync.Start(app.Config.Monitor.HistorySyncHour); err != nil {
					app.Logger.Warn().Err(err).Msg("History sync scheduler failed to start")
				} else {
					defer sync.Stop()
				}
			}

			if app.Config.Web.Enabled && !noWeb {
				srv := web.New(app.Tracker, mon, app.Logger)
				go func() {
					if err := srv.Run(ctx, app.Config.Web.Host, app.Config.Web.Port); err != nil {
						app.Logger.Error().Err(err).Msg("Status server stopped")
					}
				}()
			}

			mon.Run(ctx)

			stats := mon.LastCycle()
			output.Println()
			output.Info("Monitor stopped after %d cycles (last cycle: %d symbols, %d alerts, %d skipped)",
				mon.Cycles(), stats.Symbols, stats.Alerts, stats.Skipped)
			return nil
		},
	}

	cmd.Flags().IntP("interval", "i", 5, "poll interval in minutes")
	cmd.Flags().Float64P("threshold", "t", 2.0, "alert threshold percent")
	cmd.Flags().Bool("no-web", false, "disable the status web server")

	return cmd
}

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single monitoring cycle and exit",
		Long: `Evaluate every tracked symbol once, firing alerts and advancing
baselines exactly as the continuous monitor would, then exit.`,
		Example: `  sentry check
  sentry check --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			monCfg := monitor.Config{
				ThresholdPercent: app.Config.Monitor.ThresholdPercent,
				Interval:         app.Config.Monitor.Interval(),
			}
			mon := monitor.New(monCfg, app.Manager, app.Tracker, app.Notifier, app.Logger)
			if app.Store != nil {
				mon.SetJournal(app.Store)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats := mon.RunCycle(ctx)

			if output.IsJSON() {
				return output.JSON(stats)
			}
			output.Info("Checked %d symbols: %d alerts, %d skipped (%s)",
				stats.Symbols, stats.Alerts, stats.Skipped,
				FormatDuration(stats.FinishedAt.Sub(stats.StartedAt)))
			return nil
		},
	}
}
