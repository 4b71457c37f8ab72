// Package cli provides the command-line interface for the stock tracking application.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stock-sentry/internal/models"
)

// addTrackingCommands adds tracked-symbol management commands.
func addTrackingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newTrackCmd(app))
	rootCmd.AddCommand(newUntrackCmd(app))
	rootCmd.AddCommand(newListCmd(app))
	rootCmd.AddCommand(newAlertsCmd(app))
}

func newTrackCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <symbol>",
		Short: "Add a symbol to the watch list",
		Long: `Register a symbol for periodic price monitoring.

Tracking the same symbol again updates its target note without
resetting the price baseline. The symbol is validated against the
providers before it is stored.`,
		Example: `  sentry track AAPL
  sentry track MSFT --target "buy under 400"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			symbol := models.NormalizeSymbol(args[0])
			target, _ := cmd.Flags().GetString("target")

			// Reject symbols no provider recognizes before persisting them.
			quote, err := app.Manager.GetQuote(ctx, symbol, true)
			if err != nil {
				output.Error("Cannot track %s: %v", symbol, err)
				return err
			}

			ts, err := app.Tracker.Add(symbol, target)
			if err != nil {
				output.Error("Failed to track %s: %v", symbol, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(ts)
			}
			output.Success("Tracking %s at %s %s", ts.Symbol, FormatPrice(quote.Price), quote.Currency)
			if ts.Target != "" {
				output.Dim("  Target: %s", ts.Target)
			}
			return nil
		},
	}

	cmd.Flags().StringP("target", "t", "", "free-form target note")

	return cmd
}

func newUntrackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "untrack <symbol>",
		Short: "Remove a symbol from the watch list",
		Example: `  sentry untrack AAPL
  sentry untrack msft`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := models.NormalizeSymbol(args[0])

			removed, err := app.Tracker.Remove(symbol)
			if err != nil {
				output.Error("Failed to untrack %s: %v", symbol, err)
				return err
			}
			if !removed {
				output.Warning("%s is not being tracked", symbol)
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{"symbol": symbol, "removed": false})
				}
				return fmt.Errorf("symbol not tracked: %s", symbol)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"symbol": symbol, "removed": true})
			}
			output.Success("Stopped tracking %s", symbol)
			return nil
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked symbols",
		Long:    "List all tracked symbols with their last observed price, in tracking order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			stocks := app.Tracker.List()

			if output.IsJSON() {
				return output.JSON(stocks)
			}
			if len(stocks) == 0 {
				output.Info("No symbols tracked. Use 'sentry track <symbol>' to add one.")
				return nil
			}

			output.Bold("Tracked symbols (%d)", len(stocks))
			output.Println()
			output.Printf("  %s %s %s %s\n",
				PadRight("Symbol", 10), PadLeft("Last Price", 12),
				PadRight("  Last Checked", 22), PadRight("Target", 20))

			for _, ts := range stocks {
				lastPrice := "-"
				if ts.LastPrice != 0 {
					lastPrice = FormatPrice(ts.LastPrice)
				}
				lastChecked := "never"
				if !ts.LastChecked.IsZero() {
					lastChecked = FormatDateTime(ts.LastChecked)
				}
				output.Printf("  %s %s   %s %s\n",
					PadRight(ts.Symbol, 10),
					PadLeft(lastPrice, 12),
					PadRight(lastChecked, 22),
					TruncateString(ts.Target, 20))
			}
			return nil
		},
	}
}

func newAlertsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show recently fired alerts",
		Long:  "Show the most recent alerts recorded in the local alert journal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("History store unavailable, no alert journal to read.")
				return fmt.Errorf("history store unavailable")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			limit, _ := cmd.Flags().GetInt("limit")
			events, err := app.Store.GetRecentAlerts(ctx, limit)
			if err != nil {
				output.Error("Failed to read alert journal: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(events)
			}
			if len(events) == 0 {
				output.Info("No alerts recorded yet.")
				return nil
			}

			output.Bold("Recent alerts (%d)", len(events))
			output.Println()
			for _, ev := range events {
				arrow := output.Green("▲")
				if ev.Direction == models.DirectionDown {
					arrow = output.Red("▼")
				}
				output.Printf("  %s %s %s  %s -> %s (%s)\n",
					FormatDateTime(ev.At), arrow, PadRight(ev.Symbol, 8),
					FormatPrice(ev.OldPrice), FormatPrice(ev.NewPrice),
					FormatPercent(ev.PercentChange))
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "maximum number of alerts to show")

	return cmd
}
