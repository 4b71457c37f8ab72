// Package cli provides the command-line interface for the stock tracking application.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"stock-sentry/internal/models"
	"stock-sentry/internal/provider"
)

// addMarketCommands adds market data commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newChartCmd(app))
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price <symbol>",
		Short: "Get the current price for a symbol",
		Long: `Fetch and display the current market price for a symbol.

Quotes are served from the in-memory cache when fresh; use --no-cache
to force a new provider fetch.`,
		Example: `  sentry price AAPL
  sentry price MSFT --no-cache
  sentry price TSLA --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			noCache, _ := cmd.Flags().GetBool("no-cache")
			symbol := models.NormalizeSymbol(args[0])

			quote, err := app.Manager.GetQuote(ctx, symbol, !noCache)
			if err != nil {
				output.Error("Failed to get quote for %s: %v", symbol, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(quote)
			}
			return displayQuote(output, quote)
		},
	}

	cmd.Flags().Bool("no-cache", false, "bypass the quote cache")

	return cmd
}

func displayQuote(output *Output, quote *models.Quote) error {
	output.Bold("%s %s", quote.Symbol, output.SourceTag(quote.Source))
	output.Println()

	changeColor := output.ChangeColor(quote.Change)
	price := FormatPrice(quote.Price)
	change := FormatChange(quote.Change, quote.ChangePercent)

	output.Printf("  Price:  %s %s  %s\n", output.BoldText(price), quote.Currency,
		output.ColoredString(changeColor, change))
	output.Println()

	output.Printf("  Open:   %s\n", FormatPrice(quote.Open))
	output.Printf("  High:   %s\n", output.Green(FormatPrice(quote.High)))
	output.Printf("  Low:    %s\n", output.Red(FormatPrice(quote.Low)))
	output.Printf("  Close:  %s\n", FormatPrice(quote.PreviousClose))
	output.Println()

	output.Printf("  Volume: %s\n", FormatVolume(quote.Volume))
	output.Println()

	output.Dim("  Updated: %s", FormatDateTime(quote.AsOf))
	return nil
}

func newChartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart <symbol>",
		Short: "Get historical daily candles for a symbol",
		Long: `Fetch historical daily OHLCV candles for a symbol.

Candles are cached in memory and persisted to the local history
database for offline access.`,
		Example: `  sentry chart AAPL
  sentry chart NVDA --days 90
  sentry chart AMZN --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			days, _ := cmd.Flags().GetInt("days")
			symbol := models.NormalizeSymbol(args[0])

			candles, err := app.Manager.GetHistory(ctx, symbol, provider.LastDays(days))
			if err != nil {
				output.Error("Failed to get history for %s: %v", symbol, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(candles)
			}
			return displayCandles(output, symbol, candles)
		},
	}

	cmd.Flags().IntP("days", "d", 30, "number of days of history")

	return cmd
}

func displayCandles(output *Output, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		output.Warning("No candles available for %s", symbol)
		return nil
	}

	output.Bold("%s - %d daily candles", symbol, len(candles))
	output.Println()
	output.Printf("  %s %s %s %s %s %s\n",
		PadRight("Date", 12), PadLeft("Open", 10), PadLeft("High", 10),
		PadLeft("Low", 10), PadLeft("Close", 10), PadLeft("Volume", 10))

	for _, c := range candles {
		closeColor := output.ChangeColor(c.Close - c.Open)
		output.Printf("  %s %s %s %s %s %s\n",
			PadRight(FormatDate(c.Timestamp), 12),
			PadLeft(FormatPrice(c.Open), 10),
			PadLeft(FormatPrice(c.High), 10),
			PadLeft(FormatPrice(c.Low), 10),
			output.ColoredString(closeColor, PadLeft(FormatPrice(c.Close), 10)),
			PadLeft(FormatVolume(c.Volume), 10))
	}

	first, last := candles[0], candles[len(candles)-1]
	move := 0.0
	if first.Close != 0 {
		move = (last.Close - first.Close) / first.Close * 100
	}
	output.Println()
	output.Printf("  Period move: %s\n",
		output.ColoredString(output.ChangeColor(move), FormatPercent(move)))
	return nil
}
