// Package cli provides the command-line interface for the stock tracking application.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	apperrors "stock-sentry/internal/errors"
	"stock-sentry/internal/models"
	"stock-sentry/internal/provider"
)

// addAdvisorCommands adds the AI advisor commands.
func addAdvisorCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAdviceCmd(app))
}

func newAdviceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advice <symbol>",
		Short: "Get an AI assessment of a symbol",
		Long: `Ask the AI advisor for a short assessment of a symbol based on its
current quote and recent price history.

Requires an OpenAI API key (OPENAI_API_KEY or advisor.openai_key).
The output is informational only, not financial advice.`,
		Example: `  sentry advice AAPL
  sentry advice NVDA --days 90`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			days, _ := cmd.Flags().GetInt("days")
			symbol := models.NormalizeSymbol(args[0])

			quote, err := app.Manager.GetQuote(ctx, symbol, true)
			if err != nil {
				output.Error("Failed to get quote for %s: %v", symbol, err)
				return err
			}

			history, err := app.Manager.GetHistory(ctx, symbol, provider.LastDays(days))
			if err != nil {
				// Advice degrades to quote-only when history is unavailable.
				app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("No history for advice")
				history = nil
			}

			text, err := app.Advisor.Advise(ctx, quote, history)
			if err != nil {
				if errors.Is(err, apperrors.ErrAdvisorDisabled) {
					output.Error("Advisor disabled. Set OPENAI_API_KEY to enable it.")
					return err
				}
				output.Error("Advisor request failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"symbol": symbol, "advice": text})
			}

			output.Bold("%s", symbol)
			output.Printf("  Price: %s %s  %s\n", FormatPrice(quote.Price), quote.Currency,
				FormatChange(quote.Change, quote.ChangePercent))
			output.Println()
			output.Println(text)
			output.Println()
			output.Dim("Informational only, not financial advice.")
			return nil
		},
	}

	cmd.Flags().IntP("days", "d", 30, "days of history to include in the prompt")

	return cmd
}
