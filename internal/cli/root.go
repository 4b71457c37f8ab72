// Package cli provides the command-line interface for the stock tracking application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stock-sentry/internal/advisor"
	"stock-sentry/internal/config"
	"stock-sentry/internal/httpx"
	"stock-sentry/internal/logging"
	"stock-sentry/internal/marketdata"
	"stock-sentry/internal/notify"
	"stock-sentry/internal/provider"
	"stock-sentry/internal/provider/alphavantage"
	"stock-sentry/internal/provider/yahoo"
	"stock-sentry/internal/store"
	"stock-sentry/internal/track"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Manager  *marketdata.Manager
	Tracker  *track.Store
	Store    store.HistoryStore
	Notifier notify.Notifier
	Advisor  *advisor.Advisor
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	httpClient := httpx.New(cfg.Providers.RequestTimeout())

	// Yahoo is always first in the chain; Alpha Vantage joins only when keyed.
	providers := []provider.Provider{yahoo.New(cfg.Providers.YahooEndpoint, httpClient)}
	if cfg.FallbackEnabled() {
		providers = append(providers, alphavantage.New(cfg.Providers.AlphaVantageKey, httpClient))
		logger.Debug().Msg("Alpha Vantage fallback provider initialized")
	} else {
		logger.Debug().Msg("No Alpha Vantage key, running on Yahoo only")
	}

	mdCfg := marketdata.DefaultConfig()
	mdCfg.QuoteTTL = cfg.Cache.QuoteTTL()
	mdCfg.HistoryTTL = cfg.Cache.HistoryTTL()
	app.Manager = marketdata.NewManager(mdCfg, logger, providers...)

	app.Tracker = track.NewStore(cfg.Storage.TrackedPath(), logger)

	// Initialize SQLite history store
	historyStore, err := store.NewSQLiteStore(cfg.Storage.DatabasePath())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize history store, candle persistence disabled")
	} else {
		app.Store = historyStore
		app.Manager.SetHistorySink(historyStore)
		logger.Debug().Msg("SQLite history store initialized")
	}

	app.Notifier = notify.NewMultiNotifier(cfg.Notifications)

	// Initialize advisor if OpenAI API key is available
	if cfg.AdvisorEnabled() {
		llm := advisor.NewOpenAIClient(cfg.Advisor.OpenAIKey, cfg.Advisor.Model, cfg.Advisor.MaxTokens)
		app.Advisor = advisor.New(llm, logger)
		logger.Debug().Str("model", cfg.Advisor.Model).Msg("OpenAI advisor initialized")
	} else {
		app.Advisor = advisor.New(nil, logger)
	}

	rootCmd := &cobra.Command{
		Use:   "sentry",
		Short: "Stock Sentry - market data and price alert CLI",
		Long: `Stock Sentry fetches live market data and watches tracked symbols
for significant price moves.

Quotes come from Yahoo Finance with automatic fallback to Alpha Vantage.
Tracked symbols are polled periodically and alerts fire when the price
moves beyond the configured threshold.

Use 'sentry help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stock-sentry)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addTrackingCommands(rootCmd, app)
	addMonitorCommands(rootCmd, app)
	addAdvisorCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Stock Sentry v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Monitor Configuration")
	output.Printf("  Threshold:       %.1f%%\n", cfg.Monitor.ThresholdPercent)
	output.Printf("  Poll Interval:   %s\n", cfg.Monitor.Interval())
	output.Printf("  History Sync:    %02d:00\n", cfg.Monitor.HistorySyncHour)
	output.Println()

	output.Bold("Cache Configuration")
	output.Printf("  Quote TTL:       %s\n", cfg.Cache.QuoteTTL())
	output.Printf("  History TTL:     %s\n", cfg.Cache.HistoryTTL())
	output.Println()

	output.Bold("Providers")
	output.Printf("  Yahoo Endpoint:  %s\n", cfg.Providers.YahooEndpoint)
	output.Printf("  Alpha Vantage:   %s\n", maskKey(cfg.Providers.AlphaVantageKey))
	output.Printf("  Request Timeout: %s\n", cfg.Providers.RequestTimeout())
	output.Println()

	output.Bold("Advisor")
	output.Printf("  OpenAI Key:      %s\n", maskKey(cfg.Advisor.OpenAIKey))
	output.Printf("  Model:           %s\n", cfg.Advisor.Model)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Tracked File:    %s\n", cfg.Storage.TrackedPath())
	output.Printf("  Database:        %s\n", cfg.Storage.DatabasePath())
	return nil
}

// maskKey partially hides an API key for display.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
