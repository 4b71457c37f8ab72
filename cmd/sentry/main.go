// Command sentry is the stock tracking and price alert CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"stock-sentry/internal/cli"
	"stock-sentry/internal/config"
	"stock-sentry/internal/logging"
)

func main() {
	// A missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	// The config directory flag has to be resolved before cobra runs,
	// because command construction needs the loaded config.
	configDir := configDirFromArgs(os.Args[1:])

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Debug().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// configDirFromArgs extracts the --config flag without tripping on
// unknown flags meant for subcommands.
func configDirFromArgs(args []string) string {
	fs := pflag.NewFlagSet("pre", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	configDir := fs.String("config", "", "")
	_ = fs.Parse(args)
	return *configDir
}
