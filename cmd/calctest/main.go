// calctest drives the Factorio calculator web page in real browsers and checks
// the rendered totals against known-good scenarios.
//
// Usage:
//
//	calctest run --url http://localhost:8001/calc.html
//	calctest run --engine rod --engine chromedp --scenario Oil --artifacts test/results
//	calctest list
//	calctest serve --dir ../factorio-web-calc --addr :8001
//
// Settings are read from calctest.toml in the working directory when present,
// or from --config. Flags override file values.
package main

import (
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/thesyncim/calctest/pkg/calc/config"
)

const defaultConfigFile = "calctest.toml"

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "calctest",
	Short:         "Browser acceptance tests for the Factorio calculator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (default ./"+defaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(runCmd, listCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

// loadConfig reads --config, or calctest.toml when it exists, or the defaults.
func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newLogger builds the console logger at level, falling back to info.
func newLogger(level string) *log.Logger {
	if logLevel != "" {
		level = logLevel
	}
	return &log.Logger{
		Level: log.ParseLevel(level),
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}
}
