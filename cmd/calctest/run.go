package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thesyncim/calctest/pkg/calc"
	"github.com/thesyncim/calctest/pkg/calc/config"
)

var runFlags struct {
	url       string
	engines   []string
	scenarios []string
	file      string
	artifacts string
	headless  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every scenario on every engine",
	Long: `Runs each selected scenario in a fresh browser for each selected engine and
compares the rendered totals table. Exits 1 when any case fails.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.url, "url", calc.DefaultURL, "calculator page URL")
	f.StringSliceVarP(&runFlags.engines, "engine", "e", nil, "engine to run (repeatable; see 'calctest list')")
	f.StringSliceVarP(&runFlags.scenarios, "scenario", "s", nil, "scenario to run (repeatable; default all)")
	f.StringVar(&runFlags.file, "scenarios", "", "YAML file replacing the built-in scenarios")
	f.StringVar(&runFlags.artifacts, "artifacts", "", "directory for failure screenshots")
	f.BoolVar(&runFlags.headless, "headless", true, "run browsers headless")
}

// applyRunFlags overrides cfg with every flag set on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("url") {
		cfg.URL = runFlags.url
	}
	if f.Changed("engine") {
		cfg.Engines = runFlags.engines
	}
	if f.Changed("scenario") {
		cfg.Scenarios = runFlags.scenarios
	}
	if f.Changed("scenarios") {
		cfg.ScenarioFile = runFlags.file
	}
	if f.Changed("artifacts") {
		cfg.ArtifactsDir = runFlags.artifacts
	}
	if f.Changed("headless") {
		h := runFlags.headless
		cfg.Browser.Headless = &h
	}
	return cfg.Validate()
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	engines, err := cfg.EngineList()
	if err != nil {
		return err
	}
	scenarios, err := cfg.LoadScenarios()
	if err != nil {
		return err
	}

	suite, err := calc.NewSuite(engines, scenarios,
		calc.WithDriverConfig(cfg.DriverConfig()),
		calc.WithRunnerOptions(cfg.RunnerOptions()...),
		calc.WithArtifactsDir(cfg.ArtifactsDir),
		calc.WithCaseTimeout(cfg.CaseTimeout.Std()),
		calc.WithSuiteLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("url", cfg.URL).
		Strs("engines", cfg.Engines).
		Int("cases", len(suite.Cases())).
		Msg("starting calculator tests")

	report := suite.Run(ctx)
	printSummary(cmd.OutOrStdout(), report)

	if !report.OK() {
		os.Exit(1)
	}
	return nil
}

func printSummary(w io.Writer, report calc.Report) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Calculator Tests Complete\n")
	fmt.Fprintf(w, "=========================\n")
	fmt.Fprintf(w, "Run ID:   %s\n", report.RunID)
	fmt.Fprintf(w, "Duration: %v\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Passed:   %d\n", report.Passed())
	fmt.Fprintf(w, "Failed:   %d\n", report.Failed())
	fmt.Fprintf(w, "\n")

	for _, r := range report.Results {
		fmt.Fprintf(w, "  %-28s %s  %v\n", r.Name(), checkMark(r.Passed()), r.Duration.Round(time.Millisecond))
		if r.Err != nil {
			fmt.Fprintf(w, "      %v\n", r.Err)
		}
		if r.Screenshot != "" {
			fmt.Fprintf(w, "      screenshot: %s\n", r.Screenshot)
		}
	}
	fmt.Fprintf(w, "\nStatus: %s\n", checkMark(report.OK()))
}

func checkMark(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
