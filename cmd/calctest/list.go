package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thesyncim/calctest/pkg/calc/driver"
)

var listFile string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios and engines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listFile != "" {
			cfg.ScenarioFile = listFile
		}
		cfg.Scenarios = nil
		scenarios, err := cfg.LoadScenarios()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Scenarios:")
		for _, sc := range scenarios {
			var targets []string
			for _, t := range sc.Targets {
				targets = append(targets, fmt.Sprintf("%s %s=%s", t.Item, t.Kind, t.Value))
			}
			fmt.Fprintf(w, "  %-10s %s\n", sc.Name, strings.Join(targets, ", "))
		}

		defaults := map[driver.Engine]bool{}
		for _, e := range driver.DefaultEngines {
			defaults[e] = true
		}
		fmt.Fprintln(w, "\nEngines:")
		for _, e := range driver.Engines() {
			mark := ""
			if defaults[e] {
				mark = " (default)"
			}
			fmt.Fprintf(w, "  %-20s %s%s\n", e, e.Title(), mark)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFile, "scenarios", "", "YAML file replacing the built-in scenarios")
}
