package main

import (
	"github.com/spf13/cobra"

	"github.com/one2ten/stetho-agent/internal/reports"
)

// optionsCmd represents the options command.
var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List accepted input values",
	Long: `List the symptom tags, durations, severities, audio labels, and user
modes accepted in a run input, as resolved from the configured reference data.`,
	Example: `  stetho options
  stetho options --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ref, err := cfg.Triage.Reference()
		if err != nil {
			return err
		}

		f, _ := cmd.Flags().GetString("format")
		return writeStructured(cmd.OutOrStdout(), reports.NewOptions(ref), f)
	},
}

func init() {
	optionsCmd.Flags().StringP("format", "f", formatYAML, "Output format (json, yaml)")
}
