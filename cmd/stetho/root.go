package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/one2ten/stetho-agent/internal/config"
	"github.com/one2ten/stetho-agent/internal/infrastructure"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatYAML     = "yaml"
)

var (
	// Global flags.
	configPath string
	envFile    string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stetho",
	Short: "Clinical triage assessments from vitals, symptoms, and heart sounds",
	Long: `Stetho runs a triage assessment over vital signs, reported symptoms,
and an optional auscultation recording, and prints the resulting report.

Settings are read from config.toml (or --config) and STETHO_* environment
variables. A .env file in the working directory is loaded first if present.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && (envFile != ".env" || !os.IsNotExist(err)) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		if verbose {
			os.Setenv("STETHO_LOG_LEVEL", "debug")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.BaseConfigFile, "Path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd, optionsCmd, checkCmd)
}

// loadConfig finalizes only the sections a local run uses, so no database
// or storage settings are required.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadPartial(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.FinalizeCore(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	return infrastructure.NewLogger().With("module", "cli")
}
