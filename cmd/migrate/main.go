// Command migrate applies the embedded schema migrations to the report and
// prompt database.
package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/one2ten/stetho-agent/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	configPath string
	envFile    string
	dsn        string
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the stetho database schema",
	Long: `Migrate applies or reverts the schema embedded in this binary.

The connection comes from --dsn, otherwise from the [database] section of
the config file and STETHO_DATABASE_URL / STETHO_DB_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && (envFile != ".env" || !os.IsNotExist(err)) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return printVersion(cmd, m)
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert every applied migration",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		cmd.Println("all migrations reverted")
		return nil
	}),
}

var stepsCmd = &cobra.Command{
	Use:   "steps N",
	Short: "Apply N migrations, or revert them when N is negative",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("steps: %q is not a non-zero integer", args[0])
		}
		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return fmt.Errorf("migrate %d steps: %w", n, err)
		}
		return printVersion(cmd, m)
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
		return printVersion(cmd, m)
	}),
}

var forceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Record VERSION as applied and clear the dirty flag",
	Long:  "Force does not run any migration. Use it only to recover from a failed one.",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("force: %q is not an integer", args[0])
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force version %d: %w", v, err)
		}
		return printVersion(cmd, m)
	}),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.BaseConfigFile, "Path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database URL, overriding the config file")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, versionCmd, forceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type migrateFunc func(cmd *cobra.Command, m *migrate.Migrate, args []string) error

func withMigrator(fn migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL()
		if err != nil {
			return err
		}

		source, err := iofs.New(migrations, "migrations")
		if err != nil {
			return fmt.Errorf("open migrations: %w", err)
		}

		m, err := migrate.NewWithSourceInstance("iofs", source, url)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer m.Close()

		return fn(cmd, m, args)
	}
}

// databaseURL resolves the connection from the flag or the config file.
func databaseURL() (string, error) {
	if dsn != "" {
		return dsn, nil
	}

	cfg, err := config.LoadPartial(configPath)
	if err != nil {
		return "", err
	}
	if err := cfg.FinalizeDatabase(); err != nil {
		return "", err
	}
	return cfg.Database.MigrationURL(), nil
}

func printVersion(cmd *cobra.Command, m *migrate.Migrate) error {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		cmd.Println("no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	cmd.Printf("version %d (dirty: %t)\n", v, dirty)
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
