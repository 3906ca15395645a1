package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "caldera",
	Short:              "Ingest static analysis payloads into the landing zone.",
	Long:               `Caldera collects the JSON output of code analysis tools and lands it in append-only SQL tables keyed by a shared file catalog.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".caldera")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("CALDERA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("backend", string(schema.SQLiteBackend))
	viper.SetDefault("db-connect", "caldera.db")
	viper.SetDefault("verbose", false)
}

// loadConfigFile merges the config file into Viper if one is present.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// newLogger builds the CLI logger. Verbose mode switches to the
// human-readable development encoder with debug output.
func newLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// openSession loads config and connects to the configured backend.
func openSession() (*database.Session, error) {
	if err := loadConfigFile(); err != nil {
		return nil, err
	}

	backend := schema.DatabaseBackend(viper.GetString("backend"))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return nil, fmt.Errorf("unsupported backend %q: use sqlite or postgresql", backend)
	}
	connStr := viper.GetString("db-connect")
	if connStr == "" {
		return nil, fmt.Errorf("--db-connect is required")
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return database.Open(backend, connStr, logger)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
