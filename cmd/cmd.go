// Package cmd defines the command-line interface for caldera.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend", "sqlite", "Landing zone backend: sqlite or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "caldera.db", "Database path (sqlite) or connection string (postgresql)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	bindFlags(rootCmd.PersistentFlags())

	// Bind all flags of ingestCmd to Viper
	ingestCmd.Flags().String("collection-id", "", "Collection identifier (generated when empty)")
	ingestCmd.Flags().String("repo-id", "", "Repository identifier the payloads describe")
	ingestCmd.Flags().String("repo-path", "", "Path to the repository checkout, used to resolve branch and commit")
	ingestCmd.Flags().String("branch", "", "Branch the payloads were captured on")
	ingestCmd.Flags().String("commit", "", "Commit the payloads were captured at (40-char sha)")
	ingestCmd.Flags().Bool("replace", false, "Replace an existing collection with the same identifier")
	bindFlags(ingestCmd.Flags())

	// Bind all flags of exportCmd to Viper
	exportCmd.Flags().String("output-dir", "", "Directory to write parquet files into")
	exportCmd.Flags().String("export-collection", "", "Also export the file catalog of this collection")
	bindFlags(exportCmd.Flags())

	// Bind all flags of migrateCmd to Viper
	migrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	bindFlags(migrateCmd.Flags())
}

func bindFlags(flags *pflag.FlagSet) {
	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "error binding flags: %v\n", err)
		os.Exit(1)
	}
}
