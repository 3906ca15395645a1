package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// migrateCmd runs database migrations for the landing zone core tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions for the landing zone core tables.

By default, migrates to the latest version. Use --target-version for
specific versions. Tool fact tables are created on demand during
ingestion and are not managed here.

Examples:
  # Migrate to latest version (default)
  caldera migrate

  # Rollback to the initial state
  caldera migrate --target-version 0`,
	RunE: func(_ *cobra.Command, _ []string) error {
		session, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = session.Close() }()

		targetVersion := viper.GetInt("target-version")
		if err := session.Migrate(targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Println("Migrations applied.")
		return nil
	},
}
