package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexander-stage-hoco/caldera-sot/internal/ingest"
)

// ingestCmd lands a directory of tool payloads as one collection run.
var ingestCmd = &cobra.Command{
	Use:   "ingest <payload-dir>",
	Short: "Ingest a directory of tool payloads as one collection run",
	Long: `Ingest every JSON envelope in a directory into the landing zone.

The catalog payload (layout-scanner) is always ingested first so the
fact payloads of the other tools can resolve their file references.
Payloads that fail schema or quality validation are recorded as failed
runs; the sweep continues with the remaining files.

Examples:
  # Ingest a capture directory into a fresh collection
  caldera ingest ./captures --repo-id my-service --repo-path ~/src/my-service

  # Re-ingest, replacing the previous run of the same collection
  caldera ingest ./captures --repo-id my-service --collection-id sweep-42 --replace`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		session, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = session.Close() }()

		opts := ingest.Options{
			CollectionID: viper.GetString("collection-id"),
			RepoID:       viper.GetString("repo-id"),
			Branch:       viper.GetString("branch"),
			Commit:       viper.GetString("commit"),
			Replace:      viper.GetBool("replace"),
		}
		if opts.RepoID == "" {
			return fmt.Errorf("--repo-id is required")
		}

		// Resolve branch and commit from the checkout when not given.
		if opts.Commit == "" {
			repoPath := viper.GetString("repo-path")
			if repoPath == "" {
				return fmt.Errorf("--commit or --repo-path is required")
			}
			head, err := ingest.ResolveHead(repoPath)
			if err != nil {
				return fmt.Errorf("failed to resolve repository head: %w", err)
			}
			opts.Commit = head.Commit
			if opts.Branch == "" {
				opts.Branch = head.Branch
			}
		}

		orch, err := ingest.NewOrchestrator(session)
		if err != nil {
			return err
		}
		collection, err := orch.BeginCollection(rootCtx, opts)
		if err != nil {
			return err
		}

		ingestErr := orch.IngestDir(rootCtx, collection, args[0])
		if err := orch.FinishCollection(rootCtx, collection, ingestErr); err != nil {
			return err
		}
		if ingestErr != nil {
			color.Red("Collection %s finished with failures.", collection.ID)
			return ingestErr
		}
		color.Green("Collection %s ingested.", collection.ID)
		return nil
	},
}
