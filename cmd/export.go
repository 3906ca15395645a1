package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexander-stage-hoco/caldera-sot/internal/parquet"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
)

// exportListLimit caps the run export. Runs are exported newest first.
const exportListLimit = 100000

// exportCmd writes landing zone data to Parquet files.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export landing data to Parquet for analytics",
	Long: `Export landing zone data to Parquet format for use with analytics tools.

Exports:
- tool_runs.parquet - metadata about every ingested payload
- layout_files.parquet - the file catalog of one collection (with --export-collection)

Parquet format enables fast querying with DuckDB, Apache Spark and pandas.

Examples:
  # Export run history
  caldera export --output-dir ./out

  # Also export the catalog of one sweep
  caldera export --output-dir ./out --export-collection sweep-42
  duckdb -c "SELECT * FROM read_parquet('out/tool_runs.parquet') LIMIT 10"`,
	RunE: func(_ *cobra.Command, _ []string) error {
		outputDir := viper.GetString("output-dir")
		if outputDir == "" {
			return fmt.Errorf("--output-dir is required")
		}
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		session, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = session.Close() }()

		runs := repositories.NewRunRepository(session)
		records, err := runs.ListToolRuns(rootCtx, exportListLimit)
		if err != nil {
			return err
		}
		runsPath := filepath.Join(outputDir, "tool_runs.parquet")
		if err := parquet.WriteToolRunsParquet(parquet.ConvertToolRunRecords(records), runsPath); err != nil {
			return err
		}
		color.Green("Wrote %d tool runs to %s", len(records), runsPath)

		collectionID := viper.GetString("export-collection")
		if collectionID == "" {
			return nil
		}

		collection, found, err := runs.FindCollectionRun(rootCtx, collectionID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no collection %q", collectionID)
		}
		layoutPK, found, err := runs.FindRunPKByTool(rootCtx, collection.CollectionPK, "layout-scanner", "layout")
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("collection %q has no catalog run", collectionID)
		}

		files, err := repositories.NewLayoutRepository(session).ListFiles(rootCtx, layoutPK)
		if err != nil {
			return err
		}
		filesPath := filepath.Join(outputDir, "layout_files.parquet")
		if err := parquet.WriteLayoutFilesParquet(parquet.ConvertLayoutFiles(files), filesPath); err != nil {
			return err
		}
		color.Green("Wrote %d catalog files to %s", len(files), filesPath)
		return nil
	},
}
