package main

import (
	"fmt"

	"github.com/lawnchairsociety/citygen/internal/database"
	"github.com/lawnchairsociety/citygen/internal/logger"
	"github.com/spf13/cobra"
)

var (
	migrateFrom   string
	migrateDryRun bool
)

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy run history from a SQLite file into the configured database",
		Long: `Copy every stored run and its placements from a SQLite database into
the database named in the config, usually PostgreSQL. Runs already present
(same seed and digest) are skipped, so the copy can be repeated.

Examples:
  CITYGEN_DATABASE_DRIVER=postgres citygen migrate --from data/citygen.db
  citygen migrate --from old.db --dry-run`,
		RunE: runMigrate,
	}

	migrateCmd.Flags().StringVar(&migrateFrom, "from", "data/citygen.db", "Source SQLite database")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Show what would be copied without writing")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	target := databaseConfig(cfg.Database)
	if target.Driver == string(database.DialectSQLite) && target.SQLitePath == migrateFrom {
		return fmt.Errorf("source and target are the same database: %s", migrateFrom)
	}

	src, err := database.Open(migrateFrom)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	dst, err := database.OpenWithConfig(target)
	if err != nil {
		return fmt.Errorf("failed to open target database: %w", err)
	}
	defer dst.Close()

	logger.Info("Copying run history",
		"from", migrateFrom,
		"to", dst.Dialect().DriverName(),
		"dry_run", migrateDryRun)

	result, err := database.CopyRuns(src, dst, migrateDryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Copied %d runs, skipped %d already present\n", result.Copied, result.Skipped)
	if migrateDryRun {
		fmt.Fprintln(out, "(dry run: nothing was written)")
	}
	return nil
}
