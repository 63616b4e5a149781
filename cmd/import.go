package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/heattile/internal/logging"
	"github.com/kiesman99/heattile/internal/store/stravazip"
)

var importCmd = &cobra.Command{
	Use:   "import <export.zip>",
	Short: "Load a Strava bulk export into the database",
	Long: `Read every GPX activity of a Strava bulk-export archive and store its
track in the SQLite or DuckDB database. Activities already present are
replaced.

Examples:
  # Import into activities.db
  heattile import export_23048086.zip

  # Import into a DuckDB file and a custom table
  heattile import export_23048086.zip --store duckdb --dsn tracks.duckdb --table rides`,
	Args: cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		bindStoreFlags(cmd)
	},
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	addStoreFlags(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kind := viper.GetString("store.kind")
	if kind != storeSQLite && kind != storeDuckDB {
		return fmt.Errorf("cannot import into store %q", kind)
	}

	archive, err := stravazip.Open(args[0])
	if err != nil {
		return err
	}
	defer archive.Close()

	if err := archive.Init(ctx); err != nil {
		return err
	}

	db, err := openSQLStore(ctx, kind, viper.GetString("store.dsn"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	activities := archive.Activities()
	for i, t := range activities {
		if err := db.Put(ctx, t); err != nil {
			return fmt.Errorf("activity %s: %w", t.ID, err)
		}
		logging.Debug().
			Str("id", t.ID).
			Int("points", t.NumPoints()).
			Msgf("imported activity %d/%d", i+1, len(activities))
	}

	total, err := db.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d activities (%d stored)\n", len(activities), total)
	return nil
}
