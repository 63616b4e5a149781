package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/heattile/internal/heatmap"
	"github.com/kiesman99/heattile/internal/store/sqlstore"
	"github.com/kiesman99/heattile/internal/store/stravazip"
)

// Store kinds accepted by --store
const (
	storeSQLite    = sqlstore.DriverSQLite
	storeDuckDB    = sqlstore.DriverDuckDB
	storeStravaZip = "strava-zip"
)

type trackStore interface {
	heatmap.Source
	io.Closer
}

// addStoreFlags registers the flags selecting the track store on cmd
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", storeSQLite, "track store (sqlite3|duckdb|strava-zip)")
	cmd.Flags().String("dsn", "activities.db", "database file or DSN, or the export archive for strava-zip")
	cmd.Flags().String("table", sqlstore.DefaultTable, "activities table name")
}

// bindStoreFlags binds the store flags of cmd to viper. It must run when cmd
// is executed rather than at init, since several commands share the keys.
func bindStoreFlags(cmd *cobra.Command) {
	viper.BindPFlag("store.kind", cmd.Flags().Lookup("store"))
	viper.BindPFlag("store.dsn", cmd.Flags().Lookup("dsn"))
	viper.BindPFlag("store.table", cmd.Flags().Lookup("table"))
}

// openStore opens and initialises the configured track store
func openStore(ctx context.Context) (trackStore, error) {
	kind := viper.GetString("store.kind")
	dsn := viper.GetString("store.dsn")

	switch kind {
	case storeSQLite, storeDuckDB:
		return openSQLStore(ctx, kind, dsn)
	case storeStravaZip:
		s, err := stravazip.Open(dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Init(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store: %s", kind)
	}
}

func openSQLStore(ctx context.Context, driver, dsn string) (*sqlstore.Store, error) {
	s, err := sqlstore.Open(driver, dsn, viper.GetString("store.table"))
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
