package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/heattile/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "heattile",
	Short: "Serve heatmap tiles of your recorded activities",
	Long: `heattile renders heatmaps of GPS activity tracks as slippy-map PNG tiles.

Tracks are read from a SQLite or DuckDB database, or straight from a Strava
bulk-export archive. Tiles are served at /heatmap/{z}/{x}/{y}.png next to a
static map viewer.

Examples:
  # Load a Strava export into a SQLite database
  heattile import export_23048086.zip --dsn activities.db

  # Serve tiles from that database on port 7000
  heattile serve --dsn activities.db

  # Serve tiles straight from the export archive
  heattile serve --store strava-zip --dsn export_23048086.zip

  # Use DuckDB instead of SQLite
  heattile serve --store duckdb --dsn activities.duckdb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.heattile.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json|console)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Environment names kept from earlier deployments
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("log.format", "LOG_FORMAT")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("store.kind", "STORE")
	viper.BindEnv("store.dsn", "DB_DSN")
	viper.BindEnv("store.table", "DB_TABLE")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".heattile" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".heattile")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.SetEnvPrefix("HEATTILE")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	configErr := viper.ReadInConfig()

	logging.Init(logging.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})

	if configErr == nil {
		logging.Info().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	} else if cfgFile != "" {
		logging.Warn().Err(configErr).Str("file", cfgFile).Msg("cannot read config file")
	}
}
