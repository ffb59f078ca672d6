package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kmorrow/bikeweather/internal/config"
	"github.com/kmorrow/bikeweather/internal/database"
	"github.com/kmorrow/bikeweather/internal/logging"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bikeweather",
	Short: "Join bike-share trips with daily weather and export dashboard tables",
	Long: `Bikeweather is a batch pipeline over a CitiBike trip dataset.
It loads raw trip CSVs into a local SQLite cache, fetches daily weather for a
fixed station, joins and aggregates the two, and exports the chart-ready
tables, a deterministic trip sample, and a station map consumed by the
dashboard.`,
}

func init() {
	// .env can override the default paths; real flags still win.
	_ = godotenv.Load()
	if v := os.Getenv("BIKEWEATHER_CONFIG"); v != "" {
		cfgFile = v
	}
	if v := os.Getenv("BIKEWEATHER_DB"); v != "" {
		dbPath = v
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", cfgFile, "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", dbPath, "database file (default is ./data.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "data.db"
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// newLogger builds the logger shared by the internal packages
func newLogger() *slog.Logger {
	return logging.New(verbose)
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}
