package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kmorrow/bikeweather/internal/loader"
)

var loadCmd = &cobra.Command{
	Use:   "load [trips.csv]",
	Short: "Load a raw trip CSV into the local cache",
	Long: `Parses a CitiBike-format trip CSV, coerces timestamps and numeric fields,
drops malformed rows with a rejection tally, and inserts the survivors into
the local SQLite database. Fails if the rejection rate exceeds the configured
threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Load started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	trips, summary, err := loader.LoadFile(args[0], loader.Options{
		Location:           loc,
		MaxDuration:        cfg.GetMaxTripDuration(),
		RejectionThreshold: cfg.GetRejectionThreshold(),
		Logger:             newLogger(),
	})
	if err != nil {
		return fmt.Errorf("loading trips: %w", err)
	}

	fmt.Printf("Parsed %s rows, kept %s, rejected %s\n",
		humanize.Comma(int64(summary.TotalRows)),
		humanize.Comma(int64(summary.Loaded)),
		humanize.Comma(int64(summary.Rejected())))

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	inserted, err := db.InsertTrips(trips)
	if err != nil {
		return fmt.Errorf("caching trips: %w", err)
	}

	fmt.Printf("✓ Cached %s trips (%s duplicates skipped)\n",
		humanize.Comma(int64(inserted)),
		humanize.Comma(int64(len(trips)-inserted)))

	return nil
}
