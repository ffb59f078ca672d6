package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kmorrow/bikeweather/internal/export"
	"github.com/kmorrow/bikeweather/internal/sampler"
)

var (
	sampleSize     int
	sampleFraction float64
	sampleSeed     int64
	sampleOut      string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a deterministic Parquet sample of the trip table",
	Long: `Draws a seeded uniform subset of the cached trip table and writes it as a
Parquet file with the same columns. The same seed, table, and size always
select the same rows, so the dashboard is reproducible across runs.`,
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().IntVar(&sampleSize, "size", 0, "sample size in rows (default from config, 50000)")
	sampleCmd.Flags().Float64Var(&sampleFraction, "fraction", 0, "sample fraction of the table (overrides --size)")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed (default from config, 42)")
	sampleCmd.Flags().StringVar(&sampleOut, "out", "", "output file (default <out_dir>/trips_sample.parquet)")
	rootCmd.AddCommand(sampleCmd)
}

func runSample(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Sample started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	size := sampleSize
	if size <= 0 {
		size = cfg.GetSampleSize()
	}
	fraction := sampleFraction
	if fraction <= 0 {
		fraction = cfg.SampleFraction
	}
	seed := sampleSeed
	if seed == 0 {
		seed = cfg.GetSampleSeed()
	}
	outPath := sampleOut
	if outPath == "" {
		outPath = filepath.Join(cfg.GetOutDir(), "trips_sample.parquet")
	}

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	trips, err := db.ListTrips(loc)
	if err != nil {
		return fmt.Errorf("reading cached trips: %w", err)
	}

	subset, err := sampler.Sample(trips, sampler.Options{
		Seed:     seed,
		Size:     size,
		Fraction: fraction,
		Logger:   newLogger(),
	})
	if err != nil {
		return fmt.Errorf("sampling trips: %w", err)
	}

	if err := export.WriteTripsParquet(outPath, subset); err != nil {
		return fmt.Errorf("writing sample: %w", err)
	}

	fmt.Printf("✓ Sampled %s of %s trips (seed %d) to %s\n",
		humanize.Comma(int64(len(subset))),
		humanize.Comma(int64(len(trips))),
		seed, outPath)

	return nil
}
