package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kmorrow/bikeweather/internal/analysis"
	"github.com/kmorrow/bikeweather/internal/export"
	"github.com/kmorrow/bikeweather/internal/loader"
	"github.com/kmorrow/bikeweather/internal/sampler"
	"github.com/kmorrow/bikeweather/internal/weather"
)

var runSkipMap bool

var runCmd = &cobra.Command{
	Use:   "run [trips.csv]",
	Short: "Run the full pipeline end to end",
	Long: `Runs load, fetch-weather, aggregate, sample, and map as one linear batch:
the trip CSV is cached, weather is fetched for the trip date span, the
joined views are exported, and the deterministic sample and station map are
written. Equivalent to running each subcommand in order.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runSkipMap, "skip-map", false, "skip the station map export")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()[:8]
	started := time.Now()
	fmt.Printf("=== Pipeline run %s started at %s ===\n", runID, started.Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	outDir := cfg.GetOutDir()
	log := newLogger()

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Stage 1: trips
	fmt.Println("[1/5] Loading trips...")
	trips, summary, err := loader.LoadFile(args[0], loader.Options{
		Location:           loc,
		MaxDuration:        cfg.GetMaxTripDuration(),
		RejectionThreshold: cfg.GetRejectionThreshold(),
		Logger:             log,
	})
	if err != nil {
		return fmt.Errorf("loading trips: %w", err)
	}
	if _, err := db.InsertTrips(trips); err != nil {
		return fmt.Errorf("caching trips: %w", err)
	}
	fmt.Printf("      %s rows kept, %s rejected\n",
		humanize.Comma(int64(summary.Loaded)), humanize.Comma(int64(summary.Rejected())))

	// Stage 2: weather for the trip date span
	fmt.Println("[2/5] Fetching weather...")
	first, last, ok, err := db.TripDateRange()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("trip cache is empty after load")
	}
	start, end := weather.RangeFor(first, last, loc)

	client := weather.NewClient(cfg.WeatherEndpoint, log)
	weatherDays, fromCache, err := weather.Load(context.Background(), client, db, cfg.GetStation(), start, end, loc.String(), log)
	if err != nil {
		return fmt.Errorf("fetching weather: %w", err)
	}
	source := "fetched"
	if fromCache {
		source = "cached"
	}
	fmt.Printf("      %d weather days (%s)\n", len(weatherDays), source)

	// Stage 3: aggregate and export views
	fmt.Println("[3/5] Aggregating...")
	cached, err := db.ListTrips(loc)
	if err != nil {
		return fmt.Errorf("reading cached trips: %w", err)
	}
	daily := analysis.BuildDaily(cached, loc)
	merged := analysis.MergeDaily(daily, weatherDays)
	stations := analysis.StationPopularity(cached, 0)

	if err := export.WriteMergedDailyCSV(filepath.Join(outDir, "daily_weather.csv"), merged); err != nil {
		return err
	}
	if err := export.WriteStationsCSV(filepath.Join(outDir, "stations.csv"), stations); err != nil {
		return err
	}
	if err := export.WriteSeasonalCSV(filepath.Join(outDir, "seasonal.csv"), analysis.Seasonal(merged)); err != nil {
		return err
	}
	if err := export.WriteHourlyCSV(filepath.Join(outDir, "hourly.csv"), analysis.ByHour(cached, loc)); err != nil {
		return err
	}
	if err := export.WriteWeekdaysCSV(filepath.Join(outDir, "weekdays.csv"), analysis.ByWeekday(cached, loc)); err != nil {
		return err
	}
	if err := export.WriteUserTypesCSV(filepath.Join(outDir, "user_types.csv"), analysis.ByUserType(cached)); err != nil {
		return err
	}
	fmt.Printf("      %d days, %d stations\n", len(merged), len(stations))

	// Stage 4: deterministic sample
	fmt.Println("[4/5] Sampling...")
	subset, err := sampler.Sample(cached, sampler.Options{
		Seed:     cfg.GetSampleSeed(),
		Size:     cfg.GetSampleSize(),
		Fraction: cfg.SampleFraction,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("sampling trips: %w", err)
	}
	if err := export.WriteTripsParquet(filepath.Join(outDir, "trips_sample.parquet"), subset); err != nil {
		return fmt.Errorf("writing sample: %w", err)
	}
	fmt.Printf("      %s rows sampled\n", humanize.Comma(int64(len(subset))))

	// Stage 5: map artifact
	if runSkipMap {
		fmt.Println("[5/5] Map skipped")
	} else {
		fmt.Println("[5/5] Rendering map...")
		top := analysis.StationPopularity(cached, 50)
		title := fmt.Sprintf("Top %d Start Stations", len(top))
		if err := export.WriteStationMapHTML(filepath.Join(outDir, "stations_map.html"), title, top); err != nil {
			return fmt.Errorf("rendering map: %w", err)
		}
	}

	fmt.Printf("✓ Run %s finished in %s, outputs in %s\n", runID, time.Since(started).Round(time.Millisecond), outDir)

	return nil
}
