package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kmorrow/bikeweather/internal/analysis"
	"github.com/kmorrow/bikeweather/internal/export"
	"github.com/kmorrow/bikeweather/internal/weather"
)

var (
	aggregateOutDir string
	aggregateTopN   int
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Compute the joined views and export them as CSV",
	Long: `Reads cached trips and weather, groups trips by calendar date, left-joins
daily trip counts with the weather table, and writes the merged daily view
plus the hourly, weekday, station popularity, seasonal, and user-type views
as CSV files for the dashboard.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateOutDir, "out", "", "output directory (default from config, ./out)")
	aggregateCmd.Flags().IntVar(&aggregateTopN, "top", 0, "limit the station view to the top N stations (0 = all)")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Aggregate started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	outDir := aggregateOutDir
	if outDir == "" {
		outDir = cfg.GetOutDir()
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
	if len(trips) == 0 {
		return fmt.Errorf("no trips cached; run 'bikeweather load' first")
	}

	first, last, _, err := db.TripDateRange()
	if err != nil {
		return err
	}
	start, end := weather.RangeFor(first, last, loc)
	weatherDays, err := db.ListWeather(start, end)
	if err != nil {
		return fmt.Errorf("reading cached weather: %w", err)
	}

	daily := analysis.BuildDaily(trips, loc)
	merged := analysis.MergeDaily(daily, weatherDays)
	stations := analysis.StationPopularity(trips, aggregateTopN)

	outputs := map[string]func(string) error{
		"daily_weather.csv": func(p string) error { return export.WriteMergedDailyCSV(p, merged) },
		"stations.csv":      func(p string) error { return export.WriteStationsCSV(p, stations) },
		"seasonal.csv":      func(p string) error { return export.WriteSeasonalCSV(p, analysis.Seasonal(merged)) },
		"hourly.csv":        func(p string) error { return export.WriteHourlyCSV(p, analysis.ByHour(trips, loc)) },
		"weekdays.csv":      func(p string) error { return export.WriteWeekdaysCSV(p, analysis.ByWeekday(trips, loc)) },
		"user_types.csv":    func(p string) error { return export.WriteUserTypesCSV(p, analysis.ByUserType(trips)) },
	}

	// Stable order so progress output is reproducible
	order := []string{"daily_weather.csv", "stations.csv", "seasonal.csv", "hourly.csv", "weekdays.csv", "user_types.csv"}
	for _, name := range order {
		path := filepath.Join(outDir, name)
		if err := outputs[name](path); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Printf("  wrote %s\n", path)
	}

	withWeather := 0
	for _, row := range merged {
		if row.Weather != nil && row.Weather.HasObservations() {
			withWeather++
		}
	}

	fmt.Printf("✓ Aggregated %s trips into %d days (%d with weather), %d stations\n",
		humanize.Comma(int64(len(trips))), len(merged), withWeather, len(stations))

	return nil
}
