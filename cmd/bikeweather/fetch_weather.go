package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmorrow/bikeweather/internal/weather"
)

var (
	fetchStartDate string
	fetchEndDate   string
)

var fetchWeatherCmd = &cobra.Command{
	Use:   "fetch-weather",
	Short: "Fetch daily weather for the configured station",
	Long: `Fetches daily weather summaries (max/min temperature, precipitation,
snowfall) from the Open-Meteo archive for the configured station and caches
them in the local database. The date range comes from the config file, the
--start/--end flags, or failing both, the cached trip table's date span.

When the source is unreachable the command falls back to previously cached
data if it covers the range.`,
	RunE: runFetchWeather,
}

func init() {
	fetchWeatherCmd.Flags().StringVar(&fetchStartDate, "start", "", "range start (YYYY-MM-DD)")
	fetchWeatherCmd.Flags().StringVar(&fetchEndDate, "end", "", "range end (YYYY-MM-DD)")
	rootCmd.AddCommand(fetchWeatherCmd)
}

func runFetchWeather(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Fetch weather started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Resolve the date range: flags beat config, config beats the trip span
	var start, end time.Time
	switch {
	case fetchStartDate != "" || fetchEndDate != "":
		if fetchStartDate == "" || fetchEndDate == "" {
			return fmt.Errorf("--start and --end must be given together")
		}
		start, err = time.ParseInLocation("2006-01-02", fetchStartDate, loc)
		if err != nil {
			return fmt.Errorf("parsing --start: %w", err)
		}
		end, err = time.ParseInLocation("2006-01-02", fetchEndDate, loc)
		if err != nil {
			return fmt.Errorf("parsing --end: %w", err)
		}
	default:
		cfgStart, cfgEnd, ok, err := cfg.DateRange()
		if err != nil {
			return err
		}
		if ok {
			start, end = cfgStart, cfgEnd
		} else {
			first, last, ok, err := db.TripDateRange()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no date range configured and no trips cached; run 'bikeweather load' first")
			}
			start, end = weather.RangeFor(first, last, loc)
		}
	}

	if end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	station := cfg.GetStation()
	fmt.Printf("Fetching %s through %s for %s (%.2f, %.2f)...\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		station.Name, station.Lat, station.Lon)

	client := weather.NewClient(cfg.WeatherEndpoint, newLogger())
	days, fromCache, err := weather.Load(context.Background(), client, db, station, start, end, loc.String(), newLogger())
	if err != nil {
		return fmt.Errorf("fetching weather: %w", err)
	}

	observed := 0
	for _, d := range days {
		if d.HasObservations() {
			observed++
		}
	}

	if fromCache {
		fmt.Printf("✓ Using %d cached weather days (%d with observations)\n", len(days), observed)
	} else {
		fmt.Printf("✓ Fetched %d weather days (%d with observations)\n", len(days), observed)
	}

	return nil
}
