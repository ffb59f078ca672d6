package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmorrow/bikeweather/internal/analysis"
	"github.com/kmorrow/bikeweather/internal/export"
)

var (
	mapTopN int
	mapPNG  bool
	mapOut  string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Render the station activity map",
	Long: `Renders the station popularity view as a standalone Leaflet HTML file the
dashboard can embed. With --png a headless browser additionally captures a
PNG snapshot of the rendered map.`,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().IntVar(&mapTopN, "top", 50, "number of stations to plot (0 = all)")
	mapCmd.Flags().BoolVar(&mapPNG, "png", false, "also capture a PNG snapshot (requires Chrome)")
	mapCmd.Flags().StringVar(&mapOut, "out", "", "output file (default <out_dir>/stations_map.html)")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Map started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	outPath := mapOut
	if outPath == "" {
		outPath = filepath.Join(cfg.GetOutDir(), "stations_map.html")
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

	stations := analysis.StationPopularity(trips, mapTopN)

	title := fmt.Sprintf("Top %d Start Stations", len(stations))
	if err := export.WriteStationMapHTML(outPath, title, stations); err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}
	fmt.Printf("✓ Wrote %s (%d stations)\n", outPath, len(stations))

	if mapPNG {
		pngPath := outPath[:len(outPath)-len(filepath.Ext(outPath))] + ".png"
		fmt.Println("Capturing PNG snapshot...")
		if err := export.CaptureMapPNG(context.Background(), outPath, pngPath); err != nil {
			return fmt.Errorf("capturing snapshot: %w", err)
		}
		fmt.Printf("✓ Wrote %s\n", pngPath)
	}

	return nil
}
