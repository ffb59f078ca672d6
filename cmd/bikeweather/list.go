package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show cached trip and weather coverage",
	Long:  `Displays row counts and date coverage of the local SQLite cache.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tripCount, err := db.TripCount()
	if err != nil {
		return err
	}
	weatherCount, err := db.WeatherCount()
	if err != nil {
		return err
	}

	fmt.Println("Cache contents:")
	fmt.Println("----------------------------------------")

	if tripCount == 0 {
		fmt.Println("Trips:   none")
	} else {
		first, last, _, err := db.TripDateRange()
		if err != nil {
			return err
		}
		fmt.Printf("Trips:   %s rows, %s to %s\n",
			humanize.Comma(int64(tripCount)),
			first.Format("2006-01-02"), last.Format("2006-01-02"))
	}

	if weatherCount == 0 {
		fmt.Println("Weather: none")
	} else {
		fmt.Printf("Weather: %s days\n", humanize.Comma(int64(weatherCount)))
	}

	return nil
}
