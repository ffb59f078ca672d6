package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kmorrow/bikeweather/pkg/models"
)

const dateFormat = "2006-01-02"

// The dashboard consumes these files as-is; column order is part of the
// contract and must stay stable.

// WriteMergedDailyCSV writes the merged daily view. Weather fields are
// empty cells when no record matched the date.
func WriteMergedDailyCSV(path string, rows []models.MergedDaily) error {
	header := []string{"date", "trip_count", "member_count", "casual_count", "avg_duration_sec",
		"max_temp_c", "min_temp_c", "precipitation_mm", "snowfall_cm"}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{
			r.Date.Format(dateFormat),
			strconv.Itoa(r.TripCount),
			strconv.Itoa(r.MemberCount),
			strconv.Itoa(r.CasualCount),
			formatFloat(r.AvgDurationSec),
		}
		if r.Weather != nil {
			rec = append(rec,
				formatOptFloat(r.Weather.MaxTempC),
				formatOptFloat(r.Weather.MinTempC),
				formatOptFloat(r.Weather.PrecipitationMM),
				formatOptFloat(r.Weather.SnowfallCM),
			)
		} else {
			rec = append(rec, "", "", "", "")
		}
		records = append(records, rec)
	}

	return writeCSV(path, header, records)
}

// WriteStationsCSV writes the station popularity view
func WriteStationsCSV(path string, rows []models.StationCount) error {
	header := []string{"station_id", "station_name", "lat", "lng", "trip_count"}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.StationID,
			r.StationName,
			formatFloat(r.Lat),
			formatFloat(r.Lng),
			strconv.Itoa(r.TripCount),
		})
	}

	return writeCSV(path, header, records)
}

// WriteSeasonalCSV writes the seasonal view
func WriteSeasonalCSV(path string, rows []models.SeasonStats) error {
	header := []string{"season", "trip_count", "avg_max_temp_c"}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Season,
			strconv.Itoa(r.TripCount),
			formatOptFloat(r.AvgMaxTempC),
		})
	}

	return writeCSV(path, header, records)
}

// WriteHourlyCSV writes the hour-of-day view
func WriteHourlyCSV(path string, rows []models.HourCount) error {
	header := []string{"hour", "trip_count"}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Hour),
			strconv.Itoa(r.TripCount),
		})
	}

	return writeCSV(path, header, records)
}

// WriteWeekdaysCSV writes the day-of-week view
func WriteWeekdaysCSV(path string, rows []models.WeekdayCount) error {
	header := []string{"weekday", "trip_count", "avg_duration_sec"}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Weekday.String(),
			strconv.Itoa(r.TripCount),
			formatFloat(r.AvgDurationSec),
		})
	}

	return writeCSV(path, header, records)
}

// WriteUserTypesCSV writes the member/casual segmentation view
func WriteUserTypesCSV(path string, rows []models.UserTypeStats) error {
	header := []string{"user_type", "trip_count", "avg_duration_sec"}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.UserType,
			strconv.Itoa(r.TripCount),
			formatFloat(r.AvgDurationSec),
		})
	}

	return writeCSV(path, header, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
