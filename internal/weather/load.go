package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/kmorrow/bikeweather/internal/config"
	"github.com/kmorrow/bikeweather/internal/database"
	"github.com/kmorrow/bikeweather/internal/pipeline"
	"github.com/kmorrow/bikeweather/pkg/models"
)

// Load fetches daily weather for the range and caches it in the local
// database. When the source is unreachable after retries, it falls back to
// the cache if the cache fully covers the range; otherwise it surfaces a
// SourceUnavailableError. fromCache reports which path produced the data,
// so reruns work offline once a range has been fetched.
func Load(ctx context.Context, client *Client, db *database.DB, station config.StationConfig, start, end time.Time, timezone string, log *slog.Logger) (days []models.DailyWeather, fromCache bool, err error) {
	if log == nil {
		log = slog.Default()
	}

	days, fetchErr := client.FetchDaily(ctx, station, start, end, timezone)
	if fetchErr == nil {
		if err := db.UpsertWeather(days, station.Name); err != nil {
			return nil, false, err
		}
		return days, false, nil
	}

	covered, err := db.WeatherCovers(start, end)
	if err != nil {
		return nil, false, err
	}
	if !covered {
		return nil, false, &pipeline.SourceUnavailableError{Source: "weather archive", Cause: fetchErr}
	}

	log.Warn("weather source unreachable, using cached data",
		"start", start.Format(dateFormat),
		"end", end.Format(dateFormat),
		"error", fetchErr,
	)

	days, err = db.ListWeather(start, end)
	if err != nil {
		return nil, false, err
	}
	return days, true, nil
}

// RangeFor widens a trip date range to whole calendar days in loc.
func RangeFor(first, last time.Time, loc *time.Location) (start, end time.Time) {
	start = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	end = time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)
	return start, end
}
