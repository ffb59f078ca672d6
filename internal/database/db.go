package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kmorrow/bikeweather/pkg/models"
	_ "modernc.org/sqlite"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "2006-01-02 15:04:05"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ride_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		start_station_id TEXT NOT NULL,
		start_station_name TEXT,
		start_lat REAL,
		start_lng REAL,
		end_station_id TEXT,
		end_station_name TEXT,
		end_lat REAL,
		end_lng REAL,
		user_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(ride_id)
	);
	CREATE INDEX IF NOT EXISTS idx_trips_date ON trips(date);
	CREATE INDEX IF NOT EXISTS idx_trips_start_station ON trips(start_station_id);

	CREATE TABLE IF NOT EXISTS weather (
		date TEXT PRIMARY KEY,
		max_temp_c REAL,
		min_temp_c REAL,
		precipitation_mm REAL,
		snowfall_cm REAL,
		station TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertTrips inserts trip records in a single transaction, ignoring
// duplicate ride IDs. Returns the number of rows actually inserted.
func (db *DB) InsertTrips(trips []models.Trip) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR IGNORE INTO trips
		(ride_id, date, start_time, end_time, start_station_id, start_station_name,
		 start_lat, start_lng, end_station_id, end_station_name, end_lat, end_lng,
		 user_type, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, t := range trips {
		res, err := stmt.Exec(
			t.RideID,
			t.StartTime.Format(dateFormat),
			t.StartTime.Format(timeFormat),
			t.EndTime.Format(timeFormat),
			t.StartStationID,
			t.StartStationName,
			t.StartLat,
			t.StartLng,
			t.EndStationID,
			t.EndStationName,
			t.EndLat,
			t.EndLng,
			t.UserType,
			createdAt,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting trip %s: %w", t.RideID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	return inserted, nil
}

// ListTrips retrieves all cached trips ordered by start time. Timestamps
// are interpreted in the given location, which must match the one used at
// load time.
func (db *DB) ListTrips(loc *time.Location) ([]models.Trip, error) {
	query := `
	SELECT id, ride_id, start_time, end_time, start_station_id, start_station_name,
	       start_lat, start_lng, end_station_id, end_station_name, end_lat, end_lng,
	       user_type
	FROM trips
	ORDER BY start_time, ride_id
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	var results []models.Trip
	for rows.Next() {
		var t models.Trip
		var startStr, endStr string
		var stationName, endStationID, endStationName sql.NullString
		var startLat, startLng, endLat, endLng sql.NullFloat64

		if err := rows.Scan(&t.ID, &t.RideID, &startStr, &endStr, &t.StartStationID, &stationName,
			&startLat, &startLng, &endStationID, &endStationName, &endLat, &endLng,
			&t.UserType); err != nil {
			return nil, fmt.Errorf("scanning trip row: %w", err)
		}

		t.StartTime, err = time.ParseInLocation(timeFormat, startStr, loc)
		if err != nil {
			return nil, fmt.Errorf("parsing start_time: %w", err)
		}
		t.EndTime, err = time.ParseInLocation(timeFormat, endStr, loc)
		if err != nil {
			return nil, fmt.Errorf("parsing end_time: %w", err)
		}

		t.StartStationName = stationName.String
		t.EndStationID = endStationID.String
		t.EndStationName = endStationName.String
		t.StartLat = startLat.Float64
		t.StartLng = startLng.Float64
		t.EndLat = endLat.Float64
		t.EndLng = endLng.Float64

		results = append(results, t)
	}

	return results, rows.Err()
}

// TripCount returns the number of cached trips
func (db *DB) TripCount() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM trips`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting trips: %w", err)
	}
	return n, nil
}

// TripDateRange returns the first and last trip dates in the cache.
// ok is false when the trip table is empty.
func (db *DB) TripDateRange() (first, last time.Time, ok bool, err error) {
	var minStr, maxStr sql.NullString
	err = db.conn.QueryRow(`SELECT MIN(date), MAX(date) FROM trips`).Scan(&minStr, &maxStr)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("querying trip date range: %w", err)
	}
	if !minStr.Valid || !maxStr.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	first, err = time.Parse(dateFormat, minStr.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parsing min date: %w", err)
	}
	last, err = time.Parse(dateFormat, maxStr.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parsing max date: %w", err)
	}
	return first, last, true, nil
}

// UpsertWeather writes daily weather records, replacing existing dates
func (db *DB) UpsertWeather(days []models.DailyWeather, station string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO weather (date, max_temp_c, min_temp_c, precipitation_mm, snowfall_cm, station, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, d := range days {
		_, err := stmt.Exec(
			d.Date.Format(dateFormat),
			nullableFloat(d.MaxTempC),
			nullableFloat(d.MinTempC),
			nullableFloat(d.PrecipitationMM),
			nullableFloat(d.SnowfallCM),
			station,
			fetchedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting weather for %s: %w", d.Date.Format(dateFormat), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ListWeather retrieves cached weather records for the inclusive date range,
// ordered by date
func (db *DB) ListWeather(start, end time.Time) ([]models.DailyWeather, error) {
	query := `
	SELECT date, max_temp_c, min_temp_c, precipitation_mm, snowfall_cm
	FROM weather
	WHERE date >= ? AND date <= ?
	ORDER BY date
	`

	rows, err := db.conn.Query(query, start.Format(dateFormat), end.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("querying weather: %w", err)
	}
	defer rows.Close()

	var results []models.DailyWeather
	for rows.Next() {
		var d models.DailyWeather
		var dateStr string
		var maxT, minT, precip, snow sql.NullFloat64

		if err := rows.Scan(&dateStr, &maxT, &minT, &precip, &snow); err != nil {
			return nil, fmt.Errorf("scanning weather row: %w", err)
		}

		d.Date, err = time.Parse(dateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing weather date: %w", err)
		}
		d.MaxTempC = floatPtr(maxT)
		d.MinTempC = floatPtr(minT)
		d.PrecipitationMM = floatPtr(precip)
		d.SnowfallCM = floatPtr(snow)

		results = append(results, d)
	}

	return results, rows.Err()
}

// WeatherCovers reports whether the cache holds a record for every calendar
// day of the inclusive range
func (db *DB) WeatherCovers(start, end time.Time) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM weather WHERE date >= ? AND date <= ?`
	if err := db.conn.QueryRow(query, start.Format(dateFormat), end.Format(dateFormat)).Scan(&n); err != nil {
		return false, fmt.Errorf("counting weather rows: %w", err)
	}
	// Count calendar days by iteration; hour arithmetic miscounts across
	// DST transitions.
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days++
	}
	return n >= days, nil
}

// WeatherCount returns the number of cached weather days
func (db *DB) WeatherCount() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM weather`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting weather rows: %w", err)
	}
	return n, nil
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
