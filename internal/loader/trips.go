package loader

import (
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kmorrow/bikeweather/internal/pipeline"
	"github.com/kmorrow/bikeweather/pkg/models"
)

// Options configures a load run. Location is required; it is the timezone
// trip timestamps are interpreted in, and must match the aggregation
// timezone or daily grouping silently shifts.
type Options struct {
	Location           *time.Location
	MaxDuration        time.Duration // trips longer than this are rejected (0 means 24h)
	RejectionThreshold float64       // rejection rate above this fails the load (0 means 5%)
	Logger             *slog.Logger
}

// RejectionSummary tallies why rows were dropped during a load
type RejectionSummary struct {
	TotalRows        int `json:"total_rows"`
	Loaded           int `json:"loaded"`
	BadTimestamp     int `json:"bad_timestamp"`
	NegativeDuration int `json:"negative_duration"`
	OverMaxDuration  int `json:"over_max_duration"`
	UnknownUserType  int `json:"unknown_user_type"`
	MissingStation   int `json:"missing_station"`
}

// Rejected returns the total number of dropped rows
func (s RejectionSummary) Rejected() int {
	return s.BadTimestamp + s.NegativeDuration + s.OverMaxDuration + s.UnknownUserType + s.MissingStation
}

// Rate returns the fraction of rows dropped
func (s RejectionSummary) Rate() float64 {
	if s.TotalRows == 0 {
		return 0
	}
	return float64(s.Rejected()) / float64(s.TotalRows)
}

// Logical columns and the header names (current and legacy CitiBike
// exports) they are accepted under. Matching is case-insensitive.
var columnAliases = map[string][]string{
	"ride_id":            {"ride_id"},
	"bike_id":            {"bikeid", "bike id"},
	"started_at":         {"started_at", "starttime", "start time"},
	"ended_at":           {"ended_at", "stoptime", "stop time", "end time"},
	"start_station_id":   {"start_station_id", "start station id"},
	"start_station_name": {"start_station_name", "start station name"},
	"start_lat":          {"start_lat", "start station latitude"},
	"start_lng":          {"start_lng", "start station longitude"},
	"end_station_id":     {"end_station_id", "end station id"},
	"end_station_name":   {"end_station_name", "end station name"},
	"end_lat":            {"end_lat", "end station latitude"},
	"end_lng":            {"end_lng", "end station longitude"},
	"user_type":          {"member_casual", "usertype", "user type"},
}

var requiredColumns = []string{"started_at", "ended_at", "start_station_id", "user_type"}

// LoadFile reads a trip CSV from disk
func LoadFile(path string, opts Options) ([]models.Trip, RejectionSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, RejectionSummary{}, fmt.Errorf("opening trip file: %w", err)
	}
	defer f.Close()

	return LoadCSV(f, opts)
}

// LoadCSV parses trip records from a CitiBike-format CSV. Malformed rows
// are dropped and tallied, never silently discarded; the load fails with a
// DataQualityError when the rejection rate exceeds the threshold.
func LoadCSV(r io.Reader, opts Options) ([]models.Trip, RejectionSummary, error) {
	if opts.Location == nil {
		return nil, RejectionSummary{}, fmt.Errorf("loader requires an explicit timezone")
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 24 * time.Hour
	}
	if opts.RejectionThreshold <= 0 {
		opts.RejectionThreshold = 0.05
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, RejectionSummary{}, fmt.Errorf("reading CSV header: %w", err)
	}

	cols, missing := resolveColumns(header)
	if len(missing) > 0 {
		return nil, RejectionSummary{}, &pipeline.SchemaError{Missing: missing, Header: header}
	}

	var trips []models.Trip
	var summary RejectionSummary

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, summary, fmt.Errorf("reading CSV row: %w", err)
		}
		summary.TotalRows++

		start, err1 := parseTimestamp(field(record, cols["started_at"]), opts.Location)
		end, err2 := parseTimestamp(field(record, cols["ended_at"]), opts.Location)
		if err1 != nil || err2 != nil {
			summary.BadTimestamp++
			continue
		}

		dur := end.Sub(start)
		if dur < 0 {
			summary.NegativeDuration++
			continue
		}
		if dur > opts.MaxDuration {
			summary.OverMaxDuration++
			continue
		}

		userType, ok := normalizeUserType(field(record, cols["user_type"]))
		if !ok {
			summary.UnknownUserType++
			continue
		}

		stationID := strings.TrimSpace(field(record, cols["start_station_id"]))
		if stationID == "" {
			summary.MissingStation++
			continue
		}

		trip := models.Trip{
			RideID:           strings.TrimSpace(field(record, cols["ride_id"])),
			StartTime:        start,
			EndTime:          end,
			StartStationID:   stationID,
			StartStationName: strings.TrimSpace(field(record, cols["start_station_name"])),
			StartLat:         parseFloat(field(record, cols["start_lat"])),
			StartLng:         parseFloat(field(record, cols["start_lng"])),
			EndStationID:     strings.TrimSpace(field(record, cols["end_station_id"])),
			EndStationName:   strings.TrimSpace(field(record, cols["end_station_name"])),
			EndLat:           parseFloat(field(record, cols["end_lat"])),
			EndLng:           parseFloat(field(record, cols["end_lng"])),
			UserType:         userType,
		}
		if trip.RideID == "" {
			trip.RideID = syntheticRideID(trip, strings.TrimSpace(field(record, cols["bike_id"])))
		}

		trips = append(trips, trip)
	}

	summary.Loaded = len(trips)

	if summary.Rejected() > 0 {
		log.Warn("rejected rows during load",
			"total", summary.TotalRows,
			"loaded", summary.Loaded,
			"bad_timestamp", summary.BadTimestamp,
			"negative_duration", summary.NegativeDuration,
			"over_max_duration", summary.OverMaxDuration,
			"unknown_user_type", summary.UnknownUserType,
			"missing_station", summary.MissingStation,
		)
	}

	if summary.Rate() > opts.RejectionThreshold {
		return nil, summary, &pipeline.DataQualityError{
			Rejected:  summary.Rejected(),
			Total:     summary.TotalRows,
			Threshold: opts.RejectionThreshold,
		}
	}

	return trips, summary, nil
}

// resolveColumns maps logical column names to header indices and reports
// which required columns are absent
func resolveColumns(header []string) (map[string]int, []string) {
	cols := make(map[string]int, len(columnAliases))
	for name := range columnAliases {
		cols[name] = -1
	}

	for i, col := range header {
		colLower := strings.ToLower(strings.TrimSpace(col))
		for name, aliases := range columnAliases {
			if cols[name] != -1 {
				continue
			}
			for _, alias := range aliases {
				if colLower == alias {
					cols[name] = i
					break
				}
			}
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if cols[name] == -1 {
			missing = append(missing, name)
		}
	}

	return cols, missing
}

var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
	time.RFC3339,
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, format := range timestampFormats {
		if t, err := time.ParseInLocation(format, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp: %s", s)
}

func normalizeUserType(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member", "subscriber":
		return models.UserTypeMember, true
	case "casual", "customer":
		return models.UserTypeCasual, true
	default:
		return "", false
	}
}

// syntheticRideID derives a stable ride key for exports that carry no
// ride_id column. The key is content-derived: reloading the same file
// dedupes, while distinct trips never collide on a shared bike ID or on
// their row position within a file.
func syntheticRideID(t models.Trip, bikeID string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%s|%s|%s",
		t.StartTime.Unix(), t.EndTime.Unix(), bikeID, t.StartStationID, t.EndStationID)
	return fmt.Sprintf("legacy-%016x", h.Sum64())
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
