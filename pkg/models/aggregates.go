package models

import "time"

// DailyAggregate is the per-calendar-date rollup of the trip table.
// TripCount is always MemberCount + CasualCount.
type DailyAggregate struct {
	Date           time.Time `json:"date"`
	TripCount      int       `json:"trip_count"`
	MemberCount    int       `json:"member_count"`
	CasualCount    int       `json:"casual_count"`
	AvgDurationSec float64   `json:"avg_duration_sec"`
}

// MergedDaily is a daily aggregate left-joined with the weather record for
// the same date. Weather is nil when no record exists for that date.
type MergedDaily struct {
	DailyAggregate
	Weather *DailyWeather `json:"weather"`
}

// StationCount is one row of the station popularity view.
type StationCount struct {
	StationID   string  `json:"station_id"`
	StationName string  `json:"station_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	TripCount   int     `json:"trip_count"`
}

// HourCount is one row of the hour-of-day view (Hour in 0..23).
type HourCount struct {
	Hour      int `json:"hour"`
	TripCount int `json:"trip_count"`
}

// WeekdayCount is one row of the day-of-week view.
type WeekdayCount struct {
	Weekday        time.Weekday `json:"weekday"`
	TripCount      int          `json:"trip_count"`
	AvgDurationSec float64      `json:"avg_duration_sec"`
}

// SeasonStats is one row of the seasonal view. AvgMaxTempC is nil when no
// day in the bucket had a weather observation.
type SeasonStats struct {
	Season      string   `json:"season"` // winter, spring, summer, fall
	TripCount   int      `json:"trip_count"`
	AvgMaxTempC *float64 `json:"avg_max_temp_c"`
}

// UserTypeStats is one row of the member/casual segmentation view.
type UserTypeStats struct {
	UserType       string  `json:"user_type"`
	TripCount      int     `json:"trip_count"`
	AvgDurationSec float64 `json:"avg_duration_sec"`
}
