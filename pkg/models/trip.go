package models

import "time"

// User types as they appear in the current CitiBike export schema.
const (
	UserTypeMember = "member"
	UserTypeCasual = "casual"
)

// Trip represents a single completed bike rental
type Trip struct {
	ID               int       `json:"id"`
	RideID           string    `json:"ride_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	StartStationID   string    `json:"start_station_id"`
	StartStationName string    `json:"start_station_name"`
	StartLat         float64   `json:"start_lat"`
	StartLng         float64   `json:"start_lng"`
	EndStationID     string    `json:"end_station_id"`
	EndStationName   string    `json:"end_station_name"`
	EndLat           float64   `json:"end_lat"`
	EndLng           float64   `json:"end_lng"`
	UserType         string    `json:"user_type"` // "member" or "casual"
}

// Duration returns the trip length
func (t Trip) Duration() time.Duration {
	return t.EndTime.Sub(t.StartTime)
}
