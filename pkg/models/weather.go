package models

import "time"

// DailyWeather represents one day's observations from the weather station.
// Fields are pointers because the source can be missing any of them for a
// given day; a missing day is still represented, with all fields nil.
type DailyWeather struct {
	Date            time.Time `json:"date"` // calendar date, midnight in the pipeline timezone
	MaxTempC        *float64  `json:"max_temp_c"`
	MinTempC        *float64  `json:"min_temp_c"`
	PrecipitationMM *float64  `json:"precipitation_mm"`
	SnowfallCM      *float64  `json:"snowfall_cm"`
}

// HasObservations reports whether any field carries a value.
func (w DailyWeather) HasObservations() bool {
	return w.MaxTempC != nil || w.MinTempC != nil || w.PrecipitationMM != nil || w.SnowfallCM != nil
}
