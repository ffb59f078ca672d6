package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Timezone           string        `yaml:"timezone,omitempty"`            // Date-grouping timezone (fallback: America/New_York)
	Station            StationConfig `yaml:"station,omitempty"`             // Fixed weather station
	StartDate          string        `yaml:"start_date,omitempty"`          // Weather range start, YYYY-MM-DD
	EndDate            string        `yaml:"end_date,omitempty"`            // Weather range end, YYYY-MM-DD
	SampleSeed         int64         `yaml:"sample_seed,omitempty"`         // Sampler seed (fallback: 42)
	SampleSize         int           `yaml:"sample_size,omitempty"`         // Target sample rows (fallback: 50000)
	SampleFraction     float64       `yaml:"sample_fraction,omitempty"`     // Used instead of sample_size when > 0
	RejectionThreshold float64       `yaml:"rejection_threshold,omitempty"` // Max tolerated rejection rate (fallback: 0.05)
	MaxTripHours       float64       `yaml:"max_trip_hours,omitempty"`      // Trips longer than this are rejected (fallback: 24)
	OutDir             string        `yaml:"out_dir,omitempty"`             // Export directory (fallback: ./out)
	WeatherEndpoint    string        `yaml:"weather_endpoint,omitempty"`    // Override for the archive API base URL
}

// StationConfig identifies the single weather station used for the whole dataset
type StationConfig struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Location resolves the date-grouping timezone with a default of America/New_York
func (c *Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", tz, err)
	}
	return loc, nil
}

// GetStation returns the weather station with a default of Central Park
func (c *Config) GetStation() StationConfig {
	if c.Station.Name == "" && c.Station.Lat == 0 && c.Station.Lon == 0 {
		return StationConfig{Name: "NYC Central Park", Lat: 40.78, Lon: -73.97}
	}
	return c.Station
}

// GetSampleSeed returns the sampler seed with a default of 42
func (c *Config) GetSampleSeed() int64 {
	if c.SampleSeed == 0 {
		return 42
	}
	return c.SampleSeed
}

// GetSampleSize returns the sample target size with a default of 50000
func (c *Config) GetSampleSize() int {
	if c.SampleSize <= 0 {
		return 50000
	}
	return c.SampleSize
}

// GetRejectionThreshold returns the tolerated rejection rate with a default of 5%
func (c *Config) GetRejectionThreshold() float64 {
	if c.RejectionThreshold <= 0 {
		return 0.05
	}
	return c.RejectionThreshold
}

// GetMaxTripDuration returns the longest trip considered valid, default 24h
func (c *Config) GetMaxTripDuration() time.Duration {
	if c.MaxTripHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.MaxTripHours * float64(time.Hour))
}

// GetOutDir returns the export directory with a default of ./out
func (c *Config) GetOutDir() string {
	if c.OutDir == "" {
		return "out"
	}
	return c.OutDir
}

// DateRange parses the configured weather date range. Both bounds are
// required together; an empty range means "derive from the trip table".
func (c *Config) DateRange() (start, end time.Time, ok bool, err error) {
	if c.StartDate == "" && c.EndDate == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	start, err = time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parsing start_date: %w", err)
	}
	end, err = time.Parse("2006-01-02", c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parsing end_date: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("end_date %s is before start_date %s", c.EndDate, c.StartDate)
	}
	return start, end, true, nil
}
