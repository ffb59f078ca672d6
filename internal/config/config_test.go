package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	station := cfg.GetStation()
	assert.Equal(t, "NYC Central Park", station.Name)
	assert.InDelta(t, 40.78, station.Lat, 1e-9)

	assert.Equal(t, int64(42), cfg.GetSampleSeed())
	assert.Equal(t, 50000, cfg.GetSampleSize())
	assert.InDelta(t, 0.05, cfg.GetRejectionThreshold(), 1e-9)
	assert.Equal(t, 24*time.Hour, cfg.GetMaxTripDuration())
	assert.Equal(t, "out", cfg.GetOutDir())
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `timezone: UTC
station:
  name: Test Station
  lat: 51.5
  lon: -0.1
sample_seed: 7
sample_size: 100
rejection_threshold: 0.2
max_trip_hours: 12
start_date: "2022-06-01"
end_date: "2022-06-30"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
	assert.Equal(t, "Test Station", cfg.GetStation().Name)
	assert.Equal(t, int64(7), cfg.GetSampleSeed())
	assert.Equal(t, 100, cfg.GetSampleSize())
	assert.InDelta(t, 0.2, cfg.GetRejectionThreshold(), 1e-9)
	assert.Equal(t, 12*time.Hour, cfg.GetMaxTripDuration())

	start, end, ok, err := cfg.DateRange()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2022-06-01", start.Format("2006-01-02"))
	assert.Equal(t, "2022-06-30", end.Format("2006-01-02"))
}

func TestDateRangeValidation(t *testing.T) {
	_, _, ok, err := (&Config{}).DateRange()
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, _, err = (&Config{StartDate: "2022-06-30", EndDate: "2022-06-01"}).DateRange()
	assert.Error(t, err)

	_, _, _, err = (&Config{StartDate: "junk", EndDate: "2022-06-01"}).DateRange()
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{Timezone: "UTC", SampleSeed: 99}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
