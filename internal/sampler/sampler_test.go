package sampler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorrow/bikeweather/internal/pipeline"
	"github.com/kmorrow/bikeweather/pkg/models"
)

func makeTrips(n int) []models.Trip {
	base := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	trips := make([]models.Trip, n)
	for i := range trips {
		trips[i] = models.Trip{
			RideID:         fmt.Sprintf("ride-%04d", i),
			StartTime:      base.Add(time.Duration(i) * time.Minute),
			EndTime:        base.Add(time.Duration(i+10) * time.Minute),
			StartStationID: "100",
			UserType:       models.UserTypeMember,
		}
	}
	return trips
}

func TestSampleDeterministicAcrossInvocations(t *testing.T) {
	trips := makeTrips(1000)
	opts := Options{Seed: 42, Size: 100}

	first, err := Sample(trips, opts)
	require.NoError(t, err)
	second, err := Sample(trips, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same seed, table, and size must select identical rows")
	assert.Len(t, first, 100)
}

func TestSampleDifferentSeedsDiffer(t *testing.T) {
	trips := makeTrips(1000)

	a, err := Sample(trips, Options{Seed: 1, Size: 100})
	require.NoError(t, err)
	b, err := Sample(trips, Options{Seed: 2, Size: 100})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSamplePreservesSourceOrder(t *testing.T) {
	trips := makeTrips(500)

	subset, err := Sample(trips, Options{Seed: 7, Size: 50})
	require.NoError(t, err)

	for i := 1; i < len(subset); i++ {
		assert.True(t, subset[i-1].StartTime.Before(subset[i].StartTime),
			"sampled rows must keep the source order")
	}
}

func TestSampleNoDuplicates(t *testing.T) {
	trips := makeTrips(200)

	subset, err := Sample(trips, Options{Seed: 3, Size: 150})
	require.NoError(t, err)

	seen := make(map[string]bool, len(subset))
	for _, tr := range subset {
		assert.False(t, seen[tr.RideID], "ride %s selected twice", tr.RideID)
		seen[tr.RideID] = true
	}
}

func TestSampleUndersizedTableDegrades(t *testing.T) {
	trips := makeTrips(10)

	subset, err := Sample(trips, Options{Seed: 42, Size: 15})
	require.NoError(t, err, "undersized table must degrade to the full table, not fail")
	assert.Equal(t, trips, subset)
}

func TestSampleEmptyTableFails(t *testing.T) {
	_, err := Sample(nil, Options{Seed: 42, Size: 10})

	var insufficientErr *pipeline.InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 10, insufficientErr.Requested)
	assert.Equal(t, 0, insufficientErr.Available)
}

func TestSampleRequiresSizeOrFraction(t *testing.T) {
	trips := makeTrips(10)

	_, err := Sample(trips, Options{Seed: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size or fraction")
}

func TestSampleFraction(t *testing.T) {
	trips := makeTrips(1000)

	subset, err := Sample(trips, Options{Seed: 42, Fraction: 0.1})
	require.NoError(t, err)
	assert.Len(t, subset, 100)

	// Fraction takes precedence over Size
	subset, err = Sample(trips, Options{Seed: 42, Size: 500, Fraction: 0.25})
	require.NoError(t, err)
	assert.Len(t, subset, 250)
}
