package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorrow/bikeweather/pkg/models"
)

var testLoc = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}()

func trip(start string, durationSec int, stationID, stationName, userType string) models.Trip {
	st, err := time.ParseInLocation("2006-01-02 15:04:05", start, testLoc)
	if err != nil {
		panic(err)
	}
	return models.Trip{
		StartTime:        st,
		EndTime:          st.Add(time.Duration(durationSec) * time.Second),
		StartStationID:   stationID,
		StartStationName: stationName,
		UserType:         userType,
	}
}

func day(date string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", date, testLoc)
	if err != nil {
		panic(err)
	}
	return d
}

func f(v float64) *float64 { return &v }

func TestBuildDailyCountsAndDurations(t *testing.T) {
	trips := []models.Trip{
		trip("2022-06-01 08:00:00", 300, "100", "A", models.UserTypeMember),
		trip("2022-06-01 09:00:00", 600, "100", "A", models.UserTypeCasual),
		trip("2022-06-01 22:00:00", 900, "101", "B", models.UserTypeMember),
		trip("2022-06-02 10:00:00", 120, "100", "A", models.UserTypeMember),
	}

	daily := BuildDaily(trips, testLoc)
	require.Len(t, daily, 2)

	assert.Equal(t, day("2022-06-01"), daily[0].Date)
	assert.Equal(t, 3, daily[0].TripCount)
	assert.Equal(t, 2, daily[0].MemberCount)
	assert.Equal(t, 1, daily[0].CasualCount)
	assert.InDelta(t, 600.0, daily[0].AvgDurationSec, 1e-9)

	assert.Equal(t, day("2022-06-02"), daily[1].Date)
	assert.Equal(t, 1, daily[1].TripCount)
}

func TestBuildDailyUserTypeInvariant(t *testing.T) {
	trips := []models.Trip{
		trip("2022-06-01 08:00:00", 300, "100", "A", models.UserTypeMember),
		trip("2022-06-01 09:00:00", 600, "100", "A", models.UserTypeCasual),
		trip("2022-06-02 09:00:00", 600, "100", "A", models.UserTypeCasual),
		trip("2022-06-03 09:00:00", 600, "100", "A", models.UserTypeMember),
	}

	for _, d := range BuildDaily(trips, testLoc) {
		assert.Equal(t, d.TripCount, d.MemberCount+d.CasualCount,
			"trip_count must equal member_count + casual_count on %s", d.Date)
	}
}

func TestBuildDailyGroupsByConfiguredTimezone(t *testing.T) {
	// 23:30 New York on June 1 is already June 2 in UTC; grouping must
	// follow the injected location, not UTC.
	trips := []models.Trip{
		trip("2022-06-01 23:30:00", 300, "100", "A", models.UserTypeMember),
	}

	daily := BuildDaily(trips, testLoc)
	require.Len(t, daily, 1)
	assert.Equal(t, day("2022-06-01"), daily[0].Date)
}

func TestMergeDailyLeftJoin(t *testing.T) {
	daily := []models.DailyAggregate{
		{Date: day("2022-06-01"), TripCount: 3, MemberCount: 2, CasualCount: 1},
		{Date: day("2022-06-02"), TripCount: 1, MemberCount: 1},
	}
	weather := []models.DailyWeather{
		{Date: day("2022-06-01"), MaxTempC: f(27.5), MinTempC: f(18.1)},
		// 2022-06-02 missing entirely
	}

	merged := MergeDaily(daily, weather)
	require.Len(t, merged, 2)

	require.NotNil(t, merged[0].Weather)
	assert.InDelta(t, 27.5, *merged[0].Weather.MaxTempC, 1e-9)

	// Unmatched date stays in the output with nil weather
	assert.Equal(t, day("2022-06-02"), merged[1].Date)
	assert.Nil(t, merged[1].Weather)
}

func TestMergeDailyOneRowPerDate(t *testing.T) {
	daily := []models.DailyAggregate{
		{Date: day("2022-06-01"), TripCount: 1},
		{Date: day("2022-06-02"), TripCount: 2},
		{Date: day("2022-06-03"), TripCount: 3},
	}
	weather := []models.DailyWeather{
		{Date: day("2022-06-01")},
		{Date: day("2022-06-02")},
		{Date: day("2022-06-03")},
	}

	merged := MergeDaily(daily, weather)
	require.Len(t, merged, len(daily))

	seen := make(map[string]bool)
	for _, row := range merged {
		key := row.Date.Format("2006-01-02")
		assert.False(t, seen[key], "date %s appears more than once", key)
		seen[key] = true
	}
}

func TestAggregationDeterminism(t *testing.T) {
	trips := []models.Trip{
		trip("2022-01-15 08:00:00", 300, "103", "C", models.UserTypeMember),
		trip("2022-04-15 09:00:00", 600, "101", "A", models.UserTypeCasual),
		trip("2022-07-15 10:00:00", 900, "102", "B", models.UserTypeMember),
		trip("2022-10-15 11:00:00", 1200, "101", "A", models.UserTypeCasual),
	}
	weather := []models.DailyWeather{
		{Date: day("2022-01-15"), MaxTempC: f(3)},
		{Date: day("2022-07-15"), MaxTempC: f(31)},
	}

	first := MergeDaily(BuildDaily(trips, testLoc), weather)
	second := MergeDaily(BuildDaily(trips, testLoc), weather)
	assert.Equal(t, first, second)

	assert.Equal(t, StationPopularity(trips, 0), StationPopularity(trips, 0))
	assert.Equal(t, Seasonal(first), Seasonal(second))
	assert.Equal(t, ByHour(trips, testLoc), ByHour(trips, testLoc))
	assert.Equal(t, ByWeekday(trips, testLoc), ByWeekday(trips, testLoc))
	assert.Equal(t, ByUserType(trips), ByUserType(trips))
}

func TestStationPopularitySortAndTieBreak(t *testing.T) {
	trips := []models.Trip{
		trip("2022-06-01 08:00:00", 300, "200", "Busy", models.UserTypeMember),
		trip("2022-06-01 09:00:00", 300, "200", "Busy", models.UserTypeMember),
		trip("2022-06-01 10:00:00", 300, "200", "Busy", models.UserTypeMember),
		// 101 and 102 tie on two trips each
		trip("2022-06-01 08:00:00", 300, "102", "TieB", models.UserTypeMember),
		trip("2022-06-01 09:00:00", 300, "102", "TieB", models.UserTypeMember),
		trip("2022-06-01 08:00:00", 300, "101", "TieA", models.UserTypeMember),
		trip("2022-06-01 09:00:00", 300, "101", "TieA", models.UserTypeMember),
	}

	stations := StationPopularity(trips, 0)
	require.Len(t, stations, 3)

	assert.Equal(t, "200", stations[0].StationID)
	assert.Equal(t, 3, stations[0].TripCount)
	// Tie broken by ascending station ID
	assert.Equal(t, "101", stations[1].StationID)
	assert.Equal(t, "102", stations[2].StationID)
}

func TestStationPopularityTopN(t *testing.T) {
	trips := []models.Trip{
		trip("2022-06-01 08:00:00", 300, "100", "A", models.UserTypeMember),
		trip("2022-06-01 08:00:00", 300, "101", "B", models.UserTypeMember),
		trip("2022-06-01 08:00:00", 300, "102", "C", models.UserTypeMember),
	}

	assert.Len(t, StationPopularity(trips, 2), 2)
	assert.Len(t, StationPopularity(trips, 0), 3)
	assert.Len(t, StationPopularity(trips, 10), 3)
}

func TestSeasonOf(t *testing.T) {
	assert.Equal(t, "winter", SeasonOf(time.December))
	assert.Equal(t, "winter", SeasonOf(time.February))
	assert.Equal(t, "spring", SeasonOf(time.March))
	assert.Equal(t, "summer", SeasonOf(time.June))
	assert.Equal(t, "fall", SeasonOf(time.November))
}

func TestSeasonalBuckets(t *testing.T) {
	merged := []models.MergedDaily{
		{DailyAggregate: models.DailyAggregate{Date: day("2022-01-10"), TripCount: 5},
			Weather: &models.DailyWeather{Date: day("2022-01-10"), MaxTempC: f(2)}},
		{DailyAggregate: models.DailyAggregate{Date: day("2022-02-10"), TripCount: 7},
			Weather: &models.DailyWeather{Date: day("2022-02-10"), MaxTempC: f(4)}},
		{DailyAggregate: models.DailyAggregate{Date: day("2022-07-10"), TripCount: 50},
			Weather: &models.DailyWeather{Date: day("2022-07-10"), MaxTempC: f(32)}},
		// A summer day with no weather still counts trips
		{DailyAggregate: models.DailyAggregate{Date: day("2022-08-10"), TripCount: 40}},
	}

	seasons := Seasonal(merged)
	require.Len(t, seasons, 4)

	assert.Equal(t, []string{"winter", "spring", "summer", "fall"},
		[]string{seasons[0].Season, seasons[1].Season, seasons[2].Season, seasons[3].Season})

	winter := seasons[0]
	assert.Equal(t, 12, winter.TripCount)
	require.NotNil(t, winter.AvgMaxTempC)
	assert.InDelta(t, 3.0, *winter.AvgMaxTempC, 1e-9)

	summer := seasons[2]
	assert.Equal(t, 90, summer.TripCount)
	require.NotNil(t, summer.AvgMaxTempC)
	assert.InDelta(t, 32.0, *summer.AvgMaxTempC, 1e-9)

	spring := seasons[1]
	assert.Equal(t, 0, spring.TripCount)
	assert.Nil(t, spring.AvgMaxTempC)
}

func TestByHourAlwaysFullDay(t *testing.T) {
	trips := []models.Trip{
		trip("2022-06-01 08:15:00", 300, "100", "A", models.UserTypeMember),
		trip("2022-06-01 08:45:00", 300, "100", "A", models.UserTypeMember),
		trip("2022-06-01 17:00:00", 300, "100", "A", models.UserTypeMember),
	}

	hours := ByHour(trips, testLoc)
	require.Len(t, hours, 24)
	assert.Equal(t, 2, hours[8].TripCount)
	assert.Equal(t, 1, hours[17].TripCount)
	assert.Equal(t, 0, hours[3].TripCount)
}

func TestByWeekday(t *testing.T) {
	// 2022-06-06 is a Monday
	trips := []models.Trip{
		trip("2022-06-06 08:00:00", 300, "100", "A", models.UserTypeMember),
		trip("2022-06-06 09:00:00", 900, "100", "A", models.UserTypeMember),
		trip("2022-06-11 10:00:00", 600, "100", "A", models.UserTypeCasual), // Saturday
	}

	weekdays := ByWeekday(trips, testLoc)
	require.Len(t, weekdays, 7)

	assert.Equal(t, time.Monday, weekdays[time.Monday].Weekday)
	assert.Equal(t, 2, weekdays[time.Monday].TripCount)
	assert.InDelta(t, 600.0, weekdays[time.Monday].AvgDurationSec, 1e-9)
	assert.Equal(t, 1, weekdays[time.Saturday].TripCount)
	assert.Equal(t, 0, weekdays[time.Tuesday].TripCount)
}

func TestByUserType(t *testing.T) {
	trips := []models.Trip{
		trip("2022-06-01 08:00:00", 300, "100", "A", models.UserTypeMember),
		trip("2022-06-01 09:00:00", 900, "100", "A", models.UserTypeMember),
		trip("2022-06-01 10:00:00", 1200, "100", "A", models.UserTypeCasual),
	}

	stats := ByUserType(trips)
	require.Len(t, stats, 2)

	assert.Equal(t, models.UserTypeMember, stats[0].UserType)
	assert.Equal(t, 2, stats[0].TripCount)
	assert.InDelta(t, 600.0, stats[0].AvgDurationSec, 1e-9)

	assert.Equal(t, models.UserTypeCasual, stats[1].UserType)
	assert.Equal(t, 1, stats[1].TripCount)
	assert.InDelta(t, 1200.0, stats[1].AvgDurationSec, 1e-9)
}
