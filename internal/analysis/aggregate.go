package analysis

import (
	"sort"
	"time"

	"github.com/kmorrow/bikeweather/pkg/models"
)

// All functions in this package are pure: same inputs, same outputs, no
// side effects. They assume the loader already validated the trip table and
// do not re-validate.

const dateFormat = "2006-01-02"

// DateOf truncates a timestamp to its calendar date (midnight) in loc.
// The location must be the same one trips were loaded with.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// BuildDaily rolls the trip table up by calendar date of the start time.
// Output is sorted by date ascending; TripCount is always
// MemberCount + CasualCount.
func BuildDaily(trips []models.Trip, loc *time.Location) []models.DailyAggregate {
	type acc struct {
		agg     models.DailyAggregate
		sumSecs float64
	}

	byDate := make(map[string]*acc)
	for _, t := range trips {
		date := DateOf(t.StartTime, loc)
		key := date.Format(dateFormat)
		a, ok := byDate[key]
		if !ok {
			a = &acc{agg: models.DailyAggregate{Date: date}}
			byDate[key] = a
		}
		a.agg.TripCount++
		switch t.UserType {
		case models.UserTypeMember:
			a.agg.MemberCount++
		case models.UserTypeCasual:
			a.agg.CasualCount++
		}
		a.sumSecs += t.Duration().Seconds()
	}

	result := make([]models.DailyAggregate, 0, len(byDate))
	for _, a := range byDate {
		a.agg.AvgDurationSec = a.sumSecs / float64(a.agg.TripCount)
		result = append(result, a.agg)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result
}

// MergeDaily left-joins the daily aggregate with the weather table on the
// calendar date. Every aggregate date appears exactly once in the output;
// Weather is nil when no record matches.
func MergeDaily(daily []models.DailyAggregate, weather []models.DailyWeather) []models.MergedDaily {
	byDate := make(map[string]models.DailyWeather, len(weather))
	for _, w := range weather {
		byDate[w.Date.Format(dateFormat)] = w
	}

	merged := make([]models.MergedDaily, 0, len(daily))
	for _, d := range daily {
		row := models.MergedDaily{DailyAggregate: d}
		if w, ok := byDate[d.Date.Format(dateFormat)]; ok {
			w := w
			row.Weather = &w
		}
		merged = append(merged, row)
	}

	return merged
}

// ByHour counts trips per hour of day of the start time. Always returns 24
// rows, hours without trips included with a zero count.
func ByHour(trips []models.Trip, loc *time.Location) []models.HourCount {
	counts := make([]models.HourCount, 24)
	for h := range counts {
		counts[h].Hour = h
	}
	for _, t := range trips {
		counts[t.StartTime.In(loc).Hour()].TripCount++
	}
	return counts
}

// ByWeekday rolls trips up by day of week of the start time. Always returns
// 7 rows ordered Sunday through Saturday.
func ByWeekday(trips []models.Trip, loc *time.Location) []models.WeekdayCount {
	counts := make([]models.WeekdayCount, 7)
	sums := make([]float64, 7)
	for d := range counts {
		counts[d].Weekday = time.Weekday(d)
	}
	for _, t := range trips {
		d := t.StartTime.In(loc).Weekday()
		counts[d].TripCount++
		sums[d] += t.Duration().Seconds()
	}
	for d := range counts {
		if counts[d].TripCount > 0 {
			counts[d].AvgDurationSec = sums[d] / float64(counts[d].TripCount)
		}
	}
	return counts
}

// StationPopularity counts trips per start station, sorted by count
// descending with ties broken by station ID ascending. Station name and
// coordinates come from the first trip seen for the station. topN <= 0
// returns all stations.
func StationPopularity(trips []models.Trip, topN int) []models.StationCount {
	byStation := make(map[string]*models.StationCount)
	for _, t := range trips {
		s, ok := byStation[t.StartStationID]
		if !ok {
			s = &models.StationCount{
				StationID:   t.StartStationID,
				StationName: t.StartStationName,
				Lat:         t.StartLat,
				Lng:         t.StartLng,
			}
			byStation[t.StartStationID] = s
		}
		s.TripCount++
	}

	result := make([]models.StationCount, 0, len(byStation))
	for _, s := range byStation {
		result = append(result, *s)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TripCount != result[j].TripCount {
			return result[i].TripCount > result[j].TripCount
		}
		return result[i].StationID < result[j].StationID
	})

	if topN > 0 && len(result) > topN {
		result = result[:topN]
	}

	return result
}

// SeasonOf maps a month to its fixed calendar season bucket.
func SeasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}

var seasonOrder = []string{"winter", "spring", "summer", "fall"}

// Seasonal buckets the merged daily view into the four calendar seasons.
// Per bucket: total trips, and mean daily max temperature over the days
// that have a weather observation (nil when none do). Output order is
// fixed: winter, spring, summer, fall.
func Seasonal(merged []models.MergedDaily) []models.SeasonStats {
	type acc struct {
		trips    int
		tempSum  float64
		tempDays int
	}

	buckets := make(map[string]*acc, 4)
	for _, s := range seasonOrder {
		buckets[s] = &acc{}
	}

	for _, row := range merged {
		b := buckets[SeasonOf(row.Date.Month())]
		b.trips += row.TripCount
		if row.Weather != nil && row.Weather.MaxTempC != nil {
			b.tempSum += *row.Weather.MaxTempC
			b.tempDays++
		}
	}

	result := make([]models.SeasonStats, 0, 4)
	for _, s := range seasonOrder {
		b := buckets[s]
		stats := models.SeasonStats{Season: s, TripCount: b.trips}
		if b.tempDays > 0 {
			avg := b.tempSum / float64(b.tempDays)
			stats.AvgMaxTempC = &avg
		}
		result = append(result, stats)
	}

	return result
}

// ByUserType rolls trips up by member/casual. Output order is fixed:
// member, then casual.
func ByUserType(trips []models.Trip) []models.UserTypeStats {
	stats := []models.UserTypeStats{
		{UserType: models.UserTypeMember},
		{UserType: models.UserTypeCasual},
	}
	sums := make([]float64, 2)

	for _, t := range trips {
		idx := 0
		if t.UserType == models.UserTypeCasual {
			idx = 1
		}
		stats[idx].TripCount++
		sums[idx] += t.Duration().Seconds()
	}

	for i := range stats {
		if stats[i].TripCount > 0 {
			stats[i].AvgDurationSec = sums[i] / float64(stats[i].TripCount)
		}
	}

	return stats
}
