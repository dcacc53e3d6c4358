// Package streak computes daily and ISO-week activity streaks from log timestamps.
//
// Every function takes the reference instant explicitly. Periods are bucketed in the
// location of that instant, so callers choose the time zone by choosing now.In(loc).
package streak

import (
	"sort"
	"strings"
	"time"
)

type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// Week is an ISO 8601 week: Monday start, week 1 holds the year's first Thursday.
type Week struct {
	Year int
	Week int
}

func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

func WeekOf(t time.Time, loc *time.Location) Week {
	y, w := t.In(loc).ISOWeek()
	return Week{Year: y, Week: w}
}

// Daily counts consecutive days with activity ending at now's day. Zero when today has none.
func Daily(times []time.Time, now time.Time) int {
	loc := now.Location()
	return scanBack(times, now, func(t time.Time) Day { return DayOf(t, loc) }, 1)
}

// Weekly counts consecutive ISO weeks with activity ending at now's week. Zero when this week has none.
func Weekly(times []time.Time, now time.Time) int {
	loc := now.Location()
	return scanBack(times, now, func(t time.Time) Week { return WeekOf(t, loc) }, 7)
}

func DailyFromStrings(timestamps []string, now time.Time) int {
	return Daily(ParseTimestampsIn(timestamps, now.Location()), now)
}

func WeeklyFromStrings(timestamps []string, now time.Time) int {
	return Weekly(ParseTimestampsIn(timestamps, now.Location()), now)
}

func scanBack[K comparable](times []time.Time, now time.Time, key func(time.Time) K, stepDays int) int {
	if len(times) == 0 {
		return 0
	}

	seen := make(map[K]struct{}, len(times))
	for _, t := range times {
		seen[key(t)] = struct{}{}
	}

	// Noon keeps AddDate away from DST edges when stepping across days.
	y, m, d := now.Date()
	cursor := time.Date(y, m, d, 12, 0, 0, 0, now.Location())

	count := 0
	for {
		if _, ok := seen[key(cursor)]; !ok {
			return count
		}
		count++
		cursor = cursor.AddDate(0, 0, -stepDays)
	}
}

// LongestDaily is the longest run of consecutive active days anywhere in times.
func LongestDaily(times []time.Time, loc *time.Location) int {
	ordinals := make([]int64, 0, len(times))
	for _, t := range times {
		ordinals = append(ordinals, dayOrdinal(t, loc))
	}
	return longestRun(ordinals)
}

// LongestWeekly is the longest run of consecutive active ISO weeks anywhere in times.
func LongestWeekly(times []time.Time, loc *time.Location) int {
	ordinals := make([]int64, 0, len(times))
	for _, t := range times {
		ordinals = append(ordinals, weekOrdinal(t, loc))
	}
	return longestRun(ordinals)
}

// dayOrdinal numbers civil days in loc, 1970-01-01 being 0.
func dayOrdinal(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// weekOrdinal numbers Monday-start weeks. Day 0 was a Thursday, so shifting by 3
// puts every Monday on a multiple of 7.
func weekOrdinal(t time.Time, loc *time.Location) int64 {
	n := dayOrdinal(t, loc) + 3
	if n < 0 {
		return (n - 6) / 7
	}
	return n / 7
}

func longestRun(ordinals []int64) int {
	if len(ordinals) == 0 {
		return 0
	}
	sort.Slice(ordinals, func(i, j int) bool { return ordinals[i] < ordinals[j] })

	best, run := 1, 1
	for i := 1; i < len(ordinals); i++ {
		switch ordinals[i] - ordinals[i-1] {
		case 0:
		case 1:
			run++
			if run > best {
				best = run
			}
		default:
			run = 1
		}
	}
	return best
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamps parses ISO 8601 strings and skips anything it cannot read.
// Strings without a zone are read as UTC.
func ParseTimestamps(timestamps []string) []time.Time {
	return ParseTimestampsIn(timestamps, time.UTC)
}

// ParseTimestampsIn is ParseTimestamps with zoneless strings read in loc, so a bare
// date stays on its calendar day.
func ParseTimestampsIn(timestamps []string, loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(timestamps))
	for _, s := range timestamps {
		if t, ok := parseTimestamp(s, loc); ok {
			out = append(out, t)
		}
	}
	return out
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type Summary struct {
	CurrentDaily  int `json:"current_daily"`
	CurrentWeekly int `json:"current_weekly"`
	LongestDaily  int `json:"longest_daily"`
	LongestWeekly int `json:"longest_weekly"`
}

func Summarize(times []time.Time, now time.Time) Summary {
	return Summary{
		CurrentDaily:  Daily(times, now),
		CurrentWeekly: Weekly(times, now),
		LongestDaily:  LongestDaily(times, now.Location()),
		LongestWeekly: LongestWeekly(times, now.Location()),
	}
}
