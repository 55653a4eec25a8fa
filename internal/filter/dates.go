package filter

import (
	"strings"
	"time"
)

// dateRange is a half-open interval [Start, End).
type dateRange struct {
	Start time.Time
	End   time.Time
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func dayRange(t time.Time, loc *time.Location) dateRange {
	start := startOfDay(t, loc)
	return dateRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// weekRange returns Monday through Sunday of the week containing t.
func weekRange(t time.Time, loc *time.Location) dateRange {
	day := startOfDay(t, loc)
	weekday := day.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	monday := day.AddDate(0, 0, -int(weekday-time.Monday))
	return dateRange{Start: monday, End: monday.AddDate(0, 0, 7)}
}

func monthRange(t time.Time, loc *time.Location) dateRange {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return dateRange{Start: start, End: start.AddDate(0, 1, 0)}
}

// resolveDate turns a clause value into a range. Relative tokens are resolved
// against now on every call.
func resolveDate(value string, now time.Time, loc *time.Location) (dateRange, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "today":
		return dayRange(now, loc), true
	case "tomorrow":
		return dayRange(now.AddDate(0, 0, 1), loc), true
	case "yesterday":
		return dayRange(now.AddDate(0, 0, -1), loc), true
	case "this_week":
		return weekRange(now, loc), true
	case "last_week":
		return weekRange(now.AddDate(0, 0, -7), loc), true
	case "next_week":
		return weekRange(now.AddDate(0, 0, 7), loc), true
	case "this_month":
		return monthRange(now, loc), true
	case "last_month":
		m := monthRange(now, loc)
		return monthRange(m.Start.AddDate(0, -1, 0), loc), true
	case "next_month":
		m := monthRange(now, loc)
		return monthRange(m.End, loc), true
	}

	if t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), loc); err == nil {
		return dayRange(t, loc), true
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(value)); err == nil {
		return dayRange(t, loc), true
	}
	return dateRange{}, false
}
