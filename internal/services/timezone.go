package services

import (
	"fmt"
	"time"
)

// SafeTimezone returns raw if it names a loadable IANA zone, otherwise
// "UTC". An empty or garbage timezone on an agent profile must never
// break a reminder run.
func SafeTimezone(raw string) string {
	if raw == "" {
		return "UTC"
	}
	if _, err := time.LoadLocation(raw); err != nil {
		return "UTC"
	}
	return raw
}

// LocalDate formats the instant as the calendar date ("YYYY-MM-DD") in
// the given zone.
func LocalDate(t time.Time, zone string) string {
	loc, err := time.LoadLocation(SafeTimezone(zone))
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// LocalHour returns the hour-of-day (0..23) of the instant in the given
// zone. Some formatters report local midnight as hour 24; normalize that
// to 0 so the digest gate never misfires.
func LocalHour(t time.Time, zone string) int {
	loc, err := time.LoadLocation(SafeTimezone(zone))
	if err != nil {
		loc = time.UTC
	}
	hour := t.In(loc).Hour()
	if hour == 24 {
		hour = 0
	}
	return hour
}

// DayBoundary returns the UTC instants bounding the given local calendar
// date in the given zone: [start, start+24h-1ms]. Parsing the date in
// the target location picks up the UTC offset actually in effect on that
// date, so days around daylight-saving transitions resolve correctly.
func DayBoundary(localDate, zone string) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(SafeTimezone(zone))
	if err != nil {
		loc = time.UTC
	}

	start, err := time.ParseInLocation("2006-01-02", localDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid local date %q: %w", localDate, err)
	}

	startUTC := start.UTC()
	endUTC := startUTC.Add(24*time.Hour - time.Millisecond)
	return startUTC, endUTC, nil
}
