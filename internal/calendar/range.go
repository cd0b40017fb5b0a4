package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the calendar zoom level.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// BoundaryLayout serializes window bounds with millisecond precision and an
// explicit UTC offset.
const BoundaryLayout = "2006-01-02T15:04:05.000Z07:00"

const lastMillisecond = int(time.Second - time.Millisecond)

// ParseGranularity validates untrusted input.
func ParseGranularity(raw string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(raw)))
	if !g.Valid() {
		return "", fmt.Errorf("unknown granularity %q", raw)
	}
	return g, nil
}

// Valid reports whether g is day, week or month.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	default:
		return false
	}
}

// Range is an inclusive window [Start, End].
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies inside the window, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the local midnight of every calendar day covered by r.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := StartOfDay(r.Start); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// StartOfDay returns 00:00:00.000 of t's date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's date in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, lastMillisecond, t.Location())
}

// MondayOffset is the number of days between t's weekday and the preceding Monday.
func MondayOffset(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 6
	}
	return int(t.Weekday()) - 1
}

// ResolveRange computes the query window around ref in ref's location. Weeks
// start on Monday. An invalid granularity is a programming error and panics.
func ResolveRange(ref time.Time, g Granularity) Range {
	y, m, d := ref.Date()
	loc := ref.Location()
	switch g {
	case GranularityDay:
		return Range{Start: StartOfDay(ref), End: EndOfDay(ref)}
	case GranularityWeek:
		monday := d - MondayOffset(ref)
		return Range{
			Start: time.Date(y, m, monday, 0, 0, 0, 0, loc),
			End:   time.Date(y, m, monday+6, 23, 59, 59, lastMillisecond, loc),
		}
	case GranularityMonth:
		return Range{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:   time.Date(y, m+1, 0, 23, 59, 59, lastMillisecond, loc),
		}
	default:
		panic(fmt.Sprintf("calendar: invalid granularity %q", g))
	}
}

// Step moves ref by n units of g. Month steps land on the first of the month
// so that e.g. January 31 + 1 month never overflows into March.
func Step(ref time.Time, g Granularity, n int) time.Time {
	switch g {
	case GranularityDay:
		return ref.AddDate(0, 0, n)
	case GranularityWeek:
		return ref.AddDate(0, 0, 7*n)
	case GranularityMonth:
		y, m, _ := ref.Date()
		return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, ref.Location())
	default:
		panic(fmt.Sprintf("calendar: invalid granularity %q", g))
	}
}

// FormatBoundary renders t for the fetch layer.
func FormatBoundary(t time.Time) string {
	return t.Format(BoundaryLayout)
}

// ParseBoundary accepts RFC 3339 timestamps (with or without fractional
// seconds) and plain dates, which are read as local midnight in loc.
func ParseBoundary(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}
