// ABOUTME: The single parsing boundary for dates and timestamps stored as text.
// ABOUTME: CGM device times, calendar dates, and bracket-zoned file times.
package aggregate

import (
	"strings"
	"time"
)

// Layouts accepted for CGM device timestamps. The first is the
// export format of the reader software ("%m-%d-%Y %H:%M").
var deviceLayouts = []string{
	"01-02-2006 15:04",
	"01-02-2006 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"1/2/2006 15:04",
	"01-02-2006 03:04 PM",
}

// Layouts accepted for the naive part of a zoned file timestamp.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// TimestampLayout is the canonical naive timestamp format for output.
const TimestampLayout = "2006-01-02 15:04:05"

// ParseDeviceTimestamp parses a CGM device timestamp as a naive wall-clock
// time (returned in UTC so it compares and formats without shifting).
func ParseDeviceTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, &MalformedTimestampError{Value: s, Reason: "empty"}
	}
	for _, layout := range deviceLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &MalformedTimestampError{Value: s, Reason: "unrecognized device timestamp layout"}
}

// ParseCalendarDate parses a YYYY-MM-DD date, tolerating a trailing time part
// such as "2023-05-01 00:00:00".
func ParseCalendarDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if len(v) > len(DateLayout) {
		v = v[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Value: s, Reason: "expected YYYY-MM-DD"}
	}
	return t, nil
}

// ZonedTime is a naive local timestamp together with its timezone label.
type ZonedTime struct {
	Local    time.Time `json:"local"`
	Timezone string    `json:"timezone"`
}

// ParseZonedTimestamp splits "2023-01-01T00:00:00+00:00[UTC]" into the naive
// local time before the offset and the label inside the last brackets.
func ParseZonedTimestamp(s string) (ZonedTime, error) {
	open := strings.LastIndex(s, "[")
	if open < 0 {
		return ZonedTime{}, &MalformedTimestampError{Value: s, Reason: "missing [timezone] token"}
	}
	zone := strings.TrimSuffix(s[open+1:], "]")

	prefix := s[:open]
	if plus := strings.Index(prefix, "+"); plus >= 0 {
		prefix = prefix[:plus]
	}
	prefix = strings.TrimSpace(prefix)

	local, err := parseNaive(prefix)
	if err != nil {
		return ZonedTime{}, &MalformedTimestampError{Value: s, Reason: "unparseable local time"}
	}
	return ZonedTime{Local: local, Timezone: zone}, nil
}

// parseNaive parses an ISO-8601 local time. A trailing "Z" or negative
// offset is dropped, keeping the wall clock as written.
func parseNaive(s string) (time.Time, error) {
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
	}
	return time.Time{}, &MalformedTimestampError{Value: s}
}
