package parser

import (
	"regexp"
	"time"
)

// DateTimeLayout is the Go layout for the integer part of a GridFTP timestamp.
// The fractional seconds suffix is accepted by time.Parse without being named.
const DateTimeLayout = "20060102150405"

// dateTimePattern enforces the field widths time.Parse would otherwise be lenient about.
var dateTimePattern = regexp.MustCompile(`^[0-9]{14}\.[0-9]+$`)

// ParseDateTime parses a GridFTP timestamp such as 20170817062939.888844.
// Fractional digits beyond nanosecond precision are truncated.
func ParseDateTime(value string) (time.Time, error) {
	if !dateTimePattern.MatchString(value) {
		return time.Time{}, &FormatError{Value: value}
	}

	ts, err := time.Parse(DateTimeLayout, value)
	if err != nil {
		return time.Time{}, &FormatError{Value: value, Err: err}
	}

	return ts, nil
}

// ParseDateTimes parses each value in order.
// It stops at the first malformed value.
func ParseDateTimes(values ...string) ([]time.Time, error) {
	times := make([]time.Time, 0, len(values))
	for _, v := range values {
		ts, err := ParseDateTime(v)
		if err != nil {
			return nil, err
		}
		times = append(times, ts)
	}
	return times, nil
}

// Duration returns the absolute elapsed time between a and b in seconds.
func Duration(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d.Seconds()
}
