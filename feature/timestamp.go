package feature

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the stored form of created_at and updated_at.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// naiveLayout matches timestamps written without an offset by older producers.
// A fractional second is accepted after the seconds field when parsing.
const naiveLayout = "2006-01-02T15:04:05"

// FormatTimestamp renders t in UTC with microsecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format(TimestampLayout)
}

// ParseTimestamp parses an RFC 3339 timestamp with any fractional precision, or a
// naive timestamp without offset which is taken to be UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(naiveLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("featurestore: invalid timestamp %q", s)
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
